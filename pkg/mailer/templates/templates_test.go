package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyOTP(t *testing.T) {
	subject, text, html := VerifyOTP(OTPData{Name: "Hasan", Code: "042133", ExpiresIn: 5 * time.Minute})

	require.Equal(t, "Verify your account", subject)
	require.Contains(t, text, "042133")
	require.Contains(t, html, "042133")
	require.Contains(t, html, "Hasan")
	require.Contains(t, html, "5m0s")
}

func TestResetOTP(t *testing.T) {
	subject, text, html := ResetOTP(OTPData{Name: "Hasan", Code: "901234", ExpiresIn: 10 * time.Minute})

	require.Equal(t, "Reset Password", subject)
	require.Contains(t, text, "901234")
	require.Contains(t, html, "901234")
}

func TestHTMLEscaping(t *testing.T) {
	_, _, html := VerifyOTP(OTPData{Name: "<script>x</script>", Code: "123456", ExpiresIn: time.Minute})
	require.NotContains(t, html, "<script>")
}
