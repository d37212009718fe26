package templates

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	"time"
)

// OTPData feeds the transactional OTP templates.
type OTPData struct {
	Name      string
	Code      string
	ExpiresIn time.Duration
}

var verifyHTML = htmpl.Must(htmpl.New("verify_otp").Parse(`
<p>Hi {{.Name}},</p>
<p>Your verification code is <strong>{{.Code}}</strong>.</p>
<p>The code expires in {{.ExpiresIn}}. If you did not create this account, you can ignore this email.</p>
`))

var resetHTML = htmpl.Must(htmpl.New("reset_otp").Parse(`
<p>Hi {{.Name}},</p>
<p>Your code to reset your password is <strong>{{.Code}}</strong>.</p>
<p>The code expires in {{.ExpiresIn}}. If you did not request this, please ignore this email.</p>
`))

// VerifyOTP renders the account-verification mail.
// Returns subject, text fallback and HTML body.
func VerifyOTP(d OTPData) (subject, text, html string) {
	return "Verify your account",
		fmt.Sprintf("Your OTP is %s", d.Code),
		render(verifyHTML, d)
}

// ResetOTP renders the password-reset mail.
func ResetOTP(d OTPData) (subject, text, html string) {
	return "Reset Password",
		fmt.Sprintf("Your OTP to reset password is %s\nIf you did not request this, please ignore this email.", d.Code),
		render(resetHTML, d)
}

func render(t *htmpl.Template, d OTPData) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return ""
	}
	return buf.String()
}
