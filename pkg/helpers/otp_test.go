package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenOTPCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenOTPCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "non digit in %q", code)
		}
		seen[code] = true
	}
	// 200 draws from a million codes should not collapse to a handful.
	require.Greater(t, len(seen), 150)
}
