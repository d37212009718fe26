package helpers

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// GenOTPCode generates a secure random 6-digit OTP code as a zero-padded
// string. Codes are compared and stored as strings so leading zeros survive.
func GenOTPCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := binary.BigEndian.Uint32(b) % 1000000
	return fmt.Sprintf("%06d", code), nil
}
