// Package token draws random codes from crypto/rand.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// InviteAlphabet is the symbol set for invite codes.
const InviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NumericOTP returns a 6-digit code in [100000, 999999].
// The floor keeps the historical range; codes never start with 0.
func NumericOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", 100000+n.Int64()), nil
}

// FromAlphabet returns length symbols drawn independently and uniformly from alphabet.
func FromAlphabet(length int, alphabet string) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
