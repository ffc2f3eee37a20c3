package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// recoveryAlphabet avoids lowercase and ambiguous characters so codes
// survive being read aloud or written down.
const recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewRecoveryCode generates a crypto-random recovery code of the given length.
func NewRecoveryCode(length int) (string, error) {
	if length < 8 || length > 64 {
		return "", errors.New("invalid recovery code length")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(recoveryAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(recoveryAlphabet[n.Int64()])
	}

	return b.String(), nil
}

// NewMailSecret generates the opaque secret embedded in verification and
// password-reset mails. Delivery is the caller's concern; the secret
// lives on the user document.
func NewMailSecret() (string, error) {
	return NewRecoveryCode(20)
}
