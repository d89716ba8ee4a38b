// Package admin guards the settings panel: a shared PIN unlocks a short-lived
// admin token that the export endpoints require.
package admin

import (
	"fmt"

	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// PINLength is the exact number of digits a PIN has.
const PINLength = 10

// PINGate checks the settings PIN. Only its bcrypt hash is kept in memory.
type PINGate struct {
	hash []byte
}

// NewPINGate hashes pin. The pin must be exactly PINLength digits.
func NewPINGate(pin string) (*PINGate, error) {
	if !wellFormed(pin) {
		return nil, fmt.Errorf("admin pin must be exactly %d digits", PINLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin pin: %w", err)
	}
	return &PINGate{hash: hash}, nil
}

// Check verifies pin. A malformed pin is a validation error; a wrong one is
// InvalidPIN.
func (g *PINGate) Check(pin string) error {
	if !wellFormed(pin) {
		return errors.Validation(map[string]string{
			"pin": fmt.Sprintf("must be exactly %d digits", PINLength),
		})
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(pin)); err != nil {
		return errors.InvalidPIN()
	}
	return nil
}

func wellFormed(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
