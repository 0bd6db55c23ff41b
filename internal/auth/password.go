package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server — negligible for a login, brutal for an attacker brute
// forcing a dump of hashes. bcrypt generates and embeds a random salt per
// hash, so no separate salt column exists in UserTable.
const defaultCost = 12

// PasswordService hashes and verifies passwords with bcrypt.
//
// It's a struct rather than free functions so the cost can be lowered in
// tests — cost 4 makes a hash take microseconds instead of a quarter second.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with the given (low)
// bcrypt cost. Test helper only — cost 4 is far too weak for real use.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash bcrypt-hashes plaintext. The output embeds salt and cost and goes in
// the Password column as-is. Inputs over 72 bytes are rejected because bcrypt
// silently truncates beyond that.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks plaintext against a stored hash. nil means match.
// bcrypt compares in constant time, so this is safe against timing attacks.
// An empty stored hash (OAuth-created account) never matches anything.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" {
		return fmt.Errorf("auth: password login disabled for this account")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
