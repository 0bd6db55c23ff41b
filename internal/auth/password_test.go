package auth

import (
	"strings"
	"testing"
)

// Cost 4 is bcrypt's minimum — fast enough to hash in tests without changing
// the logic under test.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestHashAndVerify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" {
		t.Fatal("Hash() returned empty string")
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
	if err := ps.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() should fail with the wrong password")
	}
}

func TestHash_SamePasswordDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	h1, _ := ps.Hash("pw1")
	h2, _ := ps.Hash("pw1")

	// bcrypt salts every hash, so two users with the same password must not
	// produce identical rows.
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

func TestHash_TooLong(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash() should reject passwords over 72 bytes")
	}
}

func TestVerify_EmptyStoredHash(t *testing.T) {
	ps := newTestPasswordService()

	// OAuth-created accounts have no password hash; password login for them
	// must always fail, including with an empty input.
	if err := ps.Verify("", ""); err == nil {
		t.Error("Verify() should fail against an empty stored hash")
	}
	if err := ps.Verify("", "anything"); err == nil {
		t.Error("Verify() should fail against an empty stored hash")
	}
}
