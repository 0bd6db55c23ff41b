package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/model"
)

func newTestProfileService(users *mockUserRepo) *ProfileService {
	return NewProfileService(users, auth.NewPasswordServiceForTest(4), testLogger())
}

func seedProfileUser(t *testing.T, users *mockUserRepo, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "old-hash", Role: model.RoleStaff}
	if err := users.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%q) error = %v", username, err)
	}
	return u
}

func identOf(u *model.User) model.Identity {
	return model.Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

func TestProfileUpdate_Username(t *testing.T) {
	users := newMockUserRepo()
	s := newTestProfileService(users)
	u := seedProfileUser(t, users, "alice")

	name := "alice2"
	if err := s.Update(context.Background(), identOf(u), u.ID, &name, nil); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if users.users[u.ID].Username != "alice2" {
		t.Errorf("username = %q, want %q", users.users[u.ID].Username, "alice2")
	}
}

func TestProfileUpdate_PasswordIsHashed(t *testing.T) {
	users := newMockUserRepo()
	s := newTestProfileService(users)
	u := seedProfileUser(t, users, "alice")

	pw := "new-password"
	if err := s.Update(context.Background(), identOf(u), u.ID, nil, &pw); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored := users.users[u.ID].PasswordHash
	if stored == "old-hash" {
		t.Error("password hash unchanged")
	}
	if stored == pw {
		t.Error("password stored as plaintext")
	}
	if err := auth.NewPasswordServiceForTest(4).Verify(stored, pw); err != nil {
		t.Errorf("new hash does not verify: %v", err)
	}
}

func TestProfileUpdate_OnlyOwnAccount(t *testing.T) {
	users := newMockUserRepo()
	s := newTestProfileService(users)
	alice := seedProfileUser(t, users, "alice")
	bob := seedProfileUser(t, users, "bob")

	name := "hijacked"
	err := s.Update(context.Background(), identOf(alice), bob.ID, &name, nil)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("cross-account Update() error = %v, want ErrForbidden", err)
	}
	if users.users[bob.ID].Username != "bob" {
		t.Error("forbidden update must not change the target account")
	}
}

// Admins manage inventory, not other people's accounts.
func TestProfileUpdate_AdminGetsNoBypass(t *testing.T) {
	users := newMockUserRepo()
	s := newTestProfileService(users)
	admin := seedProfileUser(t, users, "root")
	users.users[admin.ID].Role = model.RoleAdmin
	victim := seedProfileUser(t, users, "bob")

	name := "hijacked"
	err := s.Update(context.Background(), model.Identity{ID: admin.ID, Username: "root", Role: model.RoleAdmin}, victim.ID, &name, nil)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("admin cross-account Update() error = %v, want ErrForbidden", err)
	}
}

func TestProfileUpdate_NothingToUpdate(t *testing.T) {
	users := newMockUserRepo()
	s := newTestProfileService(users)
	u := seedProfileUser(t, users, "alice")

	err := s.Update(context.Background(), identOf(u), u.ID, nil, nil)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty Update() error = %v, want ErrValidation", err)
	}
}

func TestProfileUpdate_BlankFieldsRejected(t *testing.T) {
	users := newMockUserRepo()
	s := newTestProfileService(users)
	u := seedProfileUser(t, users, "alice")

	for _, tc := range []struct {
		name               string
		username, password *string
	}{
		{"blank username", strPtrSvc("   "), nil},
		{"blank password", nil, strPtrSvc("")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Update(context.Background(), identOf(u), u.ID, tc.username, tc.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Update() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestProfileUpdate_TakenUsername(t *testing.T) {
	users := newMockUserRepo()
	s := newTestProfileService(users)
	alice := seedProfileUser(t, users, "alice")
	seedProfileUser(t, users, "bob")

	name := "bob"
	pw := "also-new"
	err := s.Update(context.Background(), identOf(alice), alice.ID, &name, &pw)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Update() to taken username error = %v, want ErrConflict", err)
	}
	// The password submitted alongside the rejected rename must not stick.
	if users.users[alice.ID].PasswordHash != "old-hash" {
		t.Error("conflicting update changed the password anyway")
	}
}

func strPtrSvc(s string) *string { return &s }
