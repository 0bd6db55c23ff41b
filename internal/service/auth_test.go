package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/model"
)

// mockUserRepo is an in-memory repository.UserRepository. Hand-written
// rather than generated: the interface is small and a map makes the test
// state obvious.
type mockUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// forcedErr, when set, is returned by every method — simulates the
	// database being down.
	forcedErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if m.forcedErr != nil {
		return m.forcedErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("username is already taken")
		}
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (m *mockUserRepo) UpsertGitHubUser(_ context.Context, user *model.User) error {
	if m.forcedErr != nil {
		return m.forcedErr
	}
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID {
			*user = *u
			return nil
		}
	}
	user.Role = model.RoleStaff
	user.PasswordHash = ""
	return m.CreateUser(context.Background(), user)
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, userID int64, username, passwordHash *string) error {
	if m.forcedErr != nil {
		return m.forcedErr
	}
	u, ok := m.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	if username != nil {
		for id, other := range m.users {
			if id != userID && other.Username == *username {
				return apperror.Conflict("username is already taken")
			}
		}
	}
	// All-or-nothing: apply only after every check passed.
	if username != nil {
		u.Username = *username
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAuthService(t *testing.T, users *mockUserRepo) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(users, tokens, auth.NewPasswordServiceForTest(4), testLogger())
}

func registerTestUser(t *testing.T, s *AuthService, username, password string) {
	t.Helper()
	if err := s.Register(context.Background(), username, password); err != nil {
		t.Fatalf("Register(%q) error = %v", username, err)
	}
}

func TestRegisterThenLogin_RoundTrip(t *testing.T) {
	users := newMockUserRepo()
	s := newTestAuthService(t, users)

	registerTestUser(t, s, "alice", "pw1")

	res, err := s.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if res.Identity.Username != "alice" {
		t.Errorf("Identity.Username = %q, want %q", res.Identity.Username, "alice")
	}
	if res.Identity.Role != model.RoleStaff {
		t.Errorf("Identity.Role = %v, new accounts must be staff", res.Identity.Role)
	}
	if res.Token == "" {
		t.Error("Login() returned empty token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	users := newMockUserRepo()
	s := newTestAuthService(t, users)
	registerTestUser(t, s, "alice", "pw1")

	_, err := s.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() with wrong password error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	s := newTestAuthService(t, newMockUserRepo())

	_, err := s.Login(context.Background(), "nobody", "pw")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() for unknown user error = %v, want ErrUnauthorized", err)
	}
}

// Unknown user and wrong password must be indistinguishable to the caller.
func TestLogin_ErrorsDoNotLeakWhichHalfWasWrong(t *testing.T) {
	users := newMockUserRepo()
	s := newTestAuthService(t, users)
	registerTestUser(t, s, "alice", "pw1")

	_, errUser := s.Login(context.Background(), "nobody", "pw1")
	_, errPass := s.Login(context.Background(), "alice", "wrong")

	var appErrUser, appErrPass *apperror.AppError
	if !errors.As(errUser, &appErrUser) || !errors.As(errPass, &appErrPass) {
		t.Fatal("both failures should be AppErrors")
	}
	if appErrUser.Message != appErrPass.Message {
		t.Errorf("messages differ: %q vs %q — a username oracle", appErrUser.Message, appErrPass.Message)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	s := newTestAuthService(t, newMockUserRepo())

	for _, tc := range []struct{ username, password string }{
		{"", "pw"}, {"alice", ""}, {"", ""},
	} {
		_, err := s.Login(context.Background(), tc.username, tc.password)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Login(%q, %q) error = %v, want ErrValidation", tc.username, tc.password, err)
		}
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	users := newMockUserRepo()
	s := newTestAuthService(t, users)
	registerTestUser(t, s, "alice", "pw1")

	err := s.Register(context.Background(), "alice", "pw2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Register() with taken username error = %v, want ErrConflict", err)
	}
}

func TestRegister_StoresHashNotPlaintext(t *testing.T) {
	users := newMockUserRepo()
	s := newTestAuthService(t, users)
	registerTestUser(t, s, "alice", "pw1")

	stored, err := users.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if stored.PasswordHash == "pw1" || stored.PasswordHash == "" {
		t.Errorf("stored password = %q, want a bcrypt hash", stored.PasswordHash)
	}
}

func TestLogin_OAuthAccountHasNoPasswordLogin(t *testing.T) {
	users := newMockUserRepo()
	s := newTestAuthService(t, users)

	_, err := s.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1234, Login: "octocat"})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	_, err = s.Login(context.Background(), "octocat", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty password error = %v, want ErrValidation", err)
	}
	_, err = s.Login(context.Background(), "octocat", "guess")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("password login against OAuth account error = %v, want ErrUnauthorized", err)
	}
}

func TestLoginOrRegisterGitHub_SecondLoginSameAccount(t *testing.T) {
	users := newMockUserRepo()
	s := newTestAuthService(t, users)
	gh := &auth.GitHubUser{ID: 1234, Login: "octocat"}

	first, err := s.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("first LoginOrRegisterGitHub() error = %v", err)
	}
	second, err := s.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("second LoginOrRegisterGitHub() error = %v", err)
	}

	if first.Identity.ID != second.Identity.ID {
		t.Errorf("two logins produced different accounts: %d vs %d", first.Identity.ID, second.Identity.ID)
	}
}

func TestLogin_RepositoryFailure(t *testing.T) {
	users := newMockUserRepo()
	users.forcedErr = fmt.Errorf("database is down")
	s := newTestAuthService(t, users)

	_, err := s.Login(context.Background(), "alice", "pw1")
	if err == nil {
		t.Fatal("Login() should surface repository failures")
	}
	// An infrastructure failure must not masquerade as bad credentials.
	if errors.Is(err, apperror.ErrUnauthorized) {
		t.Error("repository failure should not map to ErrUnauthorized")
	}
}
