package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/handler"
	"github.com/sakif/gamestock/internal/model"
	"github.com/sakif/gamestock/internal/repository/sqlite"
	"github.com/sakif/gamestock/internal/service"
)

// env wires real services over an in-memory database, so handler tests cover
// the whole request path below the router.
type env struct {
	db        *sqlite.DB
	passwords *auth.PasswordService
	auth      *handler.AuthHandler
	inventory *handler.InventoryHandler
	profile   *handler.ProfileHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	authSvc := service.NewAuthService(db, tokens, passwords, logger)
	invSvc := service.NewInventoryService(db, db, logger)
	profSvc := service.NewProfileService(db, passwords, logger)

	return &env{
		db:        db,
		passwords: passwords,
		auth:      handler.NewAuthHandler(authSvc, nil, false, logger),
		inventory: handler.NewInventoryHandler(invSvc, logger),
		profile:   handler.NewProfileHandler(profSvc, logger),
	}
}

// createUser inserts an account directly, bypassing the registration
// endpoint, so tests can mint admins.
func (e *env) createUser(t *testing.T, username, password string, role model.Role) *model.User {
	t.Helper()
	hash, err := e.passwords.Hash(password)
	require.NoError(t, err)
	u := &model.User{Username: username, PasswordHash: hash, Role: role}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

// asUser attaches an authenticated identity to the request, standing in for
// the RequireAuth middleware.
func asUser(r *http.Request, u *model.User) *http.Request {
	return r.WithContext(auth.ContextWithIdentity(r.Context(), u.Identity()))
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
