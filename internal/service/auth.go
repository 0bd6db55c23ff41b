// Package service contains the business logic layer.
//
// THE THREE-LAYER SHAPE:
//
//	Handler (HTTP)      → parses requests, writes responses, sets cookies
//	Service (this pkg)  → validates, authorizes, orchestrates
//	Repository (data)   → SQL against the store
//
// Services accept primitives and model types, never *http.Request, and
// return apperror domain errors, never status codes. The handler layer owns
// both translations. Role checks live here as well as in the middleware:
// the middleware is the gate, the service check is what makes the rule hold
// for any future caller that isn't HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/model"
	"github.com/sakif/gamestock/internal/repository"
)

// AuthService handles login, registration, and the OAuth login path.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the authenticated identity with the issued token so the
// handler can set the cookie and write the response in one step.
type AuthResult struct {
	Identity model.Identity
	Token    string
}

// Login verifies the credentials and issues a session token.
//
// Wrong username and wrong password produce the same error message — the
// response must not reveal which half was wrong, or it becomes a username
// oracle for attackers.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "username and password are required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("service/auth: fetching user %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected",
			slog.String("username", username),
		)
		return nil, apperror.Unauthorized("invalid username or password")
	}

	return s.issueFor(user)
}

// Register creates a new staff account.
//
// The uniqueness pre-check here gives a clean error message; it is not
// protected against a concurrent registration of the same name. That race is
// benign — the UNIQUE constraint catches the loser and the repository
// translates it to the same conflict error.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return apperror.ValidationFailed("credentials", "username and password are required")
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return apperror.Conflict("username is already taken")
	}
	if !isNotFound(err) {
		return fmt.Errorf("service/auth: checking username %q: %w", username, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleStaff,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return nil
}

// LoginOrRegisterGitHub completes the OAuth callback: find-or-create the
// account for the GitHub identity, then issue the same session token a
// password login gets.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		Username: ghUser.Login,
		GitHubID: ghUser.ID,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting GitHub user %d: %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueFor(user)
}

// CurrentUser loads the full account record for an authenticated session.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: loading user %d: %w", userID, err)
	}
	return user, nil
}

func (s *AuthService) issueFor(user *model.User) (*AuthResult, error) {
	identity := user.Identity()

	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	return &AuthResult{Identity: identity, Token: token}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
