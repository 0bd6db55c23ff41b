package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/model"
	"github.com/sakif/gamestock/internal/repository"
)

// ProfileService updates a user's own username and password.
//
// The ownership rule is absolute: identity.ID must equal the target user id.
// Role does not enter into it — an admin has no more access to other
// profiles than staff does. Role itself is immutable through this service
// (and through the whole public API).
type ProfileService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Update applies the supplied field changes to targetUserID's account.
//
// nil fields are left alone; supplying neither is a validation error. Both
// writes happen in one repository transaction: a taken username aborts the
// whole call, discarding a password change submitted with it.
func (s *ProfileService) Update(ctx context.Context, ident model.Identity, targetUserID int64, username, password *string) error {
	if !auth.CanModifyProfile(ident, targetUserID) {
		return apperror.Forbidden("you may only update your own profile")
	}

	if username != nil {
		trimmed := strings.TrimSpace(*username)
		if trimmed == "" {
			return apperror.ValidationFailed("username", "username must not be empty")
		}
		username = &trimmed
	}

	var passwordHash *string
	if password != nil {
		if *password == "" {
			return apperror.ValidationFailed("password", "password must not be empty")
		}
		hash, err := s.passwords.Hash(*password)
		if err != nil {
			return apperror.ValidationFailed("password", err.Error())
		}
		passwordHash = &hash
	}

	if username == nil && passwordHash == nil {
		return apperror.ValidationFailed("profile", "nothing to update")
	}

	if err := s.users.UpdateProfile(ctx, targetUserID, username, passwordHash); err != nil {
		return fmt.Errorf("updating profile for user %d: %w", targetUserID, err)
	}

	s.logger.Info("profile updated",
		slog.Int64("userID", targetUserID),
		slog.Bool("usernameChanged", username != nil),
		slog.Bool("passwordChanged", passwordHash != nil),
	)

	return nil
}
