// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/gamestock/internal/model"
)

// GameFilter narrows ListGames. Zero-value fields mean "no filter"; set
// fields are exact (equality) matches, per the inventory browse UI.
type GameFilter struct {
	Platform string
	Genre    string
}

// GameData is the mutable field set of an inventory row, as submitted by the
// admin form. Platform travels by name and is resolved to a PlatformID inside
// the mutation's transaction.
type GameData struct {
	Name     string
	Price    float64
	Rating   int
	Genre    string
	Quantity int
	Platform string
	ImageURL string
}

// UserRepository is the credential store over UserTable.
type UserRepository interface {
	// CreateUser inserts a new account and fills in the generated ID.
	// Returns a conflict error if the username is taken.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByID returns the account with the given id, or not-found.
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	// GetUserByUsername returns the account with the given username, or
	// not-found. Used by login.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHubUser finds-or-creates the account for a GitHub identity,
	// keyed by GitHubID, and fills in the record either way.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	// UpdateProfile applies the supplied changes to one account in a single
	// transaction. Nil fields are left unchanged. An already-taken username
	// returns a conflict error and discards the whole call, including a
	// password change submitted alongside it.
	UpdateProfile(ctx context.Context, userID int64, username, passwordHash *string) error
}

// GameRepository is the inventory store over VideoGame.
//
// CreateGame and UpdateGame resolve the platform name inside their own
// transaction so that an unresolvable platform leaves no partial row behind.
type GameRepository interface {
	ListGames(ctx context.Context, filter GameFilter) ([]model.Game, error)
	GetGameByID(ctx context.Context, id int64) (*model.Game, error)
	CreateGame(ctx context.Context, data GameData) (int64, error)
	UpdateGame(ctx context.Context, id int64, data GameData) error
	DeleteGame(ctx context.Context, id int64) error
	// AdjustQuantity applies delta to the row's quantity, clamped at zero,
	// atomically. Returns the new quantity, or not-found.
	AdjustQuantity(ctx context.Context, id int64, delta int) (int, error)
}

// PlatformRepository reads the VideoGame_Platform reference table.
type PlatformRepository interface {
	// ListPlatformNames returns all platform names sorted alphabetically.
	ListPlatformNames(ctx context.Context) ([]string, error)
}
