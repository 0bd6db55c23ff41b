package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/model"
	"github.com/sakif/gamestock/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new account and fills in the generated UserID.
//
// Registration pre-checks the username at the service layer, but two
// concurrent registrations of the same name can both pass that check; the
// UNIQUE constraint on UserName is the real arbiter, and its violation is
// translated to the same conflict error the pre-check produces.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	var githubID any
	if user.GitHubID != 0 {
		githubID = user.GitHubID
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO UserTable (UserName, Password, UserType, GitHubID, CreatedAt, UpdatedAt)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		int(user.Role),
		githubID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username is already taken")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByID returns the account with the given id, or not-found.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx, `WHERE UserID = ?`, id)
}

// GetUserByUsername returns the account with the given username, or
// not-found. Login fetches the row this way and verifies the bcrypt hash in
// the service layer — the password never appears in a WHERE clause.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `WHERE UserName = ?`, username)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u        model.User
		role     int
		githubID sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT UserID, UserName, Password, UserType, GitHubID, CreatedAt, UpdatedAt
		 FROM UserTable `+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &githubID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	u.Role = model.Role(role)
	if githubID.Valid {
		u.GitHubID = githubID.Int64
	}

	return &u, nil
}

// UpsertGitHubUser finds-or-creates the account for a GitHub identity.
//
// Keyed by GitHubID: the first OAuth login inserts a staff account with an
// empty password hash; later logins reuse the existing row (the local
// username is NOT overwritten from GitHub — the user may have renamed
// themselves here). A GitHub login whose username collides with an existing
// local account gets a disambiguated name rather than an error.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	existing := db.conn.QueryRowContext(ctx,
		`SELECT UserID, UserName, UserType FROM UserTable WHERE GitHubID = ?`, user.GitHubID)

	var role int
	err := existing.Scan(&user.ID, &user.Username, &role)
	if err == nil {
		user.Role = model.Role(role)
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github id %d: %w", user.GitHubID, err)
	}

	user.Role = model.RoleStaff
	user.PasswordHash = ""

	if err := db.CreateUser(ctx, user); err == nil {
		return nil
	} else if !isConflict(err) {
		return err
	}

	// Username taken by a password account; suffix with the GitHub id.
	user.Username = fmt.Sprintf("%s-gh%d", user.Username, user.GitHubID)
	return db.CreateUser(ctx, user)
}

func isConflict(err error) bool {
	return errors.Is(err, apperror.ErrConflict)
}

// UpdateProfile applies the supplied username and/or password hash to one
// account, all inside a single transaction.
//
// The uniqueness check excludes the target's own row, so "renaming" to your
// current username is allowed. If the check fails, the whole transaction
// rolls back — a password change submitted in the same call is discarded too,
// which is exactly the all-or-nothing contract the profile endpoint promises.
func (db *DB) UpdateProfile(ctx context.Context, userID int64, username, passwordHash *string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if username != nil {
			var takenBy int64
			err := tx.QueryRowContext(ctx,
				`SELECT UserID FROM UserTable WHERE UserName = ? AND UserID != ?`,
				*username, userID,
			).Scan(&takenBy)
			if err == nil {
				return apperror.Conflict("username is already taken")
			}
			if err != sql.ErrNoRows {
				return fmt.Errorf("sqlite: checking username %q: %w", *username, err)
			}

			if err := db.updateUserColumn(ctx, tx, userID, "UserName", *username); err != nil {
				return err
			}
		}

		if passwordHash != nil {
			if err := db.updateUserColumn(ctx, tx, userID, "Password", *passwordHash); err != nil {
				return err
			}
		}

		return nil
	})
}

// updateUserColumn updates one column of one user row within tx and bumps
// UpdatedAt. Column names are compile-time constants at the call sites, never
// user input.
func (db *DB) updateUserColumn(ctx context.Context, tx *sql.Tx, userID int64, column, value string) error {
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE UserTable SET %s = ?, UpdatedAt = ? WHERE UserID = ?`, column),
		value, time.Now(), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username is already taken")
		}
		return fmt.Errorf("sqlite: updating user %d: %w", userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", userID)
	}

	return nil
}
