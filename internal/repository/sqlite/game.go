package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/model"
	"github.com/sakif/gamestock/internal/repository"
)

// Compile-time checks that *DB implements the inventory interfaces.
var (
	_ repository.GameRepository     = (*DB)(nil)
	_ repository.PlatformRepository = (*DB)(nil)
)

const gameColumns = `
	vg.GameID,
	vg.GameName,
	ROUND(vg.Price, 2),
	vg.Rating,
	vg.Genre,
	vg.Quantity,
	COALESCE(vg.ImageUrl, ''),
	vgp.Platform`

// ListGames returns inventory rows joined with their platform name, newest
// first, with optional exact-match filters.
//
// The result set is unbounded — the browse page shows the whole inventory and
// the shop's catalogue is small. Worth revisiting before reusing this at a
// scale where that stops being true.
func (db *DB) ListGames(ctx context.Context, filter repository.GameFilter) ([]model.Game, error) {
	query := `SELECT ` + gameColumns + `
		 FROM VideoGame vg
		 JOIN VideoGame_Platform vgp ON vg.PlatformID = vgp.PlatformID
		 WHERE 1=1`
	args := []any{}

	if filter.Platform != "" {
		query += ` AND vgp.Platform = ?`
		args = append(args, filter.Platform)
	}
	if filter.Genre != "" {
		query += ` AND vg.Genre = ?`
		args = append(args, filter.Genre)
	}
	query += ` ORDER BY vg.GameID DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games: %w", err)
	}
	defer rows.Close()

	games := []model.Game{}
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(
			&g.ID, &g.Name, &g.Price, &g.Rating, &g.Genre,
			&g.Quantity, &g.ImageURL, &g.Platform,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating games: %w", err)
	}

	return games, nil
}

// GetGameByID returns one inventory row, or not-found.
func (db *DB) GetGameByID(ctx context.Context, id int64) (*model.Game, error) {
	var g model.Game

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+gameColumns+`
		 FROM VideoGame vg
		 JOIN VideoGame_Platform vgp ON vg.PlatformID = vgp.PlatformID
		 WHERE vg.GameID = ?`,
		id,
	).Scan(
		&g.ID, &g.Name, &g.Price, &g.Rating, &g.Genre,
		&g.Quantity, &g.ImageURL, &g.Platform,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %d: %w", id, err)
	}

	return &g, nil
}

// CreateGame inserts a new inventory row.
//
// TRANSACTION SHAPE (shared with UpdateGame):
// begin → resolve platform name to PlatformID → write → commit, rollback on
// any failure after begin. An unknown platform aborts before the INSERT runs,
// so a failed add leaves the row count untouched.
func (db *DB) CreateGame(ctx context.Context, data repository.GameData) (int64, error) {
	var gameID int64

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		platformID, err := resolvePlatformID(ctx, tx, data.Platform)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO VideoGame (GameName, Price, Rating, Genre, Quantity, PlatformID, ImageUrl)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			data.Name, data.Price, data.Rating, data.Genre,
			data.Quantity, platformID, nullableString(data.ImageURL),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting game %q: %w", data.Name, err)
		}

		gameID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new game id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return gameID, nil
}

// UpdateGame replaces every mutable field of the row identified by id.
// Same platform-resolution transaction as CreateGame; a missing id is
// reported as not-found rather than silently committing a zero-row update.
func (db *DB) UpdateGame(ctx context.Context, id int64, data repository.GameData) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		platformID, err := resolvePlatformID(ctx, tx, data.Platform)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE VideoGame
			 SET GameName = ?, Price = ?, Rating = ?, Genre = ?, Quantity = ?, PlatformID = ?, ImageUrl = ?
			 WHERE GameID = ?`,
			data.Name, data.Price, data.Rating, data.Genre,
			data.Quantity, platformID, nullableString(data.ImageURL), id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating game %d: %w", id, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if affected == 0 {
			return apperror.NotFound("game", id)
		}
		return nil
	})
}

// DeleteGame removes the row by id. A single statement, so no explicit
// transaction; RowsAffected distinguishes a real delete from a miss.
func (db *DB) DeleteGame(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM VideoGame WHERE GameID = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting game %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("game", id)
	}

	return nil
}

// AdjustQuantity applies delta to the row's quantity, clamped at zero.
//
// The clamp runs inside the UPDATE itself — SQLite's two-argument MAX is its
// GREATEST — so two concurrent adjustments serialize on the row write instead
// of racing a read-then-write. The transaction exists to read the new value
// back consistently with the update that produced it.
func (db *DB) AdjustQuantity(ctx context.Context, id int64, delta int) (int, error) {
	var newQuantity int

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE VideoGame SET Quantity = MAX(0, Quantity + ?) WHERE GameID = ?`,
			delta, id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: adjusting quantity for game %d: %w", id, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if affected == 0 {
			return apperror.NotFound("game", id)
		}

		err = tx.QueryRowContext(ctx,
			`SELECT Quantity FROM VideoGame WHERE GameID = ?`, id,
		).Scan(&newQuantity)
		if err != nil {
			return fmt.Errorf("sqlite: reading new quantity for game %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return newQuantity, nil
}

// ListPlatformNames returns all platform names sorted alphabetically.
func (db *DB) ListPlatformNames(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT Platform FROM VideoGame_Platform ORDER BY Platform`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing platforms: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning platform row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating platforms: %w", err)
	}

	return names, nil
}

// resolvePlatformID translates a platform name into its PlatformID within tx.
// An unknown name is the caller's fault — reported as a validation failure so
// the whole mutation aborts with a 400, not a 500.
func resolvePlatformID(ctx context.Context, tx *sql.Tx, platform string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT PlatformID FROM VideoGame_Platform WHERE Platform = ?`, platform,
	).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperror.ValidationFailed("platform", "invalid platform selected")
		}
		return 0, fmt.Errorf("sqlite: resolving platform %q: %w", platform, err)
	}
	return id, nil
}

// nullableString maps "" to NULL for optional TEXT columns (ImageUrl).
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
