// Package sqlite implements the repository interfaces over a SQLite file.
//
// WHY modernc.org/sqlite?
// It is a pure-Go translation of SQLite — no CGo, no C toolchain, painless
// cross-compilation. The blank import below registers it with database/sql
// under the driver name "sqlite".
//
// sql.DB is a connection pool, not a single connection. Every multi-step
// mutation in this package takes its own short-lived transaction from the
// pool (withTx), and the transaction is released on every exit path,
// including panics. Single-statement reads and the unconditional delete run
// on the pool directly.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps the connection pool and implements repository.UserRepository,
// GameRepository, and PlatformRepository. Constructed once in server.New and
// injected everywhere — no package-level database state.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for a throwaway in-memory database in tests.
func New(dbPath string) (*DB, error) {
	// Pragmas go in the DSN so they apply to every pooled connection, not
	// just whichever one an Exec happens to run on. WAL lets readers proceed
	// while a write is in progress; foreign_keys enforces the
	// VideoGame.PlatformID → VideoGame_Platform reference.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Surface a bad path or permissions problem now, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if dbPath == ":memory:" {
		// Every connection to :memory: is a distinct database. The pool must
		// stay at one connection or the schema vanishes between queries.
		conn.SetMaxOpenConns(1)
	} else {
		// Bound the pool. SQLite is a single file; ten concurrent connections
		// is plenty and keeps a request burst from opening hundreds of handles.
		conn.SetMaxOpenConns(10)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent,
// so it is safe to run on every start.
//
// The table and column names mirror the upstream schema this service fronts:
// UserTable, VideoGame, VideoGame_Platform.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS UserTable (
			UserID    INTEGER PRIMARY KEY AUTOINCREMENT,
			UserName  TEXT NOT NULL UNIQUE,
			Password  TEXT NOT NULL DEFAULT '',
			UserType  INTEGER NOT NULL DEFAULT 0,
			GitHubID  INTEGER UNIQUE,
			CreatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UpdatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating UserTable: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS VideoGame_Platform (
			PlatformID INTEGER PRIMARY KEY AUTOINCREMENT,
			Platform   TEXT NOT NULL UNIQUE
		);
	`)
	if err != nil {
		return fmt.Errorf("creating VideoGame_Platform: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS VideoGame (
			GameID     INTEGER PRIMARY KEY AUTOINCREMENT,
			GameName   TEXT NOT NULL,
			Price      REAL NOT NULL DEFAULT 0,
			Rating     INTEGER NOT NULL DEFAULT 0,
			Genre      TEXT NOT NULL DEFAULT '',
			Quantity   INTEGER NOT NULL DEFAULT 0,
			PlatformID INTEGER NOT NULL REFERENCES VideoGame_Platform(PlatformID),
			ImageUrl   TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_videogame_platform ON VideoGame(PlatformID);
		CREATE INDEX IF NOT EXISTS idx_videogame_genre ON VideoGame(Genre);
	`)
	if err != nil {
		return fmt.Errorf("creating VideoGame: %w", err)
	}

	return db.seedPlatforms()
}

// seedPlatforms inserts the reference platforms so a fresh database is
// immediately usable. The table is administrative data the application never
// mutates; INSERT OR IGNORE makes re-running a no-op.
func (db *DB) seedPlatforms() error {
	platforms := []string{"PC", "PS5", "Xbox Series X", "Nintendo Switch"}
	for _, p := range platforms {
		if _, err := db.conn.Exec(
			`INSERT OR IGNORE INTO VideoGame_Platform (Platform) VALUES (?)`, p,
		); err != nil {
			return fmt.Errorf("seeding platform %q: %w", p, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction: commit on success, rollback on error
// or panic (panics are rethrown). Every mutation that spans more than one
// statement goes through here so no exit path can leak an open transaction.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("sqlite: committing transaction: %w", cErr)
		}
	}()

	err = fn(tx)
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The driver doesn't export a typed error for this, so we match the SQLite
// message text ("UNIQUE constraint failed: UserTable.UserName").
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
