package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/listsync/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// ErrIncompatibleJournal is returned by Open for a file written under a
// different journal format, or a database that is not a journal.
var ErrIncompatibleJournal = errors.New("incompatible journal")

// connPragmas configure every connection: WAL so trace and replay can read
// while the demo writes, and a busy timeout for the single writer.
var connPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is a transition journal backed by a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens the journal at path, creating it if needed.
//
// A new file is stamped with ir.FormatVersion in PRAGMA user_version. An
// existing file must carry the same stamp; otherwise Open fails with
// ErrIncompatibleJournal and leaves the file untouched.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// The journal has one writer, the engine's owner loop.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	format, err := checkFormat(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, p := range connPragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", p, err)
		}
	}
	if err := createSchema(db, format); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// formatStamp is ir.FormatVersion as stored in user_version.
func formatStamp() (int, error) {
	v, err := strconv.Atoi(ir.FormatVersion)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("journal format %q is not a positive integer", ir.FormatVersion)
	}
	return v, nil
}

// checkFormat returns the format stamp to write, failing if the file
// already carries another one.
func checkFormat(db *sql.DB) (int, error) {
	want, err := formatStamp()
	if err != nil {
		return 0, err
	}

	var have int
	if err := db.QueryRow("PRAGMA user_version").Scan(&have); err != nil {
		return 0, fmt.Errorf("read journal format: %w", err)
	}
	switch have {
	case want:
		return want, nil
	case 0:
		// Unstamped: only an empty database may become a journal.
		var tables int
		if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`).Scan(&tables); err != nil {
			return 0, fmt.Errorf("inspect database: %w", err)
		}
		if tables > 0 {
			return 0, fmt.Errorf("%w: database has %d tables and no journal format", ErrIncompatibleJournal, tables)
		}
		return want, nil
	default:
		return 0, fmt.Errorf("%w: file has format %d, this build reads format %d", ErrIncompatibleJournal, have, want)
	}
}

// createSchema creates missing tables and stamps the file in one
// transaction.
func createSchema(db *sql.DB, format int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", format)); err != nil {
		return fmt.Errorf("stamp journal format: %w", err)
	}
	return tx.Commit()
}

// IsIncompatible reports whether err means the file is not a journal this
// build can read.
func IsIncompatible(err error) bool {
	return errors.Is(err, ErrIncompatibleJournal)
}

// Close closes the database. Calling it on a closed Store is harmless.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}
