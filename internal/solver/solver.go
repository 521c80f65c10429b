// Package solver looks up the plaintext phrase behind a tripcode
// ciphertext. The lookup table is produced by an offline cracking tool
// outside this package's scope; solver only ever reads it.
package solver

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Solver is an abstract key/phrase lookup keyed by ciphertext.
type Solver interface {
	// Solve returns the phrase for cipher and ok=true if found.
	Solve(cipher string) (phrase string, ok bool, err error)
	Close() error
}

// SQLSolver is backed by a SQLite database with a table
// tripcodes(cipher TEXT PRIMARY KEY, phrase TEXT NOT NULL), opened
// read-only since generation happens entirely out of process.
type SQLSolver struct {
	db *sql.DB
}

// Open opens path as a read-only SQLite tripcode database.
func Open(path string) (*SQLSolver, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("solver: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("solver: ping %s: %w", path, err)
	}
	return &SQLSolver{db: db}, nil
}

// Solve looks up cipher's phrase.
func (s *SQLSolver) Solve(cipher string) (string, bool, error) {
	var phrase string
	err := s.db.QueryRow(`SELECT phrase FROM tripcodes WHERE cipher = ?`, cipher).Scan(&phrase)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("solver: query %q: %w", cipher, err)
	}
	return phrase, true, nil
}

// Close releases the underlying database connection.
func (s *SQLSolver) Close() error {
	return s.db.Close()
}
