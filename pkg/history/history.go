package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	deck_id INTEGER,
	deck_name TEXT NOT NULL,
	input_path TEXT,
	tokens INTEGER NOT NULL DEFAULT 0,
	unique_words INTEGER NOT NULL DEFAULT 0,
	target_words INTEGER NOT NULL DEFAULT 0,
	sentences_set INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	dry_run INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)
`

// Run is one recorded deck-building run. Only summary counts are stored;
// parse results never are.
type Run struct {
	ID           int64
	DeckID       int64
	DeckName     string
	InputPath    string
	Tokens       int
	UniqueWords  int
	TargetWords  int
	SentencesSet int
	Errors       int
	DryRun       bool
	CreatedAt    time.Time
}

// Store records run summaries in a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating the schema if needed.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; one connection also keeps :memory:
	// databases coherent across queries.
	conn.SetMaxOpenConns(1)
	s := &Store{db: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init history schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts a run and returns its id. CreatedAt is set to now when zero.
func (s *Store) Record(r Run) (int64, error) {
	if strings.TrimSpace(r.DeckName) == "" {
		return 0, fmt.Errorf("deck name must be non-empty")
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.Exec(`INSERT INTO runs
		(deck_id, deck_name, input_path, tokens, unique_words, target_words, sentences_set, errors, dry_run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.DeckID, r.DeckName, r.InputPath, r.Tokens, r.UniqueWords, r.TargetWords,
		r.SentencesSet, r.Errors, boolToInt(r.DryRun), createdAt)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, deck_id, deck_name, IFNULL(input_path, ''),
		tokens, unique_words, target_words, sentences_set, errors, dry_run, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var dryRun int
		if err := rows.Scan(&r.ID, &r.DeckID, &r.DeckName, &r.InputPath,
			&r.Tokens, &r.UniqueWords, &r.TargetWords, &r.SentencesSet,
			&r.Errors, &dryRun, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.DryRun = dryRun != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
