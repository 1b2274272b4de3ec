package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/statebot/go-statebot/internal/bot"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS transitions (
	id           TEXT PRIMARY KEY,
	from_state   TEXT,
	to_state     TEXT NOT NULL,
	facts_json   TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS determinations (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	trigger_type TEXT NOT NULL,
	state        TEXT,
	confidence   REAL NOT NULL,
	cache_hit    INTEGER NOT NULL,
	error        TEXT,
	duration_ms  INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);
`

// #endregion schema

// #region journal-struct

// Journal persists transition history and determination audits in SQLite.
// It implements bot.Recorder.
type Journal struct {
	db *sql.DB
}

// #endregion journal-struct

// #region constructor

// New opens a SQLite database and runs migrations.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// DB returns the underlying *sql.DB for use by other tools (e.g. inspect).
func (j *Journal) DB() *sql.DB {
	return j.db
}

// #endregion constructor

// #region record-transition

// RecordTransition appends one transition row.
func (j *Journal) RecordTransition(t bot.Transition) error {
	factsJSON, err := json.Marshal(t.Facts)
	if err != nil {
		return fmt.Errorf("marshal facts: %w", err)
	}
	_, err = j.db.Exec(
		`INSERT INTO transitions (id, from_state, to_state, facts_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, nullIfEmpty(t.From), t.To, string(factsJSON), t.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// #endregion record-transition

// #region record-determination

// RecordDetermination appends one determination audit row.
func (j *Journal) RecordDetermination(a bot.DeterminationAudit) error {
	cacheHit := 0
	if a.CacheHit {
		cacheHit = 1
	}
	createdAt := a.At
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := j.db.Exec(
		`INSERT INTO determinations (trigger_type, state, confidence, cache_hit, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(a.Trigger), nullIfEmpty(a.State), a.Confidence, cacheHit,
		nullIfEmpty(a.Error), a.Duration.Milliseconds(), createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert determination: %w", err)
	}
	return nil
}

// #endregion record-determination

// #region list-transitions

// ListTransitions returns the most recent transitions, newest first.
func (j *Journal) ListTransitions(limit int) ([]bot.Transition, error) {
	rows, err := j.db.Query(
		`SELECT id, from_state, to_state, facts_json, created_at
		 FROM transitions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []bot.Transition
	for rows.Next() {
		var t bot.Transition
		var from sql.NullString
		var factsJSON, createdStr string
		if err := rows.Scan(&t.ID, &from, &t.To, &factsJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if from.Valid {
			t.From = from.String
		}
		if err := json.Unmarshal([]byte(factsJSON), &t.Facts); err != nil {
			return nil, fmt.Errorf("unmarshal facts: %w", err)
		}
		t.At, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, t)
	}
	return out, rows.Err()
}

// #endregion list-transitions

// #region list-determinations

// DeterminationRow is one determination audit row read back from the journal.
type DeterminationRow struct {
	Trigger    string
	State      string
	Confidence float64
	CacheHit   bool
	Error      string
	DurationMS int64
	CreatedAt  time.Time
}

// ListDeterminations returns the most recent determination audits, newest
// first.
func (j *Journal) ListDeterminations(limit int) ([]DeterminationRow, error) {
	rows, err := j.db.Query(
		`SELECT trigger_type, state, confidence, cache_hit, error, duration_ms, created_at
		 FROM determinations ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list determinations: %w", err)
	}
	defer rows.Close()

	var out []DeterminationRow
	for rows.Next() {
		var r DeterminationRow
		var state, errStr sql.NullString
		var cacheHit int
		var createdStr string
		if err := rows.Scan(&r.Trigger, &state, &r.Confidence, &cacheHit, &errStr, &r.DurationMS, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if state.Valid {
			r.State = state.String
		}
		if errStr.Valid {
			r.Error = errStr.String
		}
		r.CacheHit = cacheHit != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion list-determinations

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
