// Package errlog records matching-engine error strings that the
// classifier could not map, so the dictionary can grow from real
// traffic instead of guesses.
package errlog

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/kuestmarket/kuest-go/pkg/logger"
)

// Log persists unclassified errors to SQLite. It implements
// errclass.Sink.
type Log struct {
	db *sql.DB
}

func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create error log directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open error log")
	}
	// single connection keeps SQLite writes serialized
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	l := &Log{db: db}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS unclassified_errors (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			raw        TEXT NOT NULL,
			seen_count INTEGER NOT NULL DEFAULT 1,
			first_seen INTEGER NOT NULL,
			last_seen  INTEGER NOT NULL,
			UNIQUE(raw)
		)`)
	return errors.Wrap(err, "migrate error log")
}

func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RecordUnclassified upserts the raw string, bumping its seen count.
// Failures are logged and swallowed: recording must never break the
// submission path.
func (l *Log) RecordUnclassified(raw string) {
	now := time.Now().Unix()
	_, err := l.db.Exec(`
		INSERT INTO unclassified_errors (raw, first_seen, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT(raw) DO UPDATE SET
			seen_count = seen_count + 1,
			last_seen  = excluded.last_seen`,
		raw, now, now)
	if err != nil {
		logger.Warnf("errlog: record failed: %v", err)
		return
	}
	logger.Infof("errlog: unclassified engine error: %q", raw)
}

// Entry is one recorded unclassified error.
type Entry struct {
	Raw       string
	SeenCount int
	FirstSeen time.Time
	LastSeen  time.Time
}

// Recent returns the most recently seen entries, newest first.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(`
		SELECT raw, seen_count, first_seen, last_seen
		FROM unclassified_errors
		ORDER BY last_seen DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query error log")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var first, last int64
		if err := rows.Scan(&e.Raw, &e.SeenCount, &first, &last); err != nil {
			return nil, errors.Wrap(err, "scan error log row")
		}
		e.FirstSeen = time.Unix(first, 0)
		e.LastSeen = time.Unix(last, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
