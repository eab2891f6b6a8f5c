package timelinedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"hidehate/internal/model"
)

// ErrNoSnapshot is returned when no timeline snapshot has been saved yet.
var ErrNoSnapshot = errors.New("timelinedb: no snapshot")

// DB wraps the local SQLite cache: timeline snapshots for offline rendering,
// activity events for the history views, and cursors for the poll loop.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS snapshots (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  taken_at INTEGER NOT NULL,
	  items TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_taken ON snapshots(taken_at);
	CREATE TABLE IF NOT EXISTS events (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  type TEXT NOT NULL,
	  payload TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
	CREATE TABLE IF NOT EXISTS cursors (
	  key TEXT PRIMARY KEY,
	  value TEXT NOT NULL
	);
	`)
	return err
}

// SaveSnapshot stores the adapted timeline as of takenAt.
func (d *DB) SaveSnapshot(ctx context.Context, takenAt time.Time, items []model.Post) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO snapshots(taken_at, items) VALUES(?,?)`, takenAt.Unix(), string(b))
	return err
}

// LoadLatestSnapshot returns the most recent snapshot, or ErrNoSnapshot.
func (d *DB) LoadLatestSnapshot(ctx context.Context) (time.Time, []model.Post, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT taken_at, items FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`)
	var ts int64
	var raw string
	if err := row.Scan(&ts, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil, ErrNoSnapshot
		}
		return time.Time{}, nil, err
	}
	var items []model.Post
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return time.Time{}, nil, err
	}
	return time.Unix(ts, 0).UTC(), items, nil
}

// PutEvent records an activity event.
func (d *DB) PutEvent(ctx context.Context, ev model.ActivityEvent) error {
	pb, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO events(ts, type, payload) VALUES(?,?,?)`, ev.Timestamp, ev.Type, string(pb))
	return err
}

// LoadEventsRange returns events in [start, end), optionally filtered by type.
func (d *DB) LoadEventsRange(ctx context.Context, start, end time.Time, typ string) ([]model.ActivityEvent, error) {
	var rows *sql.Rows
	var err error
	if typ == "" {
		rows, err = d.sql.QueryContext(ctx, `SELECT payload FROM events WHERE ts>=? AND ts<? ORDER BY ts, id`, start.Unix(), end.Unix())
	} else {
		rows, err = d.sql.QueryContext(ctx, `SELECT payload FROM events WHERE ts>=? AND ts<? AND type=? ORDER BY ts, id`, start.Unix(), end.Unix(), typ)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ActivityEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev model.ActivityEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// SaveCursor upserts a string cursor.
func (d *DB) SaveCursor(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO cursors(key, value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

// LoadCursor returns the cursor value, or empty when unset.
func (d *DB) LoadCursor(ctx context.Context, key string) (string, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT value FROM cursors WHERE key=?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}
