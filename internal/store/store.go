// Package store provides the daemon's durable checkpoint store: a small
// SQLite database holding wall-clock checkpoints, the last-run version and
// append-only telemetry events. It is the only source of truth for state
// that must survive daemon restarts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DBFileName is the name of the checkpoint database inside the data dir.
const DBFileName = "tagwatch.db"

// schemaLatest is the newest schema revision Migrate can bring a database to.
// Open bootstraps fresh databases to revision 1 so checkpoints and events are
// usable immediately; later revisions are applied by Migrate.
const schemaLatest = 2

const schemaV1 = `
CREATE TABLE IF NOT EXISTS kv (
  key   TEXT PRIMARY KEY,
  value
);
CREATE TABLE IF NOT EXISTS events (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  kind       TEXT NOT NULL,
  detail     TEXT,
  created_at INTEGER NOT NULL
);
`

const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_events_created
  ON events(created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_events_kind
  ON events(kind, created_at DESC);
`

// Telemetry event kinds recorded at lifecycle milestones.
const (
	EventInstall      = "install"
	EventUpdate       = "update"
	EventFinalNotice  = "final_notice"
	EventUninstall    = "uninstall"
	EventMigrated     = "migrated"
	EventRefreshCycle = "refresh_cycle"
	EventAlertFired   = "alert_fired"
)

// Event is one telemetry record.
type Event struct {
	ID        int64
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// Store wraps the checkpoint database. All methods are safe for concurrent
// use; the underlying pool is capped at a single connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the checkpoint database at dbPath and
// bootstraps the base schema. The parent directory is created when missing.
func Open(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("store: empty db path")
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	ctx := context.Background()

	var journalMode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode=WAL;").Scan(&journalMode); err != nil {
		return fmt.Errorf("store: set journal_mode=wal: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous=FULL;"); err != nil {
		return fmt.Errorf("store: set synchronous=full: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout=5000;"); err != nil {
		return fmt.Errorf("store: set busy_timeout: %w", err)
	}
	return s.migrateTo(ctx, 1)
}

// Migrate applies all pending schema revisions. It is idempotent and safe to
// call on every daemon start.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrateTo(ctx, schemaLatest)
}

// SchemaVersion reports the database's current schema revision.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	v, _, err := readSchemaVersion(ctx, conn)
	return v, err
}

func (s *Store) migrateTo(ctx context.Context, target int) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE;"); err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_, _ = conn.ExecContext(ctx, "ROLLBACK;")
	}()

	if _, err := conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER NOT NULL
);
`); err != nil {
		return fmt.Errorf("store: init migrations table: %w", err)
	}

	current, hasVersion, err := readSchemaVersion(ctx, conn)
	if err != nil {
		return err
	}
	if !hasVersion {
		current = 0
	}
	if current > schemaLatest {
		return fmt.Errorf("store: schema version %d is newer than supported %d", current, schemaLatest)
	}
	if target > current {
		for v := current + 1; v <= target; v++ {
			switch v {
			case 1:
				if _, err := conn.ExecContext(ctx, schemaV1); err != nil {
					return fmt.Errorf("store: migrate v1: %w", err)
				}
			case 2:
				if _, err := conn.ExecContext(ctx, schemaV2); err != nil {
					return fmt.Errorf("store: migrate v2: %w", err)
				}
			default:
				return fmt.Errorf("store: unknown migration %d", v)
			}
		}
		if err := writeSchemaVersion(ctx, conn, target); err != nil {
			return err
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT;"); err != nil {
		return err
	}
	committed = true
	return nil
}

func readSchemaVersion(ctx context.Context, conn *sql.Conn) (int, bool, error) {
	var v int
	err := conn.QueryRowContext(ctx, `SELECT version FROM schema_migrations LIMIT 1;`).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		// A fresh database has no schema_migrations table yet.
		if strings.Contains(err.Error(), "no such table") {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("store: read schema version: %w", err)
	}
	return v, true, nil
}

func writeSchemaVersion(ctx context.Context, conn *sql.Conn, v int) error {
	if _, err := conn.ExecContext(ctx, `INSERT OR REPLACE INTO schema_migrations(rowid, version) VALUES (1, ?);`, v); err != nil {
		return fmt.Errorf("store: write schema version: %w", err)
	}
	return nil
}

// GetCheckpoint reads an integer-seconds checkpoint. Absent keys and values
// that do not parse as an integer both report ok=false with a nil error, so a
// damaged row heals on the next write instead of wedging the caller.
func (s *Store) GetCheckpoint(ctx context.Context, key string) (sec int64, ok bool, err error) {
	var raw any
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?;`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: read checkpoint %q: %w", key, err)
	}
	sec, ok = coerceSeconds(raw)
	return sec, ok, nil
}

// SetCheckpoint writes an integer-seconds checkpoint, replacing any previous
// value under the key.
func (s *Store) SetCheckpoint(ctx context.Context, key string, sec int64) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(key, value) VALUES (?, ?);`, key, sec); err != nil {
		return fmt.Errorf("store: write checkpoint %q: %w", key, err)
	}
	return nil
}

// DeleteCheckpoint removes a key. Missing keys are a no-op.
func (s *Store) DeleteCheckpoint(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?;`, key); err != nil {
		return fmt.Errorf("store: delete checkpoint %q: %w", key, err)
	}
	return nil
}

// GetString reads a string value from the kv table.
func (s *Store) GetString(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: read %q: %w", key, err)
	}
	return value, true, nil
}

// SetString writes a string value under the key.
func (s *Store) SetString(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(key, value) VALUES (?, ?);`, key, value); err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	return nil
}

// RecordEvent appends a telemetry event.
func (s *Store) RecordEvent(ctx context.Context, kind, detail string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO events(kind, detail, created_at) VALUES (?, ?, ?);`,
		kind, detail, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("store: record event %q: %w", kind, err)
	}
	return nil
}

// Events returns the most recent telemetry events, newest first. A limit of
// zero or less defaults to 100.
func (s *Store) Events(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kind, detail, created_at
FROM events
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e         Event
			detail    sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		e.Detail = detail.String
		e.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate events: %w", err)
	}
	return out, nil
}

func coerceSeconds(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
