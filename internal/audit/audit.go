// Package audit keeps a durable trail of export actions in SQLite: one
// row per exported brief, with the serialized report model that went
// into it.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Entry is one recorded export.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Tier      string    `json:"tier"`
	Artifact  string    `json:"artifact"`
	Format    string    `json:"format"`
	Fallback  bool      `json:"fallback"`
	SizeBytes int64     `json:"size_bytes"`
	Report    string    `json:"report,omitempty"`
}

// Log is the export audit trail.
type Log struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewLog opens or creates the audit database at the given path.
func NewLog(dbPath string) (*Log, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	l := &Log{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return l, nil
}

// Close releases the database.
func (l *Log) Close() error {
	return l.db.Close()
}

func (l *Log) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exports (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		tier       TEXT NOT NULL,
		artifact   TEXT NOT NULL,
		format     TEXT NOT NULL,
		fallback   INTEGER NOT NULL DEFAULT 0,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		report     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at DESC);
	`
	_, err := l.db.Exec(schema)
	return err
}

// newID mints a ULID. The shared entropy source is not safe for
// concurrent use, hence the lock.
func (l *Log) newID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), l.entropy).String()
}

// Record appends one export to the trail, assigning its ID and
// timestamp, and returns the stored entry.
func (l *Log) Record(ctx context.Context, e Entry) (*Entry, error) {
	e.ID = l.newID()
	e.CreatedAt = time.Now().UTC()

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO exports (id, created_at, tier, artifact, format, fallback, size_bytes, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.Format(time.RFC3339), e.Tier, e.Artifact, e.Format,
		boolToInt(e.Fallback), e.SizeBytes, e.Report,
	)
	if err != nil {
		return nil, fmt.Errorf("record export: %w", err)
	}
	return &e, nil
}

// Recent returns the newest entries, most recent first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, created_at, tier, artifact, format, fallback, size_bytes, report
		FROM exports
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		var fallback int
		if err := rows.Scan(&e.ID, &createdAt, &e.Tier, &e.Artifact, &e.Format,
			&fallback, &e.SizeBytes, &e.Report); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
			e.CreatedAt = t
		}
		e.Fallback = fallback != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
