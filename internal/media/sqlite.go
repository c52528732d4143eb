package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/ethocode/internal/timecode"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS media_info (
	path        TEXT PRIMARY KEY,
	duration    TEXT NOT NULL,
	fps         REAL NOT NULL DEFAULT 0,
	frame_count INTEGER NOT NULL DEFAULT 0,
	has_video   INTEGER NOT NULL DEFAULT 0,
	has_audio   INTEGER NOT NULL DEFAULT 0,
	probed_at   INTEGER NOT NULL
);
`

// SQLiteStore persists probe results in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (and creates) the probe cache database.
// ":memory:" keeps it in memory.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// execWithRetry retries statements failing with "database is locked", with exponential backoff.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get loads the stored result for path.
func (s *SQLiteStore) Get(ctx context.Context, path string) (Info, bool, error) {
	var (
		duration string
		info     Info
		hasVideo int
		hasAudio int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT duration, fps, frame_count, has_video, has_audio FROM media_info WHERE path = ?`, path,
	).Scan(&duration, &info.FPS, &info.FrameCount, &hasVideo, &hasAudio)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, false, nil
	}
	if err != nil {
		return Info{}, false, fmt.Errorf("query media info: %w", err)
	}

	d, err := timecode.Parse(duration)
	if err != nil {
		return Info{}, false, fmt.Errorf("stored duration for %s: %w", path, err)
	}
	info.Duration = d
	info.HasVideo = hasVideo != 0
	info.HasAudio = hasAudio != 0
	return info, true, nil
}

// Put stores or replaces the result for path.
func (s *SQLiteStore) Put(ctx context.Context, path string, info Info) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media_info (path, duration, fps, frame_count, has_video, has_audio, probed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			duration = excluded.duration,
			fps = excluded.fps,
			frame_count = excluded.frame_count,
			has_video = excluded.has_video,
			has_audio = excluded.has_audio,
			probed_at = excluded.probed_at`,
		path, info.Duration.Decimal().String(), info.FPS, info.FrameCount,
		boolToInt(info.HasVideo), boolToInt(info.HasAudio), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store media info: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
