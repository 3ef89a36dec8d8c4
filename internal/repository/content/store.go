// Package content persists the primary video collection in SQLite.
// It is the durable origin the catalog is rebuilt from on startup.
package content

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// Store provides SQLite persistence for the video collection.
type Store struct {
	db *sql.DB
}

// NewStore opens the content database and runs migrations.
// WAL mode and a busy timeout keep concurrent readers from blocking.
func NewStore(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		space_name TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'catalog',
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT '',
		playback_url TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		embed_url TEXT NOT NULL DEFAULT '',
		duration INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_videos_space ON videos(space_name);
	CREATE INDEX IF NOT EXISTS idx_videos_created ON videos(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// LoadVideos retrieves the full collection ordered by recency.
func (s *Store) LoadVideos(ctx context.Context) ([]video.Record, error) {
	query := `
	SELECT id, title, description, space_name, source, created_at, updated_at,
	       playback_url, thumbnail_url, embed_url, duration
	FROM videos
	ORDER BY created_at DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vids []video.Record
	for rows.Next() {
		var v video.Record
		if err := rows.Scan(
			&v.ID, &v.Title, &v.Description, &v.Space, &v.Source,
			&v.CreatedAt, &v.UpdatedAt,
			&v.PlaybackURL, &v.ThumbnailURL, &v.EmbedURL, &v.Duration,
		); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		vids = append(vids, v)
	}

	return vids, rows.Err()
}

// ReplaceVideos swaps the stored collection for the given one in a single
// transaction, so readers never observe a half-written catalog.
func (s *Store) ReplaceVideos(ctx context.Context, vids []video.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM videos`); err != nil {
		return fmt.Errorf("clear videos: %w", err)
	}

	query := `
	INSERT INTO videos (id, title, description, space_name, source, created_at, updated_at,
	                    playback_url, thumbnail_url, embed_url, duration)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, v := range vids {
		if _, err := tx.ExecContext(ctx, query,
			v.ID, v.Title, v.Description, v.Space, v.Source,
			v.CreatedAt, v.UpdatedAt,
			v.PlaybackURL, v.ThumbnailURL, v.EmbedURL, v.Duration,
		); err != nil {
			return fmt.Errorf("insert video %s: %w", v.ID, err)
		}
	}

	return tx.Commit()
}

// CountVideos returns the number of stored videos.
func (s *Store) CountVideos(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}
