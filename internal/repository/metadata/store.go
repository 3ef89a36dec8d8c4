// Package metadata persists auxiliary video metadata: timestop chapter
// markers and transcriptions, with FTS5 indexes so their text can be
// matched against search terms.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/staycurrentmd/videolib/internal/domain"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// Store provides SQLite persistence for timestops and transcriptions.
type Store struct {
	db *sql.DB
}

// NewStore opens the metadata database and runs migrations.
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
	CREATE TABLE IF NOT EXISTS timestops (
		video_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL DEFAULT 0,
		time_formatted TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (video_id, timestamp)
	);

	CREATE TABLE IF NOT EXISTS transcriptions (
		video_id TEXT PRIMARY KEY,
		text TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS timestops_fts USING fts5(
		video_id UNINDEXED, label, summary
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS transcriptions_fts USING fts5(
		video_id UNINDEXED, text
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ReplaceTimestops swaps the stored markers for a video.
func (s *Store) ReplaceTimestops(ctx context.Context, videoID string, stops []video.Timestop) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM timestops WHERE video_id = ?`, videoID); err != nil {
		return fmt.Errorf("clear timestops: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM timestops_fts WHERE video_id = ?`, videoID); err != nil {
		return fmt.Errorf("clear timestops index: %w", err)
	}

	for _, ts := range stops {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO timestops (video_id, timestamp, time_formatted, label, summary, kind)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			videoID, ts.Timestamp, ts.TimeFormatted, ts.Label, ts.Summary, ts.Kind,
		); err != nil {
			return fmt.Errorf("insert timestop: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO timestops_fts (video_id, label, summary) VALUES (?, ?, ?)`,
			videoID, ts.Label, ts.Summary,
		); err != nil {
			return fmt.Errorf("index timestop: %w", err)
		}
	}

	return tx.Commit()
}

// SaveTranscription upserts the transcription for a video.
func (s *Store) SaveTranscription(ctx context.Context, tr video.Transcription) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transcriptions (video_id, text, language, duration, word_count)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET
			text = excluded.text,
			language = excluded.language,
			duration = excluded.duration,
			word_count = excluded.word_count`,
		tr.VideoID, tr.Text, tr.Language, tr.Duration, tr.WordCount,
	); err != nil {
		return fmt.Errorf("upsert transcription: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcriptions_fts WHERE video_id = ?`, tr.VideoID); err != nil {
		return fmt.Errorf("clear transcription index: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transcriptions_fts (video_id, text) VALUES (?, ?)`,
		tr.VideoID, tr.Text,
	); err != nil {
		return fmt.Errorf("index transcription: %w", err)
	}

	return tx.Commit()
}

// TimestopsForVideo returns the markers of one video ordered by position.
func (s *Store) TimestopsForVideo(ctx context.Context, videoID string) ([]video.Timestop, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT video_id, timestamp, time_formatted, label, summary, kind
		 FROM timestops WHERE video_id = ? ORDER BY timestamp`, videoID)
	if err != nil {
		return nil, fmt.Errorf("query timestops: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTimestops(rows)
}

// TimestopsForVideos returns the markers of several videos keyed by video id.
func (s *Store) TimestopsForVideos(ctx context.Context, videoIDs []string) (map[string][]video.Timestop, error) {
	out := make(map[string][]video.Timestop, len(videoIDs))
	if len(videoIDs) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(videoIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(videoIDs))
	for i, id := range videoIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT video_id, timestamp, time_formatted, label, summary, kind
		 FROM timestops WHERE video_id IN (`+placeholders+`) ORDER BY video_id, timestamp`, args...)
	if err != nil {
		return nil, fmt.Errorf("query timestops: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stops, err := scanTimestops(rows)
	if err != nil {
		return nil, err
	}
	for _, ts := range stops {
		out[ts.VideoID] = append(out[ts.VideoID], ts)
	}
	return out, nil
}

// TranscriptionForVideo returns the transcription of one video, or
// domain.ErrVideoNotFound when none is stored.
func (s *Store) TranscriptionForVideo(ctx context.Context, videoID string) (video.Transcription, error) {
	var tr video.Transcription
	err := s.db.QueryRowContext(ctx,
		`SELECT video_id, text, language, duration, word_count
		 FROM transcriptions WHERE video_id = ?`, videoID,
	).Scan(&tr.VideoID, &tr.Text, &tr.Language, &tr.Duration, &tr.WordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return video.Transcription{}, domain.ErrVideoNotFound
	}
	if err != nil {
		return video.Transcription{}, fmt.Errorf("query transcription: %w", err)
	}
	return tr, nil
}

// SearchTimestops returns the ids of videos whose markers mention the term.
func (s *Store) SearchTimestops(ctx context.Context, term string) ([]string, error) {
	return s.searchIDs(ctx, `SELECT DISTINCT video_id FROM timestops_fts WHERE timestops_fts MATCH ?`, term)
}

// SearchTranscriptions returns the ids of videos whose transcription
// mentions the term.
func (s *Store) SearchTranscriptions(ctx context.Context, term string) ([]string, error) {
	return s.searchIDs(ctx, `SELECT DISTINCT video_id FROM transcriptions_fts WHERE transcriptions_fts MATCH ?`, term)
}

func (s *Store) searchIDs(ctx context.Context, query, term string) ([]string, error) {
	match := ftsQuery(term)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, query, match)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ftsQuery turns a free-form search term into an FTS5 match expression.
// Each token is quoted so user input cannot inject FTS syntax.
func ftsQuery(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

func scanTimestops(rows *sql.Rows) ([]video.Timestop, error) {
	var stops []video.Timestop
	for rows.Next() {
		var ts video.Timestop
		if err := rows.Scan(&ts.VideoID, &ts.Timestamp, &ts.TimeFormatted, &ts.Label, &ts.Summary, &ts.Kind); err != nil {
			return nil, fmt.Errorf("scan timestop: %w", err)
		}
		stops = append(stops, ts)
	}
	return stops, rows.Err()
}
