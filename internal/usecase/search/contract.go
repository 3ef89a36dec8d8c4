package search

import (
	"context"

	"github.com/staycurrentmd/videolib/internal/catalog/snapshot"
	"github.com/staycurrentmd/videolib/internal/domain/search"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// Backend serves the primary ranked result set for a query.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string) ([]search.Hit, error)
}

// SnapshotSource yields the current immutable catalog snapshot.
type SnapshotSource interface {
	Current() *snapshot.Snapshot
}

// AuxiliaryStore matches free-text terms against per-video metadata the
// primary backends cannot reach (chapter markers, transcripts).
type AuxiliaryStore interface {
	SearchTimestops(ctx context.Context, term string) ([]string, error)
	SearchTranscriptions(ctx context.Context, term string) ([]string, error)
	TimestopsForVideos(ctx context.Context, videoIDs []string) (map[string][]video.Timestop, error)
}
