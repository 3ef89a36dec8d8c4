package library

import (
	"context"

	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// PrimaryOrigin supplies the catalogued collection.
type PrimaryOrigin interface {
	LoadVideos(ctx context.Context) ([]video.Record, error)
}

// ChannelOrigin supplies the externally-hosted collection.
type ChannelOrigin interface {
	FetchVideos(ctx context.Context) ([]video.Record, error)
}

// CollectionWriter persists the merged collection back to durable storage.
type CollectionWriter interface {
	ReplaceVideos(ctx context.Context, vids []video.Record) error
}

// Indexer pushes the merged collection into the indexed-search backend.
type Indexer interface {
	EnsureIndex(ctx context.Context) error
	BulkIndex(ctx context.Context, vids []video.Record) error
}
