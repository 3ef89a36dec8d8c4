// Package library runs the load/refresh pipeline: fetch both origins,
// merge them through the cross-source matcher, and atomically swap the
// catalog snapshot.
package library

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/staycurrentmd/videolib/internal/catalog/matcher"
	"github.com/staycurrentmd/videolib/internal/catalog/snapshot"
	"github.com/staycurrentmd/videolib/internal/domain"
	"github.com/staycurrentmd/videolib/internal/domain/video"
	"github.com/staycurrentmd/videolib/internal/logger"
	"github.com/staycurrentmd/videolib/internal/metrics"
)

// Service rebuilds the catalog snapshot from the configured origins.
type Service struct {
	origin    PrimaryOrigin
	channel   ChannelOrigin    // nil when the channel origin is disabled
	writer    CollectionWriter // nil disables write-back
	indexer   Indexer          // nil when no indexed backend is configured
	snapshots *snapshot.Store

	matchThreshold  float64
	defaultPageSize int
	maxPageSize     int
}

// New creates the load/refresh service. channel, writer, and indexer may
// be nil.
func New(
	origin PrimaryOrigin, channel ChannelOrigin, writer CollectionWriter, indexer Indexer,
	snapshots *snapshot.Store, matchThreshold float64, defaultPageSize, maxPageSize int,
) *Service {
	return &Service{
		origin:          origin,
		channel:         channel,
		writer:          writer,
		indexer:         indexer,
		snapshots:       snapshots,
		matchThreshold:  matchThreshold,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Load fetches both origins, merges them, and swaps in a fresh snapshot.
//
// A single failing origin degrades to the other one; both failing installs
// an empty snapshot and returns domain.ErrNoData. Readers keep getting
// well-formed (possibly empty) results either way. Write-back and
// reindexing are best effort.
func (s *Service) Load(ctx context.Context) error {
	log := logger.FromContext(ctx)
	start := time.Now()

	primary, primaryErr := s.origin.LoadVideos(ctx)
	if primaryErr != nil {
		log.Warn("Primary origin failed", zap.Error(primaryErr))
	}

	var secondary []video.Record
	var channelErr error
	if s.channel != nil {
		secondary, channelErr = s.channel.FetchVideos(ctx)
		if channelErr != nil {
			log.Warn("Channel origin failed", zap.Error(channelErr))
		}
	}

	if primaryErr != nil && (s.channel == nil || channelErr != nil) {
		s.snapshots.Swap(snapshot.Empty(s.defaultPageSize, s.maxPageSize))
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		metrics.CatalogVideos.Set(0)
		return domain.ErrNoData
	}

	merged := matcher.MergeCollections(primary, secondary, s.matchThreshold)
	snap := snapshot.Build(merged, s.defaultPageSize, s.maxPageSize)
	s.snapshots.Swap(snap)

	metrics.CatalogVideos.Set(float64(snap.Len()))
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	if primaryErr != nil || channelErr != nil {
		metrics.RefreshTotal.WithLabelValues("partial").Inc()
	} else {
		metrics.RefreshTotal.WithLabelValues("success").Inc()
	}

	if s.writer != nil {
		if err := s.writer.ReplaceVideos(ctx, merged); err != nil {
			log.Warn("Collection write-back failed", zap.Error(err))
		}
	}

	s.reindex(ctx, snap)

	log.Info("Catalog loaded",
		zap.Int("primary", len(primary)),
		zap.Int("secondary", len(secondary)),
		zap.Int("merged", snap.Len()),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Refresh is the admin-triggered re-load.
func (s *Service) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Service) reindex(ctx context.Context, snap *snapshot.Snapshot) {
	if s.indexer == nil {
		return
	}
	log := logger.FromContext(ctx)

	if err := s.indexer.EnsureIndex(ctx); err != nil {
		log.Warn("Ensure index failed, skipping reindex", zap.Error(err))
		return
	}
	if err := s.indexer.BulkIndex(ctx, snap.Videos()); err != nil {
		log.Warn("Bulk reindex failed", zap.Error(err))
		return
	}
	log.Debug("Reindexed collection", zap.Int("videos", snap.Len()))
}
