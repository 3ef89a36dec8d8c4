// Package videolib is an embeddable video catalog with fuzzy search.
//
// A Client owns a SQLite content database, an in-memory catalog
// snapshot, and a staged fuzzy search engine. A YouTube channel origin
// and an Elasticsearch backend can be wired in with options; both are
// optional and the catalog degrades to local data and fuzzy search
// without them.
package videolib

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/staycurrentmd/videolib/internal/catalog/matcher"
	"github.com/staycurrentmd/videolib/internal/catalog/snapshot"
	dbRedis "github.com/staycurrentmd/videolib/internal/db/redis"
	"github.com/staycurrentmd/videolib/internal/domain/video"
	logpkg "github.com/staycurrentmd/videolib/internal/logger"
	contentrepo "github.com/staycurrentmd/videolib/internal/repository/content"
	"github.com/staycurrentmd/videolib/internal/repository/elastic"
	metadatarepo "github.com/staycurrentmd/videolib/internal/repository/metadata"
	"github.com/staycurrentmd/videolib/internal/repository/searchcache"
	"github.com/staycurrentmd/videolib/internal/search/fuzzy"
	"github.com/staycurrentmd/videolib/internal/transport/youtube"
	libraryuc "github.com/staycurrentmd/videolib/internal/usecase/library"
	searchuc "github.com/staycurrentmd/videolib/internal/usecase/search"
)

// Client is the videolib SDK entry point.
type Client struct {
	content  *contentrepo.Store
	metadata *metadatarepo.Store
	cache    *dbRedis.Store

	snapshots *snapshot.Store
	library   *libraryuc.Service
	search    *searchuc.Service
	logger    *zap.Logger

	defaultPageSize int
	maxPageSize     int
}

// New creates a Client, opens the content database, and populates the
// catalog from it. Remote origins are only consulted by Refresh.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dbPath:          "videolib.db",
		defaultPageSize: 24,
		maxPageSize:     100,
		matchThreshold:  matcher.DefaultThreshold,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	content, err := contentrepo.NewStore(cfg.dbPath)
	if err != nil {
		return nil, fmt.Errorf("videolib: open content database: %w", err)
	}

	metadata, err := metadatarepo.NewStore(cfg.dbPath)
	if err != nil {
		_ = content.Close()
		return nil, fmt.Errorf("videolib: open metadata store: %w", err)
	}

	c := &Client{
		content:         content,
		metadata:        metadata,
		snapshots:       snapshot.NewStore(cfg.defaultPageSize, cfg.maxPageSize),
		logger:          cfg.logger,
		defaultPageSize: cfg.defaultPageSize,
		maxPageSize:     cfg.maxPageSize,
	}

	channel, err := buildChannel(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	backend, esBackend, cache, err := buildBackend(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.cache = cache

	var indexer libraryuc.Indexer
	if esBackend != nil {
		indexer = esBackend
	}
	c.library = libraryuc.New(
		content, channel, content, indexer,
		c.snapshots, cfg.matchThreshold, cfg.defaultPageSize, cfg.maxPageSize,
	)
	c.search = searchuc.New(
		c.snapshots, backend, fuzzy.New(0), metadata,
		cfg.defaultPageSize, cfg.maxPageSize,
	)

	ctx := logpkg.WithContext(context.Background(), cfg.logger)
	vids, err := content.LoadVideos(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("videolib: load catalog: %w", err)
	}
	c.snapshots.Swap(snapshot.Build(vids, cfg.defaultPageSize, cfg.maxPageSize))

	return c, nil
}

func buildChannel(cfg *clientConfig) (libraryuc.ChannelOrigin, error) {
	if cfg.ytAPIKey == "" {
		return nil, nil
	}
	yt, err := youtube.New(youtube.Config{
		APIKey:     cfg.ytAPIKey,
		ChannelID:  cfg.ytChannelID,
		MaxResults: cfg.ytMaxResults,
		BaseURL:    cfg.ytBaseURL,
		Logger:     cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("videolib: create channel origin: %w", err)
	}
	return yt, nil
}

func buildBackend(cfg *clientConfig) (searchuc.Backend, *elastic.Backend, *dbRedis.Store, error) {
	if len(cfg.esAddrs) == 0 {
		return nil, nil, nil, nil
	}

	esBackend, err := elastic.New(elastic.Config{
		Addresses:  cfg.esAddrs,
		Username:   cfg.esUsername,
		Password:   cfg.esPassword,
		Index:      cfg.esIndex,
		MaxResults: cfg.esMaxResults,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("videolib: create search backend: %w", err)
	}

	var backend searchuc.Backend = esBackend
	var cache *dbRedis.Store
	if len(cfg.cacheAddrs) > 0 {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("videolib: create cache store: %w", err)
		}
		backend = searchcache.New(esBackend, cache, cfg.cacheTTL, nil, cfg.logger)
	}

	return backend, esBackend, cache, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.content != nil {
		_ = c.content.Close()
	}
	if c.metadata != nil {
		_ = c.metadata.Close()
	}
	if c.cache != nil {
		c.cache.Close()
	}
}

// Ping checks content database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.content.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Refresh re-fetches all origins, merges them, swaps in a fresh catalog
// snapshot, and writes the merged collection back to the content
// database. Returns an error only when no origin yields data.
func (c *Client) Refresh(ctx context.Context) error {
	return c.library.Refresh(logpkg.WithContext(ctx, c.logger))
}

// Search runs a fuzzy (or indexed, when configured) search across the
// whole catalog and returns one page of ranked results.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) (SearchPage, error) {
	p, err := c.search.Search(logpkg.WithContext(ctx, c.logger), query, page, perPage)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}
	return fromSearchPage(p), nil
}

// Spaces lists the catalog's spaces, largest first.
func (c *Client) Spaces() []SpaceSummary {
	return fromSummaries(c.snapshots.Current().Spaces().Summaries())
}

// SpaceVideos returns one page of a space's videos, newest first,
// optionally pre-filtered by a substring match on title and description.
func (c *Client) SpaceVideos(name string, page, perPage int, searchTerm string) (SpacePage, error) {
	p, err := c.snapshots.Current().Spaces().VideosForSpace(name, page, perPage, searchTerm)
	if err != nil {
		return SpacePage{}, fmt.Errorf("space videos: %w", err)
	}
	return fromPageResult(p), nil
}

// Video returns one catalogued video by ID.
func (c *Client) Video(id string) (Video, error) {
	v, err := c.snapshots.Current().VideoByID(id)
	if err != nil {
		return Video{}, fmt.Errorf("video: %w", err)
	}
	return fromRecord(v), nil
}

// Videos returns the whole catalog, newest first.
func (c *Client) Videos() []Video {
	return fromRecords(c.snapshots.Current().Videos())
}

// ReplaceVideos swaps the catalogued collection: the content database
// and the in-memory snapshot are both replaced.
func (c *Client) ReplaceVideos(ctx context.Context, vids []Video) error {
	records := make([]video.Record, len(vids))
	for i, v := range vids {
		records[i] = video.Normalize(toRecord(v))
	}

	if err := c.content.ReplaceVideos(ctx, records); err != nil {
		return fmt.Errorf("replace videos: %w", err)
	}
	c.snapshots.Swap(snapshot.Build(records, c.defaultPageSize, c.maxPageSize))
	return nil
}

// Timestops returns a video's chapter markers in playback order.
func (c *Client) Timestops(ctx context.Context, videoID string) ([]Timestop, error) {
	stops, err := c.metadata.TimestopsForVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("timestops: %w", err)
	}
	return fromTimestops(stops), nil
}

// SetTimestops replaces a video's chapter markers.
func (c *Client) SetTimestops(ctx context.Context, videoID string, stops []Timestop) error {
	internal := make([]video.Timestop, len(stops))
	for i, ts := range stops {
		internal[i] = toTimestop(videoID, ts)
	}
	if err := c.metadata.ReplaceTimestops(ctx, videoID, internal); err != nil {
		return fmt.Errorf("set timestops: %w", err)
	}
	return nil
}

// Transcription returns a video's transcription.
func (c *Client) Transcription(ctx context.Context, videoID string) (Transcription, error) {
	tr, err := c.metadata.TranscriptionForVideo(ctx, videoID)
	if err != nil {
		return Transcription{}, fmt.Errorf("transcription: %w", err)
	}
	return fromTranscription(tr), nil
}

// SetTranscription stores or replaces a video's transcription.
func (c *Client) SetTranscription(ctx context.Context, videoID string, tr Transcription) error {
	internal := video.Transcription{
		VideoID:   videoID,
		Text:      tr.Text,
		Language:  tr.Language,
		Duration:  tr.Duration,
		WordCount: tr.WordCount,
	}
	if err := c.metadata.SaveTranscription(ctx, internal); err != nil {
		return fmt.Errorf("set transcription: %w", err)
	}
	return nil
}

func toRecord(v Video) video.Record {
	return video.Record{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Space:        v.Space,
		Source:       v.Source,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
		PlaybackURL:  v.PlaybackURL,
		ThumbnailURL: v.ThumbnailURL,
		EmbedURL:     v.EmbedURL,
		Duration:     v.Duration,
	}
}

func toTimestop(videoID string, ts Timestop) video.Timestop {
	return video.Timestop{
		VideoID:       videoID,
		Timestamp:     ts.Timestamp,
		TimeFormatted: ts.TimeFormatted,
		Label:         ts.Label,
		Summary:       ts.Summary,
		Kind:          ts.Kind,
	}
}

// WaitForCache blocks until the cache store answers a ping, or the
// timeout elapses. No-op when no cache is configured.
func (c *Client) WaitForCache(ctx context.Context, timeout time.Duration) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.WaitForReady(ctx, timeout)
}
