package videolib

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	dbPath string
	logger *zap.Logger

	ytAPIKey     string
	ytChannelID  string
	ytMaxResults int
	ytBaseURL    string

	esAddrs      []string
	esUsername   string
	esPassword   string
	esIndex      string
	esMaxResults int

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	defaultPageSize int
	maxPageSize     int
	matchThreshold  float64
}

// WithContentDB sets the SQLite content database path.
// Defaults to "videolib.db" in the working directory.
func WithContentDB(path string) Option {
	return func(c *clientConfig) {
		c.dbPath = path
	}
}

// WithYouTube enables the channel origin: Refresh pulls the channel's
// uploads and merges them into the catalog.
func WithYouTube(apiKey, channelID string) Option {
	return func(c *clientConfig) {
		c.ytAPIKey = apiKey
		c.ytChannelID = channelID
	}
}

// WithYouTubeMaxResults caps how many channel uploads Refresh fetches.
func WithYouTubeMaxResults(n int) Option {
	return func(c *clientConfig) {
		c.ytMaxResults = n
	}
}

// WithElasticsearch enables the indexed-search backend. Search falls
// back to the built-in fuzzy engine when the cluster is unreachable.
func WithElasticsearch(index string, addrs ...string) Option {
	return func(c *clientConfig) {
		c.esIndex = index
		c.esAddrs = addrs
	}
}

// WithElasticsearchAuth sets basic-auth credentials for the cluster.
func WithElasticsearchAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.esUsername = username
		c.esPassword = password
	}
}

// WithSearchCache caches indexed-search results in Redis for ttl.
// It has no effect unless Elasticsearch is also configured.
func WithSearchCache(ttl time.Duration, addrs ...string) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cacheTTL = ttl
	}
}

// WithCachePassword sets the cache store password.
func WithCachePassword(password string) Option {
	return func(c *clientConfig) {
		c.cachePassword = password
	}
}

// WithPageSizes sets the default and maximum page sizes for catalog
// listings and search results.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	}
}

// WithMatchThreshold sets the title-similarity threshold used to
// recognize the same video across origins during Refresh.
func WithMatchThreshold(t float64) Option {
	return func(c *clientConfig) {
		c.matchThreshold = t
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
