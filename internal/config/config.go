package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the videolib API configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	ContentDB     ContentDBConfig     `yaml:"content_db"`
	YouTube       YouTubeConfig       `yaml:"youtube"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Cache         CacheConfig         `yaml:"cache"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	RequestTimeout  int `yaml:"request_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`

	// AdminToken guards the refresh endpoint. Empty disables the guard.
	AdminToken string `yaml:"admin_token"`
}

// ContentDBConfig holds the primary content database settings.
type ContentDBConfig struct {
	Path string `yaml:"path"`
}

// YouTubeConfig holds the external channel origin settings.
type YouTubeConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	ChannelID  string `yaml:"channel_id"`
	MaxResults int    `yaml:"max_results"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ElasticsearchConfig holds the indexed-search service settings.
// When disabled or unreachable the service runs on local fuzzy search only.
type ElasticsearchConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Addresses  []string `yaml:"addresses"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	Index      string   `yaml:"index"`
	TimeoutSec int      `yaml:"timeout_sec"`
	MaxResults int      `yaml:"max_results"`
}

// CacheConfig holds the optional search-result cache settings.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// CatalogConfig holds catalog and matching settings.
type CatalogConfig struct {
	DefaultPageSize int     `yaml:"default_page_size"`
	MaxPageSize     int     `yaml:"max_page_size"`
	MatchThreshold  float64 `yaml:"match_threshold"`
	RefreshOnStart  bool    `yaml:"refresh_on_start"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.ContentDB.Path == "" {
		c.ContentDB.Path = "videolib.db"
	}
	if c.YouTube.MaxResults <= 0 {
		c.YouTube.MaxResults = 100
	}
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if c.YouTube.TimeoutSec <= 0 {
		c.YouTube.TimeoutSec = 10
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = "video_library"
	}
	if c.Elasticsearch.TimeoutSec <= 0 {
		c.Elasticsearch.TimeoutSec = 30
	}
	if c.Elasticsearch.MaxResults <= 0 {
		c.Elasticsearch.MaxResults = 500
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Catalog.DefaultPageSize <= 0 {
		c.Catalog.DefaultPageSize = 24
	}
	if c.Catalog.MaxPageSize <= 0 {
		c.Catalog.MaxPageSize = 100
	}
	if c.Catalog.MatchThreshold <= 0 {
		c.Catalog.MatchThreshold = 0.85
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.YouTube.Enabled && c.YouTube.APIKey == "" {
		return fmt.Errorf("youtube.api_key is required when youtube.enabled is true")
	}
	if c.Elasticsearch.Enabled && len(c.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("elasticsearch.addresses is required when elasticsearch.enabled is true")
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}
	if c.Catalog.MatchThreshold >= 1 {
		return fmt.Errorf("catalog.match_threshold must be below 1.0, got %v", c.Catalog.MatchThreshold)
	}
	if c.Catalog.DefaultPageSize > c.Catalog.MaxPageSize {
		return fmt.Errorf("catalog.default_page_size %d exceeds catalog.max_page_size %d",
			c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
