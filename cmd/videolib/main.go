package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/staycurrentmd/videolib/internal/catalog/snapshot"
	"github.com/staycurrentmd/videolib/internal/config"
	dbRedis "github.com/staycurrentmd/videolib/internal/db/redis"
	logpkg "github.com/staycurrentmd/videolib/internal/logger"
	"github.com/staycurrentmd/videolib/internal/metrics"
	contentrepo "github.com/staycurrentmd/videolib/internal/repository/content"
	"github.com/staycurrentmd/videolib/internal/repository/elastic"
	metadatarepo "github.com/staycurrentmd/videolib/internal/repository/metadata"
	"github.com/staycurrentmd/videolib/internal/repository/searchcache"
	"github.com/staycurrentmd/videolib/internal/search/fuzzy"
	chiTransport "github.com/staycurrentmd/videolib/internal/transport/chi"
	"github.com/staycurrentmd/videolib/internal/transport/youtube"
	healthuc "github.com/staycurrentmd/videolib/internal/usecase/health"
	libraryuc "github.com/staycurrentmd/videolib/internal/usecase/library"
	searchuc "github.com/staycurrentmd/videolib/internal/usecase/search"
	"github.com/staycurrentmd/videolib/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting videolib API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("content_db", cfg.ContentDB.Path),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := logpkg.WithContext(context.Background(), logger)

	// Primary origin: the SQLite content database.
	contentStore, err := contentrepo.NewStore(cfg.ContentDB.Path)
	if err != nil {
		logger.Fatal("Failed to open content database", zap.Error(err))
	}
	defer func() { _ = contentStore.Close() }()

	metadataStore, err := metadatarepo.NewStore(cfg.ContentDB.Path)
	if err != nil {
		logger.Fatal("Failed to open metadata store", zap.Error(err))
	}
	defer func() { _ = metadataStore.Close() }()

	// Optional channel origin.
	var channel libraryuc.ChannelOrigin
	if cfg.YouTube.Enabled {
		yt, err := youtube.New(youtube.Config{
			APIKey:     cfg.YouTube.APIKey,
			ChannelID:  cfg.YouTube.ChannelID,
			MaxResults: cfg.YouTube.MaxResults,
			BaseURL:    cfg.YouTube.BaseURL,
			Timeout:    time.Duration(cfg.YouTube.TimeoutSec) * time.Second,
			Logger:     logger,
		})
		if err != nil {
			logger.Fatal("Failed to create channel origin", zap.Error(err))
		}
		channel = yt
		logger.Info("Channel origin enabled", zap.String("channel_id", cfg.YouTube.ChannelID))
	}

	// Optional indexed-search backend, wrapped in the result cache when
	// a cache store is configured.
	var (
		backend   searchuc.Backend
		esBackend *elastic.Backend
	)
	if cfg.Elasticsearch.Enabled {
		esBackend, err = elastic.New(elastic.Config{
			Addresses:  cfg.Elasticsearch.Addresses,
			Username:   cfg.Elasticsearch.Username,
			Password:   cfg.Elasticsearch.Password,
			Index:      cfg.Elasticsearch.Index,
			MaxResults: cfg.Elasticsearch.MaxResults,
		})
		if err != nil {
			logger.Fatal("Failed to create search backend", zap.Error(err))
		}

		// A dead cluster at startup means fuzzy-only mode; the backend
		// is not installed at all rather than failing every query.
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := esBackend.Ping(pingCtx); err != nil {
			logger.Warn("Search backend unreachable, running on fuzzy search only", zap.Error(err))
			esBackend = nil
		} else {
			backend = esBackend
			logger.Info("Indexed search backend enabled", zap.Strings("addresses", cfg.Elasticsearch.Addresses))
		}
		cancel()
	}

	var cacheStore *dbRedis.Store
	if cfg.Cache.Enabled {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		if err := cacheStore.WaitForReady(ctx, 10*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache")

		if backend != nil {
			backend = searchcache.New(
				backend, cacheStore,
				time.Duration(cfg.Cache.TTLSec)*time.Second,
				metrics.SearchCacheTotal, logger,
			)
		}
	}

	// Catalog snapshot store and the load/refresh pipeline.
	snapshots := snapshot.NewStore(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)

	var indexer libraryuc.Indexer
	if esBackend != nil {
		indexer = esBackend
	}
	librarySvc := libraryuc.New(
		contentStore, channel, contentStore, indexer,
		snapshots, cfg.Catalog.MatchThreshold,
		cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize,
	)

	if cfg.Catalog.RefreshOnStart {
		if err := librarySvc.Load(ctx); err != nil {
			// Serve the empty catalog rather than crash-loop; a later
			// refresh can recover.
			logger.Warn("Initial catalog load failed", zap.Error(err))
		}
	} else {
		// Boot from the local content database only; the channel origin
		// is consulted on explicit refresh.
		vids, err := contentStore.LoadVideos(ctx)
		if err != nil {
			logger.Warn("Initial catalog load failed", zap.Error(err))
		}
		snapshots.Swap(snapshot.Build(vids, cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize))
		metrics.CatalogVideos.Set(float64(snapshots.Current().Len()))
		logger.Info("Catalog loaded from content database", zap.Int("videos", snapshots.Current().Len()))
	}

	searchSvc := searchuc.New(
		snapshots, backend, fuzzy.New(0), metadataStore,
		cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize,
	)

	var backendPinger, cachePinger healthuc.Pinger
	if esBackend != nil {
		backendPinger = esBackend
	}
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(contentStore, cachePinger, backendPinger)

	// Create chi server
	server := chiTransport.NewServer(
		searchSvc, librarySvc, healthSvc, snapshots, metadataStore,
		cfg.HTTP.AdminToken, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
