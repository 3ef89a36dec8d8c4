// Package elastic implements the indexed-search backend on top of
// Elasticsearch. It is optional: when unreachable the orchestrator
// substitutes the local fuzzy engine.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/staycurrentmd/videolib/internal/domain"
	"github.com/staycurrentmd/videolib/internal/domain/search"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// Config holds connection parameters for the Elasticsearch backend.
type Config struct {
	Addresses  []string
	Username   string
	Password   string
	Index      string
	MaxResults int
}

// Backend serves ranked search results from an Elasticsearch index.
type Backend struct {
	es         *elasticsearch.Client
	index      string
	maxResults int
}

// New creates the backend. It does not probe the cluster; call Ping to
// decide whether the backend is usable.
func New(cfg Config) (*Backend, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Backend{es: es, index: cfg.Index, maxResults: cfg.MaxResults}, nil
}

// Name reports the engine tag surfaced in search responses.
func (b *Backend) Name() string { return search.EngineElasticsearch }

// Ping checks cluster reachability.
func (b *Backend) Ping(ctx context.Context) error {
	res, err := b.es.Ping(b.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("%w: ping status %s", domain.ErrBackendUnavailable, res.Status())
	}
	return nil
}

// Search runs the boosted fuzzy/phrase query over title and description
// and returns the ranked window the orchestrator merges and paginates.
func (b *Backend) Search(ctx context.Context, query string) ([]search.Hit, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"match": map[string]any{
						"title": map[string]any{"query": query, "fuzziness": "AUTO", "boost": 3},
					}},
					map[string]any{"match": map[string]any{
						"description": map[string]any{"query": query, "boost": 1},
					}},
					map[string]any{"match_phrase": map[string]any{
						"title": map[string]any{"query": query, "boost": 5},
					}},
					map[string]any{"match_phrase": map[string]any{
						"description": map[string]any{"query": query, "boost": 2},
					}},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []any{
			map[string]any{"created_at": map[string]any{"order": "desc", "unmapped_type": "date"}},
			"_score",
		},
		"track_scores": true,
		"size":         b.maxResults,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := b.es.Search(
		b.es.Search.WithContext(ctx),
		b.es.Search.WithIndex(b.index),
		b.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search status %s", domain.ErrBackendUnavailable, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string       `json:"_id"`
				Score  *float64     `json:"_score"`
				Source video.Record `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	hits := make([]search.Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		v := h.Source
		if v.ID == "" {
			v.ID = h.ID
		}
		score := 0.0
		if h.Score != nil {
			score = *h.Score
		}
		hits = append(hits, search.Hit{Video: v, Score: score, MatchType: search.MatchMetadata})
	}
	return hits, nil
}

// EnsureIndex creates the index with its fuzzy-analysis mapping when it
// does not exist yet. Existing indexes are left untouched.
func (b *Backend) EnsureIndex(ctx context.Context) error {
	res, err := b.es.Indices.Exists([]string{b.index}, b.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}
	if res.StatusCode != 404 {
		return fmt.Errorf("index exists check: status %s", res.Status())
	}

	mapping := map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"fuzzy_analyzer": map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "edge_ngram_filter"},
					},
				},
				"filter": map[string]any{
					"edge_ngram_filter": map[string]any{
						"type":     "edge_ngram",
						"min_gram": 2,
						"max_gram": 20,
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"title": map[string]any{
					"type":            "text",
					"analyzer":        "fuzzy_analyzer",
					"search_analyzer": "standard",
				},
				"description": map[string]any{
					"type":            "text",
					"analyzer":        "fuzzy_analyzer",
					"search_analyzer": "standard",
				},
				"space_name": map[string]any{"type": "keyword"},
				"source":     map[string]any{"type": "keyword"},
				"created_at": map[string]any{"type": "date"},
				"updated_at": map[string]any{"type": "date"},
			},
		},
	}

	payload, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	createRes, err := b.es.Indices.Create(
		b.index,
		b.es.Indices.Create.WithContext(ctx),
		b.es.Indices.Create.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer func() { _ = createRes.Body.Close() }()

	if createRes.IsError() {
		msg, _ := io.ReadAll(createRes.Body)
		return fmt.Errorf("create index: status %s: %s", createRes.Status(), msg)
	}
	return nil
}

// BulkIndex writes the whole collection into the index. Documents are
// keyed by video id, so re-indexing overwrites in place.
func (b *Backend) BulkIndex(ctx context.Context, vids []video.Record) error {
	if len(vids) == 0 {
		return nil
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        b.es,
		Index:         b.index,
		FlushInterval: time.Second,
	})
	if err != nil {
		return fmt.Errorf("create bulk indexer: %w", err)
	}

	for _, v := range vids {
		doc, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal video %s: %w", v.ID, err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: v.ID,
			Body:       bytes.NewReader(doc),
		})
		if err != nil {
			_ = bi.Close(ctx)
			return fmt.Errorf("enqueue video %s: %w", v.ID, err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("flush bulk indexer: %w", err)
	}
	if stats := bi.Stats(); stats.NumFailed > 0 {
		return fmt.Errorf("bulk index: %d of %d documents failed", stats.NumFailed, len(vids))
	}
	return nil
}
