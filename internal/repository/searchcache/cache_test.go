package searchcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/staycurrentmd/videolib/internal/db"
	"github.com/staycurrentmd/videolib/internal/domain/search"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

type mockBackend struct {
	hits  []search.Hit
	err   error
	calls int
}

func (m *mockBackend) Name() string { return "elasticsearch" }

func (m *mockBackend) Search(_ context.Context, _ string) ([]search.Hit, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data map[string][]byte
	ttl  time.Duration
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttl = ttl
	return nil
}

func TestSearch_MissThenHit(t *testing.T) {
	inner := &mockBackend{hits: []search.Hit{
		{Video: video.Record{ID: "v1", Title: "Asthma Care"}, Score: 2.5, MatchType: search.MatchMetadata},
	}}
	kv := newMockKVStore()
	c := New(inner, kv, 5*time.Minute, nil, zap.NewNop())

	ctx := context.Background()
	first, err := c.Search(ctx, "asthma")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
	if kv.ttl != 5*time.Minute {
		t.Errorf("cached with ttl %v, want 5m", kv.ttl)
	}

	second, err := c.Search(ctx, "asthma")
	if err != nil {
		t.Fatalf("Search (cached): %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d after cached read, want 1", inner.calls)
	}
	if len(second) != 1 || second[0].Video.ID != first[0].Video.ID || second[0].Score != first[0].Score {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
}

func TestSearch_DistinctQueriesDistinctKeys(t *testing.T) {
	inner := &mockBackend{}
	kv := newMockKVStore()
	c := New(inner, kv, time.Minute, nil, zap.NewNop())

	ctx := context.Background()
	if _, err := c.Search(ctx, "asthma"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if _, err := c.Search(ctx, "sepsis"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestSearch_BackendErrorNotCached(t *testing.T) {
	inner := &mockBackend{err: errors.New("cluster down")}
	kv := newMockKVStore()
	c := New(inner, kv, time.Minute, nil, zap.NewNop())

	if _, err := c.Search(context.Background(), "asthma"); err == nil {
		t.Fatal("expected error")
	}
	if len(kv.data) != 0 {
		t.Errorf("error result was cached: %v", kv.data)
	}
}

func TestSearch_CorruptCacheEntryFallsThrough(t *testing.T) {
	inner := &mockBackend{hits: []search.Hit{{Video: video.Record{ID: "v1"}}}}
	kv := newMockKVStore()
	c := New(inner, kv, time.Minute, nil, zap.NewNop())

	kv.data[c.cacheKey("asthma")] = []byte("not json")

	hits, err := c.Search(context.Background(), "asthma")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestName_PassThrough(t *testing.T) {
	c := New(&mockBackend{}, newMockKVStore(), time.Minute, nil, zap.NewNop())
	if c.Name() != "elasticsearch" {
		t.Errorf("Name() = %q", c.Name())
	}
}
