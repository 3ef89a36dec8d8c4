// Package snapshot owns the in-memory video collection as an immutable
// snapshot swapped atomically on refresh. Readers never observe a
// partially refreshed collection.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/staycurrentmd/videolib/internal/catalog/spaces"
	"github.com/staycurrentmd/videolib/internal/domain"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// Snapshot is one immutable view of the merged video collection together
// with its derived space grouping. Build a new one and swap, never mutate.
type Snapshot struct {
	videos   []video.Record
	byID     map[string]video.Record
	spaces   *spaces.Catalog
	loadedAt time.Time
}

// Build constructs a snapshot from a merged collection. Records are
// normalized (blank space labels coerced) before indexing.
func Build(videos []video.Record, defaultPageSize, maxPageSize int) *Snapshot {
	normalized := video.NormalizeAll(videos)

	byID := make(map[string]video.Record, len(normalized))
	for _, v := range normalized {
		byID[v.ID] = v
	}

	return &Snapshot{
		videos:   normalized,
		byID:     byID,
		spaces:   spaces.New(normalized, defaultPageSize, maxPageSize),
		loadedAt: time.Now(),
	}
}

// Empty returns a snapshot over zero videos. All queries against it
// succeed with well-formed empty results.
func Empty(defaultPageSize, maxPageSize int) *Snapshot {
	return Build(nil, defaultPageSize, maxPageSize)
}

// Videos returns the full collection. Callers must not mutate it.
func (s *Snapshot) Videos() []video.Record { return s.videos }

// Len reports the collection size.
func (s *Snapshot) Len() int { return len(s.videos) }

// LoadedAt reports when this snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Spaces returns the derived space catalog.
func (s *Snapshot) Spaces() *spaces.Catalog { return s.spaces }

// VideoByID looks up one record.
func (s *Snapshot) VideoByID(id string) (video.Record, error) {
	v, ok := s.byID[id]
	if !ok {
		return video.Record{}, domain.ErrVideoNotFound
	}
	return v, nil
}

// VideosByID resolves a set of ids, skipping unknown ones.
func (s *Snapshot) VideosByID(ids []string) []video.Record {
	out := make([]video.Record, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Store holds the current snapshot behind an atomic pointer. A refresh is
// a single Swap; concurrent readers keep whichever snapshot they loaded.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store seeded with an empty snapshot so queries
// before the first load return empty results rather than errors.
func NewStore(defaultPageSize, maxPageSize int) *Store {
	st := &Store{}
	st.current.Store(Empty(defaultPageSize, maxPageSize))
	return st
}

// Current returns the active snapshot.
func (st *Store) Current() *Snapshot { return st.current.Load() }

// Swap installs a new snapshot atomically.
func (st *Store) Swap(s *Snapshot) { st.current.Store(s) }
