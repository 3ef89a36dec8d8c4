// Package search orchestrates query handling: it picks the primary
// backend, falls back to the local fuzzy engine, merges auxiliary
// metadata matches, and paginates the combined result set once.
package search

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/staycurrentmd/videolib/internal/catalog/snapshot"
	"github.com/staycurrentmd/videolib/internal/domain/search"
	"github.com/staycurrentmd/videolib/internal/domain/video"
	"github.com/staycurrentmd/videolib/internal/logger"
	"github.com/staycurrentmd/videolib/internal/metrics"
	"github.com/staycurrentmd/videolib/internal/search/fuzzy"
)

// maxRelevantTimestops caps the chapter markers attached per hit.
const maxRelevantTimestops = 5

// Service is the single entry point for "search all videos".
type Service struct {
	snapshots SnapshotSource
	backend   Backend // indexed backend, nil when not configured
	fuzzy     *fuzzy.Engine
	aux       AuxiliaryStore // nil when no metadata store is configured

	defaultPerPage int
	maxPerPage     int
}

// New creates the orchestrator. backend and aux may be nil.
func New(snapshots SnapshotSource, backend Backend, engine *fuzzy.Engine, aux AuxiliaryStore, defaultPerPage, maxPerPage int) *Service {
	return &Service{
		snapshots:      snapshots,
		backend:        backend,
		fuzzy:          engine,
		aux:            aux,
		defaultPerPage: defaultPerPage,
		maxPerPage:     maxPerPage,
	}
}

// Search runs a query and returns one page of the merged result set.
//
// The response shape never depends on which backend served the request;
// only the Engine tag reports it. Backend failures substitute the local
// fuzzy engine, auxiliary-store failures are logged and swallowed.
func (s *Service) Search(ctx context.Context, query string, page, perPage int) (search.Page, error) {
	page, perPage = s.clampPaging(page, perPage)

	term := strings.TrimSpace(query)
	if term == "" {
		return search.EmptyPage(page, perPage), nil
	}

	log := logger.FromContext(ctx)
	snap := s.snapshots.Current()

	hits, engine := s.primaryHits(ctx, snap.Videos(), term)
	metrics.SearchRequestsTotal.WithLabelValues(engine).Inc()

	// Re-tag primary hits: callers see backend-independent match types.
	for i := range hits {
		hits[i].MatchType = search.MatchMetadata
	}

	auxHits, timestopMatches := s.auxiliaryHits(ctx, snap, term, hits)
	hits = append(hits, auxHits...)

	s.attachTimestops(ctx, term, hits)

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Video.CreatedAt > hits[j].Video.CreatedAt
	})

	total := len(hits)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := min(start+perPage, total)

	log.Debug("Search served",
		zap.String("term", term),
		zap.String("engine", engine),
		zap.Int("total", total),
		zap.Int("timestop_matches", timestopMatches))

	return search.Page{
		Hits:            hits[start:end],
		Page:            page,
		PerPage:         perPage,
		Total:           total,
		TotalPages:      search.TotalPagesFor(total, perPage),
		SearchTerm:      term,
		Engine:          engine,
		TimestopMatches: timestopMatches,
	}, nil
}

// primaryHits serves the main result set, preferring the indexed backend.
func (s *Service) primaryHits(ctx context.Context, videos []video.Record, term string) ([]search.Hit, string) {
	if s.backend != nil {
		hits, err := s.backend.Search(ctx, term)
		if err == nil {
			return hits, s.backend.Name()
		}
		metrics.SearchFallbacksTotal.Inc()
		logger.FromContext(ctx).Warn("Indexed backend failed, falling back to fuzzy engine",
			zap.String("backend", s.backend.Name()), zap.Error(err))
	}
	return s.fuzzy.Search(videos, term), search.EngineFuzzy
}

// auxiliaryHits returns hits for videos discoverable only through chapter
// markers or transcripts, scored at the fixed timestop score. The second
// return value counts every chapter-marker match, including videos the
// primary result set already covers.
func (s *Service) auxiliaryHits(ctx context.Context, snap *snapshot.Snapshot, term string, primary []search.Hit) ([]search.Hit, int) {
	if s.aux == nil {
		return nil, 0
	}

	log := logger.FromContext(ctx)
	seen := make(map[string]struct{}, len(primary))
	for _, h := range primary {
		seen[h.Video.ID] = struct{}{}
	}

	var ids []string
	addIDs := func(found []string, err error, store string) {
		if err != nil {
			log.Warn("Auxiliary store query failed", zap.String("store", store), zap.Error(err))
			return
		}
		for _, id := range found {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	found, err := s.aux.SearchTimestops(ctx, term)
	timestopMatches := len(found)
	if err != nil {
		timestopMatches = 0
	}
	addIDs(found, err, "timestops")
	found, err = s.aux.SearchTranscriptions(ctx, term)
	addIDs(found, err, "transcriptions")

	if len(ids) == 0 {
		return nil, timestopMatches
	}

	records := snap.VideosByID(ids)
	hits := make([]search.Hit, 0, len(records))
	for _, v := range records {
		hits = append(hits, search.Hit{
			Video:     v,
			Score:     search.TimestopScore,
			MatchType: search.MatchTimestop,
		})
	}
	return hits, timestopMatches
}

// attachTimestops decorates every hit with the chapter markers whose
// label or summary mentions the term, capped per video.
func (s *Service) attachTimestops(ctx context.Context, term string, hits []search.Hit) {
	if s.aux == nil || len(hits) == 0 {
		return
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Video.ID
	}

	byID, err := s.aux.TimestopsForVideos(ctx, ids)
	if err != nil {
		logger.FromContext(ctx).Warn("Timestop lookup failed", zap.Error(err))
		return
	}

	lowerTerm := strings.ToLower(term)
	for i := range hits {
		stops := byID[hits[i].Video.ID]
		var relevant []video.Timestop
		for _, ts := range stops {
			if !strings.Contains(strings.ToLower(ts.Label), lowerTerm) &&
				!strings.Contains(strings.ToLower(ts.Summary), lowerTerm) {
				continue
			}
			relevant = append(relevant, ts)
			if len(relevant) == maxRelevantTimestops {
				break
			}
		}
		hits[i].RelevantTimestops = relevant
	}
}

func (s *Service) clampPaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.defaultPerPage
	}
	if s.maxPerPage > 0 && perPage > s.maxPerPage {
		perPage = s.maxPerPage
	}
	return page, perPage
}
