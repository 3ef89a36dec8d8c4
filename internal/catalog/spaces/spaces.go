// Package spaces groups a flat video collection into named buckets and
// exposes recency-ordered pagination over a bucket.
package spaces

import (
	"sort"
	"strings"

	"github.com/staycurrentmd/videolib/internal/domain"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// Catalog indexes a video collection by space. It is built once per
// snapshot and read concurrently without locking; it never mutates the
// records it holds.
type Catalog struct {
	buckets map[string][]video.Record

	defaultPageSize int
	maxPageSize     int
}

// PageResult is one page of a space's videos.
type PageResult struct {
	Space      string         `json:"space_name"`
	Videos     []video.Record `json:"videos"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// Summary describes one space for listing endpoints.
type Summary struct {
	Name                   string `json:"name"`
	VideoCount             int    `json:"video_count"`
	VideosWithDescriptions int    `json:"videos_with_descriptions"`
}

// New builds a catalog over the given collection. A missing or empty
// space label is coerced to video.DefaultSpace at grouping time. Bucket
// contents are ordered by CreatedAt descending.
func New(videos []video.Record, defaultPageSize, maxPageSize int) *Catalog {
	if defaultPageSize <= 0 {
		defaultPageSize = 24
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}

	c := &Catalog{
		buckets:         Group(videos),
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
	return c
}

// Group buckets videos by space name. Blank labels land in the default
// bucket, never in an empty-string key.
func Group(videos []video.Record) map[string][]video.Record {
	buckets := make(map[string][]video.Record)
	for _, v := range videos {
		name := strings.TrimSpace(v.Space)
		if name == "" {
			name = video.DefaultSpace
		}
		buckets[name] = append(buckets[name], v)
	}
	for name := range buckets {
		sortByRecency(buckets[name])
	}
	return buckets
}

// Names returns all space names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.buckets))
	for name := range c.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summaries lists spaces ordered by video count descending, name
// ascending on ties.
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.buckets))
	for name, vids := range c.buckets {
		described := 0
		for _, v := range vids {
			if v.Description != "" {
				described++
			}
		}
		out = append(out, Summary{
			Name:                   name,
			VideoCount:             len(vids),
			VideosWithDescriptions: described,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VideoCount != out[j].VideoCount {
			return out[i].VideoCount > out[j].VideoCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// VideosForSpace returns one page of a space's videos, newest first,
// optionally pre-filtered by a plain substring check against title and
// description. This is the cheap intra-space browse path, distinct from
// the fuzzy search engine.
func (c *Catalog) VideosForSpace(name string, page, perPage int, searchTerm string) (PageResult, error) {
	vids, ok := c.buckets[name]
	if !ok {
		return PageResult{}, domain.ErrSpaceNotFound
	}

	if searchTerm != "" {
		term := strings.ToLower(searchTerm)
		filtered := make([]video.Record, 0, len(vids))
		for _, v := range vids {
			if strings.Contains(strings.ToLower(v.Title), term) ||
				strings.Contains(strings.ToLower(v.Description), term) {
				filtered = append(filtered, v)
			}
		}
		vids = filtered
	}

	page, perPage = c.clampPaging(page, perPage)
	total := len(vids)

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	pageVids := make([]video.Record, end-start)
	copy(pageVids, vids[start:end])

	return PageResult{
		Space:      name,
		Videos:     pageVids,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

func (c *Catalog) clampPaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = c.defaultPageSize
	}
	if perPage > c.maxPageSize {
		perPage = c.maxPageSize
	}
	return page, perPage
}

// sortByRecency orders records by CreatedAt descending. CreatedAt is an
// ISO-8601 string, so lexicographic comparison is chronological; an
// absent value sorts last.
func sortByRecency(vids []video.Record) {
	sort.SliceStable(vids, func(i, j int) bool {
		return vids[i].CreatedAt > vids[j].CreatedAt
	})
}
