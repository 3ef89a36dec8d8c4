package spaces

import (
	"errors"
	"fmt"
	"testing"

	"github.com/staycurrentmd/videolib/internal/domain"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

func TestGroup_BlankSpacesCoerced(t *testing.T) {
	vids := []video.Record{
		{ID: "1", Space: ""},
		{ID: "2", Space: "   "},
		{ID: "3", Space: "X"},
	}

	buckets := Group(vids)
	if len(buckets) != 2 {
		t.Fatalf("bucket count = %d, want 2", len(buckets))
	}
	if got := len(buckets[video.DefaultSpace]); got != 2 {
		t.Errorf("default bucket size = %d, want 2", got)
	}
	if got := len(buckets["X"]); got != 1 {
		t.Errorf("bucket X size = %d, want 1", got)
	}
}

func TestGroup_BucketsOrderedByRecency(t *testing.T) {
	vids := []video.Record{
		{ID: "old", Space: "X", CreatedAt: "2021-01-01T00:00:00Z"},
		{ID: "new", Space: "X", CreatedAt: "2024-06-01T00:00:00Z"},
		{ID: "undated", Space: "X"},
	}

	buckets := Group(vids)
	got := buckets["X"]
	if got[0].ID != "new" || got[1].ID != "old" || got[2].ID != "undated" {
		t.Errorf("recency order wrong: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestVideosForSpace_UnknownSpace(t *testing.T) {
	c := New(nil, 24, 100)
	_, err := c.VideosForSpace("nope", 1, 10, "")
	if !errors.Is(err, domain.ErrSpaceNotFound) {
		t.Errorf("err = %v, want ErrSpaceNotFound", err)
	}
}

func TestVideosForSpace_SubstringFilter(t *testing.T) {
	vids := []video.Record{
		{ID: "1", Space: "X", Title: "Pediatric Cardiology Basics"},
		{ID: "2", Space: "X", Title: "Operating Room Tour", Description: "cardiology ward walkthrough"},
		{ID: "3", Space: "X", Title: "Budget Townhall"},
	}
	c := New(vids, 24, 100)

	page, err := c.VideosForSpace("X", 1, 10, "cardiology")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("total = %d, want 2 (title and description matches)", page.Total)
	}
	for _, v := range page.Videos {
		if v.ID == "3" {
			t.Error("non-matching video leaked through filter")
		}
	}
}

func TestVideosForSpace_PaginationIdempotence(t *testing.T) {
	var vids []video.Record
	for i := 0; i < 25; i++ {
		vids = append(vids, video.Record{
			ID:        fmt.Sprintf("v%02d", i),
			Space:     "X",
			CreatedAt: fmt.Sprintf("2024-01-%02dT00:00:00Z", i+1),
		})
	}
	c := New(vids, 24, 100)

	p1, _ := c.VideosForSpace("X", 1, 10, "")
	p2, _ := c.VideosForSpace("X", 2, 10, "")
	whole, _ := c.VideosForSpace("X", 1, 20, "")

	if len(p1.Videos) != 10 || len(p2.Videos) != 10 || len(whole.Videos) != 20 {
		t.Fatalf("page sizes: %d, %d, %d", len(p1.Videos), len(p2.Videos), len(whole.Videos))
	}

	seen := map[string]bool{}
	concat := append(append([]video.Record{}, p1.Videos...), p2.Videos...)
	for i, v := range concat {
		if seen[v.ID] {
			t.Errorf("duplicate id %s across pages", v.ID)
		}
		seen[v.ID] = true
		if whole.Videos[i].ID != v.ID {
			t.Errorf("position %d: concat has %s, single page has %s", i, v.ID, whole.Videos[i].ID)
		}
	}
}

func TestVideosForSpace_ClampsPaging(t *testing.T) {
	vids := []video.Record{{ID: "1", Space: "X"}}
	c := New(vids, 24, 100)

	page, err := c.VideosForSpace("X", -3, 0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Page != 1 {
		t.Errorf("page = %d, want clamped to 1", page.Page)
	}
	if page.PerPage != 24 {
		t.Errorf("per_page = %d, want default 24", page.PerPage)
	}

	page, _ = c.VideosForSpace("X", 1, 10_000, "")
	if page.PerPage != 100 {
		t.Errorf("per_page = %d, want capped at 100", page.PerPage)
	}
}

func TestVideosForSpace_PageBeyondEnd(t *testing.T) {
	vids := []video.Record{{ID: "1", Space: "X"}}
	c := New(vids, 24, 100)

	page, err := c.VideosForSpace("X", 99, 10, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Videos) != 0 {
		t.Errorf("expected empty slice beyond last page, got %d videos", len(page.Videos))
	}
	if page.Total != 1 {
		t.Errorf("total = %d, want 1", page.Total)
	}
}

func TestSummaries_OrderedBySizeDesc(t *testing.T) {
	vids := []video.Record{
		{ID: "1", Space: "Small"},
		{ID: "2", Space: "Big", Description: "d"},
		{ID: "3", Space: "Big"},
		{ID: "4", Space: "Big"},
	}
	c := New(vids, 24, 100)

	sums := c.Summaries()
	if len(sums) != 2 {
		t.Fatalf("summaries = %d, want 2", len(sums))
	}
	if sums[0].Name != "Big" || sums[0].VideoCount != 3 {
		t.Errorf("first summary = %+v, want Big with 3 videos", sums[0])
	}
	if sums[0].VideosWithDescriptions != 1 {
		t.Errorf("described count = %d, want 1", sums[0].VideosWithDescriptions)
	}
}
