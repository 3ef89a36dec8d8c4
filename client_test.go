package videolib

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/staycurrentmd/videolib/internal/domain"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := New(WithContentDB(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func seedCatalog(t *testing.T, c *Client) {
	t.Helper()

	err := c.ReplaceVideos(context.Background(), []Video{
		{
			ID:        "vid-1",
			Title:     "Asthma Care Basics",
			Space:     "Pulmonology",
			Source:    "catalog",
			CreatedAt: "2024-03-01T00:00:00Z",
		},
		{
			ID:        "vid-2",
			Title:     "Cardiology Rounds",
			Space:     "Cardiology",
			Source:    "catalog",
			CreatedAt: "2024-02-01T00:00:00Z",
		},
		{
			ID:        "vid-3",
			Title:     "ECG Interpretation",
			Space:     "Cardiology",
			Source:    "catalog",
			CreatedAt: "2024-01-01T00:00:00Z",
		},
	})
	if err != nil {
		t.Fatalf("ReplaceVideos: %v", err)
	}
}

func TestClient_EmptyCatalog(t *testing.T) {
	c := newTestClient(t)

	if got := len(c.Videos()); got != 0 {
		t.Errorf("Videos() = %d records, want 0", got)
	}
	if got := len(c.Spaces()); got != 0 {
		t.Errorf("Spaces() = %d, want 0", got)
	}
}

func TestClient_ReplaceAndReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	c, err := New(WithContentDB(dbPath))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seedCatalog(t, c)
	c.Close()

	// Reopen: the catalog must come back from the content database.
	c, err = New(WithContentDB(dbPath))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()

	vids := c.Videos()
	if len(vids) != 3 {
		t.Fatalf("Videos() = %d records, want 3", len(vids))
	}
	if vids[0].ID != "vid-1" {
		t.Errorf("newest first: got %s, want vid-1", vids[0].ID)
	}
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t)
	seedCatalog(t, c)

	page, err := c.Search(context.Background(), "cardiology", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}
	if page.Hits[0].Video.ID != "vid-2" {
		t.Errorf("hit = %s, want vid-2", page.Hits[0].Video.ID)
	}
	if page.Engine != "fuzzy" {
		t.Errorf("engine = %q, want fuzzy", page.Engine)
	}
}

func TestClient_SearchTypo(t *testing.T) {
	c := newTestClient(t)
	seedCatalog(t, c)

	page, err := c.Search(context.Background(), "athsma", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 1 || page.Hits[0].Video.ID != "vid-1" {
		t.Fatalf("typo query missed: total=%d", page.Total)
	}
}

func TestClient_Spaces(t *testing.T) {
	c := newTestClient(t)
	seedCatalog(t, c)

	sums := c.Spaces()
	if len(sums) != 2 {
		t.Fatalf("Spaces() = %d, want 2", len(sums))
	}
	// Largest space first.
	if sums[0].Name != "Cardiology" || sums[0].VideoCount != 2 {
		t.Errorf("got %+v, want Cardiology with 2 videos", sums[0])
	}
}

func TestClient_SpaceVideos(t *testing.T) {
	c := newTestClient(t)
	seedCatalog(t, c)

	page, err := c.SpaceVideos("Cardiology", 1, 10, "")
	if err != nil {
		t.Fatalf("SpaceVideos: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}

	if _, err := c.SpaceVideos("Nope", 1, 10, ""); !errors.Is(err, domain.ErrSpaceNotFound) {
		t.Errorf("unknown space: err = %v, want ErrSpaceNotFound", err)
	}
}

func TestClient_Video(t *testing.T) {
	c := newTestClient(t)
	seedCatalog(t, c)

	v, err := c.Video("vid-3")
	if err != nil {
		t.Fatalf("Video: %v", err)
	}
	if v.Title != "ECG Interpretation" {
		t.Errorf("title = %q", v.Title)
	}

	if _, err := c.Video("missing"); !errors.Is(err, domain.ErrVideoNotFound) {
		t.Errorf("missing video: err = %v, want ErrVideoNotFound", err)
	}
}

func TestClient_Timestops(t *testing.T) {
	c := newTestClient(t)
	seedCatalog(t, c)
	ctx := context.Background()

	stops := []Timestop{
		{Timestamp: 0, TimeFormatted: "00:00", Label: "Intro"},
		{Timestamp: 90, TimeFormatted: "01:30", Label: "Lead placement"},
	}
	if err := c.SetTimestops(ctx, "vid-3", stops); err != nil {
		t.Fatalf("SetTimestops: %v", err)
	}

	got, err := c.Timestops(ctx, "vid-3")
	if err != nil {
		t.Fatalf("Timestops: %v", err)
	}
	if len(got) != 2 || got[0].Label != "Intro" {
		t.Fatalf("got %+v", got)
	}
	if got[0].VideoID != "vid-3" {
		t.Errorf("video id = %q, want vid-3", got[0].VideoID)
	}
}

func TestClient_TimestopSearchSurfacesVideo(t *testing.T) {
	c := newTestClient(t)
	seedCatalog(t, c)
	ctx := context.Background()

	// "wolff" shares no fuzzy overlap with any seeded title, so the video
	// is reachable only through its chapter marker.
	err := c.SetTimestops(ctx, "vid-3", []Timestop{
		{Timestamp: 120, TimeFormatted: "02:00", Label: "Wolff-Parkinson-White pattern"},
	})
	if err != nil {
		t.Fatalf("SetTimestops: %v", err)
	}

	page, err := c.Search(ctx, "wolff", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.TimestopMatches != 1 {
		t.Fatalf("timestop matches = %d, want 1", page.TimestopMatches)
	}
	if page.Hits[0].Video.ID != "vid-3" {
		t.Errorf("hit = %s, want vid-3", page.Hits[0].Video.ID)
	}
	if len(page.Hits[0].RelevantTimestops) != 1 {
		t.Errorf("relevant timestops = %d, want 1", len(page.Hits[0].RelevantTimestops))
	}
}

func TestClient_Transcription(t *testing.T) {
	c := newTestClient(t)
	seedCatalog(t, c)
	ctx := context.Background()

	tr := Transcription{Text: "today we cover beta blockers", Language: "en", WordCount: 5}
	if err := c.SetTranscription(ctx, "vid-2", tr); err != nil {
		t.Fatalf("SetTranscription: %v", err)
	}

	got, err := c.Transcription(ctx, "vid-2")
	if err != nil {
		t.Fatalf("Transcription: %v", err)
	}
	if got.Text != tr.Text || got.VideoID != "vid-2" {
		t.Errorf("got %+v", got)
	}

	if _, err := c.Transcription(ctx, "vid-1"); !errors.Is(err, domain.ErrVideoNotFound) {
		t.Errorf("missing transcription: err = %v, want ErrVideoNotFound", err)
	}
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
