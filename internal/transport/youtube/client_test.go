package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/staycurrentmd/videolib/internal/domain/video"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{ChannelID: "ch"}); err == nil {
		t.Error("missing api key must fail")
	}
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Error("missing channel id must fail")
	}
}

func TestFetchVideos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("channelId") != "UC123" {
			t.Errorf("channelId = %q", r.URL.Query().Get("channelId"))
		}
		switch r.URL.Query().Get("pageToken") {
		case "":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"nextPageToken": "page2",
				"items": []map[string]any{
					{"id": map[string]string{"videoId": "yt1"}},
				},
			})
		case "page2":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"id": map[string]string{"videoId": "yt2"}},
				},
			})
		default:
			t.Errorf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
		}
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "yt1,yt2" {
			t.Errorf("id = %q", r.URL.Query().Get("id"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id": "yt1",
					"snippet": map[string]any{
						"title":       "Asthma Care Walkthrough",
						"description": "stepwise therapy",
						"publishedAt": "2024-05-01T10:00:00Z",
						"thumbnails":  map[string]any{"high": map[string]string{"url": "https://i.ytimg.com/yt1.jpg"}},
					},
					"contentDetails": map[string]string{"duration": "PT12M30S"},
				},
				{
					"id": "yt2",
					"snippet": map[string]any{
						"title":       "Grand Rounds",
						"publishedAt": "2024-04-01T10:00:00Z",
					},
					"contentDetails": map[string]string{"duration": "PT1H2M3S"},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(Config{APIKey: "k", ChannelID: "UC123", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	vids, err := c.FetchVideos(context.Background())
	if err != nil {
		t.Fatalf("FetchVideos: %v", err)
	}
	if len(vids) != 2 {
		t.Fatalf("got %d videos, want 2", len(vids))
	}

	v := vids[0]
	if v.ID != "yt1" || v.Title != "Asthma Care Walkthrough" {
		t.Errorf("record = %+v", v)
	}
	if v.Source != video.SourceYouTube {
		t.Errorf("source = %q", v.Source)
	}
	if v.PlaybackURL != "https://www.youtube.com/watch?v=yt1" {
		t.Errorf("playback url = %q", v.PlaybackURL)
	}
	if v.EmbedURL != "https://www.youtube.com/embed/yt1" {
		t.Errorf("embed url = %q", v.EmbedURL)
	}
	if v.ThumbnailURL != "https://i.ytimg.com/yt1.jpg" {
		t.Errorf("thumbnail = %q", v.ThumbnailURL)
	}
	if v.Duration != 750 {
		t.Errorf("duration = %d, want 750", v.Duration)
	}
	if vids[1].Duration != 3723 {
		t.Errorf("duration = %d, want 3723", vids[1].Duration)
	}
}

func TestFetchVideos_MaxResultsCap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"nextPageToken": "more",
			"items": []map[string]any{
				{"id": map[string]string{"videoId": "yt1"}},
				{"id": map[string]string{"videoId": "yt2"}},
				{"id": map[string]string{"videoId": "yt3"}},
			},
		})
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "yt1,yt2" {
			t.Errorf("id = %q, want capped list", r.URL.Query().Get("id"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{{"id": "yt1"}, {"id": "yt2"}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(Config{APIKey: "k", ChannelID: "UC123", BaseURL: srv.URL, MaxResults: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	vids, err := c.FetchVideos(context.Background())
	if err != nil {
		t.Fatalf("FetchVideos: %v", err)
	}
	if len(vids) != 2 {
		t.Errorf("got %d videos, want 2", len(vids))
	}
}

func TestFetchVideos_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", ChannelID: "UC123", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.FetchVideos(context.Background()); err == nil {
		t.Error("expected error on 403")
	}
}

func TestParseISODuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"PT15S", 15},
		{"PT2M", 120},
		{"PT1H", 3600},
		{"PT1H2M3S", 3723},
		{"P1DT1H", 90000},
		{"garbage", 0},
	}
	for _, c := range cases {
		if got := parseISODuration(c.in); got != c.want {
			t.Errorf("parseISODuration(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
