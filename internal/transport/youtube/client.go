// Package youtube fetches the channel origin's video collection through
// the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/staycurrentmd/videolib/internal/domain/video"
)

// DefaultBaseURL is the production Data API endpoint.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

const pageSize = 50 // API maximum per search page

// Config holds the channel origin settings.
type Config struct {
	APIKey     string
	ChannelID  string
	MaxResults int
	BaseURL    string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Client fetches channel uploads.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	channelID  string
	maxResults int
	logger     *zap.Logger
}

// New creates a YouTube Data API client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("channel id is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		channelID:  cfg.ChannelID,
		maxResults: cfg.MaxResults,
		logger:     logger,
	}, nil
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			Thumbnails  struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// FetchVideos lists the channel's uploads newest-first and resolves their
// details. Records are tagged SourceYouTube with no space; the matcher
// assigns spaces from the primary collection.
func (c *Client) FetchVideos(ctx context.Context) ([]video.Record, error) {
	ids, err := c.listVideoIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	records := make([]video.Record, 0, len(ids))
	for start := 0; start < len(ids); start += pageSize {
		end := min(start+pageSize, len(ids))
		batch, err := c.fetchDetails(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}

	c.logger.Debug("Fetched channel videos", zap.Int("count", len(records)))
	return records, nil
}

func (c *Client) listVideoIDs(ctx context.Context) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("channelId", c.channelID)
		params.Set("type", "video")
		params.Set("order", "date")
		params.Set("maxResults", strconv.Itoa(pageSize))
		params.Set("key", c.apiKey)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var resp searchResponse
		if err := c.get(ctx, "/search", params, &resp); err != nil {
			return nil, fmt.Errorf("list channel videos: %w", err)
		}

		for _, item := range resp.Items {
			if item.ID.VideoID != "" {
				ids = append(ids, item.ID.VideoID)
			}
			if c.maxResults > 0 && len(ids) >= c.maxResults {
				return ids[:c.maxResults], nil
			}
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (c *Client) fetchDetails(ctx context.Context, ids []string) ([]video.Record, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", c.apiKey)

	var resp videosResponse
	if err := c.get(ctx, "/videos", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch video details: %w", err)
	}

	records := make([]video.Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		records = append(records, video.Record{
			ID:           item.ID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Source:       video.SourceYouTube,
			CreatedAt:    item.Snippet.PublishedAt,
			PlaybackURL:  "https://www.youtube.com/watch?v=" + item.ID,
			EmbedURL:     "https://www.youtube.com/embed/" + item.ID,
			ThumbnailURL: item.Snippet.Thumbnails.High.URL,
			Duration:     parseISODuration(item.ContentDetails.Duration),
		})
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// parseISODuration converts an ISO-8601 duration such as "PT1H2M3S" to
// whole seconds. Malformed input yields 0.
func parseISODuration(s string) int {
	s = strings.TrimPrefix(s, "P")
	if s == "" {
		return 0
	}

	var days, hours, minutes, seconds int
	datePart, timePart, found := strings.Cut(s, "T")
	if !found {
		datePart, timePart = s, ""
	}

	if n, rest := takeComponent(datePart, 'D'); rest == "" {
		days = n
	}
	for _, unit := range []byte{'H', 'M', 'S'} {
		n, rest := takeComponent(timePart, unit)
		switch unit {
		case 'H':
			hours = n
		case 'M':
			minutes = n
		case 'S':
			seconds = n
		}
		timePart = rest
	}

	return ((days*24+hours)*60+minutes)*60 + seconds
}

// takeComponent reads a leading "<digits><unit>" component, returning its
// value and the remaining string. Missing components return 0 unchanged.
func takeComponent(s string, unit byte) (int, string) {
	idx := strings.IndexByte(s, unit)
	if idx < 0 {
		return 0, s
	}
	n, err := strconv.Atoi(s[:idx])
	if err != nil {
		return 0, s
	}
	return n, s[idx+1:]
}
