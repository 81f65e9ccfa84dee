// Package youtube provides a client for the YouTube Data API search
// endpoint, used as the audio-link source.
package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3/search"

// Client is a YouTube Data API search client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Config represents YouTube client configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, for tests
}

// Video is the best video hit for a search query.
type Video struct {
	ID    string // video id, the service's addressing convention
	Title string // title as reported by the source
}

// Link returns the playable watch URL derived from the video id.
func (v *Video) Link() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// searchResponse mirrors the fields of the search API response that the
// client consumes.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

// New creates a new YouTube search client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Search returns the single best video for the query, or nil when the
// search yields nothing.
func (c *Client) Search(ctx context.Context, query string) (*Video, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("q", query)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	if len(response.Items) == 0 {
		return nil, nil
	}

	item := response.Items[0]
	return &Video{ID: item.ID.VideoID, Title: item.Snippet.Title}, nil
}
