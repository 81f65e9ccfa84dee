// Package yandex provides a client for the Yandex Music search handler.
package yandex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const defaultBaseURL = "https://music.yandex.ru/handlers/music-search.jsx"

// Client is a Yandex Music search client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config represents Yandex client configuration.
type Config struct {
	BaseURL string // optional, defaults to the public search handler
}

// TrackResult is the top track hit for a search query.
type TrackResult struct {
	Title     string
	Artists   []string
	CoverLink string
}

// searchResponse mirrors the fields of the search handler response that
// the client consumes.
type searchResponse struct {
	Tracks struct {
		Items []struct {
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			CoverURI string `json:"coverUri"`
		} `json:"items"`
	} `json:"tracks"`
}

// New creates a new Yandex Music search client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SearchTrack returns the top track for the query, or nil when the search
// yields nothing.
func (c *Client) SearchTrack(ctx context.Context, text string) (*TrackResult, error) {
	if text == "" {
		return nil, errors.New("search text is required")
	}

	params := url.Values{}
	params.Set("type", "track")
	params.Set("text", text)

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

	if len(response.Tracks.Items) == 0 {
		return nil, nil
	}

	item := response.Tracks.Items[0]
	artists := make([]string, 0, len(item.Artists))
	for _, a := range item.Artists {
		artists = append(artists, a.Name)
	}

	return &TrackResult{
		Title:     item.Title,
		Artists:   artists,
		CoverLink: coverLink(item.CoverURI),
	}, nil
}

// coverLink turns the "%%"-templated cover URI of the search response into
// a concrete 300x300 image URL.
func coverLink(coverURI string) string {
	if coverURI == "" {
		return ""
	}
	return "https://" + strings.TrimSuffix(coverURI, "%%") + "300x300"
}
