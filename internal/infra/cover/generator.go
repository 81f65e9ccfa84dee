// Package cover fetches generated playlist cover images from an avatar
// service and normalizes them to a fixed size.
package cover

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nfnt/resize"
)

const coverSize = 300

const defaultURLTemplate = "https://api.dicebear.com/9.x/shapes/png?seed=%s&size=320"

// Generator fetches deterministic cover images seeded by a string.
type Generator struct {
	urlTemplate string
	httpClient  *http.Client
}

// Config represents cover generator configuration.
type Config struct {
	// URLTemplate is a printf template with one %s verb for the
	// query-escaped seed. The endpoint must return PNG.
	URLTemplate string
}

// New creates a new cover generator.
func New(cfg Config) *Generator {
	tmpl := cfg.URLTemplate
	if tmpl == "" {
		tmpl = defaultURLTemplate
	}
	return &Generator{
		urlTemplate: tmpl,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Generate fetches the image seeded by seed and returns it as a
// 300x300 PNG.
func (g *Generator) Generate(ctx context.Context, seed string) ([]byte, error) {
	reqURL := fmt.Sprintf(g.urlTemplate, url.QueryEscape(seed))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch cover")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("cover service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cover body")
	}

	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode cover image")
	}

	scaled := resize.Resize(coverSize, coverSize, img, resize.Lanczos3)

	var out bytes.Buffer
	if err := png.Encode(&out, scaled); err != nil {
		return nil, errors.Wrap(err, "failed to encode cover image")
	}
	return out.Bytes(), nil
}
