package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
)

// defaultPostTimeout bounds one webhook request.
const defaultPostTimeout = 15 * time.Second

// PosterOption configures an HTTPPoster.
type PosterOption func(*HTTPPoster)

// WithGzip compresses request bodies.
func WithGzip(enabled bool) PosterOption {
	return func(p *HTTPPoster) {
		p.gzip = enabled
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) PosterOption {
	return func(p *HTTPPoster) {
		if c != nil {
			p.client = c
		}
	}
}

// HTTPPoster posts alert envelopes to the webhook the way Loggly does.
type HTTPPoster struct {
	url    string
	client *http.Client
	gzip   bool
}

// NewHTTPPoster creates a poster targeting url.
func NewHTTPPoster(url string, opts ...PosterOption) *HTTPPoster {
	p := &HTTPPoster{
		url:    url,
		client: &http.Client{Timeout: defaultPostTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Post sends env and returns the invocation id the webhook assigned.
func (p *HTTPPoster) Post(ctx context.Context, env *events.AlertEnvelope) (string, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal alert envelope: %w", err)
	}

	if p.gzip {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return "", fmt.Errorf("failed to compress alert envelope: %w", err)
		}
		if err := zw.Close(); err != nil {
			return "", fmt.Errorf("failed to compress alert envelope: %w", err)
		}
		body = buf.Bytes()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to post alert to %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Header.Get("X-Invocation-Id"), nil
}
