// Package transport is the thin JSON-over-HTTP client every remote call goes
// through. It performs no caching and no retries: failures surface as
// *TransportError exactly once, to the caller that made the request.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failed response is kept as the error message.
const maxErrorBody = 64 << 10

type Client struct {
	baseURL *url.URL
	hc      *http.Client
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client (which only sets a timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		hc:      &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do sends one request and decodes a JSON success body into out.
//
// body, when non-nil, is JSON-encoded. out may be nil. A 2xx response that is
// not application/json (e.g. an empty 204 on delete) succeeds without touching out.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{
			Status:  resp.StatusCode,
			Message: errorMessage(raw, resp.Header.Get("Content-Type")),
		}
	}

	if !isJSON(resp.Header.Get("Content-Type")) || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			// Declared JSON but sent nothing; same as an empty acknowledgement.
			return nil
		}
		return &TransportError{
			Status:  resp.StatusCode,
			Message: "malformed response body: " + err.Error(),
			Err:     err,
		}
	}
	return nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// errorMessage prefers a structured message ({"error":{"message"}} or
// {"message"}) and falls back to the raw body text.
func errorMessage(raw []byte, contentType string) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}
	if isJSON(contentType) {
		var env struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &env); err == nil {
			if env.Error != nil && env.Error.Message != "" {
				return env.Error.Message
			}
			if env.Message != "" {
				return env.Message
			}
		}
	}
	return text
}
