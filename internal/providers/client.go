package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"golang.org/x/net/html/charset"
)

const (
	defaultTimeout    = 10 * time.Second
	timeoutStep       = 5 * time.Second
	maxAttempts       = 3
	defaultResetDelay = 86400 * time.Second
)

// StatusError is returned for non-2xx upstream responses other than 429.
// Adapters that treat specific codes as data conditions (404 on holidays)
// inspect it with errors.As.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Client is the HTTP transport shared by all provider adapters. Transport
// failures are retried up to three times with an escalating timeout; HTTP 429
// short-circuits into apperrors.LimitExceededError.
type Client struct {
	logger *slog.Logger
}

// NewClient creates a provider HTTP client.
func NewClient(logger *slog.Logger) *Client {
	return &Client{logger: logger}
}

// Get fetches url with the given headers and returns the response body.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		body, err := c.do(ctx, url, headers, defaultTimeout+time.Duration(attempt)*timeoutStep)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Only transport-level failures are worth retrying.
		var se *StatusError
		if errors.As(err, &se) {
			return nil, err
		}
		if _, limited := apperrors.AsLimitExceeded(err); limited {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		c.logger.Warn("provider request failed, retrying",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err))
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewLimitExceeded(resetDelay(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// resetDelay extracts the quota reset delay from 429 response headers.
func resetDelay(resp *http.Response) time.Duration {
	for _, h := range []string{"Retry-After", "RateLimit-Reset", "X-RateLimit-Reset"} {
		v := resp.Header.Get(h)
		if v == "" {
			continue
		}
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil || secs <= 0 {
			continue
		}
		// Large values are epoch timestamps rather than second counts.
		if secs > 1e9 {
			secs = secs - time.Now().Unix()
			if secs <= 0 {
				continue
			}
		}
		return time.Duration(secs) * time.Second
	}
	return defaultResetDelay
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.NewParseError("failed to decode JSON response: "+err.Error(), string(body))
	}
	return nil
}

// GetXML fetches url and decodes the XML body into v. Non-UTF8 charsets
// declared in the document are handled.
func (c *Client) GetXML(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(v); err != nil {
		return apperrors.NewParseError("failed to decode XML response: "+err.Error(), string(body))
	}
	return nil
}
