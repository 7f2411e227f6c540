// Package relay performs authenticated fetches on behalf of callers that
// cannot attach the user's X.com session themselves.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ibeckermayer/likesearch/internal/logging"
)

var relayLog = logging.ForComponent(logging.CompRelay)

// TypeFetchLikes is the only request type the relay serves
const TypeFetchLikes = "fetchLikes"

// ErrUnknownType is returned for request types the relay does not serve
var ErrUnknownType = errors.New("unknown request type")

// Request asks the relay to fetch a URL with the stored session attached
type Request struct {
	Type    string            `json:"type"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Response carries either the parsed JSON body or an error message
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// HTTPError is a non-2xx response
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d - %s", e.Status, e.Body)
}

// CookieSource supplies the session cookies attached to each request
type CookieSource interface {
	GetCookies() ([]*network.Cookie, error)
}

// Options configures a Client
type Options struct {
	// RatePerSecond bounds outgoing requests; zero disables limiting
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
	// Concurrency bounds FetchAll fan-out
	Concurrency int
}

// DefaultOptions returns the relay defaults
func DefaultOptions() Options {
	return Options{
		RatePerSecond: 2,
		Burst:         4,
		Timeout:       30 * time.Second,
		Concurrency:   4,
	}
}

// Client relays fetch requests
type Client struct {
	http    *http.Client
	cookies CookieSource
	limiter *rate.Limiter
	opts    Options
}

// New creates a relay client. cookies may be nil for unauthenticated fetches.
func New(cookies CookieSource, opts Options) *Client {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		cookies: cookies,
		limiter: rate.NewLimiter(limit, opts.Burst),
		opts:    opts,
	}
}

// Handle serves one request. Failures are reported in the response, never
// as a Go error, so the result can always be sent back to the caller.
func (c *Client) Handle(ctx context.Context, req Request) Response {
	data, err := c.fetch(ctx, req)
	if err != nil {
		relayLog.Warn("relay_failed", slog.String("url", req.URL), slog.String("error", err.Error()))
		return Response{Success: false, Error: err.Error()}
	}
	return Response{Success: true, Data: data}
}

// FetchAll serves several requests concurrently. Responses are returned in
// request order; only cancellation of ctx aborts the batch.
func (c *Client) FetchAll(ctx context.Context, reqs []Request) ([]Response, error) {
	responses := make([]Response, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			responses[i] = c.Handle(ctx, req)
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

func (c *Client) fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Type != TypeFetchLikes {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if err := c.attachSession(httpReq); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON response from %s", req.URL)
	}

	relayLog.Debug("relay_ok", slog.String("url", req.URL), slog.Int("bytes", len(body)))
	return json.RawMessage(body), nil
}

// attachSession adds the stored cookies and the matching CSRF header
func (c *Client) attachSession(req *http.Request) error {
	if c.cookies == nil {
		return nil
	}
	cookies, err := c.cookies.GetCookies()
	if err != nil {
		return fmt.Errorf("failed to load cookies: %w", err)
	}

	pairs := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		pairs = append(pairs, ck.Name+"="+ck.Value)
		if ck.Name == "ct0" && req.Header.Get("x-csrf-token") == "" {
			req.Header.Set("x-csrf-token", ck.Value)
		}
	}
	if len(pairs) > 0 {
		req.Header.Set("Cookie", strings.Join(pairs, "; "))
	}
	return nil
}
