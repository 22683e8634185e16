package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Kind classifies a fetch failure. Every failure is non-fatal to the caller:
// it is reported as a typed error, never raised past the page processor.
type Kind int

const (
	KindInvalidURL Kind = iota + 1
	KindTimeout
	KindConnection
	KindHTTP
	KindUnsupported
	KindRobots
)

// Error is the typed failure returned by Client.Fetch. Status is set for
// KindHTTP only.
type Error struct {
	Kind   Kind
	Status int
	URL    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason(), e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason())
}

func (e *Error) Unwrap() error { return e.Err }

// Reason returns a short, stable label suitable for failure records.
func (e *Error) Reason() string {
	switch e.Kind {
	case KindInvalidURL:
		return "invalid url"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection error"
	case KindHTTP:
		return fmt.Sprintf("http error: %d", e.Status)
	case KindUnsupported:
		return "unsupported content type"
	case KindRobots:
		return "robots disallowed"
	}
	return "fetch error"
}

// Page is the successful result of a fetch.
type Page struct {
	Body        []byte
	FinalURL    string
	ContentType string
}

// Client retrieves pages with a bounded per-request timeout and converts every
// failure mode into a typed *Error. There is no response caching: each URL is
// fetched at most once per run by construction of the pipeline.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds each request. Zero means no extra bound beyond
	// the caller's context.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int
	// Robots, when set, is consulted before each request.
	Robots *RobotsGate

	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Fetch issues a GET for the URL. On failure the returned error is always a
// *Error carrying the failure kind.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !isHTTPScheme(u) {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}

	if c.Robots != nil && !c.Robots.Allowed(ctx, u) {
		return nil, &Error{Kind: KindRobots, URL: rawURL}
	}

	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(err), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindHTTP, Status: resp.StatusCode, URL: rawURL}
	}
	contentType := resp.Header.Get("Content-Type")
	if !isAllowedContentType(contentType) {
		return nil, &Error{Kind: KindUnsupported, URL: rawURL, Err: fmt.Errorf("content type %q", contentType)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(err), URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Page{Body: body, FinalURL: finalURL, ContentType: contentType}, nil
}

// classifyTransport distinguishes deadline expiry from other transport-level
// failures so a hung connection surfaces as a timeout, not a generic error.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindConnection
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// allow text/html variants and application/xhtml+xml
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
