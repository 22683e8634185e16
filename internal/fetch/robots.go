package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsGate decides whether a URL may be fetched under the host's robots.txt.
// Rules are fetched once per host and cached for the lifetime of the gate,
// which matches the lifetime of one run. Any failure to obtain or parse the
// rules degrades to "allowed": politeness must not reduce yield on hosts with
// broken robots endpoints.
type RobotsGate struct {
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration

	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

func (g *RobotsGate) Allowed(ctx context.Context, u *url.URL) bool {
	if g == nil || u == nil {
		return true
	}
	group := g.groupFor(ctx, u)
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (g *RobotsGate) groupFor(ctx context.Context, u *url.URL) *robotstxt.Group {
	key := strings.ToLower(u.Scheme + "://" + u.Host)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groups == nil {
		g.groups = make(map[string]*robotstxt.Group)
	}
	if group, ok := g.groups[key]; ok {
		return group
	}

	group := g.fetchGroup(ctx, key+"/robots.txt")
	g.groups[key] = group
	return group
}

func (g *RobotsGate) fetchGroup(ctx context.Context, robotsURL string) *robotstxt.Group {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}
	hc := g.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	agent := g.UserAgent
	if agent == "" {
		agent = "*"
	}
	return data.FindGroup(agent)
}
