package pipeline

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/probeworks/bizscout/internal/entities"
)

// SnippetMaxChars bounds the snippet stored on each record.
const SnippetMaxChars = 300

// ScrapeRecord is one successfully processed URL. Records are immutable after
// creation and owned by the topic run that produced them until merged.
type ScrapeRecord struct {
	Topic     string            `json:"topic"`
	Title     string            `json:"title"`
	URL       string            `json:"url"`
	Domain    string            `json:"domain"`
	Snippet   string            `json:"snippet"`
	Content   string            `json:"content"`
	ScrapedAt time.Time         `json:"scraped_at"`
	Entities  []entities.Entity `json:"entities"`
	// Keywords is reserved for keyword extraction and currently always empty.
	Keywords []string `json:"keywords"`
}

// FailureRecord is one terminally failed URL. A topic-level failure (for
// example a search provider outage) carries an empty URL.
type FailureRecord struct {
	Topic  string `json:"topic"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// DomainStats accumulates per-domain outcomes across the whole run.
type DomainStats struct {
	Domain    string `json:"domain"`
	Successes int    `json:"successes"`
	Failures  int    `json:"failures"`
}

// Domain derives the registrable, lower-cased host from a URL. The port and a
// leading "www." are dropped so blacklist entries and stats keys line up
// regardless of how a link was written.
func Domain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}

// Snippet returns a prefix of content of at most SnippetMaxChars characters,
// cut on a rune boundary.
func Snippet(content string) string {
	if len(content) <= SnippetMaxChars {
		return content
	}
	runes := []rune(content)
	if len(runes) <= SnippetMaxChars {
		return content
	}
	return string(runes[:SnippetMaxChars])
}
