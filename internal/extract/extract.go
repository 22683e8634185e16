package extract

import (
	"bytes"
	"errors"
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Document is a simplified representation of extracted page content.
type Document struct {
	Title string
	Text  string
}

// Words returns the whitespace-separated word count of the extracted text.
func (d Document) Words() int {
	return len(strings.Fields(d.Text))
}

// ErrEmpty indicates that no strategy could find any readable text.
var ErrEmpty = errors.New("no extractable content")

// Strategy converts raw page bytes into a Document. Implementations must be
// deterministic and must not perform I/O.
type Strategy interface {
	Extract(body []byte, pageURL *url.URL) (Document, error)
}

// Extractor runs a readability-oriented primary strategy and degrades to a
// structural fallback when the primary yields too little prose. Sites vary
// widely in markup quality; a single strategy either over-rejects valid short
// articles or under-filters boilerplate on irregular pages. The fallback's
// output is accepted even below the threshold: thin but present beats nothing.
type Extractor struct {
	// MinWords is the acceptance threshold for the primary strategy.
	// Zero means DefaultMinWords.
	MinWords int
	// Primary and Fallback default to ReadabilityStrategy and
	// StructuralStrategy when nil.
	Primary  Strategy
	Fallback Strategy
}

// DefaultMinWords is the word-count floor below which a primary extraction is
// considered too thin to trust on its own.
const DefaultMinWords = 50

func (e *Extractor) Extract(body []byte, rawURL string) (Document, error) {
	minWords := e.MinWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	primary := e.Primary
	if primary == nil {
		primary = ReadabilityStrategy{}
	}
	fallback := e.Fallback
	if fallback == nil {
		fallback = StructuralStrategy{}
	}

	pageURL, _ := url.Parse(rawURL)

	first, err := primary.Extract(body, pageURL)
	if err == nil && first.Words() >= minWords {
		return first, nil
	}

	second, ferr := fallback.Extract(body, pageURL)
	if ferr == nil && second.Text != "" {
		if second.Title == "" {
			second.Title = first.Title
		}
		return second, nil
	}

	// Fallback found nothing; a thin primary result still beats an empty record.
	if err == nil && first.Text != "" {
		return first, nil
	}
	return Document{}, ErrEmpty
}

// ReadabilityStrategy is the primary extraction path: a full readability pass
// tuned for article-like pages.
type ReadabilityStrategy struct{}

func (ReadabilityStrategy) Extract(body []byte, pageURL *url.URL) (Document, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Title: strings.TrimSpace(article.Title),
		Text:  normalizeText(article.TextContent),
	}, nil
}

var reWhitespace = regexp.MustCompile(`[ \t\r\f]+`)

// normalizeText collapses horizontal whitespace runs and drops repeated blank
// lines while preserving paragraph breaks.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(reWhitespace.ReplaceAllString(line, " "))
		if line == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			if len(out) == 0 {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
