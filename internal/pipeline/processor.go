package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/probeworks/bizscout/internal/blacklist"
	"github.com/probeworks/bizscout/internal/entities"
	"github.com/probeworks/bizscout/internal/extract"
	"github.com/probeworks/bizscout/internal/fetch"
	"github.com/probeworks/bizscout/internal/search"
)

// Fetcher is the minimal fetch surface the processor needs; satisfied by
// *fetch.Client and trivially mocked in tests.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Extractor converts raw page bytes into readable text.
type Extractor interface {
	Extract(body []byte, pageURL string) (extract.Document, error)
}

// Outcome is the result of processing one search result: exactly one of
// Record or Failure is set.
type Outcome struct {
	Record  *ScrapeRecord
	Failure *FailureRecord
}

// Processor turns one search result into an Outcome: blacklist check, fetch,
// extract, annotate, record construction. Calls are independent of each other
// and safe to run concurrently. No error escapes Process; anything unexpected
// is converted into a failure outcome so a single URL can never abort a topic.
type Processor struct {
	Filter    *blacklist.Filter
	Fetcher   Fetcher
	Extractor Extractor
	Annotator entities.Annotator
	Stats     *StatsTracker

	// CountBlacklistSkips controls whether a blacklist skip is recorded as a
	// domain failure. Counting surfaces blacklist friction in the domain
	// summary; not counting keeps the summary to real fetch outcomes.
	CountBlacklistSkips bool

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

func (p *Processor) Process(ctx context.Context, topic string, res search.Result) (out Outcome) {
	domain, derr := Domain(res.URL)

	fail := func(reason string, countStat bool) Outcome {
		if countStat {
			p.Stats.Record(domain, false)
		}
		return Outcome{Failure: &FailureRecord{Topic: topic, URL: res.URL, Reason: reason}}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("url", res.URL).Interface("panic", r).Msg("processing panicked")
			out = fail(fmt.Sprintf("unexpected: %v", r), true)
		}
	}()

	if derr != nil {
		// No domain to attribute the outcome to; the failure record still exists.
		return Outcome{Failure: &FailureRecord{Topic: topic, URL: res.URL, Reason: "invalid url"}}
	}

	if p.Filter.IsBlocked(domain) {
		log.Info().Str("url", res.URL).Str("domain", domain).Msg("skipping blacklisted domain")
		return fail("blacklisted", p.CountBlacklistSkips)
	}

	page, err := p.Fetcher.Fetch(ctx, res.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", res.URL).Msg("fetch failed")
		return fail(failureReason(err), true)
	}

	doc, err := p.Extractor.Extract(page.Body, page.FinalURL)
	if err != nil {
		log.Warn().Err(err).Str("url", res.URL).Msg("no content extracted")
		if errors.Is(err, extract.ErrEmpty) {
			return fail("no extractable content", true)
		}
		return fail(fmt.Sprintf("unexpected: %v", err), true)
	}

	ents := p.annotate(ctx, doc.Text, res.URL)

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	rec := &ScrapeRecord{
		Topic:     topic,
		Title:     pickNonEmpty(res.Title, doc.Title),
		URL:       res.URL,
		Domain:    domain,
		Snippet:   Snippet(doc.Text),
		Content:   doc.Text,
		ScrapedAt: now().UTC(),
		Entities:  ents,
		Keywords:  []string{},
	}
	p.Stats.Record(domain, true)
	return Outcome{Record: rec}
}

// annotate is best-effort: any annotator error or absence degrades to an
// empty entity list.
func (p *Processor) annotate(ctx context.Context, text, url string) []entities.Entity {
	if p.Annotator == nil {
		return []entities.Entity{}
	}
	ents, err := p.Annotator.Annotate(ctx, text)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("entity annotation failed")
		return []entities.Entity{}
	}
	if ents == nil {
		ents = []entities.Entity{}
	}
	return ents
}

// failureReason maps an error to a short stable label for failure records.
func failureReason(err error) string {
	var fe *fetch.Error
	if errors.As(err, &fe) {
		return fe.Reason()
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return fmt.Sprintf("unexpected: %v", err)
}

func pickNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
