package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/probeworks/bizscout/internal/aggregate"
	"github.com/probeworks/bizscout/internal/blacklist"
	"github.com/probeworks/bizscout/internal/entities"
	"github.com/probeworks/bizscout/internal/export"
	"github.com/probeworks/bizscout/internal/extract"
	"github.com/probeworks/bizscout/internal/fetch"
	"github.com/probeworks/bizscout/internal/pipeline"
	"github.com/probeworks/bizscout/internal/search"
)

// Defaults shared between flag declarations and file-config overlay.
const (
	DefaultOutputDir     = "output"
	DefaultBlacklistPath = "blacklist.txt"
	DefaultMaxResults    = 10
	DefaultFetchTimeout  = 15 * time.Second
	DefaultUserAgent     = "bizscout/1.0 (+https://github.com/probeworks/bizscout)"
)

// ErrNoRecords is returned when an entire run produces zero scrape records.
// The CLI maps it to a non-zero exit code.
var ErrNoRecords = fmt.Errorf("no records produced")

type App struct {
	cfg      Config
	provider search.Provider
	runner   *pipeline.Runner
	stats    *pipeline.StatsTracker
}

func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	filter, err := blacklist.Load(cfg.BlacklistPath)
	if err != nil {
		return nil, fmt.Errorf("load blacklist: %w", err)
	}
	if filter.Len() > 0 {
		log.Info().Int("domains", filter.Len()).Str("path", cfg.BlacklistPath).Msg("loaded blacklist")
	} else {
		log.Info().Str("path", cfg.BlacklistPath).Msg("no blacklist entries; proceeding without one")
	}

	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	fetcher := &fetch.Client{
		HTTPClient:        newPooledHTTPClient(),
		UserAgent:         userAgent,
		PerRequestTimeout: timeout,
		RedirectMaxHops:   5,
		MaxConcurrent:     8,
	}
	if cfg.RespectRobots {
		fetcher.Robots = &fetch.RobotsGate{UserAgent: userAgent, Timeout: timeout}
	}

	stats := pipeline.NewStatsTracker()
	a := &App{
		cfg:      cfg,
		provider: newProvider(cfg),
		stats:    stats,
		runner: &pipeline.Runner{
			Processor: &pipeline.Processor{
				Filter:              filter,
				Fetcher:             fetcher,
				Extractor:           &extract.Extractor{MinWords: cfg.MinContentWords},
				Annotator:           newAnnotator(cfg),
				Stats:               stats,
				CountBlacklistSkips: cfg.CountBlacklistSkips,
			},
			Limit:   cfg.MaxResults,
			Workers: cfg.Workers,
		},
	}
	return a, nil
}

func newProvider(cfg Config) search.Provider {
	if cfg.FileSearchPath != "" {
		return &search.FileProvider{Path: cfg.FileSearchPath}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &search.DuckDuckGo{HTTPClient: newPooledHTTPClient(), UserAgent: ua}
}

func newAnnotator(cfg Config) entities.Annotator {
	if cfg.LLMModel != "" {
		transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			transportCfg.BaseURL = cfg.LLMBaseURL
		}
		log.Info().Str("model", cfg.LLMModel).Msg("using LLM entity annotation")
		return &entities.LLMAnnotator{Client: openai.NewClientWithConfig(transportCfg), Model: cfg.LLMModel}
	}
	return &entities.ProseAnnotator{}
}

// newPooledHTTPClient returns a client with generous connection pooling.
// Reusing connections across fetches within a run is a performance
// optimization only; failure semantics are unchanged.
func newPooledHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 8
	return &http.Client{Transport: transport}
}

// Run executes every configured query and writes per-topic and merged
// outputs. A canceled context stops new work but still exports whatever
// topics completed.
func (a *App) Run(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	seen := make(map[string]struct{})
	topics := make([]pipeline.TopicResult, 0, len(a.cfg.Queries))
	for _, query := range a.cfg.Queries {
		if ctx.Err() != nil {
			log.Warn().Str("topic", query).Msg("run interrupted; keeping completed topics")
			break
		}
		topics = append(topics, a.runTopic(ctx, query, seen))
	}

	merged := pipeline.Merge(topics, a.stats)
	a.exportRun(merged)

	if len(merged.Records) == 0 {
		return ErrNoRecords
	}
	return nil
}

func (a *App) runTopic(ctx context.Context, query string, seen map[string]struct{}) pipeline.TopicResult {
	log.Info().Str("topic", query).Msg("searching")
	results, err := a.provider.Search(ctx, query, a.runner.Limit)
	if err != nil {
		// A provider outage is fatal for the topic, not the run.
		log.Error().Err(err).Str("topic", query).Msg("search failed")
		out := pipeline.TopicResult{
			Topic:    query,
			Failures: []pipeline.FailureRecord{{Topic: query, Reason: fmt.Sprintf("search: %v", err)}},
		}
		a.exportTopic(out)
		return out
	}
	if len(results) == 0 {
		log.Warn().Str("topic", query).Msg("no search results")
	}
	results = aggregate.Dedupe(results, seen)

	out := a.runner.Run(ctx, query, results)
	a.exportTopic(out)
	return out
}

func (a *App) exportTopic(t pipeline.TopicResult) {
	if len(t.Records) > 0 {
		path, err := export.WriteTopicCSV(a.cfg.OutputDir, t.Topic, t.Records)
		if err != nil {
			log.Error().Err(err).Str("topic", t.Topic).Msg("write topic csv failed")
		} else {
			log.Info().Str("path", path).Str("size", export.HumanSize(path)).Msg("wrote topic data")
		}
	}
	if len(t.Failures) > 0 {
		path, err := export.WriteFailures(a.cfg.OutputDir, t.Topic, t.Failures)
		if err != nil {
			log.Error().Err(err).Str("topic", t.Topic).Msg("write failure log failed")
		} else {
			log.Warn().Int("failed", len(t.Failures)).Str("path", path).Msg("logged failed URLs")
		}
	}
}

func (a *App) exportRun(merged pipeline.RunResult) {
	if len(merged.Records) > 0 {
		if path, err := export.WriteMergedCSV(a.cfg.OutputDir, merged.Records); err != nil {
			log.Error().Err(err).Msg("write merged csv failed")
		} else {
			log.Info().Str("path", path).Str("size", export.HumanSize(path)).Msg("wrote merged csv")
		}
		if path, err := export.WriteMergedJSON(a.cfg.OutputDir, merged.Records); err != nil {
			log.Error().Err(err).Msg("write merged json failed")
		} else {
			log.Info().Str("path", path).Str("size", export.HumanSize(path)).Msg("wrote merged json")
		}
		if a.cfg.EnableXLSX {
			if path, err := export.WriteWorkbook(a.cfg.OutputDir, merged.Records, merged.DomainSummary); err != nil {
				log.Error().Err(err).Msg("write workbook failed")
			} else {
				log.Info().Str("path", path).Msg("wrote workbook")
			}
		}
	}
	if path, err := export.WriteDomainStats(a.cfg.OutputDir, merged.DomainSummary); err != nil {
		log.Error().Err(err).Msg("write domain summary failed")
	} else {
		log.Info().Str("path", path).Msg("wrote domain summary")
	}
}
