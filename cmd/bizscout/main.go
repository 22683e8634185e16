package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/probeworks/bizscout/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		outputDir     string
		blacklistPath string
		searchFile    string
		configPath    string
		maxResults    int
		workers       int
		fetchTimeout  time.Duration
		minWords      int
		userAgent     string
		respectRobots bool
		countSkips    bool
		llmBaseURL    string
		llmModel      string
		llmKey        string
		enableXLSX    bool
		verbose       bool
	)

	flag.StringVar(&outputDir, "out.dir", app.DefaultOutputDir, "Directory for per-topic and merged output files")
	flag.StringVar(&blacklistPath, "blacklist", app.DefaultBlacklistPath, "Path to a text file of domains to skip, one per line")
	flag.StringVar(&searchFile, "search.file", os.Getenv("SEARCH_FILE"), "Path to JSON file for offline file-based search provider")
	flag.StringVar(&configPath, "config", "", "Optional YAML/JSON config file; explicit flags take precedence")
	flag.IntVar(&maxResults, "max.results", app.DefaultMaxResults, "Maximum search results to scrape per query")
	flag.IntVar(&workers, "workers", 0, "Worker pool size for per-URL processing (0 uses the default)")
	flag.DurationVar(&fetchTimeout, "timeout", app.DefaultFetchTimeout, "Per-request fetch timeout")
	flag.IntVar(&minWords, "min.words", 0, "Minimum word count for primary extraction (0 uses the default)")
	flag.StringVar(&userAgent, "ua", app.DefaultUserAgent, "User-Agent for search and page fetches")
	flag.BoolVar(&respectRobots, "robots", false, "Honor robots.txt disallow rules when fetching")
	flag.BoolVar(&countSkips, "stats.countSkips", true, "Count blacklist skips as domain failures in the summary")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL for LLM entity annotation")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name; empty uses the built-in statistical recognizer")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for the OpenAI-compatible server")
	flag.BoolVar(&enableXLSX, "xlsx", false, "Also write the merged dataset as an XLSX workbook")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] QUERY [QUERY...]\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Performs live web research for each query: search, fetch, extract,\nannotate, and export structured per-topic and merged datasets.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		Queries:             flag.Args(),
		OutputDir:           outputDir,
		BlacklistPath:       blacklistPath,
		FileSearchPath:      searchFile,
		MaxResults:          maxResults,
		Workers:             workers,
		FetchTimeout:        fetchTimeout,
		MinContentWords:     minWords,
		UserAgent:           userAgent,
		RespectRobots:       respectRobots,
		CountBlacklistSkips: countSkips,
		LLMBaseURL:          llmBaseURL,
		LLMModel:            llmModel,
		LLMAPIKey:           llmKey,
		EnableXLSX:          enableXLSX,
		Verbose:             verbose,
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("config file")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when the run produced no records at all,
		// 1 for configuration errors surfaced before the run started.
		if errors.Is(err, app.ErrNoRecords) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	// SIGINT stops new work; topics already completed are still exported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	return a.Run(ctx)
}
