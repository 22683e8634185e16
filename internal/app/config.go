package app

import "time"

// Config holds runtime configuration for one research run.
type Config struct {
	Queries []string

	// Output
	OutputDir  string
	EnableXLSX bool

	// Inputs
	BlacklistPath  string
	FileSearchPath string

	// Crawl behavior
	MaxResults      int
	Workers         int
	FetchTimeout    time.Duration
	MinContentWords int
	UserAgent       string
	RespectRobots   bool

	// Stats policy: whether a blacklist skip counts as a domain failure.
	CountBlacklistSkips bool

	// Optional LLM-backed entity annotation
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	Verbose bool
}
