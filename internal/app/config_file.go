package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested sections
// map naturally to flags.
type FileConfig struct {
	OutputDir string `yaml:"outputDir" json:"outputDir"`
	Blacklist string `yaml:"blacklist" json:"blacklist"`

	Search struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"search" json:"search"`

	Crawl struct {
		MaxResults    int           `yaml:"maxResults" json:"maxResults"`
		Workers       int           `yaml:"workers" json:"workers"`
		Timeout       time.Duration `yaml:"timeout" json:"timeout"`
		MinWords      int           `yaml:"minWords" json:"minWords"`
		UserAgent     string        `yaml:"userAgent" json:"userAgent"`
		RespectRobots bool          `yaml:"respectRobots" json:"respectRobots"`
	} `yaml:"crawl" json:"crawl"`

	Stats struct {
		CountBlacklistSkips *bool `yaml:"countBlacklistSkips" json:"countBlacklistSkips"`
	} `yaml:"stats" json:"stats"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	XLSX    bool `yaml:"xlsx" json:"xlsx"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for fields still at
// their defaults. Flags should already have been parsed; this lets file config
// supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.OutputDir == "" || cfg.OutputDir == DefaultOutputDir) && fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if (cfg.BlacklistPath == "" || cfg.BlacklistPath == DefaultBlacklistPath) && fc.Blacklist != "" {
		cfg.BlacklistPath = fc.Blacklist
	}
	if cfg.FileSearchPath == "" && fc.Search.File != "" {
		cfg.FileSearchPath = fc.Search.File
	}
	if (cfg.MaxResults == 0 || cfg.MaxResults == DefaultMaxResults) && fc.Crawl.MaxResults > 0 {
		cfg.MaxResults = fc.Crawl.MaxResults
	}
	if cfg.Workers == 0 && fc.Crawl.Workers > 0 {
		cfg.Workers = fc.Crawl.Workers
	}
	if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == DefaultFetchTimeout) && fc.Crawl.Timeout > 0 {
		cfg.FetchTimeout = fc.Crawl.Timeout
	}
	if cfg.MinContentWords == 0 && fc.Crawl.MinWords > 0 {
		cfg.MinContentWords = fc.Crawl.MinWords
	}
	if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && fc.Crawl.UserAgent != "" {
		cfg.UserAgent = fc.Crawl.UserAgent
	}
	if !cfg.RespectRobots && fc.Crawl.RespectRobots {
		cfg.RespectRobots = true
	}
	if fc.Stats.CountBlacklistSkips != nil {
		cfg.CountBlacklistSkips = *fc.Stats.CountBlacklistSkips
	}
	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if !cfg.EnableXLSX && fc.XLSX {
		cfg.EnableXLSX = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if len(cfg.Queries) == 0 {
		return errors.New("config: at least one query is required")
	}
	if cfg.OutputDir == "" {
		return errors.New("config: output directory is required")
	}
	if cfg.MaxResults < 0 || cfg.Workers < 0 || cfg.MinContentWords < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.FetchTimeout < 0 {
		return errors.New("config: negative timeout is not allowed")
	}
	return nil
}
