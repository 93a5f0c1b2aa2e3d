// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Fetcher backends.
const (
	FetcherMemory = "memory"
	FetcherJudge  = "judge"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory submission queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission ID cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxEventsPerMember caps the raw submissions kept per member (0 = unbounded).
	MaxEventsPerMember int `koanf:"max_events_per_member"`

	// DefaultWindowDays is used when a request does not name a window.
	DefaultWindowDays int `koanf:"default_window_days"`

	// MaxWindowDays caps the window a request may ask for.
	MaxWindowDays int `koanf:"max_window_days"`

	// MaxInFlightFetches bounds concurrent member fetches per party request.
	MaxInFlightFetches int `koanf:"max_in_flight_fetches"`

	// FetchTimeoutMS bounds a whole party fetch; unresolved members count as failed.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// Fetcher selects where member events come from: memory or judge.
	Fetcher string `koanf:"fetcher"`

	// JudgeBaseURL is the external judge API root, required for the judge fetcher.
	JudgeBaseURL string `koanf:"judge_base_url"`

	// JudgeTimeoutMS bounds one HTTP call to the judge.
	JudgeTimeoutMS int `koanf:"judge_timeout_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		EventQueueSize:     100_000,
		WorkerCount:        runtime.NumCPU() * 2,
		DedupeSize:         500_000,
		MaxEventsPerMember: 10_000,
		DefaultWindowDays:  7,
		MaxWindowDays:      365,
		MaxInFlightFetches: 4,
		FetchTimeoutMS:     10_000,
		Fetcher:            FetcherMemory,
		JudgeTimeoutMS:     5_000,
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DefaultWindowDays < 1:
		return fmt.Errorf("%w: default_window_days must be positive", ErrInvalidConfig)
	case c.MaxWindowDays < c.DefaultWindowDays:
		return fmt.Errorf("%w: max_window_days must be >= default_window_days", ErrInvalidConfig)
	case c.MaxInFlightFetches < 1:
		return fmt.Errorf("%w: max_in_flight_fetches must be positive", ErrInvalidConfig)
	case c.FetchTimeoutMS < 1:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	}

	switch c.Fetcher {
	case FetcherMemory:
	case FetcherJudge:
		if strings.TrimSpace(c.JudgeBaseURL) == "" {
			return fmt.Errorf("%w: judge_base_url is required for the judge fetcher", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown fetcher %q", ErrInvalidConfig, c.Fetcher)
	}
	return nil
}
