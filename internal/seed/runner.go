package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/okian/streakd/pkg/logger"
)

const (
	settlePollInterval = 200 * time.Millisecond
	outputFileMode     = 0o600
)

// ErrNotSettled means the service did not store every accepted submission
// within the settle wait.
var ErrNotSettled = errors.New("ingestion did not settle")

// PartySummary mirrors the summary block of the party analytics response.
type PartySummary struct {
	ActiveMemberCount       int    `json:"activeMemberCount"`
	AverageStreak           int    `json:"averageStreak"`
	TopPerformerID          string `json:"topPerformerId"`
	TotalDistinctActiveDays int    `json:"totalDistinctActiveDays"`
	MostActiveDay           *struct {
		Day      string `json:"day"`
		Activity int    `json:"activity"`
	} `json:"mostActiveDay"`
}

type partyResponse struct {
	Summary PartySummary `json:"summary"`
}

// Run generates, submits and analyzes one synthetic party.
func Run(ctx context.Context, cfg *Config) (PartySummary, *Stats, error) {
	log := logger.Named("seed")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := c.get(ctx, "/healthz", nil); err != nil {
		return PartySummary{}, stats, fmt.Errorf("service health check failed: %w", err)
	}

	var before map[string]any
	if err := c.get(ctx, "/stats", &before); err != nil {
		return PartySummary{}, stats, fmt.Errorf("read stats: %w", err)
	}

	members, subs := Generate(cfg.Members, cfg.Days, time.Now(), cfg.Seed)
	stats.Generated = len(subs)
	log.Info(ctx, "generated submissions",
		logger.Int("members", len(members)),
		logger.Int("submissions", len(subs)),
		logger.Int("days", cfg.Days),
	)
	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	submit(ctx, c, cfg.Workers, subs, stats)
	stats.Duration = time.Since(stats.StartTime)
	if stats.Duration > 0 {
		stats.Throughput = float64(stats.Accepted+stats.Duplicate) / stats.Duration.Seconds()
	}
	log.Info(ctx, "submitted",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Float64("perSecond", stats.Throughput),
	)

	if err := waitSettled(ctx, c, storedCount(before)+stats.Accepted, cfg.SettleWait); err != nil {
		return PartySummary{}, stats, err
	}

	var resp partyResponse
	code, err := c.post(ctx, "/party/analytics", map[string]any{"days": cfg.Days, "members": members}, &resp)
	if err != nil {
		return PartySummary{}, stats, fmt.Errorf("party analytics: %w", err)
	}
	if code != http.StatusOK {
		return PartySummary{}, stats, fmt.Errorf("party analytics: status %d", code)
	}

	log.Info(ctx, "party summary",
		logger.Int("activeMembers", resp.Summary.ActiveMemberCount),
		logger.Int("averageStreak", resp.Summary.AverageStreak),
		logger.String("topPerformer", resp.Summary.TopPerformerID),
		logger.Int("distinctActiveDays", resp.Summary.TotalDistinctActiveDays),
	)
	return resp.Summary, stats, nil
}

func storedCount(stats map[string]any) int {
	// JSON numbers decode as float64
	if v, ok := stats["submissionsStored"].(float64); ok {
		return int(v)
	}
	return 0
}

func waitSettled(ctx context.Context, c *client, want int, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		var stats map[string]any
		if err := c.get(ctx, "/stats", &stats); err != nil {
			return fmt.Errorf("read stats: %w", err)
		}
		if storedCount(stats) >= want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: stored %d of %d", ErrNotSettled, storedCount(stats), want)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePollInterval):
		}
	}
}

func saveSubmissions(path string, subs []Submission) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal submissions: %w", err)
	}
	if err := os.WriteFile(path, data, outputFileMode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
