package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/streakd/internal/seed"
	"github.com/okian/streakd/pkg/logger"
)

const (
	defaultMembers    = 10
	defaultDays       = 28
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 10 * time.Second
	defaultSettleWait = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		members    = flag.Int("members", defaultMembers, "Number of members to generate")
		days       = flag.Int("days", defaultDays, "History length and analytics window in days")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettleWait, "How long to wait for ingestion to finish")
		seedValue  = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		outputFile = flag.String("output", "", "Output file for generated submissions")
		logFile    = flag.String("log", "", "Log file to tee output into")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := seed.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		Members:    *members,
		Days:       *days,
		Workers:    max(*workers, 1),
		Timeout:    *timeout,
		Seed:       *seedValue,
		OutputFile: *outputFile,
		SettleWait: *settle,
	}

	_, stats, err := seed.Run(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "seed run failed", logger.Error(err))
		os.Exit(1)
	}
	logger.Get().Info(ctx, "seed run complete",
		logger.Int("generated", stats.Generated),
		logger.Duration("duration", stats.Duration),
	)
}
