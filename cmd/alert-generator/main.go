// Package main provides the CLI that posts synthetic Loggly alerts to the webhook.
// It is used for local smoke tests and load runs against the loggly-slack service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comicrelief/loggly-slack-alerts/internal/generator"
	"github.com/comicrelief/loggly-slack-alerts/internal/logging"
	"github.com/comicrelief/loggly-slack-alerts/pkg/metrics"
	"github.com/comicrelief/loggly-slack-alerts/pkg/shared"
)

func main() {
	cfg := generator.Config{}
	var (
		url       string
		count     int
		interval  time.Duration
		useGzip   bool
		logLevel  string
		logFormat string
	)
	flag.StringVar(&url, "url", shared.GetEnvOrDefault("WEBHOOK_URL", "http://localhost:8080/alert"), "Webhook URL to post alerts to")
	flag.IntVar(&count, "count", 1, "Number of alerts to send")
	flag.DurationVar(&interval, "interval", 0, "Delay between alerts (0 = burst)")
	flag.Int64Var(&cfg.Seed, "seed", 0, "Random seed for deterministic generation (0 = random)")
	flag.StringVar(&cfg.ShapeDist, "shape-dist", generator.DefaultShapeDist, "Hit shape distribution (format: shape:percent,...)")
	flag.IntVar(&cfg.HitsPerAlert, "hits", generator.DefaultHitsPerAlert, "Recent hits per alert")
	flag.BoolVar(&useGzip, "gzip", false, "Compress request bodies")
	flag.StringVar(&logLevel, "log-level", shared.GetEnvOrDefault("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.StringVar(&logFormat, "log-format", shared.GetEnvOrDefault("LOG_FORMAT", "text"), "Log format (text or json)")
	flag.Parse()

	closeLog, err := logging.Init(os.Stdout, logFormat, logging.ParseLevel(logLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	slog.Info("Starting alert-generator",
		"url", url,
		"count", count,
		"interval", interval,
		"seed", cfg.Seed,
		"shape_dist", cfg.ShapeDist,
		"hits", cfg.HitsPerAlert,
		"gzip", useGzip,
	)

	gen, err := generator.New(cfg)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping...")
		cancel()
	}()

	collector := metrics.NewCollector("alert-generator", nil)
	runner := generator.NewRunner(gen, generator.NewHTTPPoster(url, generator.WithGzip(useGzip)), collector)

	runErr := runner.Run(ctx, count, interval)

	snapshot := collector.GetSnapshot()
	slog.Info("Alert generator summary",
		"sent", snapshot.DeliveriesSent,
		"errors", snapshot.ProcessingErrors,
		"avg_latency", time.Duration(snapshot.AvgLatencyNs),
	)

	if runErr != nil {
		slog.Error("Alert run failed", "error", runErr)
		os.Exit(1)
	}
}
