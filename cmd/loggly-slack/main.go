// Package main provides the entry point for the Loggly to Slack webhook service.
// It handles flag parsing, dependency wiring and HTTP server lifecycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comicrelief/loggly-slack-alerts/internal/config"
	"github.com/comicrelief/loggly-slack-alerts/internal/dedup"
	"github.com/comicrelief/loggly-slack-alerts/internal/handlers"
	"github.com/comicrelief/loggly-slack-alerts/internal/logging"
	"github.com/comicrelief/loggly-slack-alerts/internal/normalizer"
	"github.com/comicrelief/loggly-slack-alerts/internal/processor"
	"github.com/comicrelief/loggly-slack-alerts/internal/producer"
	"github.com/comicrelief/loggly-slack-alerts/internal/router"
	"github.com/comicrelief/loggly-slack-alerts/internal/sender"
	"github.com/comicrelief/loggly-slack-alerts/internal/sender/slack"
	"github.com/comicrelief/loggly-slack-alerts/pkg/metrics"
	"github.com/comicrelief/loggly-slack-alerts/pkg/shared"
)

const serviceName = "loggly-slack"

func main() {
	// Parse command-line flags, defaulting from the environment
	cfg := &config.Config{}
	flag.StringVar(&cfg.HTTPPort, "http-port", shared.GetEnvOrDefault("HTTP_PORT", "8080"), "HTTP server port")
	flag.IntVar(&cfg.MaxHits, "max-hits", shared.GetEnvIntOrDefault("MAX_HITS", processor.DefaultMaxHits), "Recent hits considered per alert, by position")
	flag.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", int64(shared.GetEnvIntOrDefault("MAX_BODY_BYTES", handlers.DefaultMaxBodyBytes)), "Maximum inbound body size in bytes")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", shared.GetEnvOrDefault("REDIS_ADDR", ""), "Redis address for the dedup cache and metrics (empty for in-memory)")
	flag.DurationVar(&cfg.DedupTTL, "dedup-ttl", shared.GetEnvDurationOrDefault("DEDUP_TTL", 0), "How long a seen entry is remembered (0 for no expiry)")
	flag.IntVar(&cfg.DedupMaxEntries, "dedup-max-entries", shared.GetEnvIntOrDefault("DEDUP_MAX_ENTRIES", 0), "In-memory dedup cache bound (0 for unbounded)")
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", ""), "Kafka broker addresses, comma-separated (empty disables events)")
	flag.StringVar(&cfg.AlertProcessedTopic, "alert-processed-topic", shared.GetEnvOrDefault("ALERT_PROCESSED_TOPIC", "loggly.alerts.processed"), "Kafka topic for processed alert events")
	flag.StringVar(&cfg.SlackAPIURL, "slack-api-url", shared.GetEnvOrDefault("SLACK_API_URL", slack.DefaultAPIURL), "Slack Web API base URL")
	flag.DurationVar(&cfg.NotifyTimeout, "notify-timeout", shared.GetEnvDurationOrDefault("NOTIFY_TIMEOUT", sender.DefaultTimeout), "Timeout for each background delivery")
	flag.StringVar(&cfg.LogLevel, "log-level", shared.GetEnvOrDefault("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", shared.GetEnvOrDefault("LOG_FORMAT", "text"), "Log format (text or json)")
	flag.Parse()

	cfg.SlackToken = shared.GetEnvOrDefault("SLACK_TOKEN", "")
	cfg.SlackChannel = shared.GetEnvOrDefault("SLACK_CHANNEL", "")
	cfg.SlackUsername = shared.GetEnvOrDefault("SLACK_USERNAME", "")

	// Set up structured logging
	closeLog, err := logging.Init(os.Stdout, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	slog.Info("Starting loggly-slack service",
		"http_port", cfg.HTTPPort,
		"max_hits", cfg.MaxHits,
		"redis_addr", cfg.RedisAddr,
		"dedup_ttl", cfg.DedupTTL,
		"kafka_brokers", cfg.KafkaBrokers,
		"slack_channel", cfg.SlackChannel,
		"slack_token", shared.MaskSecret(cfg.SlackToken),
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if !cfg.SlackConfigured() {
		slog.Warn("Slack credentials incomplete, notifications will be skipped")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Optional Redis backing for dedup and metrics
	redisClient := connectRedis(ctx, cfg.RedisAddr)
	if redisClient != nil {
		defer redisClient.Close()
	}

	collector := metrics.NewCollector(serviceName, redisClient)
	collector.Start(ctx)
	defer collector.Stop()

	filter := dedup.NewFilter(newDedupCache(cfg, redisClient))

	notifier := sender.NewSender(sender.NewRegistry(
		slack.NewNotifier(slack.Credentials{
			Token:    cfg.SlackToken,
			Channel:  cfg.SlackChannel,
			Username: cfg.SlackUsername,
		}, slack.WithAPIURL(cfg.SlackAPIURL)),
	))
	dispatcher := sender.NewDispatcher(cfg.NotifyTimeout, collector)

	procOpts := []processor.Option{
		processor.WithMaxHits(cfg.MaxHits),
		processor.WithMetrics(collector),
	}

	// Optional Kafka producer for processed alert events
	if cfg.KafkaBrokers != "" {
		slog.Info("Connecting to Kafka producer", "topic", cfg.AlertProcessedTopic)
		kafkaProducer, err := producer.NewProducer(cfg.KafkaBrokers, cfg.AlertProcessedTopic)
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		defer kafkaProducer.Close()
		procOpts = append(procOpts, processor.WithPublisher(kafkaProducer))
	}

	proc := processor.NewProcessor(normalizer.New(), filter, notifier, dispatcher, procOpts...)

	h := handlers.NewHandlers(proc,
		handlers.WithMaxBodyBytes(cfg.MaxBodyBytes),
		handlers.WithMetricsSource(collector),
	)
	server := router.NewServer(cfg.HTTPPort, h, router.WithRequestCounters(collector))

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error shutting down server", "error", err)
		}
		slog.Info("HTTP server stopped")

		if err := dispatcher.WaitContext(shutdownCtx); err != nil {
			slog.Warn("Abandoned in-flight deliveries", "error", err)
		}
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Loggly-slack service stopped")
}

// connectRedis returns a connected client, or nil when addr is empty or unreachable.
func connectRedis(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		return nil
	}

	slog.Info("Connecting to Redis", "addr", addr)
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := shared.ConnectRedis(connectCtx, addr)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory dedup cache", "error", err)
		return nil
	}
	slog.Info("Successfully connected to Redis")
	return client
}

func newDedupCache(cfg *config.Config, client *redis.Client) dedup.Cache {
	if client != nil {
		return dedup.NewRedisCache(client, cfg.DedupTTL)
	}

	var opts []dedup.MemoryOption
	if cfg.DedupTTL > 0 {
		opts = append(opts, dedup.WithTTL(cfg.DedupTTL))
	}
	if cfg.DedupMaxEntries > 0 {
		opts = append(opts, dedup.WithMaxEntries(cfg.DedupMaxEntries))
	}
	return dedup.NewMemoryCache(opts...)
}
