// Package config provides configuration parsing and validation for the webhook service.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration parameters for the webhook service.
type Config struct {
	HTTPPort     string
	MaxHits      int
	MaxBodyBytes int64

	RedisAddr       string
	DedupTTL        time.Duration
	DedupMaxEntries int

	KafkaBrokers        string
	AlertProcessedTopic string

	SlackAPIURL   string
	SlackToken    string
	SlackChannel  string
	SlackUsername string
	NotifyTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Validate checks that all required configuration fields are set and have valid values.
// Slack credentials are optional; a missing value disables sending at delivery time.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if c.MaxHits <= 0 {
		return fmt.Errorf("max-hits must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max-body-bytes must be positive")
	}
	if c.DedupTTL < 0 {
		return fmt.Errorf("dedup-ttl cannot be negative")
	}
	if c.DedupMaxEntries < 0 {
		return fmt.Errorf("dedup-max-entries cannot be negative")
	}
	if c.KafkaBrokers != "" && c.AlertProcessedTopic == "" {
		return fmt.Errorf("alert-processed-topic cannot be empty when kafka-brokers is set")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify-timeout must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log-format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// SlackConfigured reports whether all Slack credentials are present.
func (c *Config) SlackConfigured() bool {
	return c.SlackToken != "" && c.SlackChannel != "" && c.SlackUsername != ""
}
