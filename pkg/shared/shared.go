// Package shared provides common utility functions used across the service.
package shared

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// undefinedValue is what some deploy tooling injects for an unset variable.
const undefinedValue = "undefined"

// GetEnvOrDefault returns the environment variable value or a default if not set.
// The literal string "undefined" is treated as not set.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" && value != undefinedValue {
		return value
	}
	return defaultValue
}

// GetEnvIntOrDefault returns the environment variable parsed as an int, or the default
// if it is not set or cannot be parsed.
func GetEnvIntOrDefault(key string, defaultValue int) int {
	value := GetEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetEnvDurationOrDefault returns the environment variable parsed as a duration, or the
// default if it is not set or cannot be parsed.
func GetEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := GetEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// MaskSecret masks a credential for logging, keeping only a short prefix.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) > 12 {
		return secret[:4] + "***"
	}
	return "***"
}

// ConnectRedis creates and validates a Redis connection.
// Returns the client and nil on success, or nil and an error on failure.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return client, nil
}
