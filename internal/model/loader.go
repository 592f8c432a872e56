// Package model selects and loads the crop classifier at startup.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/kerala-crop-advisor/internal/adapter/forest"
	"github.com/couchcryptid/kerala-crop-advisor/internal/adapter/inference"
	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	"github.com/couchcryptid/kerala-crop-advisor/internal/reference"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// Config says where the classifier lives. A non-empty URL selects the remote
// inference server; otherwise Path names a forest artifact, local or s3://.
type Config struct {
	Path      string
	URL       string
	Timeout   time.Duration
	CacheSize int
}

// Load returns the configured classifier, or nil when it cannot be loaded.
// Failures are logged; callers run degraded on nil.
func Load(ctx context.Context, cfg Config, opener reference.Opener, columns []string, logger *slog.Logger) domain.Classifier {
	if cfg.URL != "" {
		return loadRemote(ctx, cfg, logger)
	}

	m, err := LoadForest(ctx, opener, cfg.Path, columns)
	if err != nil {
		logger.Error("model unavailable, running degraded", "path", cfg.Path, "error", err)
		return nil
	}
	logger.Info("model loaded",
		"path", cfg.Path,
		"classes", m.Classes(),
		"features", len(m.FeatureNames()),
	)
	return m
}

// LoadForest opens and validates a forest artifact against the feature schema.
func LoadForest(ctx context.Context, opener reference.Opener, path string, columns []string) (*forest.Model, error) {
	rc, err := opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	m, err := forest.Load(rc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := m.CheckSchema(columns); err != nil {
		return nil, err
	}
	return m, nil
}

const (
	pingAttempts   = 3
	initialBackoff = 250 * time.Millisecond
	maxBackoff     = time.Second
)

// loadRemote always returns the client: the inference server may start after
// this service, so an unreachable server is only a warning.
func loadRemote(ctx context.Context, cfg Config, logger *slog.Logger) domain.Classifier {
	client := inference.NewClient(cfg.URL, cfg.Timeout, logger)

	if err := pingWithRetry(ctx, client, cfg.Timeout, logger); err != nil {
		logger.Warn("inference server not reachable yet", "url", cfg.URL, "error", err)
	}

	logger.Info("remote model configured", "url", cfg.URL, "timeout", cfg.Timeout, "cache_size", cfg.CacheSize)
	if cfg.CacheSize > 0 {
		return inference.NewCachedClassifier(client, cfg.CacheSize)
	}
	return client
}

func pingWithRetry(ctx context.Context, client *inference.Client, timeout time.Duration, logger *slog.Logger) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err = client.Ping(pingCtx)
		cancel()
		if err == nil || attempt == pingAttempts {
			break
		}
		logger.Debug("inference server ping failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return err
}
