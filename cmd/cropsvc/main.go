package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/kerala-crop-advisor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/kerala-crop-advisor/internal/adapter/kafka"
	"github.com/couchcryptid/kerala-crop-advisor/internal/adapter/objectstore"
	"github.com/couchcryptid/kerala-crop-advisor/internal/config"
	"github.com/couchcryptid/kerala-crop-advisor/internal/model"
	"github.com/couchcryptid/kerala-crop-advisor/internal/observability"
	"github.com/couchcryptid/kerala-crop-advisor/internal/recommend"
	"github.com/couchcryptid/kerala-crop-advisor/internal/reference"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opener, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Secure:    cfg.S3Secure,
		Region:    cfg.S3Region,
	}, logger)
	if err != nil {
		logger.Error("failed to create object store client", "error", err)
		os.Exit(1)
	}

	// Reference data and model degrade independently; neither stops startup.
	store := reference.Open(ctx, opener, cfg.ReferenceSource, cfg.DatasetPath, cfg.ScoreScale, logger)
	if store.ScoresLoaded() {
		metrics.ScoresLoaded.Set(1)
	} else {
		metrics.ScoresLoaded.Set(0)
	}

	classifier := model.Load(ctx, model.Config{
		Path:      cfg.ModelPath,
		URL:       cfg.ModelURL,
		Timeout:   cfg.ModelTimeout,
		CacheSize: cfg.ModelCacheSize,
	}, opener, store.FeatureColumns(), logger)

	var opts []recommend.Option
	if cfg.HasJitterSeed {
		opts = append(opts, recommend.WithNoise(recommend.NewSeededNoise(cfg.JitterSeed)))
		logger.Info("deterministic confidence jitter enabled", "seed", cfg.JitterSeed)
	}

	// Prediction events (feature-flagged via KAFKA_BROKERS).
	var publisher *kafkaadapter.Publisher
	if cfg.PublishEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		opts = append(opts, recommend.WithPublisher(publisher))
		logger.Info("prediction events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("prediction events disabled")
	}

	recommender := recommend.New(store, classifier, logger, metrics, opts...)
	status := recommender.Status()
	logger.Info("recommender ready",
		"model_loaded", status.ModelLoaded,
		"district_scores_loaded", status.ScoresLoaded,
		"reference_source", store.Source(),
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, recommender, cfg.CORSAllowedOrigins, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
