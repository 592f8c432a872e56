package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/kerala-crop-advisor/internal/reference"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Model configuration. A non-empty ModelURL selects the remote
	// inference server over the local artifact at ModelPath.
	ModelPath      string
	ModelURL       string
	ModelTimeout   time.Duration
	ModelCacheSize int

	// Reference data configuration.
	ReferenceSource string
	DatasetPath     string
	ScoreScale      reference.Scale

	// S3-compatible object storage for s3:// model and dataset locations.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Secure    bool
	S3Region    string

	// Prediction events. Publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// JitterSeed makes confidence jitter reproducible when set.
	JitterSeed    uint64
	HasJitterSeed bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	modelTimeoutStr := sharedcfg.EnvOrDefault("MODEL_TIMEOUT", "5s")
	modelTimeout, err := time.ParseDuration(modelTimeoutStr)
	if err != nil || modelTimeout <= 0 {
		return nil, errors.New("invalid MODEL_TIMEOUT")
	}

	scale, err := reference.ParseScale(sharedcfg.EnvOrDefault("SCORE_SCALE", string(reference.ScaleFraction)))
	if err != nil {
		return nil, fmt.Errorf("invalid SCORE_SCALE: %w", err)
	}

	s3Secure, err := strconv.ParseBool(sharedcfg.EnvOrDefault("S3_SECURE", "false"))
	if err != nil {
		return nil, errors.New("invalid S3_SECURE")
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":5000"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		ModelPath:      sharedcfg.EnvOrDefault("MODEL_PATH", "model.json"),
		ModelURL:       os.Getenv("MODEL_URL"),
		ModelTimeout:   modelTimeout,
		ModelCacheSize: parseModelCacheSize(),

		ReferenceSource: sharedcfg.EnvOrDefault("REFERENCE_SOURCE", reference.SourceStatic),
		DatasetPath:     sharedcfg.EnvOrDefault("DATASET_PATH", "data/dftrain.csv"),
		ScoreScale:      scale,

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Secure:    s3Secure,
		S3Region:    os.Getenv("S3_REGION"),

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "crop-predictions"),
	}

	if s := os.Getenv("JITTER_SEED"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errors.New("invalid JITTER_SEED")
		}
		cfg.JitterSeed = seed
		cfg.HasJitterSeed = true
	}

	switch cfg.ReferenceSource {
	case reference.SourceStatic, reference.SourceDataset:
	default:
		return nil, fmt.Errorf("invalid REFERENCE_SOURCE %q: want %s or %s",
			cfg.ReferenceSource, reference.SourceStatic, reference.SourceDataset)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.LogFormat)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return nil, errors.New("CORS_ALLOWED_ORIGINS must name at least one origin")
	}
	return cfg, nil
}

// PublishEnabled reports whether prediction events should be produced.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseModelCacheSize() int {
	if s := os.Getenv("MODEL_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
