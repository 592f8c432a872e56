package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	"github.com/couchcryptid/kerala-crop-advisor/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Derived-metric bounds, on the 0-100 scale.
const (
	minConfidence     = 60.0
	maxConfidence     = 95.0
	confidenceStdDev  = 5.0
	minYieldPotential = 50.0
	maxYieldPotential = 95.0

	// wetThreshold is the annual rainfall (mm) above which yield potential
	// gets a bonus instead of a penalty.
	wetThreshold    = 2000.0
	rainfallBalance = 5.0
)

// ErrNoPrediction is returned when the classifier answers with no labels.
var ErrNoPrediction = errors.New("classifier returned no prediction")

// ReferenceStore is the reference data the recommender reads.
type ReferenceStore interface {
	ReferenceData
	ScoresLoaded() bool
}

// Publisher receives an event for every recommendation served.
type Publisher interface {
	Publish(ctx context.Context, event domain.PredictionEvent) error
}

// Recommender turns prediction requests into crop recommendations.
// It holds no mutable state and is safe for concurrent use.
type Recommender struct {
	ref        ReferenceStore
	classifier domain.Classifier
	noise      NoiseSource
	clock      clockwork.Clock
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithNoise replaces the confidence jitter source.
func WithNoise(n NoiseSource) Option {
	return func(r *Recommender) { r.noise = n }
}

// WithClock sets the time source for event timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(r *Recommender) { r.clock = c }
}

// WithPublisher enables prediction events.
func WithPublisher(p Publisher) Option {
	return func(r *Recommender) { r.publisher = p }
}

// New creates a Recommender. Pass a nil classifier to run degraded: every
// request is answered with the fallback crop.
func New(ref ReferenceStore, classifier domain.Classifier, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Recommender {
	r := &Recommender{
		ref:        ref,
		classifier: classifier,
		noise:      globalNoise{},
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(r)
	}

	if classifier != nil {
		metrics.ModelLoaded.Set(1)
	} else {
		metrics.ModelLoaded.Set(0)
	}
	return r
}

// Predict builds the feature row for req, classifies it and derives the
// presentation metrics. Errors are classifier failures; the caller decides
// how to answer them.
func (r *Recommender) Predict(ctx context.Context, req domain.PredictionRequest) (domain.Recommendation, error) {
	start := time.Now()
	defer func() { r.metrics.PredictionDuration.Observe(time.Since(start).Seconds()) }()

	key := domain.ResolveDistrictKey(req.District)
	row := BuildFeatureRow(r.ref, req, key)

	label, fallback, err := r.classify(ctx, row)
	if err != nil {
		r.metrics.PredictionFailures.Inc()
		return domain.Recommendation{}, err
	}

	base := r.ref.AverageScore(key) * 100
	rec := domain.Recommendation{
		BestCrop:       domain.CapitalizeLabel(label),
		Confidence:     round1(r.confidence(base)),
		YieldPotential: round1(yieldPotential(base, req.Rainfall)),
		SoilType:       domain.SoilTypeFor(req.District),
		Temperature:    req.Temperature,
		Rainfall:       req.Rainfall,
	}

	r.metrics.PredictionsTotal.WithLabelValues(rec.BestCrop).Inc()
	r.metrics.Confidence.Observe(rec.Confidence)
	r.logger.Debug("prediction served",
		"district", req.District,
		"district_key", key,
		"crop", rec.BestCrop,
		"confidence", rec.Confidence,
		"model_fallback", fallback,
	)

	r.publish(ctx, req, key, rec, fallback)
	return rec, nil
}

// classify runs the classifier on a single row. A nil classifier yields the
// fallback crop; a panicking one is reported as an error.
func (r *Recommender) classify(ctx context.Context, row domain.FeatureRow) (label string, fallback bool, err error) {
	if r.classifier == nil {
		r.metrics.ModelFallbacks.Inc()
		return domain.FallbackCrop, true, nil
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("classifier panic: %v", p)
		}
	}()

	labels, err := r.classifier.Predict(ctx, []domain.FeatureRow{row})
	if err != nil {
		return "", false, fmt.Errorf("model predict: %w", err)
	}
	if len(labels) == 0 {
		return "", false, ErrNoPrediction
	}
	return labels[0], false, nil
}

func (r *Recommender) confidence(base float64) float64 {
	return clamp(base+r.noise.NormFloat64()*confidenceStdDev, minConfidence, maxConfidence)
}

func yieldPotential(base, rainfall float64) float64 {
	if rainfall > wetThreshold {
		return clamp(base+rainfallBalance, minYieldPotential, maxYieldPotential)
	}
	return clamp(base-rainfallBalance, minYieldPotential, maxYieldPotential)
}

func (r *Recommender) publish(ctx context.Context, req domain.PredictionRequest, key string, rec domain.Recommendation, fallback bool) {
	if r.publisher == nil {
		return
	}
	event := domain.PredictionEvent{
		ID:             uuid.NewString(),
		District:       req.District,
		DistrictKey:    key,
		Year:           req.Year,
		Rainfall:       req.Rainfall,
		Temperature:    req.Temperature,
		BestCrop:       rec.BestCrop,
		Confidence:     rec.Confidence,
		YieldPotential: rec.YieldPotential,
		SoilType:       rec.SoilType,
		ModelFallback:  fallback,
		PredictedAt:    r.clock.Now().UTC(),
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.metrics.PublishErrors.Inc()
		r.logger.Warn("publish prediction event failed", "error", err, "event_id", event.ID)
		return
	}
	r.metrics.EventsPublished.Inc()
}

// Status reports what the recommender was started with.
func (r *Recommender) Status() domain.ServiceStatus {
	return domain.ServiceStatus{
		ModelLoaded:    r.classifier != nil,
		FeatureColumns: r.ref.FeatureColumns(),
		ScoresLoaded:   r.ref.ScoresLoaded(),
	}
}

// CheckReadiness returns nil once a classifier is loaded.
func (r *Recommender) CheckReadiness(_ context.Context) error {
	if r.classifier == nil {
		return errors.New("model not loaded")
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
