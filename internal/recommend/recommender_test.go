package recommend_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	"github.com/couchcryptid/kerala-crop-advisor/internal/observability"
	"github.com/couchcryptid/kerala-crop-advisor/internal/recommend"
	"github.com/couchcryptid/kerala-crop-advisor/internal/reference"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockClassifier struct {
	labels []string
	err    error
	panics bool
	rows   []domain.FeatureRow
}

func (m *mockClassifier) Predict(_ context.Context, rows []domain.FeatureRow) ([]string, error) {
	m.rows = append(m.rows, rows...)
	if m.panics {
		panic("index out of range")
	}
	return m.labels, m.err
}

type fixedNoise float64

func (n fixedNoise) NormFloat64() float64 { return float64(n) }

type mockPublisher struct {
	events []domain.PredictionEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e domain.PredictionEvent) error {
	m.events = append(m.events, e)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRecommender(c domain.Classifier, opts ...recommend.Option) *recommend.Recommender {
	return recommend.New(reference.NewStatic(), c, discardLogger(), observability.NewMetricsForTesting(), opts...)
}

func request(district string, rainfall float64) domain.PredictionRequest {
	req := domain.DefaultPredictionRequest()
	req.District = district
	req.Rainfall = rainfall
	return req
}

// --- tests ---

func TestPredict_HappyPath(t *testing.T) {
	clf := &mockClassifier{labels: []string{"coconut"}}
	r := newRecommender(clf, recommend.WithNoise(fixedNoise(0)))

	rec, err := r.Predict(context.Background(), request("Palakkad", 2500))
	require.NoError(t, err)

	assert.Equal(t, domain.Recommendation{
		BestCrop:       "Coconut",
		Confidence:     83,
		YieldPotential: 88,
		SoilType:       "Red Soil",
		Temperature:    28,
		Rainfall:       2500,
	}, rec)
	require.Len(t, clf.rows, 1, "classifier must be called with exactly one row")
}

func TestPredict_DryYearPenalty(t *testing.T) {
	r := newRecommender(&mockClassifier{labels: []string{"rice"}}, recommend.WithNoise(fixedNoise(0)))

	rec, err := r.Predict(context.Background(), request("Palakkad", 1500))
	require.NoError(t, err)
	assert.Equal(t, 78.0, rec.YieldPotential)

	// The threshold itself is not "wet".
	rec, err = r.Predict(context.Background(), request("Palakkad", 2000))
	require.NoError(t, err)
	assert.Equal(t, 78.0, rec.YieldPotential)
}

func TestPredict_RoundsToOneDecimal(t *testing.T) {
	r := newRecommender(&mockClassifier{labels: []string{"rice"}}, recommend.WithNoise(fixedNoise(0)))

	rec, err := r.Predict(context.Background(), request("Ernakulam", 2500))
	require.NoError(t, err)
	assert.Equal(t, 69.7, rec.Confidence)     // 69.71
	assert.Equal(t, 74.7, rec.YieldPotential) // 69.71 + 5
}

func TestPredict_ClampsRegardlessOfJitter(t *testing.T) {
	for _, noise := range []float64{-100, -3, 0, 3, 100} {
		for _, rainfall := range []float64{0, 1999, 2001, 10000} {
			for _, d := range domain.Districts() {
				r := newRecommender(&mockClassifier{labels: []string{"rice"}}, recommend.WithNoise(fixedNoise(noise)))
				rec, err := r.Predict(context.Background(), request(string(d), rainfall))
				require.NoError(t, err)

				assert.GreaterOrEqual(t, rec.Confidence, 60.0)
				assert.LessOrEqual(t, rec.Confidence, 95.0)
				assert.GreaterOrEqual(t, rec.YieldPotential, 50.0)
				assert.LessOrEqual(t, rec.YieldPotential, 95.0)
			}
		}
	}

	r := newRecommender(&mockClassifier{labels: []string{"rice"}}, recommend.WithNoise(fixedNoise(100)))
	rec, err := r.Predict(context.Background(), request("Ernakulam", 2500))
	require.NoError(t, err)
	assert.Equal(t, 95.0, rec.Confidence)

	r = newRecommender(&mockClassifier{labels: []string{"rice"}}, recommend.WithNoise(fixedNoise(-100)))
	rec, err = r.Predict(context.Background(), request("Ernakulam", 2500))
	require.NoError(t, err)
	assert.Equal(t, 60.0, rec.Confidence)
}

func TestPredict_SeededNoiseIsDeterministic(t *testing.T) {
	run := func() []domain.Recommendation {
		r := newRecommender(&mockClassifier{labels: []string{"rice"}}, recommend.WithNoise(recommend.NewSeededNoise(42)))
		var out []domain.Recommendation
		for range 20 {
			rec, err := r.Predict(context.Background(), request("Kottayam", 2600))
			require.NoError(t, err)
			out = append(out, rec)
		}
		return out
	}

	first, second := run(), run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("seeded runs differ (-first +second):\n%s", diff)
	}
	for _, rec := range first {
		assert.Equal(t, 86.0, rec.YieldPotential) // 81 + 5, no jitter
	}
}

func TestPredict_ModelUnavailable(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	r := recommend.New(reference.NewStatic(), nil, discardLogger(), metrics, recommend.WithNoise(fixedNoise(0)))

	rec, err := r.Predict(context.Background(), request("Wayanad", 2500))
	require.NoError(t, err)
	assert.Equal(t, "Rice", rec.BestCrop)
	assert.Equal(t, "Red Soil", rec.SoilType)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ModelFallbacks))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ModelLoaded))
}

func TestPredict_DegradedReferenceData(t *testing.T) {
	r := recommend.New(reference.Degraded(), nil, discardLogger(), observability.NewMetricsForTesting(), recommend.WithNoise(fixedNoise(0)))

	rec, err := r.Predict(context.Background(), request("Idukki", 2500))
	require.NoError(t, err)
	assert.Equal(t, 75.0, rec.Confidence)
	assert.Equal(t, 80.0, rec.YieldPotential)
}

func TestPredict_ClassifierError(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	clf := &mockClassifier{err: errors.New("model exploded")}
	r := recommend.New(reference.NewStatic(), clf, discardLogger(), metrics)

	_, err := r.Predict(context.Background(), domain.DefaultPredictionRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model exploded")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictionFailures))
}

func TestPredict_ClassifierPanic(t *testing.T) {
	r := newRecommender(&mockClassifier{panics: true})

	_, err := r.Predict(context.Background(), domain.DefaultPredictionRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier panic")
}

func TestPredict_EmptyClassifierResult(t *testing.T) {
	r := newRecommender(&mockClassifier{labels: []string{}})

	_, err := r.Predict(context.Background(), domain.DefaultPredictionRequest())
	require.ErrorIs(t, err, recommend.ErrNoPrediction)
}

func TestPredict_UnknownDistrict(t *testing.T) {
	clf := &mockClassifier{labels: []string{"banana"}}
	r := newRecommender(clf, recommend.WithNoise(fixedNoise(0)))

	rec, err := r.Predict(context.Background(), request("Atlantis", 2500))
	require.NoError(t, err)
	assert.Equal(t, "Laterite", rec.SoilType)
	assert.Equal(t, 69.7, rec.Confidence, "scored as Ernakulam")

	v, ok := clf.rows[0].Value("district_ernakulam")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestPredict_PublishesEvent(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	pub := &mockPublisher{}
	metrics := observability.NewMetricsForTesting()
	r := recommend.New(reference.NewStatic(), &mockClassifier{labels: []string{"pepper"}}, discardLogger(), metrics,
		recommend.WithNoise(fixedNoise(0)),
		recommend.WithClock(clockwork.NewFakeClockAt(now)),
		recommend.WithPublisher(pub),
	)

	rec, err := r.Predict(context.Background(), request("Thrissur", 3000))
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Thrissur", e.District)
	assert.Equal(t, "district_thrissur", e.DistrictKey)
	assert.Equal(t, "Pepper", e.BestCrop)
	assert.Equal(t, rec.Confidence, e.Confidence)
	assert.Equal(t, rec.YieldPotential, e.YieldPotential)
	assert.False(t, e.ModelFallback)
	assert.Equal(t, now, e.PredictedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished))
}

func TestPredict_PublishErrorDoesNotFailRequest(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	metrics := observability.NewMetricsForTesting()
	r := recommend.New(reference.NewStatic(), nil, discardLogger(), metrics, recommend.WithPublisher(pub))

	_, err := r.Predict(context.Background(), domain.DefaultPredictionRequest())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishErrors))
	assert.True(t, pub.events[0].ModelFallback)
}

func TestPredict_NoEventOnFailure(t *testing.T) {
	pub := &mockPublisher{}
	r := newRecommender(&mockClassifier{err: errors.New("boom")}, recommend.WithPublisher(pub))

	_, err := r.Predict(context.Background(), domain.DefaultPredictionRequest())
	require.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestStatusAndReadiness(t *testing.T) {
	loaded := newRecommender(&mockClassifier{labels: []string{"rice"}})
	status := loaded.Status()
	assert.True(t, status.ModelLoaded)
	assert.True(t, status.ScoresLoaded)
	assert.Equal(t, domain.FeatureColumns(), status.FeatureColumns)
	require.NoError(t, loaded.CheckReadiness(context.Background()))

	degraded := newRecommender(nil)
	assert.False(t, degraded.Status().ModelLoaded)
	require.Error(t, degraded.CheckReadiness(context.Background()))
}
