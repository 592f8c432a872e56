package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingClassifier struct {
	calls   int
	rowsIn  int
	label   func(domain.FeatureRow) string
	err     error
	dropOne bool
}

func (m *countingClassifier) Predict(_ context.Context, rows []domain.FeatureRow) ([]string, error) {
	m.calls++
	m.rowsIn += len(rows)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, m.label(r))
	}
	if m.dropOne {
		out = out[1:]
	}
	return out, nil
}

func byRainfall(r domain.FeatureRow) string {
	if v, _ := r.Value("rainfall"); v > 2000 {
		return "rice"
	}
	return "banana"
}

// --- CachedClassifier tests ---

func TestCachedClassifier_CacheHit(t *testing.T) {
	inner := &countingClassifier{label: byRainfall}
	cached := NewCachedClassifier(inner, 10)

	for range 3 {
		labels, err := cached.Predict(context.Background(), []domain.FeatureRow{testRow(2500)})
		require.NoError(t, err)
		assert.Equal(t, []string{"rice"}, labels)
	}
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedClassifier_BatchesMisses(t *testing.T) {
	inner := &countingClassifier{label: byRainfall}
	cached := NewCachedClassifier(inner, 10)

	_, err := cached.Predict(context.Background(), []domain.FeatureRow{testRow(2500)})
	require.NoError(t, err)

	labels, err := cached.Predict(context.Background(), []domain.FeatureRow{testRow(1500), testRow(2500), testRow(1800)})
	require.NoError(t, err)
	assert.Equal(t, []string{"banana", "rice", "banana"}, labels)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 3, inner.rowsIn, "cached row must not be resent")
}

func TestCachedClassifier_DoesNotCacheErrors(t *testing.T) {
	inner := &countingClassifier{err: errors.New("connection refused")}
	cached := NewCachedClassifier(inner, 10)

	_, err := cached.Predict(context.Background(), []domain.FeatureRow{testRow(2500)})
	require.Error(t, err)

	inner.err = nil
	inner.label = byRainfall
	labels, err := cached.Predict(context.Background(), []domain.FeatureRow{testRow(2500)})
	require.NoError(t, err)
	assert.Equal(t, []string{"rice"}, labels)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClassifier_ShortAnswer(t *testing.T) {
	inner := &countingClassifier{label: byRainfall, dropOne: true}
	cached := NewCachedClassifier(inner, 10)

	_, err := cached.Predict(context.Background(), []domain.FeatureRow{testRow(2500)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 labels for 1 rows")
}

func TestCachedClassifier_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingClassifier{label: byRainfall}
	cached := NewCachedClassifier(inner, 2)
	ctx := context.Background()

	for _, rain := range []float64{1500, 2500, 1500, 3000} {
		_, err := cached.Predict(ctx, []domain.FeatureRow{testRow(rain)})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.calls, "1500 was answered from cache")
	assert.Equal(t, 2, cached.Len())

	_, err := cached.Predict(ctx, []domain.FeatureRow{testRow(1500)})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls, "1500 was used recently and survives")

	_, err = cached.Predict(ctx, []domain.FeatureRow{testRow(2500)})
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls, "2500 was evicted")
}

func TestCachedClassifier_NonPositiveSize(t *testing.T) {
	inner := &countingClassifier{label: byRainfall}
	cached := NewCachedClassifier(inner, 0)

	_, err := cached.Predict(context.Background(), []domain.FeatureRow{testRow(1500), testRow(2500)})
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Len())
}

func TestRowKey_DistinguishesValues(t *testing.T) {
	assert.NotEqual(t, rowKey(testRow(2500)), rowKey(testRow(2500.5)))
	assert.Equal(t, rowKey(testRow(2500)), rowKey(testRow(2500)))
}
