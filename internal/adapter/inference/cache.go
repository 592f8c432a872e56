package inference

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedClassifier wraps a Classifier with an in-memory LRU cache keyed on
// the feature row, so repeated identical requests skip the model server.
type CachedClassifier struct {
	inner  domain.Classifier
	labels *lru.Cache[string, string]
}

// NewCachedClassifier creates a cache decorator around a classifier holding
// at most maxEntries labels. Sizes below one are raised to one.
func NewCachedClassifier(inner domain.Classifier, maxEntries int) *CachedClassifier {
	// lru.New only fails for non-positive sizes.
	labels, _ := lru.New[string, string](max(maxEntries, 1))
	return &CachedClassifier{
		inner:  inner,
		labels: labels,
	}
}

// Len reports how many labels are cached.
func (c *CachedClassifier) Len() int {
	return c.labels.Len()
}

// Predict answers cached rows from memory and sends the rest to the inner
// classifier in one batch.
func (c *CachedClassifier) Predict(ctx context.Context, rows []domain.FeatureRow) ([]string, error) {
	labels := make([]string, len(rows))
	keys := make([]string, len(rows))
	var missIdx []int
	var misses []domain.FeatureRow

	for i, row := range rows {
		keys[i] = rowKey(row)
		if label, ok := c.labels.Get(keys[i]); ok {
			labels[i] = label
			continue
		}
		missIdx = append(missIdx, i)
		misses = append(misses, row)
	}
	if len(misses) == 0 {
		return labels, nil
	}

	got, err := c.inner.Predict(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(got) != len(misses) {
		return nil, fmt.Errorf("classifier returned %d labels for %d rows", len(got), len(misses))
	}
	for j, i := range missIdx {
		labels[i] = got[j]
		if got[j] != "" {
			c.labels.Add(keys[i], got[j])
		}
	}
	return labels, nil
}

func rowKey(row domain.FeatureRow) string {
	var b strings.Builder
	for i, col := range row.Columns {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(col)
		b.WriteByte('=')
		if i < len(row.Values) {
			b.WriteString(strconv.FormatFloat(row.Values[i], 'g', -1, 64))
		}
	}
	return b.String()
}
