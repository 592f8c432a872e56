// Package reference holds the read-only data every prediction depends on:
// the classifier's feature schema and the historical average score of each
// district. A Store is built once at startup and shared by all requests
// without locking.
package reference

import (
	"maps"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
)

// DefaultScore is returned for districts with no recorded average.
const DefaultScore = 0.75

// Source names how a Store was populated.
const (
	SourceStatic   = "static"
	SourceDataset  = "dataset"
	SourceDegraded = "degraded"
)

// staticScores are the per-district averages of the training data, on the
// fraction scale.
var staticScores = map[string]float64{
	"district_ernakulam":          0.6971,
	"district_idukki":             0.7123,
	"district_kannur":             0.8200,
	"district_kollam":             0.7800,
	"district_kottayam":           0.8100,
	"district_kozhikode":          0.8000,
	"district_malappuram":         0.7600,
	"district_palakkad":           0.8300,
	"district_pathanamthitta":     0.7700,
	"district_thiruvananthapuram": 0.8000,
	"district_thrissur":           0.7800,
	"district_wayanad":            0.7400,
}

// Store is the immutable reference data set.
type Store struct {
	columns []string
	scores  map[string]float64
	source  string
}

// NewStatic returns a Store backed by the bundled score table.
func NewStatic() *Store {
	return newStore(domain.FeatureColumns(), maps.Clone(staticScores), SourceStatic)
}

// Degraded returns a Store used when the configured source cannot be read.
// The schema is still the canonical one; every score is DefaultScore.
func Degraded() *Store {
	return newStore(domain.FeatureColumns(), nil, SourceDegraded)
}

func newStore(columns []string, scores map[string]float64, source string) *Store {
	if scores == nil {
		scores = map[string]float64{}
	}
	return &Store{columns: columns, scores: scores, source: source}
}

// FeatureColumns returns a copy of the ordered feature schema.
func (s *Store) FeatureColumns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// AverageScore returns the historical average for a district column, or
// DefaultScore when the key is unknown.
func (s *Store) AverageScore(districtKey string) float64 {
	if v, ok := s.scores[districtKey]; ok {
		return v
	}
	return DefaultScore
}

// Scores returns a copy of the per-district averages.
func (s *Store) Scores() map[string]float64 {
	return maps.Clone(s.scores)
}

// ScoresLoaded reports whether any district average was loaded.
func (s *Store) ScoresLoaded() bool { return len(s.scores) > 0 }

// Source reports how the store was populated.
func (s *Store) Source() string { return s.source }
