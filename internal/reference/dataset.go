package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
)

// Scale is the unit of the score column in a historical dataset. Stores
// always hold fraction-scale values; percent datasets are divided by 100
// while loading.
type Scale string

const (
	ScaleFraction Scale = "fraction"
	ScalePercent  Scale = "percent"
)

// ParseScale validates a scale name.
func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case ScaleFraction:
		return ScaleFraction, nil
	case ScalePercent:
		return ScalePercent, nil
	default:
		return "", fmt.Errorf("unknown score scale %q (want fraction or percent)", s)
	}
}

func (s Scale) normalize(v float64) float64 {
	if s == ScalePercent {
		return v / 100
	}
	return v
}

// LoadDataset computes per-district averages from a CSV of historical
// observations. The header must contain a "score" column and one
// "district_<name>" indicator column per district; districts with a missing
// column or no matching rows get DefaultScore. Averages are rounded to four
// decimal places.
func LoadDataset(r io.Reader, scale Scale) (*Store, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read dataset header: empty dataset")
		}
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	scoreIdx, ok := index[domain.ColumnScore]
	if !ok {
		return nil, fmt.Errorf("dataset has no %q column", domain.ColumnScore)
	}

	keys := domain.DistrictKeys()
	sums := make(map[string]float64, len(keys))
	counts := make(map[string]int, len(keys))

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset line %d: %w", line, err)
		}

		raw := strings.TrimSpace(record[scoreIdx])
		if raw == "" {
			continue // missing observations do not contribute to the mean
		}
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: invalid score %q", line, raw)
		}
		score = scale.normalize(score)

		for _, key := range keys {
			idx, ok := index[key]
			if !ok || !isIndicatorSet(record[idx]) {
				continue
			}
			sums[key] += score
			counts[key]++
		}
	}

	scores := make(map[string]float64, len(keys))
	for _, key := range keys {
		if counts[key] == 0 {
			scores[key] = DefaultScore
			continue
		}
		scores[key] = roundTo(sums[key]/float64(counts[key]), 4)
	}

	return newStore(domain.FeatureColumns(), scores, SourceDataset), nil
}

// isIndicatorSet accepts the encodings one-hot columns are commonly written
// with: 1/0, 1.0/0.0 and True/False.
func isIndicatorSet(v string) bool {
	v = strings.TrimSpace(v)
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f != 0
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
