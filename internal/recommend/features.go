package recommend

import (
	"strings"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
)

// ReferenceData is the read-only view of the reference store used to build
// feature rows.
type ReferenceData interface {
	FeatureColumns() []string
	AverageScore(districtKey string) float64
}

// BuildFeatureRow assembles the classifier input for a request. Values are
// collected by name and then projected onto ref.FeatureColumns() so the row
// always matches the schema's order; columns the schema does not list are
// dropped and columns it lists but nothing set are zero.
func BuildFeatureRow(ref ReferenceData, req domain.PredictionRequest, districtKey string) domain.FeatureRow {
	columns := ref.FeatureColumns()

	values := map[string]float64{
		domain.ColumnYear:     req.Year,
		domain.ColumnRainfall: req.Rainfall,
		domain.ColumnMonsoon:  req.Rainfall * domain.MonsoonShare,
	}
	for _, col := range columns {
		if strings.HasPrefix(col, domain.DistrictColumnPrefix) {
			values[col] = 0
		}
	}
	values[districtKey] = 1
	values[domain.ColumnScore] = ref.AverageScore(districtKey)

	row := domain.FeatureRow{
		Columns: columns,
		Values:  make([]float64, len(columns)),
	}
	for i, col := range columns {
		row.Values[i] = values[col]
	}
	return row
}
