package domain

// Base feature columns that precede the one-hot district columns.
const (
	ColumnYear     = "year"
	ColumnRainfall = "rainfall"
	ColumnMonsoon  = "monsoon"
	ColumnScore    = "score"
)

// MonsoonShare is the fraction of annual rainfall attributed to the monsoon.
const MonsoonShare = 0.6

// FeatureRow is a single positional input to the classifier. Columns and
// Values always have the same length.
type FeatureRow struct {
	Columns []string
	Values  []float64
}

// Value returns the value stored under column.
func (r FeatureRow) Value(column string) (float64, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Len returns the number of features in the row.
func (r FeatureRow) Len() int { return len(r.Values) }

// FeatureColumns returns the canonical schema: the base columns followed by
// one indicator per district.
func FeatureColumns() []string {
	cols := []string{ColumnYear, ColumnRainfall, ColumnMonsoon, ColumnScore}
	return append(cols, DistrictKeys()...)
}
