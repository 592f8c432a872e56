package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FallbackCrop is the label used when no classifier is loaded.
const FallbackCrop = "rice"

// Recommendation is the response body of a successful prediction.
type Recommendation struct {
	BestCrop       string  `json:"bestCrop"`
	Confidence     float64 `json:"confidence"`
	YieldPotential float64 `json:"yieldPotential"`
	SoilType       string  `json:"soilType"`
	Temperature    float64 `json:"temperature"`
	Rainfall       float64 `json:"rainfall"`
}

// FallbackRecommendation is served, alongside an error message, whenever a
// prediction fails.
func FallbackRecommendation() Recommendation {
	return Recommendation{
		BestCrop:       "Rice",
		Confidence:     70,
		YieldPotential: 70,
		SoilType:       DefaultSoilType,
		Temperature:    DefaultTemperature,
		Rainfall:       DefaultRainfall,
	}
}

// ServiceStatus describes what was loaded at startup.
type ServiceStatus struct {
	ModelLoaded    bool
	FeatureColumns []string
	ScoresLoaded   bool
}

// Degraded reports whether the service is running without its model or
// without district scores.
func (s ServiceStatus) Degraded() bool {
	return !s.ModelLoaded || !s.ScoresLoaded
}

// CapitalizeLabel formats a raw classifier label for display: surrounding
// whitespace is removed, the first letter is upper-cased and the rest
// lower-cased ("BLACK PEPPER" → "Black pepper").
func CapitalizeLabel(label string) string {
	label = cases.Lower(language.Und).String(strings.TrimSpace(label))
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return label
	}
	return string(unicode.ToTitle(r)) + label[size:]
}
