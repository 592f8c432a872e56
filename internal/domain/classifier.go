package domain

import (
	"context"
	"time"
)

// Classifier is the trained crop model. It returns one label per row.
type Classifier interface {
	Predict(ctx context.Context, rows []FeatureRow) ([]string, error)
}

// PredictionEvent is emitted after a recommendation is served.
type PredictionEvent struct {
	ID             string    `json:"id"`
	District       string    `json:"district"`
	DistrictKey    string    `json:"district_key"`
	Year           float64   `json:"year"`
	Rainfall       float64   `json:"rainfall"`
	Temperature    float64   `json:"temperature"`
	BestCrop       string    `json:"best_crop"`
	Confidence     float64   `json:"confidence"`
	YieldPotential float64   `json:"yield_potential"`
	SoilType       string    `json:"soil_type"`
	ModelFallback  bool      `json:"model_fallback"` // true when no classifier was loaded
	PredictedAt    time.Time `json:"predicted_at"`
}
