package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Request defaults applied when a field is absent, null or mistyped.
const (
	DefaultRainfall    = 2500.0
	DefaultTemperature = 28.0
	DefaultYear        = 2024.0
)

// PredictionRequest is the validated form of a POST /api/predict body.
type PredictionRequest struct {
	// Lat and Lng are accepted for client compatibility and otherwise unused.
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	District    string  `json:"district"`
	Rainfall    float64 `json:"rainfall"`
	Temperature float64 `json:"temperature"`
	Year        float64 `json:"year"`
}

// DefaultPredictionRequest returns a request with every field at its default.
func DefaultPredictionRequest() PredictionRequest {
	return PredictionRequest{
		District:    string(DefaultDistrict),
		Rainfall:    DefaultRainfall,
		Temperature: DefaultTemperature,
		Year:        DefaultYear,
	}
}

// ParsePredictionRequest decodes a loosely typed JSON body. An empty body is
// treated as {}. Anything other than a JSON object is an error; individual
// fields never are.
func ParsePredictionRequest(body []byte) (PredictionRequest, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return DefaultPredictionRequest(), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return PredictionRequest{}, fmt.Errorf("decode prediction request: %w", err)
	}
	if fields == nil {
		return PredictionRequest{}, errors.New("decode prediction request: body must be a JSON object")
	}

	req := DefaultPredictionRequest()
	req.Lat = optionalNumber(fields, "lat")
	req.Lng = optionalNumber(fields, "lng")
	req.District = stringField(fields, "district", req.District)
	req.Rainfall = numberField(fields, "rainfall", req.Rainfall)
	req.Temperature = numberField(fields, "temperature", req.Temperature)
	req.Year = numberField(fields, "year", req.Year)
	return req, nil
}

func stringField(fields map[string]json.RawMessage, name, def string) string {
	raw, ok := fields[name]
	if !ok {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return def
	}
	return s
}

func numberField(fields map[string]json.RawMessage, name string, def float64) float64 {
	if v := optionalNumber(fields, name); v != nil {
		return *v
	}
	return def
}

// optionalNumber returns nil when the field is absent or cannot be read as a
// finite number. Numeric strings are accepted.
func optionalNumber(fields map[string]json.RawMessage, name string) *float64 {
	raw, ok := fields[name]
	if !ok {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
