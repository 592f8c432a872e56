package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(), append([]string{"cropctl"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScores_PercentDataset(t *testing.T) {
	path := writeFile(t, "dftrain.csv", "year,score,district_palakkad,district_wayanad\n"+
		"2020,80,1,0\n"+
		"2021,86,1,0\n"+
		"2021,74,0,1\n")

	out, err := run(t, "scores", "--dataset", path, "--scale", "percent")
	require.NoError(t, err)

	var got scoresOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, path, got.Dataset)
	assert.Equal(t, "percent", string(got.Scale))
	assert.Equal(t, 0.83, got.Scores["district_palakkad"])
	assert.Equal(t, 0.74, got.Scores["district_wayanad"])
	assert.Equal(t, 0.75, got.Scores["district_idukki"], "districts without rows get the default")
	assert.Len(t, got.Scores, len(domain.Districts()))
}

func TestScores_Errors(t *testing.T) {
	_, err := run(t, "scores", "--dataset", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	_, err = run(t, "scores", "--dataset", writeFile(t, "d.csv", "score\n1\n"), "--scale", "ratio")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown score scale")

	_, err = run(t, "scores", "--dataset", writeFile(t, "d.csv", "year\n2020\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score")
}

func TestPredict_WithoutModel(t *testing.T) {
	out, err := run(t, "predict", "--district", "Kannur", "--rainfall", "1800", "--temperature", "30", "--seed", "7")
	require.NoError(t, err)

	var rec domain.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "Rice", rec.BestCrop)
	assert.Equal(t, "Coastal Alluvium", rec.SoilType)
	assert.Equal(t, 77.0, rec.YieldPotential) // 82 - 5
	assert.Equal(t, 30.0, rec.Temperature)
	assert.Equal(t, 1800.0, rec.Rainfall)
	assert.GreaterOrEqual(t, rec.Confidence, 60.0)
	assert.LessOrEqual(t, rec.Confidence, 95.0)
}

func TestPredict_SeedIsReproducible(t *testing.T) {
	first, err := run(t, "predict", "--seed", "99")
	require.NoError(t, err)
	second, err := run(t, "predict", "--seed", "99")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredict_WithModel(t *testing.T) {
	artifact, err := json.Marshal(map[string]any{
		"classes":       []string{"banana", "coconut"},
		"feature_names": domain.FeatureColumns(),
		"trees": []map[string]any{{
			"children_left":  []int{1, -1, -1},
			"children_right": []int{2, -1, -1},
			"feature":        []int{1, -2, -2},
			"threshold":      []float64{2000, -2, -2},
			"value":          [][]float64{{1, 1}, {1, 0}, {0, 1}},
		}},
	})
	require.NoError(t, err)
	path := writeFile(t, "model.json", string(artifact))

	out, err := run(t, "predict", "--model", path, "--district", "Palakkad", "--rainfall", "2500")
	require.NoError(t, err)

	var rec domain.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "Coconut", rec.BestCrop)
	assert.Equal(t, "Red Soil", rec.SoilType)
}

func TestPredict_BadModel(t *testing.T) {
	path := writeFile(t, "model.json", `{"classes":["rice"],"feature_names":["year"],"trees":[]}`)
	_, err := run(t, "predict", "--model", path)
	require.Error(t, err)
}
