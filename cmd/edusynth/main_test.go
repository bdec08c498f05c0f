package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/predictor"
	"github.com/YuminosukeSato/edusynth/report"
)

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	body := `
seed: 42
missing_rate: 0.05
output:
  dir: ` + filepath.Join(dir, "data") + `
  file: students.csv
training:
  artifact_path: ` + filepath.Join(dir, "models", "model.json") + `
report:
  dir: ` + filepath.Join(dir, "reports") + `
logging:
  level: error
server:
  artifact_path: ` + filepath.Join(dir, "models", "model.json") + `
`
	path := filepath.Join(dir, "edusynth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"edusynth"}, args...))
	return out.String(), err
}

func TestGenerateTrainPredictReport(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	out, err := run(t, "--config", cfgPath, "generate")
	require.NoError(t, err)
	var manifest dataset.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &manifest))
	assert.Equal(t, 600, manifest.Rows)
	assert.Equal(t, "students.csv", manifest.File)
	assert.FileExists(t, filepath.Join(dir, "data", "students.csv"))

	var saved dataset.Manifest
	require.NoError(t, model.LoadJSON(filepath.Join(dir, "data", "students.manifest.json"), &saved))
	assert.Equal(t, saved, manifest)

	_, err = run(t, "--config", cfgPath, "train")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "models", "model.json"))

	out, err = run(t, "--config", cfgPath, "predict",
		"--scenario", "Urban Public",
		"--study_hours", "6", "--attendance", "95", "--previous_grade", "70",
		"--family_support", "8", "--sleep_hours", "8")
	require.NoError(t, err)
	var pred predictor.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &pred))
	assert.Equal(t, "urban_public", pred.Scenario)
	assert.Equal(t, []string{"Increase study hours to 8-12 per week"}, pred.Recommendations)

	_, err = run(t, "--config", cfgPath, "predict", "--scenario", "urban_public", "--study_hours", "6")
	assert.True(t, errors.IsSchemaError(err), "got %v", err)

	_, err = run(t, "--config", cfgPath, "report")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "reports", report.SummaryFile))
	assert.FileExists(t, filepath.Join(dir, "reports", report.BoxPlotFile))
}

func TestGenerateIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	_, err := run(t, "--config", cfgPath, "generate")
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "data", "students.csv"))
	require.NoError(t, err)

	_, err = run(t, "--config", cfgPath, "generate", "--output-dir", filepath.Join(dir, "again"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "again", "students.csv"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = run(t, "--config", cfgPath, "generate", "--seed", "7", "--output-dir", filepath.Join(dir, "seven"))
	require.NoError(t, err)
	third, err := os.ReadFile(filepath.Join(dir, "seven", "students.csv"))
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestGeneratePractice(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	_, err := run(t, "--config", cfgPath, "generate")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "data", dataset.EmailSpamFile))

	_, err = run(t, "--config", cfgPath, "generate", "--practice")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "data", dataset.EmailSpamFile))
	assert.FileExists(t, filepath.Join(dir, "data", dataset.SalesForecastFile))
}

func TestConfigurationErrorFailsCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenarios:\n  - name: urban_public\n    samples: 0\n"), 0o644))

	_, err := run(t, "--config", path, "generate")
	assert.True(t, errors.IsConfigurationError(err), "got %v", err)
}
