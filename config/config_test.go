package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/edusynth/generator"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/scenario"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edusynth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, ScoreRange{Min: 0, Max: 100}, cfg.ScoreRange)
	assert.Len(t, cfg.Scenarios, scenario.Count())
	assert.Equal(t, "standard", cfg.Features.Scaler)
	assert.Equal(t, 0.2, cfg.Training.TestRatio)
	assert.Equal(t, 1.0, cfg.Training.Alpha)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	gc, err := cfg.GeneratorConfig()
	require.NoError(t, err)
	assert.Equal(t, 600, gc.TotalSamples())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
seed: 7
missing_rate: 0.1
score_range:
  min: 10
  max: 90
scenarios:
  - name: stem_magnet
    samples: 40
    noise_stddev: 2
  - name: "Rural Community"
    samples: 25
    study_hours:
      kind: uniform
      min: 1
      max: 9
features:
  scaler: minmax
server:
  shutdown_timeout: 3s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, "minmax", cfg.Features.Scaler)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	require.Len(t, cfg.Scenarios, 2)

	gc, err := cfg.GeneratorConfig()
	require.NoError(t, err)
	assert.Equal(t, 65, gc.TotalSamples())
	assert.Equal(t, 10.0, gc.ScoreMin)
	assert.Equal(t, 0.1, gc.MissingRate)

	stem := gc.Profiles[0]
	assert.Equal(t, scenario.STEMMagnet, stem.Scenario)
	assert.Equal(t, 2.0, stem.NoiseStdDev)
	assert.Equal(t, scenario.DefaultProfile(scenario.STEMMagnet, 40).Coefficients, stem.Coefficients)

	rural := gc.Profiles[1]
	assert.Equal(t, scenario.RuralCommunity, rural.Scenario)
	assert.Equal(t, scenario.KindUniform, rural.StudyHours.Kind)
	assert.Equal(t, 9.0, rural.StudyHours.Max)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("EDUSYNTH_SEED", "1234")
	t.Setenv("EDUSYNTH_LOG_LEVEL", "debug")
	t.Setenv("EDUSYNTH_SERVER_PORT", "9090")
	t.Setenv("EDUSYNTH_ARTIFACT_PATH", "/tmp/model.json")
	t.Setenv("EDUSYNTH_SHUTDOWN_TIMEOUT", "2s")

	cfg, err := LoadConfig(writeConfig(t, "seed: 5\n"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1234), cfg.Seed, "environment wins over file")
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/tmp/model.json", cfg.Server.ArtifactPath)
	assert.Equal(t, "/tmp/model.json", cfg.Training.ArtifactPath)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, log.LevelDebug, cfg.LogConfig().Level)
}

func TestPracticeConfig(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.Practice.Enabled)
	assert.Equal(t, generator.DefaultPracticeConfig(42), cfg.PracticeConfig())

	// 無効なときは件数を検証しない
	cfg.Practice.EmailSamples = 0
	assert.NoError(t, cfg.Validate())

	t.Setenv("EDUSYNTH_PRACTICE", "true")
	t.Setenv("EDUSYNTH_PRACTICE_EMAILS", "50")
	loaded, err := LoadConfig(writeConfig(t, "seed: 9\n"))
	require.NoError(t, err)
	assert.True(t, loaded.Practice.Enabled)
	assert.Equal(t, generator.PracticeConfig{Seed: 9, EmailSamples: 50, SalesMonths: 60}, loaded.PracticeConfig())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		env   map[string]string
		field string
	}{
		{"zero samples", "scenarios:\n  - name: urban_public\n    samples: 0\n", nil, "scenarios[0].samples"},
		{"unknown scenario", "scenarios:\n  - name: boarding_school\n    samples: 10\n", nil, "scenarios[0].name"},
		{"empty scenarios", "scenarios: []\n", nil, "scenarios"},
		{"duplicate scenario", "scenarios:\n  - {name: arts_creative, samples: 5}\n  - {name: arts_creative, samples: 5}\n", nil, "scenarios"},
		{"inverted score range", "score_range: {min: 100, max: 0}\n", nil, "score_range"},
		{"missing rate", "missing_rate: 1.5\n", nil, "missing_rate"},
		{"bad distribution", "scenarios:\n  - name: international\n    samples: 5\n    attendance: {kind: normal, mean: 90, stddev: -1, min: 50, max: 100}\n", nil, "international.attendance.stddev"},
		{"scaler", "features: {scaler: log}\n", nil, "features.scaler"},
		{"test ratio", "training: {test_ratio: 1}\n", nil, "training.test_ratio"},
		{"alpha", "training: {alpha: -1}\n", nil, "training.alpha"},
		{"log level", "logging: {level: loud}\n", nil, "logging.level"},
		{"log format", "logging: {format: xml}\n", nil, "logging.format"},
		{"port", "server: {port: http}\n", nil, "server.port"},
		{"mode", "server: {mode: prod}\n", nil, "server.mode"},
		{"practice emails", "practice: {enabled: true, email_samples: 0}\n", nil, "practice.email_samples"},
		{"practice months", "", map[string]string{"EDUSYNTH_PRACTICE": "true", "EDUSYNTH_PRACTICE_MONTHS": "0"}, "practice.sales_months"},
		{"env seed", "", map[string]string{"EDUSYNTH_SEED": "-3"}, "EDUSYNTH_SEED"},
		{"yaml", "seed: [1\n", nil, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			require.True(t, errors.IsConfigurationError(err), "got %v", err)

			var cfgErr *errors.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestScenarioConfigProfile(t *testing.T) {
	bound := 4.0
	p, err := ScenarioConfig{Name: "Elite Private", Samples: 3, NoiseBound: &bound}.Profile()
	require.NoError(t, err)
	assert.Equal(t, scenario.ElitePrivate, p.Scenario)
	assert.Equal(t, 3, p.SampleCount)
	assert.Equal(t, 4.0, p.EffectiveNoiseBound())

	_, err = ScenarioConfig{Name: "nowhere", Samples: 3}.Profile()
	assert.True(t, errors.IsConfigurationError(err))
}
