// Package config loads edusynth settings from a YAML file and EDUSYNTH_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/edusynth/generator"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/preprocessing"
	"github.com/YuminosukeSato/edusynth/scenario"
)

// DefaultSamplesPerScenario is used for every built-in scenario when no
// scenarios are configured.
const DefaultSamplesPerScenario = 100

// Config holds all configuration for the application
type Config struct {
	Seed        uint64     `yaml:"seed" env:"EDUSYNTH_SEED"`
	ScoreRange  ScoreRange `yaml:"score_range"`
	MissingRate float64    `yaml:"missing_rate" env:"EDUSYNTH_MISSING_RATE"`

	Output struct {
		Dir  string `yaml:"dir" env:"EDUSYNTH_OUTPUT_DIR"`
		File string `yaml:"file" env:"EDUSYNTH_OUTPUT_FILE"`
	} `yaml:"output"`

	// Practice は学生データと一緒に書き出す練習用データセット
	Practice struct {
		Enabled      bool `yaml:"enabled" env:"EDUSYNTH_PRACTICE"`
		EmailSamples int  `yaml:"email_samples" env:"EDUSYNTH_PRACTICE_EMAILS"`
		SalesMonths  int  `yaml:"sales_months" env:"EDUSYNTH_PRACTICE_MONTHS"`
	} `yaml:"practice"`

	Scenarios []ScenarioConfig `yaml:"scenarios"`

	Features struct {
		Scaler string `yaml:"scaler" env:"EDUSYNTH_FEATURE_SCALER"`
	} `yaml:"features"`

	Training struct {
		TestRatio    float64 `yaml:"test_ratio" env:"EDUSYNTH_TEST_RATIO"`
		Alpha        float64 `yaml:"alpha" env:"EDUSYNTH_RIDGE_ALPHA"`
		ArtifactPath string  `yaml:"artifact_path" env:"EDUSYNTH_ARTIFACT_PATH"`
	} `yaml:"training"`

	Report struct {
		Dir string `yaml:"dir" env:"EDUSYNTH_REPORT_DIR"`
	} `yaml:"report"`

	Logging struct {
		Level  string `yaml:"level" env:"EDUSYNTH_LOG_LEVEL"`
		Format string `yaml:"format" env:"EDUSYNTH_LOG_FORMAT"`
	} `yaml:"logging"`

	Server struct {
		Port            string        `yaml:"port" env:"EDUSYNTH_SERVER_PORT"`
		Mode            string        `yaml:"mode" env:"EDUSYNTH_SERVER_MODE"`
		ArtifactPath    string        `yaml:"artifact_path" env:"EDUSYNTH_ARTIFACT_PATH"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"EDUSYNTH_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`
}

// ScoreRange bounds the generated exam_score.
type ScoreRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ScenarioConfig selects one scenario and optionally overrides parts of its
// built-in profile. A nil override keeps the default.
type ScenarioConfig struct {
	Name            string                 `yaml:"name"`
	Samples         int                    `yaml:"samples"`
	StudyHours      *scenario.Distribution `yaml:"study_hours,omitempty"`
	Attendance      *scenario.Distribution `yaml:"attendance,omitempty"`
	PreviousGrade   *scenario.Distribution `yaml:"previous_grade,omitempty"`
	SleepHours      *scenario.Distribution `yaml:"sleep_hours,omitempty"`
	FamilySupport   *scenario.Distribution `yaml:"family_support,omitempty"`
	ExtraActivities *scenario.Distribution `yaml:"extra_activities,omitempty"`
	Coefficients    *scenario.Coefficients `yaml:"coefficients,omitempty"`
	NoiseStdDev     *float64               `yaml:"noise_stddev,omitempty"`
	NoiseBound      *float64               `yaml:"noise_bound,omitempty"`
}

// Profile merges the overrides onto the built-in profile of the named
// scenario.
func (sc ScenarioConfig) Profile() (scenario.Profile, error) {
	s, err := scenario.Parse(sc.Name)
	if err != nil {
		return scenario.Profile{}, errors.NewConfigurationError("scenarios.name", "unknown scenario", sc.Name)
	}
	p := scenario.DefaultProfile(s, sc.Samples)

	overrides := []struct {
		src *scenario.Distribution
		dst *scenario.Distribution
	}{
		{sc.StudyHours, &p.StudyHours},
		{sc.Attendance, &p.Attendance},
		{sc.PreviousGrade, &p.PreviousGrade},
		{sc.SleepHours, &p.SleepHours},
		{sc.FamilySupport, &p.FamilySupport},
		{sc.ExtraActivities, &p.ExtraActivities},
	}
	for _, o := range overrides {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	if sc.Coefficients != nil {
		p.Coefficients = *sc.Coefficients
	}
	if sc.NoiseStdDev != nil {
		p.NoiseStdDev = *sc.NoiseStdDev
	}
	if sc.NoiseBound != nil {
		p.NoiseBound = *sc.NoiseBound
	}
	return p, nil
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	setDefaults(config)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
			}
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, errors.NewConfigurationError("config", "failed to parse YAML: "+err.Error(), configPath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to stat config file %s", configPath)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns the configuration used when no file and no environment
// variables are present.
func Default() *Config {
	config := &Config{}
	setDefaults(config)
	return config
}

// setDefaults sets default values for configuration
func setDefaults(config *Config) {
	config.Seed = 42
	config.ScoreRange = ScoreRange{Min: 0, Max: 100}
	config.MissingRate = 0

	config.Output.Dir = "data/raw"
	config.Output.File = "students.csv"

	practice := generator.DefaultPracticeConfig(config.Seed)
	config.Practice.EmailSamples = practice.EmailSamples
	config.Practice.SalesMonths = practice.SalesMonths

	config.Scenarios = make([]ScenarioConfig, 0, scenario.Count())
	for _, s := range scenario.All() {
		config.Scenarios = append(config.Scenarios, ScenarioConfig{Name: s.String(), Samples: DefaultSamplesPerScenario})
	}

	config.Features.Scaler = preprocessing.ScalerStandard

	config.Training.TestRatio = 0.2
	config.Training.Alpha = 1.0
	config.Training.ArtifactPath = "models/edusynth_model.json"

	config.Report.Dir = "reports"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Server.Port = "8080"
	config.Server.Mode = "release"
	config.Server.ArtifactPath = config.Training.ArtifactPath
	config.Server.ShutdownTimeout = 10 * time.Second
}

// Validate checks every setting and returns a ConfigurationError for the
// first invalid one.
func (c *Config) Validate() error {
	if len(c.Scenarios) == 0 {
		return errors.NewConfigurationError("scenarios", "at least one scenario is required", 0)
	}
	for i, sc := range c.Scenarios {
		if _, err := scenario.Parse(sc.Name); err != nil {
			return errors.NewConfigurationError(fmt.Sprintf("scenarios[%d].name", i), "unknown scenario", sc.Name)
		}
		if sc.Samples <= 0 {
			return errors.NewConfigurationError(fmt.Sprintf("scenarios[%d].samples", i), "must be positive", sc.Samples)
		}
	}
	if _, err := c.GeneratorConfig(); err != nil {
		return err
	}
	if c.Practice.Enabled {
		if err := c.PracticeConfig().Validate(); err != nil {
			return err
		}
	}

	if _, err := preprocessing.NewScaler(c.Features.Scaler); err != nil {
		return err
	}
	if c.Training.TestRatio <= 0 || c.Training.TestRatio >= 1 {
		return errors.NewConfigurationError("training.test_ratio", "must be in (0, 1)", c.Training.TestRatio)
	}
	if c.Training.Alpha < 0 {
		return errors.NewConfigurationError("training.alpha", "must not be negative", c.Training.Alpha)
	}

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.NewConfigurationError("logging.level", err.Error(), c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return errors.NewConfigurationError("logging.format", "must be json or console", c.Logging.Format)
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return errors.NewConfigurationError("server.port", "must be a TCP port number", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.NewConfigurationError("server.mode", "must be debug, release or test", c.Server.Mode)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.NewConfigurationError("server.shutdown_timeout", "must be positive", c.Server.ShutdownTimeout.String())
	}
	return nil
}

// GeneratorConfig converts the scenario section into a generator.Config.
func (c *Config) GeneratorConfig() (generator.Config, error) {
	profiles := make([]scenario.Profile, 0, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		p, err := sc.Profile()
		if err != nil {
			return generator.Config{}, err
		}
		profiles = append(profiles, p)
	}
	gc := generator.Config{
		Seed:        c.Seed,
		Profiles:    profiles,
		ScoreMin:    c.ScoreRange.Min,
		ScoreMax:    c.ScoreRange.Max,
		MissingRate: c.MissingRate,
	}
	if err := gc.Validate(); err != nil {
		return generator.Config{}, err
	}
	return gc, nil
}

// PracticeConfig returns the practice section with the global seed.
func (c *Config) PracticeConfig() generator.PracticeConfig {
	return generator.PracticeConfig{
		Seed:         c.Seed,
		EmailSamples: c.Practice.EmailSamples,
		SalesMonths:  c.Practice.SalesMonths,
	}
}

// LogConfig returns the logging section as a log.Config.
func (c *Config) LogConfig() log.Config {
	level, _ := log.ParseLevel(c.Logging.Level)
	return log.Config{Level: level, Format: c.Logging.Format}
}
