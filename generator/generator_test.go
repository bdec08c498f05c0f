package generator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/scenario"
)

func recordsEqual(t *testing.T, a, b []dataset.StudentRecord) bool {
	t.Helper()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.StudentID != y.StudentID || x.Scenario != y.Scenario {
			return false
		}
		for _, col := range dataset.Columns[2:] {
			xv, _ := x.Value(col)
			yv, _ := y.Value(col)
			if math.IsNaN(xv) && math.IsNaN(yv) {
				continue
			}
			if xv != yv {
				return false
			}
		}
	}
	return true
}

func TestGenerateEndToEnd(t *testing.T) {
	first, err := Generate(DefaultConfig(42, 100))
	require.NoError(t, err)
	require.Equal(t, 600, first.Len())

	counts := first.CountByScenario()
	for _, s := range scenario.All() {
		assert.Equal(t, 100, counts[s], s.String())
	}

	again, err := Generate(DefaultConfig(42, 100))
	require.NoError(t, err)
	assert.True(t, recordsEqual(t, first.Records, again.Records), "same seed must reproduce the dataset")
	assert.Equal(t, first.ID, again.ID)

	other, err := Generate(DefaultConfig(7, 100))
	require.NoError(t, err)
	assert.False(t, recordsEqual(t, first.Records, other.Records), "different seed must change the dataset")
	assert.NotEqual(t, first.ID, other.ID)
}

func TestGenerateRanges(t *testing.T) {
	cfg := DefaultConfig(3, 250)
	ds, err := Generate(cfg)
	require.NoError(t, err)

	profiles := make(map[scenario.Scenario]scenario.Profile)
	for _, p := range cfg.Profiles {
		profiles[p.Scenario] = p
	}

	for i, r := range ds.Records {
		assert.Equal(t, i+1, r.StudentID)
		assert.GreaterOrEqual(t, r.ExamScore, 0.0)
		assert.LessOrEqual(t, r.ExamScore, 100.0)

		p := profiles[r.Scenario]
		for _, f := range []struct {
			v float64
			d scenario.Distribution
		}{
			{r.StudyHours, p.StudyHours},
			{r.Attendance, p.Attendance},
			{r.PreviousGrade, p.PreviousGrade},
			{r.SleepHours, p.SleepHours},
			{r.FamilySupport, p.FamilySupport},
			{r.ExtraActivities, p.ExtraActivities},
		} {
			assert.GreaterOrEqual(t, f.v, f.d.Min)
			assert.LessOrEqual(t, f.v, f.d.Max)
			if f.d.Integer {
				assert.Equal(t, math.Round(f.v), f.v)
			}
		}
	}
}

func TestGenerateNarrowScoreRange(t *testing.T) {
	cfg := DefaultConfig(11, 50)
	cfg.ScoreMin, cfg.ScoreMax = 60, 70
	ds, err := Generate(cfg)
	require.NoError(t, err)
	for _, r := range ds.Records {
		assert.GreaterOrEqual(t, r.ExamScore, 60.0)
		assert.LessOrEqual(t, r.ExamScore, 70.0)
	}
}

func TestGenerateScoreFormulaWithoutNoise(t *testing.T) {
	p := scenario.DefaultProfile(scenario.STEMMagnet, 40)
	p.NoiseStdDev = 0
	cfg := Config{Seed: 5, Profiles: []scenario.Profile{p}, ScoreMin: 0, ScoreMax: 100}

	ds, err := Generate(cfg)
	require.NoError(t, err)
	for _, r := range ds.Records {
		want := math.Round(errors.ClipValue(Score(p.Coefficients, r), 0, 100)*10) / 10
		assert.InDelta(t, want, r.ExamScore, 1e-9)
	}
}

func TestScore(t *testing.T) {
	c := scenario.Coefficients{
		Intercept: 1, StudyHours: 2, Attendance: 0.5, PreviousGrade: 0.25,
		SleepHours: 1, FamilySupport: 3, ExtraActivities: -1, StudyFamily: 0.1,
	}
	r := dataset.StudentRecord{
		StudyHours: 10, Attendance: 80, PreviousGrade: 60,
		SleepHours: 7, FamilySupport: 5, ExtraActivities: 2,
	}
	// 1 + 20 + 40 + 15 + 7 + 15 - 2 + 0.1*50
	assert.InDelta(t, 101.0, Score(c, r), 1e-9)
}

func TestGenerateMissingRate(t *testing.T) {
	cfg := DefaultConfig(42, 100)
	cfg.MissingRate = 0.05
	ds, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, 30, ds.MissingCount(dataset.ColSleepHours))
	assert.Zero(t, ds.MissingCount(dataset.ColStudyHours))

	again, err := Generate(cfg)
	require.NoError(t, err)
	assert.True(t, recordsEqual(t, ds.Records, again.Records))
}

func TestGenerateConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero samples", func(c *Config) { c.Profiles[0].SampleCount = 0 }, "elite_private.samples"},
		{"negative stddev", func(c *Config) { c.Profiles[1].StudyHours = scenario.Normal(8, -1, 0, 25) }, "urban_public.study_hours.stddev"},
		{"no profiles", func(c *Config) { c.Profiles = nil }, "scenarios"},
		{"duplicate", func(c *Config) { c.Profiles = append(c.Profiles, c.Profiles[0]) }, "scenarios"},
		{"inverted score range", func(c *Config) { c.ScoreMin, c.ScoreMax = 100, 0 }, "score_range"},
		{"missing rate", func(c *Config) { c.MissingRate = 1 }, "missing_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(1, 10)
			tt.mutate(&cfg)
			ds, err := Generate(cfg)
			assert.Nil(t, ds)
			require.Error(t, err)

			var cfgErr *errors.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestGenerateLogsRun(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	g, err := New(DefaultConfig(42, 5), WithLogger(logger))
	require.NoError(t, err)

	_, err = g.Generate()
	require.NoError(t, err)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dataset generated", entries[0]["message"])
	assert.Equal(t, 30.0, entries[0][log.SamplesKey])
	assert.Equal(t, 42.0, entries[0][log.RandomSeedKey])
}

func TestFingerprintDependsOnProfiles(t *testing.T) {
	a := DefaultConfig(42, 100)
	b := DefaultConfig(42, 101)
	assert.Equal(t, a.Fingerprint(), DefaultConfig(42, 100).Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestGenerateIgnoresProfileOrder(t *testing.T) {
	forward := DefaultConfig(42, 10)
	reversed := DefaultConfig(42, 10)
	reversed.Profiles = nil
	for i := len(forward.Profiles) - 1; i >= 0; i-- {
		reversed.Profiles = append(reversed.Profiles, forward.Profiles[i])
	}
	assert.Equal(t, forward.Fingerprint(), reversed.Fingerprint())

	a, err := Generate(forward)
	require.NoError(t, err)
	b, err := Generate(reversed)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.True(t, recordsEqual(t, a.Records, b.Records))

	// 呼び出し側の設定は並べ替えない
	assert.Equal(t, scenario.All()[len(scenario.All())-1], reversed.Profiles[0].Scenario)
}
