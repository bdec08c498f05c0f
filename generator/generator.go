// Package generator produces synthetic student records for a set of school
// scenarios.
//
// Every scenario draws from its own PCG stream derived from the global seed
// and the scenario's enumeration position, so output is reproducible bit for
// bit. Profiles are processed in scenario order, so the order in which they
// are listed does not change the output or the dataset id. The final shuffle
// and the missing-value positions use their own streams as well.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/scenario"
)

const (
	shuffleStream uint64 = 0
	missingStream uint64 = 1 << 32
)

// Config is the complete input of one generation run.
type Config struct {
	Seed     uint64
	Profiles []scenario.Profile
	// ScoreMin and ScoreMax bound exam_score.
	ScoreMin float64
	ScoreMax float64
	// MissingRate is the fraction of sleep_hours values left blank, in [0, 1).
	MissingRate float64
}

// DefaultConfig returns all built-in profiles with samplesEach records each
// and the [0, 100] score range.
func DefaultConfig(seed uint64, samplesEach int) Config {
	return Config{
		Seed:     seed,
		Profiles: scenario.DefaultProfiles(samplesEach),
		ScoreMin: 0,
		ScoreMax: 100,
	}
}

// Validate returns a ConfigurationError describing the first problem in c.
func (c Config) Validate() error {
	if len(c.Profiles) == 0 {
		return errors.NewConfigurationError("scenarios", "at least one scenario is required", 0)
	}
	if math.IsNaN(c.ScoreMin) || math.IsNaN(c.ScoreMax) || c.ScoreMin >= c.ScoreMax {
		return errors.NewConfigurationError("score_range", "min must be less than max",
			fmt.Sprintf("[%g, %g]", c.ScoreMin, c.ScoreMax))
	}
	if c.MissingRate < 0 || c.MissingRate >= 1 || math.IsNaN(c.MissingRate) {
		return errors.NewConfigurationError("missing_rate", "must be in [0, 1)", c.MissingRate)
	}
	seen := make(map[scenario.Scenario]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Scenario] {
			return errors.NewConfigurationError("scenarios", "duplicate scenario", p.Scenario.String())
		}
		seen[p.Scenario] = true
	}
	return nil
}

// TotalSamples is the number of records a run produces.
func (c Config) TotalSamples() int {
	n := 0
	for _, p := range c.Profiles {
		n += p.SampleCount
	}
	return n
}

// ordered returns the profiles sorted by scenario so that output does not
// depend on the listing order.
func (c Config) ordered() []scenario.Profile {
	out := append([]scenario.Profile(nil), c.Profiles...)
	sort.Slice(out, func(i, j int) bool { return out[i].Scenario < out[j].Scenario })
	return out
}

// Fingerprint is a canonical text form of c used to derive the dataset id.
func (c Config) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "seed=%d;score=[%g,%g];missing=%g", c.Seed, c.ScoreMin, c.ScoreMax, c.MissingRate)
	for _, p := range c.ordered() {
		fmt.Fprintf(&b, ";%s=%+v", p.Scenario, p)
	}
	return b.String()
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger replaces the component logger.
func WithLogger(l log.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// Generator produces datasets from a validated Config.
type Generator struct {
	cfg    Config
	logger log.Logger
}

// New validates cfg and returns a Generator.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Profiles = cfg.ordered()
	g := &Generator{cfg: cfg, logger: log.GetLoggerWithName("generator")}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate is a shorthand for New(cfg) followed by Generate.
func Generate(cfg Config) (*dataset.Dataset, error) {
	g, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return g.Generate()
}

// Generate produces one record per requested sample, shuffled across
// scenarios, with student ids 1..N in final order.
func (g *Generator) Generate() (ds *dataset.Dataset, err error) {
	defer errors.Recover(&err, "Generator.Generate")
	start := time.Now()

	records := make([]dataset.StudentRecord, 0, g.cfg.TotalSamples())
	names := make([]string, 0, len(g.cfg.Profiles))
	for _, p := range g.cfg.Profiles {
		records = append(records, g.sampleScenario(p)...)
		names = append(names, p.Scenario.String())
	}

	shuffle := rand.New(rand.NewPCG(g.cfg.Seed, shuffleStream))
	shuffle.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})

	missing := g.injectMissing(records)

	for i := range records {
		records[i].StudentID = i + 1
	}

	ds = &dataset.Dataset{
		ID:      dataset.NewID(g.cfg.Fingerprint()),
		Seed:    g.cfg.Seed,
		Records: records,
	}

	g.logger.Info("dataset generated",
		log.OperationKey, log.OperationGenerate,
		log.RandomSeedKey, g.cfg.Seed,
		log.ScenariosKey, names,
		log.SamplesKey, len(records),
		"missing_values", missing,
		log.DatasetIDKey, ds.ID,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ds, nil
}

// sampler draws one field of a profile from a shared source.
type sampler struct {
	dist scenario.Distribution
	rand func() float64
}

func newSampler(d scenario.Distribution, src rand.Source) sampler {
	s := sampler{dist: d}
	switch d.Kind {
	case scenario.KindNormal:
		s.rand = distuv.Normal{Mu: d.Mean, Sigma: d.StdDev, Src: src}.Rand
	case scenario.KindUniform:
		s.rand = distuv.Uniform{Min: d.Min, Max: d.Max, Src: src}.Rand
	case scenario.KindGamma:
		// distuv.Gamma is parameterised by rate, not scale.
		s.rand = distuv.Gamma{Alpha: d.Shape, Beta: 1 / d.Scale, Src: src}.Rand
	case scenario.KindPoisson:
		s.rand = distuv.Poisson{Lambda: d.Mean, Src: src}.Rand
	}
	return s
}

func (s sampler) draw() float64 {
	return s.dist.Finish(s.rand())
}

func (g *Generator) sampleScenario(p scenario.Profile) []dataset.StudentRecord {
	src := rand.NewPCG(g.cfg.Seed, uint64(p.Scenario)+1)

	study := newSampler(p.StudyHours, src)
	attendance := newSampler(p.Attendance, src)
	previous := newSampler(p.PreviousGrade, src)
	sleep := newSampler(p.SleepHours, src)
	family := newSampler(p.FamilySupport, src)
	activities := newSampler(p.ExtraActivities, src)
	noise := distuv.Normal{Mu: 0, Sigma: p.NoiseStdDev, Src: src}
	bound := p.EffectiveNoiseBound()

	out := make([]dataset.StudentRecord, p.SampleCount)
	for i := range out {
		r := dataset.StudentRecord{
			Scenario:        p.Scenario,
			StudyHours:      study.draw(),
			Attendance:      attendance.draw(),
			PreviousGrade:   previous.draw(),
			SleepHours:      sleep.draw(),
			FamilySupport:   family.draw(),
			ExtraActivities: activities.draw(),
		}
		eps := errors.ClipValue(noise.Rand(), -bound, bound)
		r.ExamScore = g.finishScore(Score(p.Coefficients, r) + eps)
		out[i] = r
	}
	return out
}

// Score evaluates the noiseless exam score formula of c for r.
func Score(c scenario.Coefficients, r dataset.StudentRecord) float64 {
	return c.Intercept +
		c.StudyHours*r.StudyHours +
		c.Attendance*r.Attendance +
		c.PreviousGrade*r.PreviousGrade +
		c.SleepHours*r.SleepHours +
		c.FamilySupport*r.FamilySupport +
		c.ExtraActivities*r.ExtraActivities +
		c.StudyFamily*r.StudyHours*r.FamilySupport
}

func (g *Generator) finishScore(v float64) float64 {
	v = errors.ClipValue(v, g.cfg.ScoreMin, g.cfg.ScoreMax)
	v = math.Round(v*10) / 10
	return errors.ClipValue(v, g.cfg.ScoreMin, g.cfg.ScoreMax)
}

// injectMissing blanks exactly floor(MissingRate*N) sleep_hours values.
func (g *Generator) injectMissing(records []dataset.StudentRecord) int {
	k := int(math.Floor(g.cfg.MissingRate * float64(len(records))))
	if k == 0 {
		return 0
	}
	rng := rand.New(rand.NewPCG(g.cfg.Seed, missingStream))
	for _, idx := range rng.Perm(len(records))[:k] {
		records[idx].SleepHours = math.NaN()
	}
	return k
}
