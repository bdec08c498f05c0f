package scenario

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// Kind selects the sampling distribution of a field.
type Kind string

const (
	// KindNormal is a normal distribution truncated to [Min, Max] by clamping.
	KindNormal Kind = "normal"
	// KindUniform is uniform on [Min, Max].
	KindUniform Kind = "uniform"
	// KindGamma uses Shape and Scale (mean = Shape*Scale).
	KindGamma Kind = "gamma"
	// KindPoisson uses Mean as its rate.
	KindPoisson Kind = "poisson"
)

// Distribution describes how one record field is sampled. Every sample is
// clamped to [Min, Max], rounded to one decimal (or to a whole number when
// Integer is set) and clamped again.
type Distribution struct {
	Kind    Kind    `yaml:"kind" json:"kind"`
	Mean    float64 `yaml:"mean,omitempty" json:"mean,omitempty"`
	StdDev  float64 `yaml:"stddev,omitempty" json:"stddev,omitempty"`
	Shape   float64 `yaml:"shape,omitempty" json:"shape,omitempty"`
	Scale   float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Integer bool    `yaml:"integer,omitempty" json:"integer,omitempty"`
}

// Normal is a shorthand for a clamped normal distribution.
func Normal(mean, stddev, min, max float64) Distribution {
	return Distribution{Kind: KindNormal, Mean: mean, StdDev: stddev, Min: min, Max: max}
}

// Gamma is a shorthand for a clamped gamma distribution.
func Gamma(shape, scale, min, max float64) Distribution {
	return Distribution{Kind: KindGamma, Shape: shape, Scale: scale, Min: min, Max: max}
}

// Poisson is a shorthand for a clamped, integer valued Poisson distribution.
func Poisson(mean, min, max float64) Distribution {
	return Distribution{Kind: KindPoisson, Mean: mean, Min: min, Max: max, Integer: true}
}

// Uniform is a shorthand for a uniform distribution on [min, max].
func Uniform(min, max float64) Distribution {
	return Distribution{Kind: KindUniform, Min: min, Max: max}
}

// AsInteger returns a copy of d that rounds samples to whole numbers.
func (d Distribution) AsInteger() Distribution {
	d.Integer = true
	return d
}

// Validate checks the parameters of d. field prefixes error messages.
func (d Distribution) Validate(field string) error {
	for name, v := range map[string]float64{
		"mean": d.Mean, "stddev": d.StdDev, "shape": d.Shape,
		"scale": d.Scale, "min": d.Min, "max": d.Max,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewConfigurationError(field+"."+name, "must be a finite number", v)
		}
	}
	if d.Min >= d.Max {
		return errors.NewConfigurationError(field+".min", fmt.Sprintf("must be less than max (%g)", d.Max), d.Min)
	}

	switch d.Kind {
	case KindNormal:
		if d.StdDev < 0 {
			return errors.NewConfigurationError(field+".stddev", "must not be negative", d.StdDev)
		}
		if d.Mean < d.Min || d.Mean > d.Max {
			return errors.NewConfigurationError(field+".mean", "must lie within [min, max]", d.Mean)
		}
	case KindUniform:
	case KindGamma:
		if d.Shape <= 0 {
			return errors.NewConfigurationError(field+".shape", "must be positive", d.Shape)
		}
		if d.Scale <= 0 {
			return errors.NewConfigurationError(field+".scale", "must be positive", d.Scale)
		}
	case KindPoisson:
		if d.Mean < 0 {
			return errors.NewConfigurationError(field+".mean", "must not be negative", d.Mean)
		}
		if d.Mean < d.Min || d.Mean > d.Max {
			return errors.NewConfigurationError(field+".mean", "must lie within [min, max]", d.Mean)
		}
	default:
		return errors.NewConfigurationError(field+".kind", "unknown distribution kind", string(d.Kind))
	}
	return nil
}

// Finish clamps, rounds and clamps again so v lies inside the support.
func (d Distribution) Finish(v float64) float64 {
	v = errors.ClipValue(v, d.Min, d.Max)
	if d.Integer {
		v = math.Round(v)
	} else {
		v = math.Round(v*10) / 10
	}
	return errors.ClipValue(v, d.Min, d.Max)
}

// Coefficients weight the record fields in the exam score formula:
//
//	score = Intercept + Σ coef·field + StudyFamily·study_hours·family_support + noise
type Coefficients struct {
	Intercept       float64 `yaml:"intercept" json:"intercept"`
	StudyHours      float64 `yaml:"study_hours" json:"study_hours"`
	Attendance      float64 `yaml:"attendance" json:"attendance"`
	PreviousGrade   float64 `yaml:"previous_grade" json:"previous_grade"`
	SleepHours      float64 `yaml:"sleep_hours" json:"sleep_hours"`
	FamilySupport   float64 `yaml:"family_support" json:"family_support"`
	ExtraActivities float64 `yaml:"extra_activities" json:"extra_activities"`
	StudyFamily     float64 `yaml:"study_x_family" json:"study_x_family"`
}

// Validate rejects non-finite weights.
func (c Coefficients) Validate(field string) error {
	for name, v := range map[string]float64{
		"intercept": c.Intercept, "study_hours": c.StudyHours, "attendance": c.Attendance,
		"previous_grade": c.PreviousGrade, "sleep_hours": c.SleepHours,
		"family_support": c.FamilySupport, "extra_activities": c.ExtraActivities,
		"study_x_family": c.StudyFamily,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewConfigurationError(field+"."+name, "must be a finite number", v)
		}
	}
	return nil
}

// Profile is the statistical description of one scenario.
type Profile struct {
	Scenario        Scenario
	SampleCount     int
	StudyHours      Distribution
	Attendance      Distribution
	PreviousGrade   Distribution
	SleepHours      Distribution
	FamilySupport   Distribution
	ExtraActivities Distribution
	Coefficients    Coefficients
	// NoiseStdDev is the standard deviation of the additive score noise.
	NoiseStdDev float64
	// NoiseBound caps |noise|. Zero means 3*NoiseStdDev.
	NoiseBound float64
}

// EffectiveNoiseBound returns NoiseBound, defaulting to three standard deviations.
func (p Profile) EffectiveNoiseBound() float64 {
	if p.NoiseBound > 0 {
		return p.NoiseBound
	}
	return 3 * p.NoiseStdDev
}

// Validate returns a ConfigurationError for the first invalid parameter.
func (p Profile) Validate() error {
	if !p.Scenario.Valid() {
		return errors.NewConfigurationError("scenario", "unknown scenario", int(p.Scenario))
	}
	prefix := p.Scenario.String()
	if p.SampleCount <= 0 {
		return errors.NewConfigurationError(prefix+".samples", "must be positive", p.SampleCount)
	}
	fields := []struct {
		name string
		dist Distribution
	}{
		{"study_hours", p.StudyHours},
		{"attendance", p.Attendance},
		{"previous_grade", p.PreviousGrade},
		{"sleep_hours", p.SleepHours},
		{"family_support", p.FamilySupport},
		{"extra_activities", p.ExtraActivities},
	}
	for _, f := range fields {
		if err := f.dist.Validate(prefix + "." + f.name); err != nil {
			return err
		}
	}
	if err := p.Coefficients.Validate(prefix + ".coefficients"); err != nil {
		return err
	}
	if p.NoiseStdDev < 0 || math.IsNaN(p.NoiseStdDev) {
		return errors.NewConfigurationError(prefix+".noise_stddev", "must not be negative", p.NoiseStdDev)
	}
	if p.NoiseBound < 0 || math.IsNaN(p.NoiseBound) {
		return errors.NewConfigurationError(prefix+".noise_bound", "must not be negative", p.NoiseBound)
	}
	return nil
}

// baseCoefficients are shared by all scenarios before per-scenario tweaks.
var baseCoefficients = Coefficients{
	StudyHours:      0.9,
	Attendance:      0.2,
	PreviousGrade:   0.45,
	SleepHours:      0.8,
	FamilySupport:   0.6,
	ExtraActivities: -0.3,
	StudyFamily:     0.03,
}

// DefaultProfile returns the built-in profile of s with the given sample count.
func DefaultProfile(s Scenario, samples int) Profile {
	c := baseCoefficients
	p := Profile{
		Scenario:    s,
		SampleCount: samples,
		NoiseStdDev: 5,
	}

	switch s {
	case ElitePrivate:
		p.StudyHours = Normal(14, 3, 0, 25)
		p.Attendance = Normal(95, 3, 50, 100)
		p.PreviousGrade = Normal(80, 8, 30, 100)
		p.SleepHours = Normal(7.5, 0.8, 4, 12)
		p.FamilySupport = Normal(8, 1.2, 1, 10).AsInteger()
		p.ExtraActivities = Poisson(4, 0, 10)
		c.Intercept = 4
		p.NoiseStdDev = 4
	case UrbanPublic:
		p.StudyHours = Gamma(2.5, 3.5, 0, 25)
		p.Attendance = Normal(85, 7, 50, 100)
		p.PreviousGrade = Normal(65, 12, 30, 100)
		p.SleepHours = Normal(7, 1.2, 4, 12)
		p.FamilySupport = Normal(6, 2, 1, 10).AsInteger()
		p.ExtraActivities = Poisson(2, 0, 10)
	case RuralCommunity:
		p.StudyHours = Normal(8, 3, 0, 25)
		p.Attendance = Normal(82, 8, 50, 100)
		p.PreviousGrade = Normal(62, 13, 30, 100)
		p.SleepHours = Normal(7.8, 1, 4, 12)
		p.FamilySupport = Normal(7, 2, 1, 10).AsInteger()
		p.ExtraActivities = Poisson(1.5, 0, 10)
		c.Intercept = -2
		c.FamilySupport = 0.9
	case STEMMagnet:
		p.StudyHours = Normal(15, 4, 0, 25)
		p.Attendance = Normal(93, 4, 50, 100)
		p.PreviousGrade = Normal(78, 9, 30, 100)
		p.SleepHours = Normal(6.8, 1, 4, 12)
		p.FamilySupport = Normal(7, 1.5, 1, 10).AsInteger()
		p.ExtraActivities = Poisson(3, 0, 10)
		c.Intercept = 3
		c.StudyHours = 1.1
	case ArtsCreative:
		p.StudyHours = Normal(10, 3.5, 0, 25)
		p.Attendance = Normal(86, 6, 50, 100)
		p.PreviousGrade = Normal(68, 11, 30, 100)
		p.SleepHours = Normal(7.2, 1.2, 4, 12)
		p.FamilySupport = Normal(6.5, 1.8, 1, 10).AsInteger()
		p.ExtraActivities = Poisson(5, 0, 10)
		c.Intercept = -1
		c.ExtraActivities = 0.2
	case International:
		p.StudyHours = Normal(12, 3.5, 0, 25)
		p.Attendance = Normal(90, 5, 50, 100)
		p.PreviousGrade = Normal(72, 10, 30, 100)
		p.SleepHours = Normal(7.2, 1, 4, 12)
		p.FamilySupport = Normal(7.5, 1.5, 1, 10).AsInteger()
		p.ExtraActivities = Poisson(3, 0, 10)
		c.Intercept = 2
	}

	p.Coefficients = c
	return p
}

// DefaultProfiles returns the built-in profile of every scenario, each with
// samplesEach records.
func DefaultProfiles(samplesEach int) []Profile {
	profiles := make([]Profile, 0, Count())
	for _, s := range All() {
		profiles = append(profiles, DefaultProfile(s, samplesEach))
	}
	return profiles
}
