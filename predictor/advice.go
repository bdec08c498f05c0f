package predictor

import (
	"math"

	"github.com/YuminosukeSato/edusynth/dataset"
)

// Performance levels.
const (
	LevelExceptional      = "Exceptional"
	LevelExcellent        = "Excellent"
	LevelGood             = "Good"
	LevelNeedsImprovement = "Needs Improvement"
)

// KeepItUp is returned when no habit needs attention.
const KeepItUp = "Excellent study habits! Keep up the great work!"

// Level maps a predicted score to a performance band.
func Level(score float64) string {
	switch {
	case score >= 90:
		return LevelExceptional
	case score >= 80:
		return LevelExcellent
	case score >= 70:
		return LevelGood
	default:
		return LevelNeedsImprovement
	}
}

// advice pairs a threshold rule with its message.
var advice = []struct {
	below   float64
	value   func(dataset.StudentRecord) float64
	message string
}{
	{8, func(r dataset.StudentRecord) float64 { return r.StudyHours }, "Increase study hours to 8-12 per week"},
	{90, func(r dataset.StudentRecord) float64 { return r.Attendance }, "Improve attendance to 90%+ for better outcomes"},
	{7, func(r dataset.StudentRecord) float64 { return r.SleepHours }, "Aim for 7-8 hours of sleep per night"},
	{7, func(r dataset.StudentRecord) float64 { return r.FamilySupport }, "Seek additional family or mentor support"},
}

// Recommend returns habit suggestions for r. A missing value never triggers
// a suggestion. When nothing applies the single KeepItUp message is returned.
func Recommend(r dataset.StudentRecord) []string {
	var out []string
	for _, a := range advice {
		v := a.value(r)
		if !math.IsNaN(v) && v < a.below {
			out = append(out, a.message)
		}
	}
	if len(out) == 0 {
		return []string{KeepItUp}
	}
	return out
}
