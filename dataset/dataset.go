// Package dataset holds generated student records and their on-disk forms:
// CSV rows, a JSON manifest and a deterministic train/test split.
package dataset

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/scenario"
)

// Column names in CSV order.
const (
	ColStudentID       = "student_id"
	ColScenario        = "scenario"
	ColStudyHours      = "study_hours"
	ColAttendance      = "attendance"
	ColPreviousGrade   = "previous_grade"
	ColSleepHours      = "sleep_hours"
	ColExtraActivities = "extra_activities"
	ColFamilySupport   = "family_support"
	ColExamScore       = "exam_score"
)

// Columns is the CSV header.
var Columns = []string{
	ColStudentID, ColScenario, ColStudyHours, ColAttendance, ColPreviousGrade,
	ColSleepHours, ColExtraActivities, ColFamilySupport, ColExamScore,
}

// RequiredColumns must be present (and non-missing) for feature construction.
var RequiredColumns = []string{
	ColScenario, ColStudyHours, ColAttendance, ColPreviousGrade, ColFamilySupport,
}

// StudentRecord is one synthetic student. Missing numeric values are NaN.
type StudentRecord struct {
	StudentID       int               `json:"student_id"`
	Scenario        scenario.Scenario `json:"scenario"`
	StudyHours      float64           `json:"study_hours"`
	Attendance      float64           `json:"attendance"`
	PreviousGrade   float64           `json:"previous_grade"`
	SleepHours      float64           `json:"sleep_hours"`
	ExtraActivities float64           `json:"extra_activities"`
	FamilySupport   float64           `json:"family_support"`
	ExamScore       float64           `json:"exam_score"`
}

// Value returns the numeric field named col.
func (r StudentRecord) Value(col string) (float64, bool) {
	switch col {
	case ColStudentID:
		return float64(r.StudentID), true
	case ColStudyHours:
		return r.StudyHours, true
	case ColAttendance:
		return r.Attendance, true
	case ColPreviousGrade:
		return r.PreviousGrade, true
	case ColSleepHours:
		return r.SleepHours, true
	case ColExtraActivities:
		return r.ExtraActivities, true
	case ColFamilySupport:
		return r.FamilySupport, true
	case ColExamScore:
		return r.ExamScore, true
	}
	return 0, false
}

// Dataset is an ordered collection of records with the provenance needed
// for its manifest.
type Dataset struct {
	ID      string
	Seed    uint64
	Records []StudentRecord
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// CountByScenario returns the number of records per scenario.
func (d *Dataset) CountByScenario() map[scenario.Scenario]int {
	counts := make(map[scenario.Scenario]int)
	for _, r := range d.Records {
		counts[r.Scenario]++
	}
	return counts
}

// Scenarios returns the scenarios present, in enumeration order.
func (d *Dataset) Scenarios() []scenario.Scenario {
	counts := d.CountByScenario()
	var out []scenario.Scenario
	for _, s := range scenario.All() {
		if counts[s] > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Filter returns the records of one scenario, in dataset order.
func (d *Dataset) Filter(s scenario.Scenario) []StudentRecord {
	var out []StudentRecord
	for _, r := range d.Records {
		if r.Scenario == s {
			out = append(out, r)
		}
	}
	return out
}

// Column returns the values of a numeric column. Missing values are skipped.
func Column(records []StudentRecord, col string) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		v, ok := r.Value(col)
		if !ok || math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// MissingCount returns how many records have a NaN in col.
func (d *Dataset) MissingCount(col string) int {
	n := 0
	for _, r := range d.Records {
		if v, ok := r.Value(col); ok && math.IsNaN(v) {
			n++
		}
	}
	return n
}

// TrainTestSplit shuffles the records with a PCG source seeded by seed and
// puts floor(testRatio*N) of them into the test set. The same inputs always
// produce the same split.
func TrainTestSplit(d *Dataset, testRatio float64, seed uint64) (train, test *Dataset, err error) {
	if testRatio <= 0 || testRatio >= 1 || math.IsNaN(testRatio) {
		return nil, nil, errors.NewConfigurationError("training.test_ratio", "must be in (0, 1)", testRatio)
	}
	n := d.Len()
	if n < 2 {
		return nil, nil, errors.Wrapf(errors.ErrEmptyData, "train/test split needs at least 2 records, got %d", n)
	}

	nTest := int(math.Floor(testRatio * float64(n)))
	if nTest == 0 {
		nTest = 1
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x5deece66d))
	indices := rng.Perm(n)

	train = &Dataset{ID: d.ID, Seed: d.Seed, Records: make([]StudentRecord, 0, n-nTest)}
	test = &Dataset{ID: d.ID, Seed: d.Seed, Records: make([]StudentRecord, 0, nTest)}
	for i, idx := range indices {
		if i < nTest {
			test.Records = append(test.Records, d.Records[idx])
		} else {
			train.Records = append(train.Records, d.Records[idx])
		}
	}
	return train, test, nil
}
