// Package report は生成済みデータセットのシナリオ別統計とグラフを作成する
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/preprocessing"
	"github.com/YuminosukeSato/edusynth/scenario"
)

// SummaryColumns are the numeric fields described per scenario.
var SummaryColumns = []string{
	dataset.ColStudyHours,
	dataset.ColAttendance,
	dataset.ColPreviousGrade,
	dataset.ColSleepHours,
	dataset.ColFamilySupport,
	dataset.ColExtraActivities,
	dataset.ColExamScore,
}

// Stats describes one column. Missing values are excluded and counted.
type Stats struct {
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
	Min     float64 `json:"min"`
	Median  float64 `json:"median"`
	Max     float64 `json:"max"`
}

// ScenarioSummary holds the statistics of one scenario.
type ScenarioSummary struct {
	Scenario    string           `json:"scenario"`
	DisplayName string           `json:"display_name"`
	Records     int              `json:"records"`
	Columns     map[string]Stats `json:"columns"`
	// Correlations は各列と exam_score のピアソン相関
	Correlations map[string]float64 `json:"correlations"`
}

// Summary is the whole-dataset report document.
type Summary struct {
	DatasetID string            `json:"dataset_id"`
	Seed      uint64            `json:"seed"`
	Records   int               `json:"records"`
	Scenarios []ScenarioSummary `json:"scenarios"`
	Overall   ScenarioSummary   `json:"overall"`
}

// Describe computes Stats over the non-missing values of col.
func Describe(records []dataset.StudentRecord, col string) Stats {
	values := dataset.Column(records, col)
	s := Stats{Count: len(values), Missing: len(records) - len(values)}
	if len(values) == 0 {
		return s
	}
	// stat.MeanStdDev は不偏標準偏差。1件のときはNaNになるので0とする
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	sorted := sortedCopy(values)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	// 欠損補完と同じ定義（偶数件は中央2値の平均）
	s.Median, _ = preprocessing.Median(sorted)
	return s
}

// Summarize builds per-scenario and overall statistics for d.
func Summarize(d *dataset.Dataset) (Summary, error) {
	if d == nil || d.Len() == 0 {
		return Summary{}, errors.Wrap(errors.ErrEmptyData, "report.Summarize")
	}
	out := Summary{DatasetID: d.ID, Seed: d.Seed, Records: d.Len()}
	for _, s := range d.Scenarios() {
		sum := summarize(d.Filter(s))
		sum.Scenario = s.String()
		sum.DisplayName = s.DisplayName()
		out.Scenarios = append(out.Scenarios, sum)
	}
	out.Overall = summarize(d.Records)
	out.Overall.Scenario = "all"
	out.Overall.DisplayName = "All Scenarios"
	return out, nil
}

func summarize(records []dataset.StudentRecord) ScenarioSummary {
	sum := ScenarioSummary{
		Records:      len(records),
		Columns:      make(map[string]Stats, len(SummaryColumns)),
		Correlations: make(map[string]float64, len(SummaryColumns)-1),
	}
	for _, col := range SummaryColumns {
		sum.Columns[col] = Describe(records, col)
		if col == dataset.ColExamScore {
			continue
		}
		sum.Correlations[col] = correlation(records, col)
	}
	return sum
}

// correlation uses only rows where both col and exam_score are present.
// A constant column gives 0.
func correlation(records []dataset.StudentRecord, col string) float64 {
	xs := make([]float64, 0, len(records))
	ys := make([]float64, 0, len(records))
	for _, r := range records {
		x, _ := r.Value(col)
		if math.IsNaN(x) || math.IsNaN(r.ExamScore) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, r.ExamScore)
	}
	if len(xs) < 2 {
		return 0
	}
	c := stat.Correlation(xs, ys, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// ScenarioScores returns exam scores grouped by scenario in enumeration order.
func ScenarioScores(d *dataset.Dataset) ([]scenario.Scenario, [][]float64) {
	present := d.Scenarios()
	scores := make([][]float64, len(present))
	for i, s := range present {
		scores[i] = dataset.Column(d.Filter(s), dataset.ColExamScore)
	}
	return present, scores
}

func sortedCopy(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	return out
}
