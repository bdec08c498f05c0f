package report

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
)

// 出力ファイル名
const (
	SummaryFile = "summary.json"
	BoxPlotFile = "exam_score_by_scenario.png"
	ScatterFile = "study_hours_vs_exam_score.png"
)

var (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// ScoreBoxPlot draws one exam_score box per scenario.
func ScoreBoxPlot(d *dataset.Dataset) (*plot.Plot, error) {
	if d == nil || d.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "report.ScoreBoxPlot")
	}
	p := plot.New()
	p.Title.Text = "Exam score by scenario"
	p.Y.Label.Text = "exam_score"

	present, scores := ScenarioScores(d)
	names := make([]string, len(present))
	for i, s := range present {
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(i), plotter.Values(scores[i]))
		if err != nil {
			return nil, errors.Wrapf(err, "box plot for %s", s)
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
		names[i] = s.DisplayName()
	}
	p.NominalX(names...)
	return p, nil
}

// StudyHoursScatter plots study_hours against exam_score with one series
// per scenario.
func StudyHoursScatter(d *dataset.Dataset) (*plot.Plot, error) {
	if d == nil || d.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "report.StudyHoursScatter")
	}
	p := plot.New()
	p.Title.Text = "Study hours vs exam score"
	p.X.Label.Text = "study_hours"
	p.Y.Label.Text = "exam_score"
	p.Legend.Top = true

	for i, s := range d.Scenarios() {
		records := d.Filter(s)
		pts := make(plotter.XYs, 0, len(records))
		for _, r := range records {
			pts = append(pts, plotter.XY{X: r.StudyHours, Y: r.ExamScore})
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "scatter for %s", s)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = plotutil.Shape(i)
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add(s.DisplayName(), sc)
	}
	return p, nil
}

// WritePNG renders p as PNG to w.
func WritePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return errors.Wrap(err, "render png")
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "write png")
}

// Files lists the paths written by Write.
type Files struct {
	Summary string `json:"summary"`
	BoxPlot string `json:"box_plot"`
	Scatter string `json:"scatter"`
}

// Write stores summary.json and both charts under dir.
func Write(d *dataset.Dataset, dir string) (Files, error) {
	start := time.Now()
	logger := log.GetLoggerWithName("report")

	summary, err := Summarize(d)
	if err != nil {
		return Files{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, errors.Wrapf(err, "create report directory %s", dir)
	}

	files := Files{
		Summary: filepath.Join(dir, SummaryFile),
		BoxPlot: filepath.Join(dir, BoxPlotFile),
		Scatter: filepath.Join(dir, ScatterFile),
	}
	if err := model.SaveJSON(files.Summary, summary); err != nil {
		return Files{}, err
	}

	box, err := ScoreBoxPlot(d)
	if err != nil {
		return Files{}, err
	}
	if err := box.Save(chartWidth, chartHeight, files.BoxPlot); err != nil {
		return Files{}, errors.Wrapf(err, "save %s", files.BoxPlot)
	}
	scatter, err := StudyHoursScatter(d)
	if err != nil {
		return Files{}, err
	}
	if err := scatter.Save(chartWidth, chartHeight, files.Scatter); err != nil {
		return Files{}, errors.Wrapf(err, "save %s", files.Scatter)
	}

	logger.Info("report written",
		log.OperationKey, log.OperationReport,
		log.DatasetIDKey, d.ID,
		log.SamplesKey, d.Len(),
		log.ScenariosKey, len(summary.Scenarios),
		log.PathKey, dir,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return files, nil
}
