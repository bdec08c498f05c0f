package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/scenario"
)

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the header followed by one row per record.
// NaN values become empty cells.
func WriteCSV(w io.Writer, records []StudentRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	row := make([]string, len(Columns))
	for _, r := range records {
		row[0] = strconv.Itoa(r.StudentID)
		row[1] = r.Scenario.String()
		row[2] = formatFloat(r.StudyHours)
		row[3] = formatFloat(r.Attendance)
		row[4] = formatFloat(r.PreviousGrade)
		row[5] = formatFloat(r.SleepHours)
		row[6] = formatFloat(r.ExtraActivities)
		row[7] = formatFloat(r.FamilySupport)
		row[8] = formatFloat(r.ExamScore)
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write csv row for student %d", r.StudentID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

// ReadCSV parses records written by WriteCSV. Columns may appear in any
// order. The required columns must exist in the header; optional columns
// that are absent read as NaN (student_id defaults to the 1-based row).
// Empty cells read as NaN.
func ReadCSV(r io.Reader) ([]StudentRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewSchemaError(-1, "header", "csv input is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv header")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, errors.NewSchemaError(-1, col, "required column missing from header")
		}
	}

	var records []StudentRecord
	for row := 0; ; row++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read csv row %d", row)
		}
		rec, err := parseRow(row, fields, index)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row int, fields []string, index map[string]int) (StudentRecord, error) {
	cell := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok || i >= len(fields) {
			return "", false
		}
		return strings.TrimSpace(fields[i]), true
	}
	number := func(col string) (float64, error) {
		s, ok := cell(col)
		if !ok || s == "" {
			return math.NaN(), nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.NewSchemaError(row, col, "not a number: "+s)
		}
		return v, nil
	}

	rec := StudentRecord{StudentID: row + 1}
	if s, ok := cell(ColStudentID); ok && s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return rec, errors.NewSchemaError(row, ColStudentID, "not an integer: "+s)
		}
		rec.StudentID = id
	}

	name, _ := cell(ColScenario)
	sc, err := scenario.Parse(name)
	if err != nil {
		return rec, errors.NewSchemaError(row, ColScenario, "unknown scenario: "+name)
	}
	rec.Scenario = sc

	targets := []struct {
		col string
		dst *float64
	}{
		{ColStudyHours, &rec.StudyHours},
		{ColAttendance, &rec.Attendance},
		{ColPreviousGrade, &rec.PreviousGrade},
		{ColSleepHours, &rec.SleepHours},
		{ColExtraActivities, &rec.ExtraActivities},
		{ColFamilySupport, &rec.FamilySupport},
		{ColExamScore, &rec.ExamScore},
	}
	for _, t := range targets {
		v, err := number(t.col)
		if err != nil {
			return rec, err
		}
		*t.dst = v
	}
	return rec, nil
}

// SaveCSV writes records to path, creating parent directories.
func SaveCSV(path string, records []StudentRecord) error {
	return saveFile(path, func(w io.Writer) error { return WriteCSV(w, records) })
}

// LoadCSV reads records from path.
func LoadCSV(path string) ([]StudentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return ReadCSV(f)
}
