package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/scenario"
)

// namespace scopes dataset ids produced by this module.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/YuminosukeSato/edusynth/dataset"))

// NewID derives a stable dataset id from a fingerprint of the generator
// input. Equal fingerprints always yield the same id.
func NewID(fingerprint string) string {
	return uuid.NewSHA1(namespace, []byte(fingerprint)).String()
}

// Manifest describes a generated dataset file.
type Manifest struct {
	DatasetID      string         `json:"dataset_id"`
	Seed           uint64         `json:"seed"`
	Rows           int            `json:"rows"`
	RowsByScenario map[string]int `json:"rows_by_scenario"`
	MissingValues  map[string]int `json:"missing_values,omitempty"`
	Columns        []string       `json:"columns"`
	File           string         `json:"file"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewManifest summarises d. file is the CSV file name recorded in the manifest.
func NewManifest(d *Dataset, file string) Manifest {
	byScenario := make(map[string]int)
	for s, n := range d.CountByScenario() {
		byScenario[s.String()] = n
	}
	missing := make(map[string]int)
	for _, col := range Columns {
		if n := d.MissingCount(col); n > 0 {
			missing[col] = n
		}
	}
	return Manifest{
		DatasetID:      d.ID,
		Seed:           d.Seed,
		Rows:           d.Len(),
		RowsByScenario: byScenario,
		MissingValues:  missing,
		Columns:        append([]string(nil), Columns...),
		File:           file,
		CreatedAt:      time.Now().UTC(),
	}
}

// ScenarioCount returns the manifest row count of s.
func (m Manifest) ScenarioCount(s scenario.Scenario) int {
	return m.RowsByScenario[s.String()]
}

// ManifestPath returns the manifest path stored next to a CSV file:
// data/raw/students.csv -> data/raw/students.manifest.json.
func ManifestPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".manifest.json"
}

// Save writes d as CSV to dir/file and its manifest next to it. It returns
// the CSV path.
func Save(d *Dataset, dir, file string) (string, error) {
	if file == "" {
		return "", errors.NewConfigurationError("output.file", "must not be empty", file)
	}
	path := filepath.Join(dir, file)
	if err := SaveCSV(path, d.Records); err != nil {
		return "", err
	}
	if err := model.SaveJSON(ManifestPath(path), NewManifest(d, file)); err != nil {
		return "", errors.Wrap(err, "failed to write manifest")
	}
	return path, nil
}

// Load reads a CSV file and, when present, its manifest. The dataset id and
// seed come from the manifest.
func Load(path string) (*Dataset, error) {
	records, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	d := &Dataset{Records: records}

	var m Manifest
	switch err := model.LoadJSON(ManifestPath(path), &m); {
	case err == nil:
		d.ID = m.DatasetID
		d.Seed = m.Seed
	case !errors.Is(err, os.ErrNotExist):
		return nil, errors.Wrap(err, "failed to read manifest")
	}
	return d, nil
}
