package features

import (
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/preprocessing"
	"github.com/YuminosukeSato/edusynth/scenario"
)

// State is the frozen fit-time state of a Pipeline. It is plain data and
// serialises to JSON.
type State struct {
	Scaler      preprocessing.ScalerParams `json:"scaler"`
	Medians     map[string]float64         `json:"medians"`
	Scenarios   []string                   `json:"scenarios"`
	Frequencies map[string]float64         `json:"frequencies"`
	FitRows     int                        `json:"fit_rows"`
}

// State exports the fitted state.
func (p *Pipeline) State() (State, error) {
	if !p.IsFitted() {
		return State{}, errors.NewNotFittedError("Pipeline", "State")
	}
	params, err := p.scaler.Params()
	if err != nil {
		return State{}, err
	}

	medians := make(map[string]float64, len(OptionalColumns))
	for j, col := range OptionalColumns {
		medians[col] = p.imputer.Medians[j]
	}
	freq := make(map[string]float64, len(p.freq.Frequencies))
	for label, f := range p.freq.Frequencies {
		freq[scenario.Scenario(label).String()] = f
	}

	return State{
		Scaler:      params,
		Medians:     medians,
		Scenarios:   p.scenarioKeys(),
		Frequencies: freq,
		FitRows:     p.fitRows,
	}, nil
}

// NewPipelineFromState rebuilds a fitted pipeline from an exported State.
// The scaler option is taken from the state.
func NewPipelineFromState(s State, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{logger: log.GetLoggerWithName("features")}
	for _, opt := range opts {
		opt(p)
	}
	p.scalerKind = s.Scaler.Kind

	if len(s.Scaler.Offset) != len(RawColumns) {
		return nil, errors.NewDimensionError("NewPipelineFromState", len(RawColumns), len(s.Scaler.Offset), 1)
	}
	scaler, err := preprocessing.ScalerFromParams(s.Scaler)
	if err != nil {
		return nil, err
	}

	medians := make([]float64, len(OptionalColumns))
	for j, col := range OptionalColumns {
		m, ok := s.Medians[col]
		if !ok {
			return nil, errors.NewValueError("NewPipelineFromState", "missing median for "+col)
		}
		medians[j] = m
	}
	imputer, err := preprocessing.ImputerFromMedians(medians, OptionalColumns...)
	if err != nil {
		return nil, err
	}

	categories := make([]int, len(s.Scenarios))
	freq := make(map[int]float64, len(s.Scenarios))
	for i, key := range s.Scenarios {
		sc, err := scenario.Parse(key)
		if err != nil {
			return nil, err
		}
		f, ok := s.Frequencies[key]
		if !ok {
			return nil, errors.NewValueError("NewPipelineFromState", "missing frequency for "+key)
		}
		categories[i] = int(sc)
		freq[int(sc)] = f
	}
	onehot, err := preprocessing.OneHotFromCategories(categories)
	if err != nil {
		return nil, err
	}
	freqEnc, err := preprocessing.FrequencyFromMap(freq)
	if err != nil {
		return nil, err
	}

	p.imputer, p.scaler, p.onehot, p.freq = imputer, scaler, onehot, freqEnc
	p.fitRows = s.FitRows
	p.SetFitted()
	return p, nil
}
