// Package scenario defines the closed set of school contexts used to
// generate synthetic student data, together with one statistical profile
// per context.
package scenario

import (
	"strings"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// Scenario is a named school context.
type Scenario int

const (
	ElitePrivate Scenario = iota
	UrbanPublic
	RuralCommunity
	STEMMagnet
	ArtsCreative
	International

	numScenarios
)

var keys = [numScenarios]string{
	ElitePrivate:   "elite_private",
	UrbanPublic:    "urban_public",
	RuralCommunity: "rural_community",
	STEMMagnet:     "stem_magnet",
	ArtsCreative:   "arts_creative",
	International:  "international",
}

var displayNames = [numScenarios]string{
	ElitePrivate:   "Elite Private",
	UrbanPublic:    "Urban Public",
	RuralCommunity: "Rural Community",
	STEMMagnet:     "STEM Magnet",
	ArtsCreative:   "Arts Creative",
	International:  "International",
}

// All returns every scenario in enumeration order.
func All() []Scenario {
	all := make([]Scenario, numScenarios)
	for i := range all {
		all[i] = Scenario(i)
	}
	return all
}

// Count is the number of scenarios.
func Count() int {
	return int(numScenarios)
}

// Valid reports whether s is one of the defined scenarios.
func (s Scenario) Valid() bool {
	return s >= 0 && s < numScenarios
}

// String returns the stable key, e.g. "stem_magnet".
func (s Scenario) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return keys[s]
}

// DisplayName returns the human readable name, e.g. "STEM Magnet".
func (s Scenario) DisplayName() string {
	if !s.Valid() {
		return "Unknown"
	}
	return displayNames[s]
}

// Parse accepts a key or a display name, case-insensitively.
// "Elite Private", "elite_private" and "ELITE-PRIVATE" all resolve to ElitePrivate.
func Parse(name string) (Scenario, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for i, k := range keys {
		if k == norm {
			return Scenario(i), nil
		}
	}
	return -1, errors.NewValueError("scenario.Parse", "unknown scenario: "+name)
}

// MarshalText implements encoding.TextMarshaler so scenarios serialise as keys.
func (s Scenario) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.NewValueError("scenario.MarshalText", "invalid scenario value")
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scenario) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
