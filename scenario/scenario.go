// Package scenario loads simulation scenarios: a gravity constant, a table of
// material densities and the grid of material tags.
//
// Scenarios are YAML documents. Since YAML is a superset of JSON, scenario
// files written as JSON objects ({"g": ..., "rho": {...}, "field": [...]})
// load unchanged, and so do the snapshots the simulator writes.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Default grid bounds.
const (
	DefaultMaxRows = 36
	DefaultMaxCols = 84
)

var (
	ErrEmptyField   = errors.New("scenario: field has no rows")
	ErrRaggedField  = errors.New("scenario: field rows differ in length")
	ErrFieldTooBig  = errors.New("scenario: field exceeds size limits")
	ErrDensityKey   = errors.New("scenario: density keys must be single characters")
	ErrMissingValue = errors.New("scenario: missing gravity")
)

// Scenario is a parsed scenario description.
type Scenario struct {
	Gravity *float64           `yaml:"g" json:"g"`
	Density map[string]float64 `yaml:"rho" json:"rho"`
	Field   []string           `yaml:"field" json:"field"`
}

// Limits bounds the grid size. Zero fields mean no bound.
type Limits struct {
	MaxRows int
	MaxCols int
}

// DefaultLimits returns the standard 36x84 bound.
func DefaultLimits() Limits {
	return Limits{MaxRows: DefaultMaxRows, MaxCols: DefaultMaxCols}
}

// Load reads and validates a scenario file.
func Load(path string, lim Limits) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data, lim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte, lim Limits) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(lim); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the grid shape and density table.
func (s *Scenario) Validate(lim Limits) error {
	if s.Gravity == nil {
		return ErrMissingValue
	}
	if len(s.Field) == 0 {
		return ErrEmptyField
	}
	width := len(s.Field[0])
	for i, row := range s.Field {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrRaggedField, i, len(row), width)
		}
	}
	if width == 0 {
		return ErrEmptyField
	}
	if (lim.MaxRows > 0 && len(s.Field) > lim.MaxRows) || (lim.MaxCols > 0 && width > lim.MaxCols) {
		return fmt.Errorf("%w: %dx%d, limit %dx%d", ErrFieldTooBig, len(s.Field), width, lim.MaxRows, lim.MaxCols)
	}
	for key := range s.Density {
		if len(key) != 1 {
			return fmt.Errorf("%w: %q", ErrDensityKey, key)
		}
	}
	return nil
}

// G returns the gravity constant.
func (s *Scenario) G() float64 {
	if s.Gravity == nil {
		return 0
	}
	return *s.Gravity
}

// DensityOf returns the density of a material tag.
func (s *Scenario) DensityOf(tag byte) (float64, bool) {
	v, ok := s.Density[string([]byte{tag})]
	return v, ok
}

// Materials returns the distinct tags present in the field, sorted.
func (s *Scenario) Materials() []byte {
	var seen [256]bool
	var tags []byte
	for _, row := range s.Field {
		for i := 0; i < len(row); i++ {
			if !seen[row[i]] {
				seen[row[i]] = true
				tags = append(tags, row[i])
			}
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// New builds a scenario in memory.
func New(gravity float64, density map[string]float64, field []string) *Scenario {
	return &Scenario{Gravity: &gravity, Density: density, Field: field}
}

// Save writes the scenario as an indented JSON document.
func (s *Scenario) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
