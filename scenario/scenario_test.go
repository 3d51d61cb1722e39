package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonScenario = `{
  "g": 0.1,
  "rho": {
    " ": 0.01,
    ".": 1000
  },
  "field": [
    "#####",
    "#.  #",
    "#####"
  ]
}
`

const yamlScenario = `
g: 0.5
rho:
  " ": 0.01
  ".": 1000
  "x": 3
field:
  - "######"
  - "#.x  #"
  - "######"
`

func TestParseJSON(t *testing.T) {
	sc, err := Parse([]byte(jsonScenario), DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, 0.1, sc.G())
	assert.Equal(t, []string{"#####", "#.  #", "#####"}, sc.Field)
	rho, ok := sc.DensityOf('.')
	assert.True(t, ok)
	assert.Equal(t, 1000.0, rho)
	rho, ok = sc.DensityOf(' ')
	assert.True(t, ok)
	assert.Equal(t, 0.01, rho)
	_, ok = sc.DensityOf('x')
	assert.False(t, ok)
}

func TestParseYAML(t *testing.T) {
	sc, err := Parse([]byte(yamlScenario), DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, 0.5, sc.G())
	assert.Equal(t, []byte{' ', '#', '.', 'x'}, sc.Materials())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sc      *Scenario
		lim     Limits
		wantErr error
	}{
		{"ok", New(1, nil, []string{"###", "#.#", "###"}), DefaultLimits(), nil},
		{"no gravity", &Scenario{Field: []string{"#"}}, DefaultLimits(), ErrMissingValue},
		{"no rows", New(1, nil, nil), DefaultLimits(), ErrEmptyField},
		{"empty rows", New(1, nil, []string{"", ""}), DefaultLimits(), ErrEmptyField},
		{"ragged", New(1, nil, []string{"###", "##"}), DefaultLimits(), ErrRaggedField},
		{"too tall", New(1, nil, []string{"#", "#", "#"}), Limits{MaxRows: 2, MaxCols: 10}, ErrFieldTooBig},
		{"too wide", New(1, nil, []string{"####"}), Limits{MaxRows: 2, MaxCols: 3}, ErrFieldTooBig},
		{"unbounded", New(1, nil, []string{"####"}), Limits{}, nil},
		{"long key", New(1, map[string]float64{"ab": 1}, []string{"#"}), DefaultLimits(), ErrDensityKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sc.Validate(tt.lim)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonScenario), 0644))

	sc, err := Load(path, DefaultLimits())
	require.NoError(t, err)
	assert.Len(t, sc.Field, 3)

	_, err = Load(filepath.Join(dir, "missing.json"), DefaultLimits())
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"g": 1, "field": ["##", "#"]}`), 0644))
	_, err = Load(bad, DefaultLimits())
	assert.ErrorIs(t, err, ErrRaggedField)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse([]byte("g: [1, 2"), DefaultLimits())
	assert.Error(t, err)
}
