package scenario

import (
	"errors"
	"strings"
)

// Material tags used by generated scenarios.
const (
	TagWall   = '#'
	TagAir    = ' '
	TagLiquid = '.'
)

// GenerateOptions controls procedural scenario generation.
type GenerateOptions struct {
	Rows, Cols int
	Seed       int64

	Gravity       float64
	AirDensity    float64
	LiquidDensity float64

	Scale     float64 // Noise cells per grid cell
	Octaves   int
	WallLevel float64 // Noise above this becomes wall, in [-1, 1]
	FillRatio float64 // Share of open cells, from the top, filled with liquid
}

// DefaultGenerateOptions returns a 36x84 cave half full of water.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Rows:          DefaultMaxRows,
		Cols:          DefaultMaxCols,
		Seed:          1,
		Gravity:       0.1,
		AirDensity:    0.01,
		LiquidDensity: 1000,
		Scale:         0.12,
		Octaves:       3,
		WallLevel:     0.25,
		FillRatio:     0.4,
	}
}

var ErrGenerateSize = errors.New("scenario: generated field needs at least 3 rows and 3 columns")

// Generate builds a walled cave from fractal noise and pours liquid into the
// open cells of the upper rows. The same options always give the same field.
func Generate(opts GenerateOptions) (*Scenario, error) {
	if opts.Rows < 3 || opts.Cols < 3 {
		return nil, ErrGenerateSize
	}
	if opts.Octaves < 1 {
		opts.Octaves = 1
	}

	noise := newNoise2D(opts.Seed)
	cells := make([][]byte, opts.Rows)
	open := 0
	for r := range cells {
		cells[r] = make([]byte, opts.Cols)
		for c := range cells[r] {
			border := r == 0 || c == 0 || r == opts.Rows-1 || c == opts.Cols-1
			if border || noise.fractal(float64(c)*opts.Scale, float64(r)*opts.Scale, opts.Octaves) > opts.WallLevel {
				cells[r][c] = TagWall
				continue
			}
			cells[r][c] = TagAir
			open++
		}
	}

	pour := int(float64(open) * opts.FillRatio)
	for r := 1; r < opts.Rows-1 && pour > 0; r++ {
		for c := 1; c < opts.Cols-1 && pour > 0; c++ {
			if cells[r][c] == TagAir {
				cells[r][c] = TagLiquid
				pour--
			}
		}
	}

	field := make([]string, opts.Rows)
	for r, row := range cells {
		field[r] = string(row)
	}
	return New(opts.Gravity, map[string]float64{
		string(TagAir):    opts.AirDensity,
		string(TagLiquid): opts.LiquidDensity,
	}, field), nil
}

// String renders the field one row per line.
func (s *Scenario) String() string {
	return strings.Join(s.Field, "\n")
}
