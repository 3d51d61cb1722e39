package fluid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/cellflow/fixed"
)

func TestDirections(t *testing.T) {
	tests := []struct {
		d        Direction
		dx, dy   int
		opposite Direction
	}{
		{Up, -1, 0, Down},
		{Down, 1, 0, Up},
		{Left, 0, -1, Right},
		{Right, 0, 1, Left},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			dx, dy := tt.d.Delta()
			assert.Equal(t, tt.dx, dx)
			assert.Equal(t, tt.dy, dy)
			assert.Equal(t, tt.opposite, tt.d.Opposite())
			assert.Equal(t, tt.d, DirectionOf(dx, dy))

			x, y := tt.d.Step(5, 7)
			assert.Equal(t, 5+tt.dx, x)
			assert.Equal(t, 7+tt.dy, y)
		})
	}
}

func TestDirectionOfInvalidDeltaPanics(t *testing.T) {
	assert.Panics(t, func() { DirectionOf(1, 1) })
	assert.Panics(t, func() { DirectionOf(0, 0) })
}

func TestField(t *testing.T) {
	f := NewField(2, 3, fixed.Q32_16)
	assert.True(t, f.Get(1, 2, Left).IsZero())
	assert.Equal(t, fixed.Q32_16, f.Get(0, 0, Up).Format())

	f.Set(1, 2, Left, fixed.FromFloat(fixed.Q32_16, 1.5))
	got := f.Add(1, 2, Left, fixed.FromFloat(fixed.Q32_16, 0.25))
	assert.Equal(t, 1.75, got.Float64())
	assert.Equal(t, 1.75, f.Get(1, 2, Left).Float64())
	assert.True(t, f.Get(1, 2, Right).IsZero())

	// Values in other formats are converted on the way in.
	q8 := fixed.MustParseFormat("FIXED(16,8)")
	f.Set(0, 1, Down, fixed.FromFloat(q8, 2.5))
	assert.Equal(t, fixed.Q32_16, f.Get(0, 1, Down).Format())
	assert.Equal(t, 2.5, f.Get(0, 1, Down).Float64())

	v := f.Vector(1, 2)
	assert.Equal(t, 1.75, v[Left].Float64())

	f.Reset()
	assert.True(t, f.Get(1, 2, Left).IsZero())
	assert.True(t, f.Get(0, 1, Down).IsZero())
}
