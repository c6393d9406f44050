package slowness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridPointCount(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
		numX int
	}{
		{
			name: "symmetric exact multiple",
			grid: SymmetricGrid(0.5, 0.05),
			numX: 21,
		},
		{
			name: "unit range tenth step",
			grid: Grid{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1, Step: 0.1},
			numX: 11,
		},
		{
			name: "step not dividing range",
			grid: Grid{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1, Step: 0.3},
			numX: 4,
		},
		{
			name: "degenerate single point",
			grid: Grid{MinX: 0.2, MaxX: 0.2, MinY: 0, MaxY: 0, Step: 0.1},
			numX: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.grid.Validate())
			assert.Equal(t, tt.numX, tt.grid.NumX())

			// count formula holds on both axes
			expected := int(math.Ceil((tt.grid.MaxY - tt.grid.MinY + tt.grid.Step/10) / tt.grid.Step))
			if expected < 1 {
				expected = 1
			}
			assert.Equal(t, expected, tt.grid.NumY())
		})
	}
}

func TestGridAxes(t *testing.T) {
	g := SymmetricGrid(0.5, 0.05)

	xaxis := g.XAxis()
	require.Len(t, xaxis, g.NumX())
	assert.InDelta(t, -0.5, xaxis[0], 1e-12)
	assert.InDelta(t, 0.5, xaxis[len(xaxis)-1], 1e-9)

	for i := 1; i < len(xaxis); i++ {
		assert.InDelta(t, 0.05, xaxis[i]-xaxis[i-1], 1e-9)
	}
}

func TestGridValidate(t *testing.T) {
	assert.Error(t, Grid{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1, Step: 0}.Validate())
	assert.Error(t, Grid{MinX: 1, MaxX: 0, MinY: 0, MaxY: 1, Step: 0.1}.Validate())
	assert.NoError(t, SymmetricGrid(1, 0.1).Validate())
}

func TestGridScaled(t *testing.T) {
	g := SymmetricGrid(0.4, 0.02)
	s := g.Scaled(1.5)

	assert.InDelta(t, -0.6, s.MinX, 1e-12)
	assert.InDelta(t, 0.6, s.MaxX, 1e-12)
	assert.Equal(t, g.Step, s.Step)
}
