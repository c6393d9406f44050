package slowness

import (
	"fmt"
	"math"
)

// Grid defines a 2D grid of trial slowness vectors in s/km
type Grid struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
	Step float64 `json:"step" yaml:"step"`
}

// SymmetricGrid builds a grid spanning [-limit, limit] on both axes
func SymmetricGrid(limit, step float64) Grid {
	return Grid{MinX: -limit, MaxX: limit, MinY: -limit, MaxY: limit, Step: step}
}

// Validate checks the grid parameters before any window is processed
func (g Grid) Validate() error {
	if g.Step <= 0 {
		return fmt.Errorf("slowness step must be positive, got %g", g.Step)
	}
	if g.MaxX < g.MinX || g.MaxY < g.MinY {
		return fmt.Errorf("slowness grid bounds are inverted: x [%g, %g], y [%g, %g]",
			g.MinX, g.MaxX, g.MinY, g.MaxY)
	}
	return nil
}

// numPoints maps an axis extent to a grid point count. The step/10 guard
// keeps counts stable when the extent is an exact multiple of the step.
func numPoints(min, max, step float64) int {
	n := int(math.Ceil((max - min + step/10) / step))
	if n < 1 {
		n = 1
	}
	return n
}

// NumX returns the grid point count along the x axis, always >= 1
func (g Grid) NumX() int {
	return numPoints(g.MinX, g.MaxX, g.Step)
}

// NumY returns the grid point count along the y axis, always >= 1
func (g Grid) NumY() int {
	return numPoints(g.MinY, g.MaxY, g.Step)
}

// ValueX returns the trial slowness x component at grid index ix
func (g Grid) ValueX(ix int) float64 {
	return g.MinX + float64(ix)*g.Step
}

// ValueY returns the trial slowness y component at grid index iy
func (g Grid) ValueY(iy int) float64 {
	return g.MinY + float64(iy)*g.Step
}

// XAxis returns the trial slowness values along x
func (g Grid) XAxis() []float64 {
	axis := make([]float64, g.NumX())
	for i := range axis {
		axis[i] = g.ValueX(i)
	}
	return axis
}

// YAxis returns the trial slowness values along y
func (g Grid) YAxis() []float64 {
	axis := make([]float64, g.NumY())
	for i := range axis {
		axis[i] = g.ValueY(i)
	}
	return axis
}

// Scaled returns the grid with all bounds multiplied by ratio, keeping the
// step. Used for the enlarged array-response grids.
func (g Grid) Scaled(ratio float64) Grid {
	return Grid{
		MinX: g.MinX * ratio,
		MaxX: g.MaxX * ratio,
		MinY: g.MinY * ratio,
		MaxY: g.MaxY * ratio,
		Step: g.Step,
	}
}
