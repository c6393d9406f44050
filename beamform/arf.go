package beamform

import (
	"fmt"
	"math"

	"github.com/seisarray/fkbeam/algorithms/geometry"
	"github.com/seisarray/fkbeam/algorithms/slowness"
)

// ArrayResponse evaluates the theoretical array transfer function over a
// slowness grid for the given geometry and frequency range. It depends
// only on the geometry, so it is useful to check a slowness grid for
// spatial aliasing before committing to a job. The per-frequency beam
// pattern |sum_i exp(j*2*pi*f*(x_i*sx + y_i*sy))|^2 is integrated over the
// frequency range with the trapezoid rule and the result is normalized to
// a maximum of 1.
func ArrayResponse(geom *geometry.ArrayGeometry, grid slowness.Grid, fmin, fmax, fstep float64) (*PowerMap, error) {
	if grid.MaxX <= grid.MinX || grid.MaxY <= grid.MinY {
		return nil, fmt.Errorf("%w: slowness grid x [%g, %g], y [%g, %g]",
			ErrInvalidRange, grid.MinX, grid.MaxX, grid.MinY, grid.MaxY)
	}
	if fmax <= fmin {
		return nil, fmt.Errorf("%w: frequency range [%g, %g]", ErrInvalidRange, fmin, fmax)
	}
	if fstep <= 0 {
		return nil, fmt.Errorf("%w: frequency step %g", ErrInvalidRange, fstep)
	}

	nx := grid.NumX()
	ny := grid.NumY()
	nf := int(math.Ceil((fmax + fstep/10 - fmin) / fstep))
	if nf < 1 {
		nf = 1
	}

	transff := NewPowerMap(nx, ny)
	buff := make([]float64, nf)

	for ix := 0; ix < nx; ix++ {
		sx := grid.ValueX(ix)
		for iy := 0; iy < ny; iy++ {
			sy := grid.ValueY(iy)
			for k := 0; k < nf; k++ {
				f := fmin + float64(k)*fstep
				var re, im float64
				for _, pos := range geom.Positions {
					phase := 2 * math.Pi * f * (pos.X*sx + pos.Y*sy)
					re += math.Cos(phase)
					im += math.Sin(phase)
				}
				buff[k] = re*re + im*im
			}
			transff.Set(ix, iy, trapezoid(buff, fstep))
		}
	}

	max := transff.Max()
	if max > 0 {
		transff.scale(1 / max)
	}

	return transff, nil
}

// trapezoid integrates uniformly spaced samples with spacing dx. A single
// sample degenerates to value*dx.
func trapezoid(values []float64, dx float64) float64 {
	if len(values) == 1 {
		return values[0] * dx
	}
	sum := 0.0
	for k := 0; k+1 < len(values); k++ {
		sum += (values[k] + values[k+1]) / 2 * dx
	}
	return sum
}
