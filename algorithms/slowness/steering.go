package slowness

import (
	"math"
	"math/cmplx"

	"github.com/seisarray/fkbeam/algorithms/geometry"
)

// SteeringTable holds the precomputed steering vectors for one beamforming
// job: one unit-magnitude complex phase per (frequency bin, grid x, grid y,
// channel). The table depends only on geometry, grid and frequency band,
// so it is computed once per job and shared read-only across windows. The
// backing buffer is flat and row-major with precomputed strides.
type SteeringTable struct {
	NumFreqs    int
	NumX        int
	NumY        int
	NumChannels int

	data    []complex128
	strideF int
	strideX int
	strideY int
}

// NewSteeringTable precomputes the steering vectors. The phase for channel
// i at trial slowness (sx, sy) and frequency f = (nlow+n)*deltaf is
// exp(-j*2*pi*f*(sx*x_i + sy*y_i)).
func NewSteeringTable(geom *geometry.ArrayGeometry, grid Grid, nlow, nf int, deltaf float64) *SteeringTable {
	nstat := geom.NumStations()
	nx := grid.NumX()
	ny := grid.NumY()

	t := &SteeringTable{
		NumFreqs:    nf,
		NumX:        nx,
		NumY:        ny,
		NumChannels: nstat,
		data:        make([]complex128, nf*nx*ny*nstat),
		strideF:     nx * ny * nstat,
		strideX:     ny * nstat,
		strideY:     nstat,
	}

	// plane-wave time shift per channel and grid point, in seconds
	shift := make([]float64, nstat*nx*ny)
	for i, pos := range geom.Positions {
		for ix := 0; ix < nx; ix++ {
			sx := grid.ValueX(ix)
			for iy := 0; iy < ny; iy++ {
				sy := grid.ValueY(iy)
				shift[(i*nx+ix)*ny+iy] = sx*pos.X + sy*pos.Y
			}
		}
	}

	for n := 0; n < nf; n++ {
		omega := 2 * math.Pi * float64(nlow+n) * deltaf
		base := n * t.strideF
		for ix := 0; ix < nx; ix++ {
			for iy := 0; iy < ny; iy++ {
				idx := base + ix*t.strideX + iy*t.strideY
				for i := 0; i < nstat; i++ {
					wtau := omega * shift[(i*nx+ix)*ny+iy]
					t.data[idx+i] = cmplx.Exp(complex(0, -wtau))
				}
			}
		}
	}

	return t
}

// At returns the steering vector entry for frequency bin n, grid point
// (ix, iy) and channel i
func (t *SteeringTable) At(n, ix, iy, i int) complex128 {
	return t.data[n*t.strideF+ix*t.strideX+iy*t.strideY+i]
}

// Vector returns the steering vector slice across channels for frequency
// bin n and grid point (ix, iy). The slice aliases the table buffer and
// must not be modified.
func (t *SteeringTable) Vector(n, ix, iy int) []complex128 {
	start := n*t.strideF + ix*t.strideX + iy*t.strideY
	return t.data[start : start+t.NumChannels]
}
