package beamform

import (
	"math"

	"github.com/seisarray/fkbeam/algorithms/slowness"
)

// computeBeamMaps combines the per-bin covariance matrices with the
// steering table and accumulates the relative and absolute power maps
// over the slowness grid. Per grid point and frequency bin the beam power
// is |e^H R e| (Capon: its reciprocal, R already inverted). Without
// prewhitening the relative map is the power sum normalized by the total
// channel power dpow; with prewhitening each bin is normalized by its
// maximum power over the whole grid. Runs on flat row-major buffers with
// precomputed strides.
func computeBeamMaps(steer *slowness.SteeringTable, r *covariance, dpow float64, capon, prewhiten bool) (relpowMap, abspowMap *PowerMap) {
	nx := steer.NumX
	ny := steer.NumY
	nf := steer.NumFreqs
	nstat := steer.NumChannels

	relpowMap = NewPowerMap(nx, ny)
	abspowMap = NewPowerMap(nx, ny)

	if capon {
		// the Capon estimate carries its own normalization
		dpow = 1.0
	}

	var white []float64
	var binPower []float64
	if prewhiten {
		white = make([]float64, nf)
		binPower = make([]float64, nx*ny*nf)
	}

	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			relpow := 0.0
			abspow := 0.0
			for n := 0; n < nf; n++ {
				e := steer.Vector(n, ix, iy)

				// eHR_ne = e^H R e
				var reSum, imSum float64
				for i := 0; i < nstat; i++ {
					var reRow, imRow float64
					base := (n*nstat + i) * nstat
					for j := 0; j < nstat; j++ {
						rv := r.data[base+j]
						sr, si := real(e[j]), imag(e[j])
						reRow += real(rv)*sr - imag(rv)*si
						imRow += real(rv)*si + imag(rv)*sr
					}
					sr, si := real(e[i]), imag(e[i])
					reSum += sr*reRow + si*imRow
					imSum += sr*imRow - si*reRow
				}

				power := math.Sqrt(reSum*reSum + imSum*imSum)
				if capon {
					power = 1 / power
				}
				if prewhiten {
					binPower[(ix*ny+iy)*nf+n] = power
					if power > white[n] {
						white[n] = power
					}
				} else {
					relpow += power
				}
				abspow += power
			}
			if !prewhiten {
				relpow /= dpow
			}
			relpowMap.Set(ix, iy, relpow)
			abspowMap.Set(ix, iy, abspow)
		}
	}

	if prewhiten {
		norm := float64(nf) * float64(nstat)
		for ix := 0; ix < nx; ix++ {
			for iy := 0; iy < ny; iy++ {
				relpow := 0.0
				for n := 0; n < nf; n++ {
					if white[n] > 0 {
						relpow += binPower[(ix*ny+iy)*nf+n] / (white[n] * norm)
					}
				}
				relpowMap.Set(ix, iy, relpow)
			}
		}
	}

	return relpowMap, abspowMap
}
