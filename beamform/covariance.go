package beamform

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// caponRcond is the relative eigenvalue floor of the Capon pseudo-inverse
const caponRcond = 1e-6

// covariance holds one cross-spectral covariance matrix per retained
// frequency bin, channels x channels, Hermitian, in a flat buffer.
// Rejected channels enter as zero spectra and therefore contribute zero
// rows and columns.
type covariance struct {
	nf    int
	nstat int
	data  []complex128
}

func (c *covariance) at(n, i, j int) complex128 {
	return c.data[(n*c.nstat+i)*c.nstat+j]
}

func (c *covariance) set(n, i, j int, v complex128) {
	c.data[(n*c.nstat+i)*c.nstat+j] = v
}

// newCovariance builds R[f] = ft[f] ft[f]^H across channels from the
// band-limited spectra (nstat rows of nf bins each) and returns the total
// channel power dpow used to normalize the relative power map. For the
// Capon method each (i, j) entry is normalized across frequency by the
// magnitude of its frequency sum.
func newCovariance(ft [][]complex128, nf int, capon bool) (*covariance, float64) {
	nstat := len(ft)
	c := &covariance{
		nf:    nf,
		nstat: nstat,
		data:  make([]complex128, nf*nstat*nstat),
	}

	dpow := 0.0
	for i := 0; i < nstat; i++ {
		for j := i; j < nstat; j++ {
			var sum complex128
			for n := 0; n < nf; n++ {
				v := ft[i][n] * cmplx.Conj(ft[j][n])
				c.set(n, i, j, v)
				sum += v
			}
			if capon {
				norm := cmplx.Abs(sum)
				if norm > 0 {
					sum = 0
					for n := 0; n < nf; n++ {
						v := c.at(n, i, j) / complex(norm, 0)
						c.set(n, i, j, v)
						sum += v
					}
				}
			}
			if i != j {
				for n := 0; n < nf; n++ {
					c.set(n, j, i, cmplx.Conj(c.at(n, i, j)))
				}
			} else {
				dpow += cmplx.Abs(sum)
			}
		}
	}
	dpow *= float64(nstat)

	return c, dpow
}

// invertCapon replaces every per-bin matrix with its pseudo-inverse,
// flooring eigenvalues at caponRcond times the largest one. The complex
// Hermitian problem is solved through its real symmetric embedding
// [[A, -B], [B, A]] so the factorization can run on gonum's EigenSym.
// Returns ErrSingularCovariance when a bin cannot be factorized.
func (c *covariance) invertCapon() error {
	n := c.nstat
	m := mat.NewSymDense(2*n, nil)

	for bin := 0; bin < c.nf; bin++ {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := c.at(bin, i, j)
				a, b := real(v), imag(v)
				m.SetSym(i, j, a)
				m.SetSym(n+i, n+j, a)
				// B is skew-symmetric, so only the lower-left block
				// carries +imag
				m.SetSym(i, n+j, -b)
				if i != j {
					m.SetSym(j, n+i, b)
				}
			}
		}

		var es mat.EigenSym
		if ok := es.Factorize(m, true); !ok {
			return ErrSingularCovariance
		}

		vals := es.Values(nil)
		var vecs mat.Dense
		es.VectorsTo(&vecs)

		largest := 0.0
		for _, v := range vals {
			if a := math.Abs(v); a > largest {
				largest = a
			}
		}
		cutoff := caponRcond * largest

		// Minv = V diag(1/lambda) V^T with floored eigenvalues
		inv := make([]float64, 2*n*2*n)
		for k, lambda := range vals {
			if math.Abs(lambda) <= cutoff || lambda == 0 {
				continue
			}
			w := 1 / lambda
			for i := 0; i < 2*n; i++ {
				vi := vecs.At(i, k)
				if vi == 0 {
					continue
				}
				for j := 0; j < 2*n; j++ {
					inv[i*2*n+j] += w * vi * vecs.At(j, k)
				}
			}
		}

		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				c.set(bin, i, j, complex(inv[i*2*n+j], inv[(n+i)*2*n+j]))
			}
		}
	}

	return nil
}
