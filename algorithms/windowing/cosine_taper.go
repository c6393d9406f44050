package windowing

import (
	"fmt"
	"math"
)

// CosineTaper represents a cosine taper window: flat in the middle with
// raised-cosine ramps covering fraction/2 of the samples on each side.
// The 0.22 fraction used by the beamformer matches the taper of the
// historical FK analysis codes.
type CosineTaper struct {
	size         int
	fraction     float64
	coefficients []float64
}

// NewCosineTaper creates a new cosine taper window
func NewCosineTaper(size int, fraction float64) *CosineTaper {
	c := &CosineTaper{
		size:     size,
		fraction: fraction,
	}
	c.generate()
	return c
}

// generate creates the taper coefficients
func (c *CosineTaper) generate() {
	c.coefficients = make([]float64, c.size)

	frac := int(float64(c.size)*c.fraction/2.0 + 0.5)
	idx2 := frac - 1
	idx3 := c.size - frac
	idx4 := c.size - 1

	for i := range c.coefficients {
		switch {
		case i <= idx2 && idx2 > 0:
			c.coefficients[i] = 0.5 * (1.0 - math.Cos(math.Pi*float64(i)/float64(idx2)))
		case i >= idx3 && idx4 > idx3:
			c.coefficients[i] = 0.5 * (1.0 - math.Cos(math.Pi*float64(i-idx4)/float64(idx4-idx3)))
		default:
			c.coefficients[i] = 1.0
		}
	}
}

// Apply applies the window to a signal (creates new array)
func (c *CosineTaper) Apply(signal []float64) []float64 {
	if len(signal) != c.size {
		return nil
	}

	windowed := make([]float64, c.size)
	for i := 0; i < c.size; i++ {
		windowed[i] = signal[i] * c.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (c *CosineTaper) ApplyInPlace(signal []float64) error {
	if len(signal) != c.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), c.size)
	}

	for i := 0; i < c.size; i++ {
		signal[i] *= c.coefficients[i]
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (c *CosineTaper) GetCoefficients() []float64 {
	coeffs := make([]float64, len(c.coefficients))
	copy(coeffs, c.coefficients)
	return coeffs
}

// GetSize returns the window size
func (c *CosineTaper) GetSize() int {
	return c.size
}

// GetType returns the window type
func (c *CosineTaper) GetType() string {
	return "cosine_taper"
}

// GetFraction returns the total tapered fraction of the window
func (c *CosineTaper) GetFraction() float64 {
	return c.fraction
}
