package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineTaperShape(t *testing.T) {
	taper := NewCosineTaper(100, 0.22)
	coeffs := taper.GetCoefficients()
	require.Len(t, coeffs, 100)

	assert.InDelta(t, 0.0, coeffs[0], 1e-12)
	assert.InDelta(t, 0.0, coeffs[99], 1e-12)
	assert.InDelta(t, 1.0, coeffs[50], 1e-12)

	// ramps end at full amplitude
	assert.InDelta(t, 1.0, coeffs[10], 1e-12)

	for i := range coeffs {
		assert.GreaterOrEqual(t, coeffs[i], 0.0)
		assert.LessOrEqual(t, coeffs[i], 1.0)
		assert.InDelta(t, coeffs[i], coeffs[99-i], 1e-9, "taper should be symmetric at %d", i)
	}
}

func TestCosineTaperApply(t *testing.T) {
	taper := NewCosineTaper(10, 0.4)

	signal := make([]float64, 10)
	for i := range signal {
		signal[i] = 2.0
	}

	windowed := taper.Apply(signal)
	require.NotNil(t, windowed)
	coeffs := taper.GetCoefficients()
	for i := range windowed {
		assert.InDelta(t, 2.0*coeffs[i], windowed[i], 1e-12)
	}

	// in-place agrees with the copying variant
	require.NoError(t, taper.ApplyInPlace(signal))
	for i := range signal {
		assert.InDelta(t, windowed[i], signal[i], 1e-12)
	}
}

func TestCosineTaperSizeMismatch(t *testing.T) {
	taper := NewCosineTaper(10, 0.2)

	assert.Nil(t, taper.Apply(make([]float64, 5)))
	assert.Error(t, taper.ApplyInPlace(make([]float64, 5)))
}

func TestCosineTaperAccessors(t *testing.T) {
	taper := NewCosineTaper(64, 0.22)
	assert.Equal(t, 64, taper.GetSize())
	assert.Equal(t, 0.22, taper.GetFraction())
	assert.Equal(t, "cosine_taper", taper.GetType())
}
