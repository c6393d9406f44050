package spectral

import "fmt"

// Band is a frequency band of interest in Hz
type Band struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Validate checks the band before any window is processed
func (b Band) Validate() error {
	if b.Low < 0 || b.High <= b.Low {
		return fmt.Errorf("frequency band must satisfy 0 <= low < high, got [%g, %g]", b.Low, b.High)
	}
	return nil
}

// BinRange maps the band onto discrete FFT bin indices for the given bin
// spacing and FFT length. Bin 0 (DC) and the Nyquist bin are always
// excluded. Returns the lowest retained bin and the retained bin count.
func (b Band) BinRange(deltaf float64, nfft int) (nlow, nf int) {
	nlow = int(b.Low/deltaf + 0.5)
	nhigh := int(b.High/deltaf + 0.5)

	if nlow < 1 {
		nlow = 1 // avoid the DC offset
	}
	if nhigh > nfft/2-1 {
		nhigh = nfft/2 - 1 // avoid the Nyquist bin
	}
	return nlow, nhigh - nlow + 1
}

// NextPow2 returns the smallest power of two >= n
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
