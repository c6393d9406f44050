package spectral

import (
	"fmt"
	"math/cmplx"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/seisarray/fkbeam/algorithms/windowing"
	"github.com/seisarray/fkbeam/logging"
)

// ChannelBuffer is one channel's waveform as handed over by the data
// ingestion layer: contiguous samples at a fixed rate starting at an
// absolute time.
type ChannelBuffer struct {
	Samples    []float64
	SampleRate float64
	StartTime  time.Time
}

// EndTime returns the time of the last sample
func (c ChannelBuffer) EndTime() time.Time {
	if len(c.Samples) == 0 {
		return c.StartTime
	}
	return c.StartTime.Add(time.Duration(float64(len(c.Samples)-1) / c.SampleRate * float64(time.Second)))
}

// Window is the spectral estimate of one sliding window: per-channel
// complex spectra restricted to the frequency band, plus the full
// positive-frequency magnitude spectra the channel validator works on.
type Window struct {
	Index     int
	Offset    int       // sample offset of the window start, from the job start time
	MidSample int       // sample index of the window midpoint
	Start     time.Time // absolute window start
	Mid       time.Time // absolute window midpoint

	// Spectra holds the band-limited complex spectrum per channel,
	// nf bins each
	Spectra [][]complex128

	// FullMagnitude holds |rfft| over all positive-frequency bins per
	// channel, for statistical channel validation
	FullMagnitude [][]float64
}

// SlidingEstimator walks a set of equal-rate channel buffers in
// overlapping fixed-length windows and produces one Window per slide:
// demean, cosine taper, zero-pad to the next power of two, real FFT,
// retain the band of interest. The sequence is finite, strictly advancing
// in time and not restartable.
type SlidingEstimator struct {
	channels []ChannelBuffer

	fs     float64
	nsamp  int
	nstep  int
	nfft   int
	nlow   int
	nf     int
	deltaf float64

	taper  *windowing.CosineTaper
	spoint []int

	stime time.Time
	etime time.Time

	offset   int
	newstart time.Time
	index    int
	done     bool

	logger logging.Logger
}

// taperFraction is the tapered share of each analysis window
const taperFraction = 0.22

// NewSlidingEstimator validates the channel set and prepares the window
// iteration. stime and etime bound the requested analysis range; every
// channel must cover it.
func NewSlidingEstimator(channels []ChannelBuffer, windowLength, stepFraction float64, band Band, stime, etime time.Time) (*SlidingEstimator, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channel buffers supplied")
	}
	if windowLength <= 0 {
		return nil, fmt.Errorf("window length must be positive, got %g", windowLength)
	}
	if stepFraction <= 0 || stepFraction > 1 {
		return nil, fmt.Errorf("window step fraction must be in (0, 1], got %g", stepFraction)
	}
	if err := band.Validate(); err != nil {
		return nil, err
	}

	fs := channels[0].SampleRate
	for i, ch := range channels {
		if ch.SampleRate != fs {
			return nil, fmt.Errorf("sampling rates of channels are not equal: channel %d has %g, expected %g",
				i, ch.SampleRate, fs)
		}
	}

	// per-channel start offsets relative to the requested start time
	spoint := make([]int, len(channels))
	for i, ch := range channels {
		if ch.StartTime.After(stime) {
			return nil, fmt.Errorf("requested start %s is before channel %d start %s",
				stime.Format(time.RFC3339Nano), i, ch.StartTime.Format(time.RFC3339Nano))
		}
		if ch.EndTime().Before(etime) {
			return nil, fmt.Errorf("requested end %s is after channel %d end %s",
				etime.Format(time.RFC3339Nano), i, ch.EndTime().Format(time.RFC3339Nano))
		}
		spoint[i] = int(stime.Sub(ch.StartTime).Seconds()*fs + 0.5)
	}

	nsamp := int(windowLength * fs)
	nstep := int(float64(nsamp) * stepFraction)
	nfft := NextPow2(nsamp)
	deltaf := fs / float64(nfft)
	nlow, nf := band.BinRange(deltaf, nfft)
	if nf < 1 {
		return nil, fmt.Errorf("frequency band [%g, %g] leaves no usable FFT bins at deltaf=%g", band.Low, band.High, deltaf)
	}

	return &SlidingEstimator{
		channels: channels,
		fs:       fs,
		nsamp:    nsamp,
		nstep:    nstep,
		nfft:     nfft,
		nlow:     nlow,
		nf:       nf,
		deltaf:   deltaf,
		taper:    windowing.NewCosineTaper(nsamp, taperFraction),
		spoint:   spoint,
		stime:    stime,
		etime:    etime,
		newstart: stime,
		logger: logging.WithFields(logging.Fields{
			"component": "sliding_estimator",
		}),
	}, nil
}

// NumSamples returns the window length in samples
func (s *SlidingEstimator) NumSamples() int { return s.nsamp }

// NumStep returns the slide step in samples
func (s *SlidingEstimator) NumStep() int { return s.nstep }

// NFFT returns the zero-padded FFT length
func (s *SlidingEstimator) NFFT() int { return s.nfft }

// DeltaF returns the FFT bin spacing in Hz
func (s *SlidingEstimator) DeltaF() float64 { return s.deltaf }

// BinLow returns the first retained FFT bin
func (s *SlidingEstimator) BinLow() int { return s.nlow }

// NumBins returns the retained bin count
func (s *SlidingEstimator) NumBins() int { return s.nf }

// FreqAxis returns the positive-frequency axis of the full spectrum
func (s *SlidingEstimator) FreqAxis() []float64 {
	axis := make([]float64, s.nfft/2+1)
	for i := range axis {
		axis[i] = float64(i) * s.deltaf
	}
	return axis
}

// Next computes the next window. It returns false when the requested time
// range is exhausted or a channel runs out of samples.
func (s *SlidingEstimator) Next() (*Window, bool) {
	if s.done {
		return nil, false
	}

	win := &Window{
		Index:         s.index,
		Offset:        s.offset,
		MidSample:     s.offset + s.nsamp/2,
		Start:         s.newstart,
		Mid:           s.newstart.Add(time.Duration(float64(s.nsamp) / 2 / s.fs * float64(time.Second))),
		Spectra:       make([][]complex128, len(s.channels)),
		FullMagnitude: make([][]float64, len(s.channels)),
	}

	buf := make([]float64, s.nfft)
	for i, ch := range s.channels {
		lo := s.spoint[i] + s.offset
		hi := lo + s.nsamp
		if lo < 0 || hi > len(ch.Samples) {
			s.done = true
			return nil, false
		}

		// demean and taper into the zero-padded FFT buffer
		seg := ch.Samples[lo:hi]
		mean := 0.0
		for _, v := range seg {
			mean += v
		}
		mean /= float64(len(seg))
		for k := range buf {
			buf[k] = 0
		}
		copy(buf[:s.nsamp], seg)
		for k := 0; k < s.nsamp; k++ {
			buf[k] -= mean
		}
		if err := s.taper.ApplyInPlace(buf[:s.nsamp]); err != nil {
			s.done = true
			return nil, false
		}

		spectrum := fft.FFTReal(buf)

		win.Spectra[i] = make([]complex128, s.nf)
		copy(win.Spectra[i], spectrum[s.nlow:s.nlow+s.nf])

		win.FullMagnitude[i] = make([]float64, s.nfft/2+1)
		for k := range win.FullMagnitude[i] {
			win.FullMagnitude[i][k] = cmplx.Abs(spectrum[k])
		}
	}

	// stop once the next window would run past the requested end time
	stepDur := time.Duration(float64(s.nsamp+s.nstep) / s.fs * float64(time.Second))
	if s.newstart.Add(stepDur).After(s.etime) {
		s.done = true
	}

	s.offset += s.nstep
	s.newstart = s.newstart.Add(time.Duration(float64(s.nstep) / s.fs * float64(time.Second)))
	s.index++

	return win, true
}
