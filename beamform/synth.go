package beamform

import (
	"math"
	"math/rand"
	"time"

	"github.com/seisarray/fkbeam/algorithms/geometry"
	"github.com/seisarray/fkbeam/algorithms/spectral"
)

// PlaneWaveParams describes a synthetic plane wave crossing the array
type PlaneWaveParams struct {
	// SlownessX/SlownessY in s/km set direction and speed
	SlownessX float64 `json:"slowness_x" yaml:"slowness_x"`
	SlownessY float64 `json:"slowness_y" yaml:"slowness_y"`

	// Frequency in Hz of the carrier
	Frequency float64 `json:"frequency" yaml:"frequency"`

	// SampleRate in Hz and Duration in seconds of the generated buffers
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
	Duration   float64 `json:"duration" yaml:"duration"`

	// NoiseAmplitude adds white noise on top of the unit-amplitude
	// carrier; Seed makes it reproducible
	NoiseAmplitude float64 `json:"noise_amplitude" yaml:"noise_amplitude"`
	Seed           int64   `json:"seed" yaml:"seed"`
}

// SynthesizePlaneWave generates one channel per station: a sinusoid
// delayed by the plane-wave travel time sx*x + sy*y across the reduced
// geometry, with optional white noise. All channels share the start time.
func SynthesizePlaneWave(stations []geometry.Station, coordSys geometry.CoordinateSystem, start time.Time, p PlaneWaveParams) ([]Channel, error) {
	geom, err := geometry.Reduce(stations, coordSys)
	if err != nil {
		return nil, err
	}

	n := int(p.Duration * p.SampleRate)
	rng := rand.New(rand.NewSource(p.Seed))

	channels := make([]Channel, len(stations))
	for i, st := range stations {
		delay := p.SlownessX*geom.Positions[i].X + p.SlownessY*geom.Positions[i].Y

		samples := make([]float64, n)
		for k := range samples {
			t := float64(k)/p.SampleRate - delay
			samples[k] = math.Sin(2 * math.Pi * p.Frequency * t)
			if p.NoiseAmplitude > 0 {
				samples[k] += p.NoiseAmplitude * rng.NormFloat64()
			}
		}

		channels[i] = Channel{
			Station: st,
			Waveform: spectral.ChannelBuffer{
				Samples:    samples,
				SampleRate: p.SampleRate,
				StartTime:  start,
			},
		}
	}

	return channels, nil
}
