package beamform

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisarray/fkbeam/algorithms/geometry"
	"github.com/seisarray/fkbeam/algorithms/spectral"
)

func squareStations() []geometry.Station {
	return []geometry.Station{
		{Code: "ST0", X: 0, Y: 0},
		{Code: "ST1", X: 0, Y: 1},
		{Code: "ST2", X: 1, Y: 0},
		{Code: "ST3", X: 1, Y: 1},
	}
}

func testJobParams() Params {
	params := DefaultParams()
	params.CoordinateSystem = geometry.CoordXY
	params.MinFreq = 0.1
	params.MaxFreq = 1.0
	params.WindowLength = 60
	params.WindowStepFraction = 0.5
	params.SlownessLimit = 0.5
	params.SlownessStep = 0.02
	return params
}

func planeWaveChannels(t *testing.T, start time.Time, sx, sy float64) []Channel {
	t.Helper()
	channels, err := SynthesizePlaneWave(squareStations(), geometry.CoordXY, start, PlaneWaveParams{
		SlownessX:  sx,
		SlownessY:  sy,
		Frequency:  0.5,
		SampleRate: 10,
		Duration:   300,
		Seed:       1,
	})
	require.NoError(t, err)
	return channels
}

func TestRunRecoversPlaneWave(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0.2, 0)

	out, err := Run(channels, start, start.Add(280*time.Second), testJobParams())
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Greater(t, out.Summary.WindowsProcessed, 0)
	assert.Equal(t, 0, out.Summary.WindowsSkipped)
	require.NotEmpty(t, out.Results)

	for _, r := range out.Results {
		assert.InDelta(t, 0.2, r.SlownessX, 0.021)
		assert.InDelta(t, 0.0, r.SlownessY, 0.021)
		assert.InDelta(t, 0.2, r.Slowness, 0.03)
		assert.InDelta(t, 90, r.Azimuth, 6)
		assert.InDelta(t, 270, r.Backazimuth, 6)
		assert.Greater(t, r.RelPower, 0.9)
		assert.Greater(t, r.AbsPower, 0.0)
		assert.Equal(t, 4, r.ChannelsUsed)
	}

	// averaged-map peaks agree with the per-window winners; the averaged
	// conventional map is smooth, so the local max-min contrast around
	// its maximum is on the order of 1e-3 and the threshold must sit
	// below that
	peaks, err := out.Keeper.AverageRelpowerPeaks(MaximaParams{
		NeighborhoodSize:     3,
		MaximaThreshold:      1e-4,
		BestPointCount:       5,
		BeamPortionThreshold: 0.1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, peaks)
	assert.InDelta(t, 0.2, peaks[0].SlownessX, 0.05)
	assert.InDelta(t, 0.0, peaks[0].SlownessY, 0.05)
	assert.InDelta(t, 90, peaks[0].Azimuth, 15)
}

func TestRunInsufficientChannels(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0.2, 0)[:3]

	out, err := Run(channels, start, start.Add(280*time.Second), testJobParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientChannels))
	assert.Nil(t, out)
}

func TestRunAllZeroInputSucceedsEmpty(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	channels := make([]Channel, 4)
	for i, st := range squareStations() {
		channels[i] = Channel{
			Station: st,
			Waveform: spectral.ChannelBuffer{
				Samples:    make([]float64, 3000),
				SampleRate: 10,
				StartTime:  start,
			},
		}
	}

	out, err := Run(channels, start, start.Add(280*time.Second), testJobParams())
	require.NoError(t, err)

	// dead channels are not rejected, but nothing clears the thresholds
	assert.Greater(t, out.Summary.WindowsProcessed, 0)
	assert.Equal(t, 0, out.Summary.SkippedInsufficientChannels)
	assert.Empty(t, out.Results)
}

func TestRunCaponWithDuplicatedChannel(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0.2, 0)

	// a duplicated waveform makes the covariance rank deficient; the
	// pseudo-inverse must carry the window anyway
	channels[1].Waveform = channels[0].Waveform

	params := testJobParams()
	params.Method = MethodCapon
	params.CaponFallback = false

	out, err := Run(channels, start, start.Add(280*time.Second), params)
	require.NoError(t, err)
	assert.Greater(t, out.Summary.WindowsProcessed, 0)
	assert.Equal(t, 0, out.Summary.SkippedSingularCovariance)
}

func TestRunCaponCompletes(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0, -0.2)

	params := testJobParams()
	params.Method = MethodCapon

	out, err := Run(channels, start, start.Add(280*time.Second), params)
	require.NoError(t, err)
	assert.Greater(t, out.Summary.WindowsProcessed, 0)
	assert.Equal(t, out.Summary.WindowsProcessed, out.Keeper.Count())
}

func TestRunSemblanceGate(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0.2, 0)

	params := testJobParams()
	params.SemblanceThreshold = 2.0

	out, err := Run(channels, start, start.Add(280*time.Second), params)
	require.NoError(t, err)
	assert.Greater(t, out.Summary.WindowsProcessed, 0)
	assert.Empty(t, out.Results)
	assert.Equal(t, 0, out.Summary.WindowsEmitted)
}

func TestRunVelocityGate(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0.2, 0)

	// the wave travels at 5 km/s; demanding 100 km/s suppresses it
	params := testJobParams()
	params.VelocityThreshold = 100

	out, err := Run(channels, start, start.Add(280*time.Second), params)
	require.NoError(t, err)
	assert.Empty(t, out.Results)
}

func TestRunPrewhitenedRelpowerBounded(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0.2, 0)

	params := testJobParams()
	params.Prewhiten = true

	out, err := Run(channels, start, start.Add(280*time.Second), params)
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)

	// prewhitening normalizes every bin by its own grid maximum, so all
	// bins carry equal weight regardless of where the signal energy sits;
	// the winning slowness may drift off the carrier and only the
	// normalization bounds are stable
	for _, r := range out.Results {
		assert.False(t, math.IsNaN(r.RelPower))
		assert.Greater(t, r.RelPower, 0.0)
		assert.LessOrEqual(t, r.RelPower, 1.0+1e-9)
	}
}

func TestRunSavesARF(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0.2, 0)

	params := testJobParams()
	params.SaveARF = true

	out, err := Run(channels, start, start.Add(280*time.Second), params)
	require.NoError(t, err)

	arf, err := out.Keeper.AverageARF()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, arf.Max(), 1e-9)
}

func TestRunValidatesParams(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := planeWaveChannels(t, start, 0.2, 0)
	etime := start.Add(280 * time.Second)

	params := testJobParams()
	params.Method = Method("music")
	_, err := Run(channels, start, etime, params)
	require.Error(t, err)

	params = testJobParams()
	params.MaxFreq = 0.05
	_, err = Run(channels, start, etime, params)
	require.Error(t, err)

	params = testJobParams()
	params.WindowLength = -1
	_, err = Run(channels, start, etime, params)
	require.Error(t, err)

	params = testJobParams()
	params.SlownessStep = 0
	_, err = Run(channels, start, etime, params)
	require.Error(t, err)
}
