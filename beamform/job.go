package beamform

import (
	"fmt"
	"math"
	"time"

	"github.com/seisarray/fkbeam/algorithms/geometry"
	"github.com/seisarray/fkbeam/algorithms/slowness"
	"github.com/seisarray/fkbeam/algorithms/spectral"
	"github.com/seisarray/fkbeam/algorithms/stats"
	"github.com/seisarray/fkbeam/logging"
)

// Channel pairs a station's metadata with its waveform. The channel order
// of the input slice is the channel order everywhere downstream.
type Channel struct {
	Station  geometry.Station
	Waveform spectral.ChannelBuffer
}

// Result is the best slowness point of one emitted window
type Result struct {
	WindowIndex int       `json:"window_index"`
	MidTime     time.Time `json:"midtime"`

	RelPower float64 `json:"rel_power"`
	AbsPower float64 `json:"abs_power"`

	SlownessX   float64 `json:"slowness_x"`
	SlownessY   float64 `json:"slowness_y"`
	Slowness    float64 `json:"slowness"`
	Azimuth     float64 `json:"azimuth"`
	Backazimuth float64 `json:"backazimuth"`

	ChannelsUsed int `json:"channels_used"`
}

// Summary counts what happened to the windows of a job
type Summary struct {
	WindowsProcessed int `json:"windows_processed"`
	WindowsEmitted   int `json:"windows_emitted"`
	WindowsSkipped   int `json:"windows_skipped"`

	SkippedInsufficientChannels int `json:"skipped_insufficient_channels"`
	SkippedSingularCovariance   int `json:"skipped_singular_covariance"`
}

// Output bundles everything a finished job produced
type Output struct {
	Results  []Result
	Summary  Summary
	Keeper   *Keeper
	Geometry *geometry.ArrayGeometry
}

// Run executes one beamforming job over the channels between stime and
// etime. Configuration problems, bad geometry and undersized arrays fail
// the whole job; per-window problems (too many rejected channels, a
// covariance the Capon inverse cannot handle without fallback) skip the
// window and are counted in the summary. A job whose windows all skip
// still succeeds, with empty results.
func Run(channels []Channel, stime, etime time.Time, params Params) (*Output, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid beamforming params: %w", err)
	}
	if len(channels) < params.MinChannelCount {
		return nil, fmt.Errorf("%w: got %d channels, need at least %d",
			ErrInsufficientChannels, len(channels), params.MinChannelCount)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "beamform_job",
		"channels":  len(channels),
		"method":    string(params.Method),
	})

	stations := make([]geometry.Station, len(channels))
	buffers := make([]spectral.ChannelBuffer, len(channels))
	for i, ch := range channels {
		stations[i] = ch.Station
		buffers[i] = ch.Waveform
	}

	geom, err := geometry.Reduce(stations, params.CoordinateSystem)
	if err != nil {
		return nil, fmt.Errorf("geometry reduction failed: %w", err)
	}

	band := spectral.Band{Low: params.MinFreq, High: params.MaxFreq}
	est, err := spectral.NewSlidingEstimator(buffers, params.WindowLength, params.WindowStepFraction, band, stime, etime)
	if err != nil {
		return nil, fmt.Errorf("window setup failed: %w", err)
	}

	grid := params.SlownessGrid()
	steer := slowness.NewSteeringTable(geom, grid, est.BinLow(), est.NumBins(), est.DeltaF())
	keeper := NewKeeper(grid, params.SaveRelpow, params.SaveAbspow, params.SaveARF)
	freqAxis := est.FreqAxis()
	capon := params.Method == MethodCapon

	logger.Info("starting beamforming job", logging.Fields{
		"grid_x":  grid.NumX(),
		"grid_y":  grid.NumY(),
		"bins":    est.NumBins(),
		"nfft":    est.NFFT(),
		"delta_f": est.DeltaF(),
	})

	out := &Output{Keeper: keeper, Geometry: geom}

	for {
		win, ok := est.Next()
		if !ok {
			break
		}
		out.Summary.WindowsProcessed++

		good, err := stats.RejectChannels(win.FullMagnitude, freqAxis, params.Rejection)
		if err != nil {
			return nil, fmt.Errorf("channel validation failed in window %d: %w", win.Index, err)
		}
		if len(good) < 2 {
			out.Summary.WindowsSkipped++
			out.Summary.SkippedInsufficientChannels++
			logger.Warn("skipping window, not enough valid channels", logging.Fields{
				"window": win.Index,
				"kept":   len(good),
			})
			continue
		}

		// rejected channels contribute zero spectra so the grid and
		// steering table stay fixed across windows
		ft := zeroRejected(win.Spectra, good)

		cov, dpow := newCovariance(ft, est.NumBins(), capon)
		caponWin := capon
		if capon {
			if err := cov.invertCapon(); err != nil {
				if !params.CaponFallback {
					out.Summary.WindowsSkipped++
					out.Summary.SkippedSingularCovariance++
					logger.Warn("skipping window, covariance not invertible", logging.Fields{
						"window": win.Index,
					})
					continue
				}
				logger.Warn("covariance not invertible, falling back to conventional beam", logging.Fields{
					"window": win.Index,
				})
				cov, dpow = newCovariance(ft, est.NumBins(), false)
				caponWin = false
			}
		}

		relMap, absMap := computeBeamMaps(steer, cov, dpow, caponWin, params.Prewhiten)

		var arf *PowerMap
		if params.SaveARF {
			arf, err = windowResponse(geom, good, grid, params)
			if err != nil {
				logger.Warn("per-window array response failed", logging.Fields{
					"window": win.Index,
					"error":  err.Error(),
				})
			}
		}

		if err := keeper.Save(relMap, absMap, win.Mid, arf); err != nil {
			return nil, fmt.Errorf("saving window %d: %w", win.Index, err)
		}

		ix, iy := relMap.ArgMax()
		relpow := relMap.At(ix, iy)
		abspow := absMap.At(ix, iy)
		sx := grid.ValueX(ix)
		sy := grid.ValueY(iy)

		slow := math.Hypot(sx, sy)
		if slow < 1e-8 {
			slow = 1e-8
		}

		if relpow > params.SemblanceThreshold && 1/slow > params.VelocityThreshold {
			out.Results = append(out.Results, Result{
				WindowIndex:  win.Index,
				MidTime:      win.Mid,
				RelPower:     relpow,
				AbsPower:     abspow,
				SlownessX:    sx,
				SlownessY:    sy,
				Slowness:     slow,
				Azimuth:      azimuthDeg(sx, sy),
				Backazimuth:  backazimuthDeg(sx, sy),
				ChannelsUsed: len(good),
			})
			out.Summary.WindowsEmitted++
		}
	}

	logger.Info("beamforming job finished", logging.Fields{
		"processed": out.Summary.WindowsProcessed,
		"emitted":   out.Summary.WindowsEmitted,
		"skipped":   out.Summary.WindowsSkipped,
	})

	return out, nil
}

// zeroRejected copies the spectra, blanking every channel not listed in
// good. The input window stays untouched.
func zeroRejected(spectra [][]complex128, good []int) [][]complex128 {
	keep := make(map[int]bool, len(good))
	for _, i := range good {
		keep[i] = true
	}
	ft := make([][]complex128, len(spectra))
	for i, s := range spectra {
		if keep[i] {
			ft[i] = s
		} else {
			ft[i] = make([]complex128, len(s))
		}
	}
	return ft
}

// windowResponse evaluates the array response of the channels that
// survived rejection, over the analysis grid widened by the enlarge
// ratio.
func windowResponse(geom *geometry.ArrayGeometry, good []int, grid slowness.Grid, params Params) (*PowerMap, error) {
	sub := &geometry.ArrayGeometry{
		Positions: make([]geometry.Position, len(good)),
	}
	for p, i := range good {
		sub.Positions[p] = geom.Positions[i]
	}
	return ArrayResponse(sub, grid.Scaled(params.ARFEnlargeRatio), params.MinFreq, params.MaxFreq, (params.MaxFreq-params.MinFreq)/10)
}
