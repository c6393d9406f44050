package beamform

import (
	"fmt"

	"github.com/seisarray/fkbeam/algorithms/geometry"
	"github.com/seisarray/fkbeam/algorithms/slowness"
	"github.com/seisarray/fkbeam/algorithms/spectral"
	"github.com/seisarray/fkbeam/algorithms/stats"
)

// Method selects the beam power estimator
type Method string

const (
	// MethodConventional is the Bartlett (delay-and-sum) estimate
	MethodConventional Method = "conventional"
	// MethodCapon is the minimum-variance (Capon) estimate
	MethodCapon Method = "capon"
)

// Params configures one beamforming job
type Params struct {
	// MinFreq and MaxFreq bound the analyzed frequency band in Hz
	MinFreq float64 `json:"min_freq" yaml:"min_freq"`
	MaxFreq float64 `json:"max_freq" yaml:"max_freq"`

	// SlownessLimit and SlownessStep define a symmetric slowness grid in
	// s/km. Grid overrides them when set.
	SlownessLimit float64        `json:"slowness_limit" yaml:"slowness_limit"`
	SlownessStep  float64        `json:"slowness_step" yaml:"slowness_step"`
	Grid          *slowness.Grid `json:"grid,omitempty" yaml:"grid,omitempty"`

	// WindowLength is the analysis window in seconds, WindowStepFraction
	// the hop as a fraction of it
	WindowLength       float64 `json:"window_length" yaml:"window_length"`
	WindowStepFraction float64 `json:"window_step_fraction" yaml:"window_step_fraction"`

	// Method picks the estimator, Prewhiten the per-bin normalization
	Method    Method `json:"method" yaml:"method"`
	Prewhiten bool   `json:"prewhiten" yaml:"prewhiten"`

	// CaponFallback degrades a window to the conventional estimate when
	// the covariance cannot be inverted instead of skipping it
	CaponFallback bool `json:"capon_fallback" yaml:"capon_fallback"`

	// SemblanceThreshold and VelocityThreshold gate the per-window
	// results: a window is emitted only when its best point exceeds both
	SemblanceThreshold float64 `json:"semblance_threshold" yaml:"semblance_threshold"`
	VelocityThreshold  float64 `json:"velocity_threshold" yaml:"velocity_threshold"`

	// MinChannelCount is the minimum array size for the job to run at all
	MinChannelCount int `json:"min_channel_count" yaml:"min_channel_count"`

	// CoordinateSystem of the input station metadata
	CoordinateSystem geometry.CoordinateSystem `json:"coordinate_system" yaml:"coordinate_system"`

	// Rejection governs the per-window noisy channel test
	Rejection stats.RejectionPolicy `json:"rejection" yaml:"rejection"`

	// SaveRelpow, SaveAbspow and SaveARF choose which per-window maps the
	// keeper retains
	SaveRelpow bool `json:"save_relpow" yaml:"save_relpow"`
	SaveAbspow bool `json:"save_abspow" yaml:"save_abspow"`
	SaveARF    bool `json:"save_arf" yaml:"save_arf"`

	// ARFEnlargeRatio widens the per-window array response grid relative
	// to the analysis grid
	ARFEnlargeRatio float64 `json:"arf_enlarge_ratio" yaml:"arf_enlarge_ratio"`
}

// DefaultParams returns a working configuration for regional arrays
func DefaultParams() Params {
	return Params{
		MinFreq:            0.1,
		MaxFreq:            1.0,
		SlownessLimit:      1.0,
		SlownessStep:       0.05,
		WindowLength:       60,
		WindowStepFraction: 0.5,
		Method:             MethodConventional,
		Prewhiten:          false,
		CaponFallback:      true,
		SemblanceThreshold: 0.0,
		VelocityThreshold:  0.0,
		MinChannelCount:    4,
		CoordinateSystem:   geometry.CoordLonLat,
		Rejection:          stats.DefaultRejectionPolicy(),
		SaveRelpow:         true,
		SaveAbspow:         true,
		SaveARF:            false,
		ARFEnlargeRatio:    1.5,
	}
}

// Validate checks the parameter set for internal consistency
func (p *Params) Validate() error {
	band := spectral.Band{Low: p.MinFreq, High: p.MaxFreq}
	if err := band.Validate(); err != nil {
		return err
	}
	if p.WindowLength <= 0 {
		return fmt.Errorf("window length must be positive, got %g", p.WindowLength)
	}
	if p.WindowStepFraction <= 0 || p.WindowStepFraction > 1 {
		return fmt.Errorf("window step fraction must be in (0, 1], got %g", p.WindowStepFraction)
	}
	if p.Method != MethodConventional && p.Method != MethodCapon {
		return fmt.Errorf("unknown beamforming method %q", p.Method)
	}
	if p.MinChannelCount < 2 {
		return fmt.Errorf("minimum channel count must be at least 2, got %d", p.MinChannelCount)
	}
	grid := p.SlownessGrid()
	if err := grid.Validate(); err != nil {
		return err
	}
	if p.SaveARF && p.ARFEnlargeRatio <= 0 {
		return fmt.Errorf("arf enlarge ratio must be positive, got %g", p.ARFEnlargeRatio)
	}
	return nil
}

// SlownessGrid resolves the effective analysis grid
func (p *Params) SlownessGrid() slowness.Grid {
	if p.Grid != nil {
		return *p.Grid
	}
	return slowness.SymmetricGrid(p.SlownessLimit, p.SlownessStep)
}
