package beamform

import (
	"errors"

	"github.com/seisarray/fkbeam/algorithms/geometry"
)

var (
	// ErrInvalidCoordinateSystem is returned when the coordinate system
	// tag is neither "lonlat" nor "xy"
	ErrInvalidCoordinateSystem = geometry.ErrInvalidCoordinateSystem

	// ErrInsufficientChannels is returned when fewer channels than the
	// configured minimum are available for a job, and recorded per
	// window when rejection leaves fewer than two channels
	ErrInsufficientChannels = errors.New("insufficient channels for beamforming")

	// ErrSingularCovariance is returned when the Capon inversion cannot
	// stabilize a covariance matrix even with the rcond floor
	ErrSingularCovariance = errors.New("covariance matrix is singular")

	// ErrInvalidRange is returned for degenerate slowness or frequency
	// ranges (max <= min)
	ErrInvalidRange = errors.New("range maximum must exceed minimum")

	// ErrNoData is returned when an accumulator operation needs at
	// least one collected power map
	ErrNoData = errors.New("no power maps were collected")

	// ErrFinalized is returned when power maps are offered to an
	// accumulator that has already computed its averages
	ErrFinalized = errors.New("accumulator is finalized")

	// ErrNoPeaks is returned when the local maxima search finds no
	// candidate above the configured threshold
	ErrNoPeaks = errors.New("no peaks were found; adjust neighborhood size and maxima threshold")
)
