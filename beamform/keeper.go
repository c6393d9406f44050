package beamform

import (
	"time"

	"github.com/seisarray/fkbeam/algorithms/slowness"
	"github.com/seisarray/fkbeam/logging"
)

// Keeper collects the per-window power maps of one beamforming job and
// serves the multi-window reductions: element-wise averaging and local
// maxima extraction. It moves from a collecting state into a finalized
// state the first time an average is computed; maps offered after that
// are refused.
//
// A Keeper belongs to exactly one job and is not safe for concurrent use.
type Keeper struct {
	xaxis []float64
	yaxis []float64

	saveRelpow bool
	saveAbspow bool
	saveARF    bool

	relPows  []*PowerMap
	absPows  []*PowerMap
	arfs     []*PowerMap
	midtimes []time.Time

	finalized bool
	avgRel    *PowerMap
	avgAbs    *PowerMap
	avgARF    *PowerMap

	logger logging.Logger
}

// NewKeeper creates a collector over the given slowness grid. The save
// flags choose which map kinds are retained in memory.
func NewKeeper(grid slowness.Grid, saveRelpow, saveAbspow, saveARF bool) *Keeper {
	return &Keeper{
		xaxis:      grid.XAxis(),
		yaxis:      grid.YAxis(),
		saveRelpow: saveRelpow,
		saveAbspow: saveAbspow,
		saveARF:    saveARF,
		logger: logging.WithFields(logging.Fields{
			"component": "beamformer_keeper",
		}),
	}
}

// Save appends one window's maps. arf may be nil. Valid only while
// collecting; returns ErrFinalized afterwards.
func (k *Keeper) Save(relpow, abspow *PowerMap, midtime time.Time, arf *PowerMap) error {
	if k.finalized {
		return ErrFinalized
	}

	k.midtimes = append(k.midtimes, midtime)
	if k.saveRelpow && relpow != nil {
		k.relPows = append(k.relPows, relpow.Clone())
	}
	if k.saveAbspow && abspow != nil {
		k.absPows = append(k.absPows, abspow.Clone())
	}
	if k.saveARF && arf != nil {
		k.arfs = append(k.arfs, arf.Clone())
	}
	return nil
}

// Count returns the number of accepted windows
func (k *Keeper) Count() int {
	return len(k.midtimes)
}

// Midtimes returns the window midpoints in acceptance order
func (k *Keeper) Midtimes() []time.Time {
	return k.midtimes
}

// RelPowerMaps returns the collected relative power maps
func (k *Keeper) RelPowerMaps() []*PowerMap {
	return k.relPows
}

// AbsPowerMaps returns the collected absolute power maps
func (k *Keeper) AbsPowerMaps() []*PowerMap {
	return k.absPows
}

// average computes the element-wise mean of the maps
func average(maps []*PowerMap) (*PowerMap, error) {
	if len(maps) == 0 {
		return nil, ErrNoData
	}
	avg := NewPowerMap(maps[0].NumX, maps[0].NumY)
	for _, m := range maps {
		avg.add(m)
	}
	avg.scale(1 / float64(len(maps)))
	return avg, nil
}

// AverageRelpower returns the mean relative power map over all accepted
// windows. The first call finalizes the keeper; repeated calls return the
// cached map, bit-identical.
func (k *Keeper) AverageRelpower() (*PowerMap, error) {
	if k.avgRel != nil {
		return k.avgRel, nil
	}
	avg, err := average(k.relPows)
	if err != nil {
		return nil, err
	}
	k.finalized = true
	k.avgRel = avg
	return avg, nil
}

// AverageAbspower returns the mean absolute power map over all accepted
// windows, finalizing the keeper on first call.
func (k *Keeper) AverageAbspower() (*PowerMap, error) {
	if k.avgAbs != nil {
		return k.avgAbs, nil
	}
	avg, err := average(k.absPows)
	if err != nil {
		return nil, err
	}
	k.finalized = true
	k.avgAbs = avg
	return avg, nil
}

// AverageARF returns the mean per-window array response, finalizing the
// keeper on first call.
func (k *Keeper) AverageARF() (*PowerMap, error) {
	if k.avgARF != nil {
		return k.avgARF, nil
	}
	avg, err := average(k.arfs)
	if err != nil {
		return nil, err
	}
	k.finalized = true
	k.avgARF = avg
	return avg, nil
}

// MaximaParams configures the peak extraction on power maps
type MaximaParams struct {
	// NeighborhoodSize is the square window (in grid points) of the
	// local max/min filters
	NeighborhoodSize int `json:"neighborhood_size" yaml:"neighborhood_size"`

	// MaximaThreshold is the minimum local max-min contrast for a
	// candidate peak
	MaximaThreshold float64 `json:"maxima_threshold" yaml:"maxima_threshold"`

	// BestPointCount caps the number of candidates kept per map
	BestPointCount int `json:"best_point_count" yaml:"best_point_count"`

	// BeamPortionThreshold drops candidates carrying less than this
	// fraction of the total candidate amplitude at their timestamp
	BeamPortionThreshold float64 `json:"beam_portion_threshold" yaml:"beam_portion_threshold"`
}

// AverageRelpowerPeaks extracts the significant peaks of the averaged
// relative power map.
func (k *Keeper) AverageRelpowerPeaks(p MaximaParams) ([]Peak, error) {
	avg, err := k.AverageRelpower()
	if err != nil {
		return nil, err
	}
	return k.averagePeaks(avg, p)
}

// AverageAbspowerPeaks extracts the significant peaks of the averaged
// absolute power map.
func (k *Keeper) AverageAbspowerPeaks(p MaximaParams) ([]Peak, error) {
	avg, err := k.AverageAbspower()
	if err != nil {
		return nil, err
	}
	return k.averagePeaks(avg, p)
}

func (k *Keeper) averagePeaks(avg *PowerMap, p MaximaParams) ([]Peak, error) {
	mid := k.midtimes[len(k.midtimes)/2]
	maxima, err := SelectLocalMaxima(avg, k.xaxis, k.yaxis, mid, p.NeighborhoodSize, p.MaximaThreshold, p.BestPointCount)
	if err != nil {
		return nil, err
	}
	return ReduceToSignificantSubbeams(maxima, p.BeamPortionThreshold), nil
}

// AllRelpowerPeaks extracts peaks window by window from the relative
// power maps and reduces them to the significant sub-beams across all
// windows.
func (k *Keeper) AllRelpowerPeaks(p MaximaParams) ([]Peak, error) {
	return k.allPeaks(k.relPows, p)
}

// AllAbspowerPeaks extracts peaks window by window from the absolute
// power maps and reduces them to the significant sub-beams across all
// windows.
func (k *Keeper) AllAbspowerPeaks(p MaximaParams) ([]Peak, error) {
	return k.allPeaks(k.absPows, p)
}

func (k *Keeper) allPeaks(maps []*PowerMap, p MaximaParams) ([]Peak, error) {
	if len(maps) == 0 {
		return nil, ErrNoData
	}

	var all []LocalMaximum
	for w, m := range maps {
		maxima, err := SelectLocalMaxima(m, k.xaxis, k.yaxis, k.midtimes[w], p.NeighborhoodSize, p.MaximaThreshold, p.BestPointCount)
		if err != nil {
			return nil, err
		}
		all = append(all, maxima...)
	}
	return ReduceToSignificantSubbeams(all, p.BeamPortionThreshold), nil
}
