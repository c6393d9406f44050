package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/seisarray/fkbeam/logging"
)

// RejectionPolicy configures the statistical channel rejection. The exact
// decision boundary is deliberately a policy value rather than a
// hard-coded cutoff; the defaults reproduce the behavior the validator
// shipped with.
type RejectionPolicy struct {
	// FCutLow/FCutHigh bound the frequency band (Hz) whose spectral
	// levels are scored across channels
	FCutLow  float64 `json:"f_cut_low" yaml:"f_cut_low"`
	FCutHigh float64 `json:"f_cut_high" yaml:"f_cut_high"`

	// ZScore is the rejection threshold in cross-channel standard
	// deviations of the log spectral level
	ZScore float64 `json:"z_score" yaml:"z_score"`

	// BadFreqProportion is the fraction of scored bins a channel must be
	// an outlier in before it is dropped
	BadFreqProportion float64 `json:"bad_freq_proportion" yaml:"bad_freq_proportion"`

	// MinKeep is the channel count below which no further rejection is
	// applied
	MinKeep int `json:"min_keep" yaml:"min_keep"`
}

// DefaultRejectionPolicy returns the policy used when none is configured
func DefaultRejectionPolicy() RejectionPolicy {
	return RejectionPolicy{
		FCutLow:           0.25,
		FCutHigh:          1.5,
		ZScore:            2.5,
		BadFreqProportion: 0.5,
		MinKeep:           3,
	}
}

// RejectChannels statistically rejects anomalous channels from a window.
// mags holds the full positive-frequency magnitude spectrum per channel,
// freqAxis the matching frequencies in Hz. It returns the indices of the
// retained channels, in input order.
//
// Per frequency bin below FCutHigh, channels whose 10*log10 level deviates
// from the cross-channel mean by more than ZScore standard deviations are
// marked outliers; a channel that is an outlier in more than
// BadFreqProportion of the bins between FCutLow and FCutHigh is dropped.
// The test repeats on the survivors until it reaches a fixpoint, and never
// shrinks the set to MinKeep channels or fewer. A zero-energy channel is
// not an outlier by itself: its log level is non-finite and therefore
// never exceeds the deviation threshold.
func RejectChannels(mags [][]float64, freqAxis []float64, policy RejectionPolicy) ([]int, error) {
	nf := len(freqAxis)
	for i, m := range mags {
		if len(m) != nf {
			return nil, fmt.Errorf("channel %d spectrum length %d does not match frequency axis length %d", i, len(m), nf)
		}
	}

	logger := logging.WithFields(logging.Fields{
		"component": "channel_validator",
		"channels":  len(mags),
	})

	indCutHigh := nearestIndex(freqAxis, policy.FCutHigh)
	indCutLow := nearestIndex(freqAxis, policy.FCutLow)

	// channels with non-finite input are excluded up front
	var active []int
	for i, m := range mags {
		if finiteMean(m) {
			active = append(active, i)
		}
	}

	logLevel := make([][]float64, len(mags))
	for i, m := range mags {
		logLevel[i] = make([]float64, nf)
		for k, v := range m {
			logLevel[i][k] = 10 * math.Log10(v)
		}
	}

	good := append([]int(nil), active...)
	prevLen := -1

	for len(good) != prevLen {
		prevLen = len(good)

		// outlier positions (into good) per scored bin
		rejected := make([][]int, indCutHigh)
		levels := make([]float64, len(good))
		for f := 0; f < indCutHigh; f++ {
			for p, ch := range good {
				levels[p] = logLevel[ch][f]
			}
			mean, std := stat.PopMeanStdDev(levels, nil)
			for p := range good {
				if math.Abs(levels[p]-mean) >= policy.ZScore*std {
					rejected[f] = append(rejected[f], p)
				}
			}
		}

		counts := make([]int, len(good))
		for f := indCutLow; f < indCutHigh; f++ {
			for _, p := range rejected[f] {
				counts[p]++
			}
		}

		limit := float64(indCutHigh-indCutLow) * policy.BadFreqProportion
		var keep []int
		for p, ch := range good {
			if float64(counts[p]) <= limit {
				keep = append(keep, ch)
			}
		}

		if len(keep) > policy.MinKeep {
			good = keep
		}
	}

	if len(good) < len(active) {
		logger.Debug("rejected anomalous channels", logging.Fields{
			"kept":     len(good),
			"rejected": len(active) - len(good),
		})
	}

	return good, nil
}

// nearestIndex returns the index of the axis value closest to target
func nearestIndex(axis []float64, target float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, v := range axis {
		d := math.Abs(v - target)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// finiteMean reports whether the mean of the values is a finite number
func finiteMean(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	return !math.IsNaN(mean) && !math.IsInf(mean, 0)
}
