package beamform

import (
	"math"
	"sort"
	"time"
)

// LocalMaximum is one candidate peak of a single power map
type LocalMaximum struct {
	SlownessX float64   `json:"slowness_x"`
	SlownessY float64   `json:"slowness_y"`
	Amplitude float64   `json:"amplitude"`
	MidTime   time.Time `json:"midtime"`
}

// Peak is a significant sub-beam after reduction across windows. The
// beam proportion is the averaged share of the candidate amplitude this
// slowness point carried at its timestamps, and Occurrences counts how
// many windows contributed to it.
type Peak struct {
	SlownessX      float64 `json:"slowness_x"`
	SlownessY      float64 `json:"slowness_y"`
	Slowness       float64 `json:"slowness"`
	Amplitude      float64 `json:"amplitude"`
	BeamProportion float64 `json:"beam_proportion"`
	Occurrences    int     `json:"occurrences"`
	Azimuth        float64 `json:"azimuth"`
	Backazimuth    float64 `json:"backazimuth"`
}

// SelectLocalMaxima finds the strongest local maxima of a power map. A
// grid point is a candidate when it equals the maximum of its square
// neighborhood and the neighborhood's max-min contrast exceeds the
// threshold. Touching candidates (4-connectivity) collapse into one peak
// at the center of their bounding box. At most bestPointCount peaks are
// returned, strongest first. Returns ErrNoPeaks when nothing qualifies.
func SelectLocalMaxima(m *PowerMap, xaxis, yaxis []float64, midtime time.Time, neighborhoodSize int, maximaThreshold float64, bestPointCount int) ([]LocalMaximum, error) {
	if neighborhoodSize < 1 {
		neighborhoodSize = 1
	}

	nx, ny := m.NumX, m.NumY
	detected := make([]bool, nx*ny)

	half := neighborhoodSize / 2
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			maxV := math.Inf(-1)
			minV := math.Inf(1)
			for dx := -half; dx < neighborhoodSize-half; dx++ {
				x := ix + dx
				if x < 0 || x >= nx {
					continue
				}
				for dy := -half; dy < neighborhoodSize-half; dy++ {
					y := iy + dy
					if y < 0 || y >= ny {
						continue
					}
					v := m.At(x, y)
					if v > maxV {
						maxV = v
					}
					if v < minV {
						minV = v
					}
				}
			}
			detected[ix*ny+iy] = m.At(ix, iy) == maxV && maxV-minV > maximaThreshold
		}
	}

	labels, nlabels := labelRegions(detected, nx, ny)
	if nlabels == 0 {
		return nil, ErrNoPeaks
	}

	// bounding box per label
	type box struct{ minX, maxX, minY, maxY int }
	boxes := make([]box, nlabels)
	for i := range boxes {
		boxes[i] = box{minX: nx, maxX: -1, minY: ny, maxY: -1}
	}
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			l := labels[ix*ny+iy]
			if l == 0 {
				continue
			}
			b := &boxes[l-1]
			if ix < b.minX {
				b.minX = ix
			}
			if ix > b.maxX {
				b.maxX = ix
			}
			if iy < b.minY {
				b.minY = iy
			}
			if iy > b.maxY {
				b.maxY = iy
			}
		}
	}

	maxima := make([]LocalMaximum, 0, nlabels)
	for _, b := range boxes {
		cx := (b.minX + b.maxX) / 2
		cy := (b.minY + b.maxY) / 2
		maxima = append(maxima, LocalMaximum{
			SlownessX: xaxis[cx],
			SlownessY: yaxis[cy],
			Amplitude: m.At(cx, cy),
			MidTime:   midtime,
		})
	}

	sort.SliceStable(maxima, func(i, j int) bool {
		return maxima[i].Amplitude > maxima[j].Amplitude
	})
	if bestPointCount > 0 && len(maxima) > bestPointCount {
		maxima = maxima[:bestPointCount]
	}

	return maxima, nil
}

// labelRegions assigns 1-based labels to 4-connected true regions,
// scanning row by row with a flood fill. Returns the label buffer and
// the region count.
func labelRegions(mask []bool, nx, ny int) ([]int, int) {
	labels := make([]int, nx*ny)
	next := 0
	var stack []int

	for start := 0; start < nx*ny; start++ {
		if !mask[start] || labels[start] != 0 {
			continue
		}
		next++
		stack = append(stack[:0], start)
		labels[start] = next
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			ix, iy := p/ny, p%ny

			visit := func(x, y int) {
				if x < 0 || x >= nx || y < 0 || y >= ny {
					return
				}
				q := x*ny + y
				if mask[q] && labels[q] == 0 {
					labels[q] = next
					stack = append(stack, q)
				}
			}
			visit(ix-1, iy)
			visit(ix+1, iy)
			visit(ix, iy-1)
			visit(ix, iy+1)
		}
	}

	return labels, next
}

// ReduceToSignificantSubbeams merges per-window maxima into the set of
// slowness points that repeatedly carry a meaningful share of the beam.
// Within each timestamp every candidate's amplitude is normalized by the
// timestamp's total; candidates below portionThreshold are dropped. The
// survivors are grouped by slowness point, averaging amplitude and
// portion and counting occurrences. Result is sorted strongest first.
func ReduceToSignificantSubbeams(maxima []LocalMaximum, portionThreshold float64) []Peak {
	totals := make(map[time.Time]float64)
	for _, m := range maxima {
		totals[m.MidTime] += m.Amplitude
	}

	type key struct{ x, y float64 }
	type acc struct {
		amplitude float64
		portion   float64
		count     int
	}
	groups := make(map[key]*acc)
	var order []key

	for _, m := range maxima {
		total := totals[m.MidTime]
		if total == 0 {
			continue
		}
		portion := m.Amplitude / total
		if portion <= portionThreshold {
			continue
		}
		k := key{m.SlownessX, m.SlownessY}
		g, ok := groups[k]
		if !ok {
			g = &acc{}
			groups[k] = g
			order = append(order, k)
		}
		g.amplitude += m.Amplitude
		g.portion += portion
		g.count++
	}

	peaks := make([]Peak, 0, len(order))
	for _, k := range order {
		g := groups[k]
		n := float64(g.count)
		peaks = append(peaks, Peak{
			SlownessX:      k.x,
			SlownessY:      k.y,
			Slowness:       math.Hypot(k.x, k.y),
			Amplitude:      g.amplitude / n,
			BeamProportion: g.portion / n,
			Occurrences:    g.count,
			Azimuth:        azimuthDeg(k.x, k.y),
			Backazimuth:    backazimuthDeg(k.x, k.y),
		})
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		if peaks[i].Amplitude != peaks[j].Amplitude {
			return peaks[i].Amplitude > peaks[j].Amplitude
		}
		if peaks[i].SlownessX != peaks[j].SlownessX {
			return peaks[i].SlownessX < peaks[j].SlownessX
		}
		return peaks[i].SlownessY < peaks[j].SlownessY
	})

	return peaks
}

// azimuthDeg is the propagation azimuth of the slowness vector, degrees
// clockwise from north.
func azimuthDeg(sx, sy float64) float64 {
	return 180 * math.Atan2(sx, sy) / math.Pi
}

// backazimuthDeg is the direction back towards the source, normalized
// into [0, 360).
func backazimuthDeg(sx, sy float64) float64 {
	baz := pymod(azimuthDeg(sx, sy), -360) + 180
	return pymod(baz, 360)
}

// pymod is the remainder with the sign of the divisor
func pymod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
