package beamform

// PowerMap is a real-valued map over the slowness grid, row-major with
// the x index outermost. One relative (normalized) and one absolute (raw
// energy) map are produced per window.
type PowerMap struct {
	NumX int       `json:"num_x"`
	NumY int       `json:"num_y"`
	Data []float64 `json:"data"`
}

// NewPowerMap allocates a zeroed map
func NewPowerMap(numX, numY int) *PowerMap {
	return &PowerMap{
		NumX: numX,
		NumY: numY,
		Data: make([]float64, numX*numY),
	}
}

// At returns the value at grid point (ix, iy)
func (m *PowerMap) At(ix, iy int) float64 {
	return m.Data[ix*m.NumY+iy]
}

// Set stores the value at grid point (ix, iy)
func (m *PowerMap) Set(ix, iy int, v float64) {
	m.Data[ix*m.NumY+iy] = v
}

// ArgMax returns the grid point of the maximum value. Ties resolve to the
// lowest flat index, so the result is deterministic for a fixed input.
func (m *PowerMap) ArgMax() (ix, iy int) {
	best := 0
	for i := 1; i < len(m.Data); i++ {
		if m.Data[i] > m.Data[best] {
			best = i
		}
	}
	return best / m.NumY, best % m.NumY
}

// Max returns the maximum value
func (m *PowerMap) Max() float64 {
	ix, iy := m.ArgMax()
	return m.At(ix, iy)
}

// Clone returns a deep copy
func (m *PowerMap) Clone() *PowerMap {
	c := NewPowerMap(m.NumX, m.NumY)
	copy(c.Data, m.Data)
	return c
}

// add accumulates other into m element-wise
func (m *PowerMap) add(other *PowerMap) {
	for i, v := range other.Data {
		m.Data[i] += v
	}
}

// scale multiplies every element by f
func (m *PowerMap) scale(f float64) {
	for i := range m.Data {
		m.Data[i] *= f
	}
}
