package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceXY(t *testing.T) {
	stations := []Station{
		{X: 0, Y: 0, Elevation: 0.1},
		{X: 2, Y: 0, Elevation: 0.1},
		{X: 0, Y: 2, Elevation: 0.1},
		{X: 2, Y: 2, Elevation: 0.1},
	}

	geom, err := Reduce(stations, CoordXY)
	require.NoError(t, err)
	require.Equal(t, 4, geom.NumStations())

	assert.InDelta(t, 1.0, geom.CenterLon, 1e-12)
	assert.InDelta(t, 1.0, geom.CenterLat, 1e-12)
	assert.InDelta(t, 0.1, geom.CenterElev, 1e-12)

	assert.InDelta(t, -1.0, geom.Positions[0].X, 1e-12)
	assert.InDelta(t, -1.0, geom.Positions[0].Y, 1e-12)
	assert.InDelta(t, 1.0, geom.Positions[3].X, 1e-12)
	assert.InDelta(t, 1.0, geom.Positions[3].Y, 1e-12)
	for _, p := range geom.Positions {
		assert.InDelta(t, 0.0, p.Elev, 1e-12)
	}

	assert.InDelta(t, 2*math.Sqrt2, geom.Aperture(), 1e-12)
}

func TestReduceXYCentroidIsZeroMean(t *testing.T) {
	stations := []Station{
		{X: 3.2, Y: -1.1},
		{X: -0.4, Y: 2.7},
		{X: 1.9, Y: 0.3},
	}

	geom, err := Reduce(stations, CoordXY)
	require.NoError(t, err)

	var sumX, sumY float64
	for _, p := range geom.Positions {
		sumX += p.X
		sumY += p.Y
	}
	assert.InDelta(t, 0.0, sumX, 1e-12)
	assert.InDelta(t, 0.0, sumY, 1e-12)
}

func TestReduceLonLat(t *testing.T) {
	// two stations on the equator, one degree of longitude apart
	stations := []Station{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 0},
	}

	geom, err := Reduce(stations, CoordLonLat)
	require.NoError(t, err)

	assert.InDelta(t, -0.5*kmPerDegree, geom.Positions[0].X, 1e-9)
	assert.InDelta(t, 0.5*kmPerDegree, geom.Positions[1].X, 1e-9)
	assert.InDelta(t, 0.0, geom.Positions[0].Y, 1e-9)

	// latitude offsets do not depend on longitude scale
	stations = []Station{
		{Lon: 10, Lat: 45},
		{Lon: 10, Lat: 46},
	}
	geom, err = Reduce(stations, CoordLonLat)
	require.NoError(t, err)
	assert.InDelta(t, kmPerDegree, geom.Positions[1].Y-geom.Positions[0].Y, 1e-9)
}

func TestReduceInvalidCoordinateSystem(t *testing.T) {
	_, err := Reduce([]Station{{X: 0, Y: 0}}, CoordinateSystem("utm"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCoordinateSystem))
}

func TestReduceNoStations(t *testing.T) {
	_, err := Reduce(nil, CoordXY)
	require.Error(t, err)
}

func TestRegularRectangular(t *testing.T) {
	stations := RegularRectangular(1, 1, 2, 2, 0, 0, 0)
	require.Len(t, stations, 9)

	// rotation preserves pairwise distances
	rotated := RegularRectangular(1, 1, 2, 2, 30, 0, 0)
	require.Len(t, rotated, 9)
	d := math.Hypot(stations[0].X-stations[8].X, stations[0].Y-stations[8].Y)
	dr := math.Hypot(rotated[0].X-rotated[8].X, rotated[0].Y-rotated[8].Y)
	assert.InDelta(t, d, dr, 1e-9)
}

func TestRegularCircular(t *testing.T) {
	stations := RegularCircular(1, 1, 1)
	require.Len(t, stations, 5)

	for _, st := range stations {
		assert.LessOrEqual(t, math.Hypot(st.X-1, st.Y-1), 1.0+1e-12)
	}
}
