package geometry

import (
	"errors"
	"fmt"
	"math"
)

// CoordinateSystem selects which station attributes carry the coordinates
type CoordinateSystem string

const (
	// CoordLonLat uses Lon/Lat in degrees and Elevation in km
	CoordLonLat CoordinateSystem = "lonlat"

	// CoordXY uses X/Y in km and Elevation in km
	CoordXY CoordinateSystem = "xy"
)

// ErrInvalidCoordinateSystem is returned when the coordinate system tag
// is neither "lonlat" nor "xy"
var ErrInvalidCoordinateSystem = errors.New("coordinate system must be one of 'lonlat', 'xy'")

// kilometers per degree of latitude on the reference sphere
const kmPerDegree = 111.1949266

// Station describes one array channel's location. Lon/Lat are used with
// CoordLonLat, X/Y with CoordXY. Elevation is in kilometers either way.
type Station struct {
	Code      string  `json:"code,omitempty"`
	Lon       float64 `json:"lon,omitempty"`
	Lat       float64 `json:"lat,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Elevation float64 `json:"elevation"`
}

// Position is a station location in the local Cartesian frame, in
// kilometers relative to the array centroid
type Position struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Elev float64 `json:"elev"`
}

// ArrayGeometry holds the reduced station positions. The ordering matches
// the channel ordering of the input stations. Immutable once built.
type ArrayGeometry struct {
	Positions []Position `json:"positions"`

	// CenterLon/CenterLat/CenterElev record the centroid that was
	// subtracted during reduction (degrees/degrees/km for lonlat input,
	// km for xy input)
	CenterLon  float64 `json:"center_lon"`
	CenterLat  float64 `json:"center_lat"`
	CenterElev float64 `json:"center_elev"`
}

// NumStations returns the channel count
func (g *ArrayGeometry) NumStations() int {
	return len(g.Positions)
}

// Aperture returns the largest inter-station distance in km, ignoring
// elevation. Useful for judging slowness grid resolution against the
// array response.
func (g *ArrayGeometry) Aperture() float64 {
	maxDist := 0.0
	for i := 0; i < len(g.Positions); i++ {
		for j := i + 1; j < len(g.Positions); j++ {
			d := math.Hypot(g.Positions[i].X-g.Positions[j].X, g.Positions[i].Y-g.Positions[j].Y)
			if d > maxDist {
				maxDist = d
			}
		}
	}
	return maxDist
}

// Reduce converts station positions into a local Cartesian frame centered
// on the array centroid, in kilometers. Geographic coordinates are
// projected with an equirectangular approximation about the mean
// longitude/latitude before the centroid subtraction.
func Reduce(stations []Station, coordSys CoordinateSystem) (*ArrayGeometry, error) {
	if len(stations) == 0 {
		return nil, fmt.Errorf("geometry reduction needs at least one station")
	}

	geom := &ArrayGeometry{
		Positions: make([]Position, len(stations)),
	}

	switch coordSys {
	case CoordLonLat:
		for _, st := range stations {
			geom.CenterLon += st.Lon
			geom.CenterLat += st.Lat
			geom.CenterElev += st.Elevation
		}
		n := float64(len(stations))
		geom.CenterLon /= n
		geom.CenterLat /= n
		geom.CenterElev /= n

		for i, st := range stations {
			x, y := geoKM(geom.CenterLon, geom.CenterLat, st.Lon, st.Lat)
			geom.Positions[i] = Position{
				X:    x,
				Y:    y,
				Elev: st.Elevation - geom.CenterElev,
			}
		}
	case CoordXY:
		for _, st := range stations {
			geom.CenterLon += st.X
			geom.CenterLat += st.Y
			geom.CenterElev += st.Elevation
		}
		n := float64(len(stations))
		geom.CenterLon /= n
		geom.CenterLat /= n
		geom.CenterElev /= n

		for i, st := range stations {
			geom.Positions[i] = Position{
				X:    st.X - geom.CenterLon,
				Y:    st.Y - geom.CenterLat,
				Elev: st.Elevation - geom.CenterElev,
			}
		}
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidCoordinateSystem, coordSys)
	}

	return geom, nil
}

// geoKM converts a geographic offset from (origLon, origLat) to local
// kilometers using a flat-earth approximation. The longitude scale is
// taken at the mean of the two latitudes.
func geoKM(origLon, origLat, lon, lat float64) (x, y float64) {
	y = (lat - origLat) * kmPerDegree
	x = (lon - origLon) * kmPerDegree * math.Cos((origLat+lat)/2*math.Pi/180)
	return x, y
}
