package geometry

import "math"

// RegularRectangular generates station positions on a regular grid of the
// given extent and spacing, optionally rotated about an origin. Positions
// are returned in kilometers, not yet reduced to the centroid frame.
func RegularRectangular(stepX, stepY, lenX, lenY, rotationDeg float64, originX, originY float64) []Station {
	rotation := -rotationDeg * math.Pi / 180
	cosR := math.Cos(rotation)
	sinR := math.Sin(rotation)

	var stations []Station
	for x := 0.0; x <= lenX+stepX/10; x += stepX {
		for y := 0.0; y <= lenY+stepY/10; y += stepY {
			xs := x - originX
			ys := y - originY
			stations = append(stations, Station{
				X: cosR*xs + sinR*ys + originX,
				Y: -sinR*xs + cosR*ys + originY,
			})
		}
	}
	return stations
}

// RegularCircular generates a regular grid clipped to a circle of the
// given radius. Positions are in kilometers.
func RegularCircular(stepX, stepY, radius float64) []Station {
	grid := RegularRectangular(stepX, stepY, 2*radius, 2*radius, 0, 0, 0)

	meanX, meanY := 0.0, 0.0
	for _, st := range grid {
		meanX += st.X
		meanY += st.Y
	}
	meanX /= float64(len(grid))
	meanY /= float64(len(grid))

	var stations []Station
	for _, st := range grid {
		if math.Hypot(st.X-meanX, st.Y-meanY) <= radius {
			stations = append(stations, st)
		}
	}
	return stations
}
