package grid

import "math"

// Point is the grid cell nearest a requested coordinate.
type Point struct {
	LatIdx int
	LonIdx int
	Lat    float64
	Lon    float64
}

// Nearest resolves the grid indices closest to the target coordinate by
// minimizing absolute difference on each axis independently. The target
// longitude is given in signed -180..180 convention; if the field's axis uses
// 0-360 the target is normalized before the search.
func (f *Field) Nearest(targetLat, targetLon float64) (Point, error) {
	if len(f.lats) == 0 || len(f.lons) == 0 {
		return Point{}, ErrEmptyAxis
	}

	lon := normalizeLon(targetLon, f.lons)

	latIdx := nearestIndex(f.lats, targetLat)
	lonIdx := nearestIndex(f.lons, lon)

	return Point{
		LatIdx: latIdx,
		LonIdx: lonIdx,
		Lat:    f.lats[latIdx],
		Lon:    f.lons[lonIdx],
	}, nil
}

func nearestIndex(axis []float64, target float64) int {
	best := 0
	bestDiff := math.Abs(axis[0] - target)
	for i, v := range axis[1:] {
		if diff := math.Abs(v - target); diff < bestDiff {
			best = i + 1
			bestDiff = diff
		}
	}
	return best
}

// normalizeLon shifts a negative target into 0-360 when the axis uses that
// convention. An axis is treated as 0-360 if any value exceeds 180.
func normalizeLon(target float64, axis []float64) float64 {
	if target >= 0 {
		return target
	}
	for _, v := range axis {
		if v > 180 {
			return target + 360
		}
	}
	return target
}
