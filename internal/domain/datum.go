package domain

// ConvertDatum shifts a water level from one vertical datum to another using
// a fixed additive offset:
//
//	target = source + offset, where offset = target_datum − source_datum.
//
// For this site the conversion of interest is MLLW → NAVD88, so the offset
// is the (negative) height of MLLW above NAVD88 from the NOAA datum tables.
// The offset is configuration, not a constant: the sign depends on which
// direction the deployment converts, and conversion under the negated offset
// is the exact inverse.
func ConvertDatum(feet, offset float64) float64 {
	return feet + offset
}

// ConvertDatumPoints returns a copy of points with every value shifted by
// offset. The input slice is not mutated.
func ConvertDatumPoints(points []Point, offset float64) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{Time: p.Time, Feet: ConvertDatum(p.Feet, offset)}
	}
	return out
}
