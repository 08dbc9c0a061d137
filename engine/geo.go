package engine

// ============================================================================
// GEOSPATIAL PROJECTOR — Validated Point Extraction
// ============================================================================
// A row yields a point iff both coordinate cells resolve to finite
// numbers. Unparsable coordinate text never projects, even in numeric
// columns where aggregation would coerce it to zero — a substitute zero
// is not a position on the map.
//
// Rendering and clustering belong to the external mapping surface; this
// core only hands over the clean, validated point list.
// ============================================================================

// Project extracts valid (lat, lng) pairs from a view. Never mutates
// rows; recompute whenever the filtered rows or the chosen coordinate
// columns change.
func Project(view RowView, latCol, lngCol string) []GeoPoint {
	if latCol == "" || lngCol == "" {
		return nil
	}

	var points []GeoPoint
	for i := 0; i < view.Len(); i++ {
		row := view.At(i)
		lat, ok := row.Cell(latCol).Float()
		if !ok {
			continue
		}
		lng, ok := row.Cell(lngCol).Float()
		if !ok {
			continue
		}
		points = append(points, GeoPoint{Row: row, Lat: lat, Lng: lng})
	}
	return points
}

// Bounds computes the bounding box over a point set, used once to frame
// the initial map view. Returns ok=false for an empty set.
func Bounds(points []GeoPoint) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}
	box := BoundingBox{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLng: points[0].Lng, MaxLng: points[0].Lng,
	}
	for _, p := range points[1:] {
		if p.Lat < box.MinLat {
			box.MinLat = p.Lat
		}
		if p.Lat > box.MaxLat {
			box.MaxLat = p.Lat
		}
		if p.Lng < box.MinLng {
			box.MinLng = p.Lng
		}
		if p.Lng > box.MaxLng {
			box.MaxLng = p.Lng
		}
	}
	return box, true
}
