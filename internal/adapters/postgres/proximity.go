package postgres

import "github.com/loross14/lost-and-found/internal/pkg/geospatial"

// pointRows is the subset of pgx.Rows the proximity check consumes.
type pointRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// anyWithinPlanarRadius walks (lat, lng) rows from a box prefilter and
// reports whether any falls within radiusMeters of the target point. The box
// is only a coarse cut; every row it returns must be checked, since a dense
// cluster can put many register entries inside one box.
func anyWithinPlanarRadius(rows pointRows, lat, lng, radiusMeters float64) (bool, error) {
	for rows.Next() {
		var candLat, candLng float64
		if err := rows.Scan(&candLat, &candLng); err != nil {
			return false, err
		}
		if geospatial.PlanarDistance(lat, lng, candLat, candLng) <= radiusMeters {
			return true, nil
		}
	}
	return false, rows.Err()
}
