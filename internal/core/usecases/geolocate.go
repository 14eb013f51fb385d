package usecases

import "github.com/loross14/lost-and-found/internal/core/domain"

// Geolocate converts a detection's relative in-image position into absolute
// coordinates. The reference frame is the tile's own bounding box, not the
// scan region: image origin is top-left, so y grows southward from the
// tile's north edge.
func Geolocate(tile domain.Tile, feature domain.DetectedFeature) domain.GeoPoint {
	b := tile.Bounds()
	return domain.GeoPoint{
		Lat: b.North - (b.North-b.South)*feature.RelY,
		Lng: b.West + (b.East-b.West)*feature.RelX,
	}
}
