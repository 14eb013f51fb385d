package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is a north/south/east/west rectangle in decimal degrees.
// It is treated as an immutable value once attached to a scan job.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Validate checks the structural invariants of the box. Boxes that straddle
// the antimeridian or extend past the Web-Mercator latitude limit are not
// supported.
func (b BoundingBox) Validate() error {
	if b.North <= b.South {
		return fmt.Errorf("invalid bounding box: north (%f) must be greater than south (%f)", b.North, b.South)
	}
	if b.East <= b.West {
		return fmt.Errorf("invalid bounding box: east (%f) must be greater than west (%f)", b.East, b.West)
	}
	if b.North > MaxMercatorLatitude || b.South < -MaxMercatorLatitude {
		return fmt.Errorf("invalid bounding box: latitudes must lie within ±%.4f", MaxMercatorLatitude)
	}
	if b.East > 180 || b.West < -180 {
		return fmt.Errorf("invalid bounding box: longitudes must lie within ±180")
	}
	return nil
}

// Contains reports whether other lies entirely inside b.
func (b BoundingBox) Contains(other BoundingBox) bool {
	return other.North <= b.North && other.South >= b.South &&
		other.East <= b.East && other.West >= b.West
}

// ContainsPoint reports whether p lies inside b.
func (b BoundingBox) ContainsPoint(p GeoPoint) bool {
	return p.Lat <= b.North && p.Lat >= b.South && p.Lng <= b.East && p.Lng >= b.West
}

// AreaSquareDegrees returns the box area in square degrees. Used only for
// region size validation, where a rough planar figure is enough.
func (b BoundingBox) AreaSquareDegrees() float64 {
	return (b.North - b.South) * (b.East - b.West)
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.North + b.South) / 2,
		Lng: (b.East + b.West) / 2,
	}
}
