package domain

import "math"

// MaxMercatorLatitude is the northern/southern limit of the Web-Mercator
// projection. Latitudes beyond it cannot be addressed by slippy-map tiles.
const MaxMercatorLatitude = 85.0511

// Tile addresses one slippy-map imagery cell. Origin (0,0) is the top-left
// of the world at the given zoom; x increases eastward, y southward.
type Tile struct {
	Zoom int `json:"zoom"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

// TileForPoint returns the tile containing the given coordinate at zoom.
func TileForPoint(lat, lng float64, zoom int) Tile {
	n := float64(int(1) << uint(zoom))
	latRad := lat * math.Pi / 180

	x := int(math.Floor((lng + 180) / 360 * n))
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))

	// Points exactly on the east/south edge of the world land one past the
	// last tile; clamp them back in.
	max := int(n) - 1
	if x > max {
		x = max
	}
	if x < 0 {
		x = 0
	}
	if y > max {
		y = max
	}
	if y < 0 {
		y = 0
	}
	return Tile{Zoom: zoom, X: x, Y: y}
}

// Bounds returns the exact geographic footprint of the tile, the inverse of
// TileForPoint. Used to fetch imagery for the tile and to geolocate
// detections inside it.
func (t Tile) Bounds() BoundingBox {
	n := float64(int(1) << uint(t.Zoom))

	west := float64(t.X)/n*360 - 180
	east := float64(t.X+1)/n*360 - 180
	north := tileYToLat(float64(t.Y), n)
	south := tileYToLat(float64(t.Y+1), n)

	return BoundingBox{North: north, South: south, East: east, West: west}
}

func tileYToLat(y, n float64) float64 {
	return math.Atan(math.Sinh(math.Pi*(1-2*y/n))) * 180 / math.Pi
}

// TileRange is the rectangle of tiles covering a bounding box at one zoom
// level. Iteration order is row-major: y from MinY to MaxY, x from MinX to
// MaxX inside each row. The scan resumption cursor depends on this ordering
// staying fixed.
type TileRange struct {
	Zoom int `json:"zoom"`
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

// TileRangeForBounds computes the tile rectangle covering b at zoom. MinY
// comes from the north edge and MaxY from the south edge because tile y
// grows southward.
func TileRangeForBounds(b BoundingBox, zoom int) TileRange {
	nw := TileForPoint(b.North, b.West, zoom)
	se := TileForPoint(b.South, b.East, zoom)

	return TileRange{
		Zoom: zoom,
		MinX: nw.X,
		MaxX: se.X,
		MinY: nw.Y,
		MaxY: se.Y,
	}
}

// Width returns the number of tile columns in the range.
func (r TileRange) Width() int {
	return r.MaxX - r.MinX + 1
}

// Height returns the number of tile rows in the range.
func (r TileRange) Height() int {
	return r.MaxY - r.MinY + 1
}

// Count returns the total number of tiles in the range.
func (r TileRange) Count() int {
	return r.Width() * r.Height()
}

// TileAt returns the tile at the given row-major linear index. The index is
// the number of tiles completed before it, so resuming a scan is a pure
// function of the persisted counter.
func (r TileRange) TileAt(index int) Tile {
	return Tile{
		Zoom: r.Zoom,
		X:    r.MinX + index%r.Width(),
		Y:    r.MinY + index/r.Width(),
	}
}

// IndexOf returns the row-major linear index of t, or -1 if t lies outside
// the range.
func (r TileRange) IndexOf(t Tile) int {
	if t.X < r.MinX || t.X > r.MaxX || t.Y < r.MinY || t.Y > r.MaxY {
		return -1
	}
	return (t.Y-r.MinY)*r.Width() + (t.X - r.MinX)
}

// Bounds returns the combined geographic footprint of the whole range. It
// always contains the box the range was derived from.
func (r TileRange) Bounds() BoundingBox {
	nw := Tile{Zoom: r.Zoom, X: r.MinX, Y: r.MinY}.Bounds()
	se := Tile{Zoom: r.Zoom, X: r.MaxX, Y: r.MaxY}.Bounds()
	return BoundingBox{North: nw.North, South: se.South, East: se.East, West: nw.West}
}
