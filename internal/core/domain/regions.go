package domain

import (
	"fmt"
	"sort"
)

// presetRegions are the named scan areas offered by the UI. Each resolves
// to a fixed bounding box; jobs store the resolved box so renaming or
// retuning a preset never changes an existing job's tile list.
var presetRegions = map[string]BoundingBox{
	"cahokia": {
		North: 38.8, South: 38.5, East: -89.9, West: -90.3,
	},
	"chaco-canyon": {
		North: 36.10, South: 35.95, East: -107.85, West: -108.05,
	},
	"mesa-verde": {
		North: 37.35, South: 37.13, East: -108.32, West: -108.57,
	},
	"poverty-point": {
		North: 32.68, South: 32.60, East: -91.37, West: -91.45,
	},
	"hopewell": {
		North: 39.42, South: 39.33, East: -82.95, West: -83.08,
	},
}

// ResolveRegion returns the bounding box for a named preset region.
func ResolveRegion(name string) (BoundingBox, error) {
	b, ok := presetRegions[name]
	if !ok {
		return BoundingBox{}, fmt.Errorf("unknown region %q", name)
	}
	return b, nil
}

// RegionNames lists the available preset regions in stable order.
func RegionNames() []string {
	names := make([]string, 0, len(presetRegions))
	for name := range presetRegions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
