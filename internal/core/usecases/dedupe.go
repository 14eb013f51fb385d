package usecases

import (
	"context"
	"fmt"

	"github.com/loross14/lost-and-found/internal/core/ports"
)

// DedupeGate suppresses candidates that land within a small radius of a
// site we already know about: either an entry of the reference register or
// a previously found, human-verified potential site. It runs once per
// accepted detection, not once per tile.
type DedupeGate struct {
	historic     ports.HistoricSiteRepository
	potential    ports.PotentialSiteRepository
	radiusMeters float64
}

// NewDedupeGate creates a gate with the given suppression radius in meters.
func NewDedupeGate(historic ports.HistoricSiteRepository, potential ports.PotentialSiteRepository, radiusMeters float64) *DedupeGate {
	return &DedupeGate{historic: historic, potential: potential, radiusMeters: radiusMeters}
}

// IsDuplicate reports whether a known or verified site already exists within
// the gate's radius of the coordinate.
func (g *DedupeGate) IsDuplicate(ctx context.Context, lat, lng float64) (bool, error) {
	known, err := g.historic.ExistsNear(ctx, lat, lng, g.radiusMeters)
	if err != nil {
		return false, fmt.Errorf("query historic sites: %w", err)
	}
	if known {
		return true, nil
	}

	verified, err := g.potential.ExistsNearbyVerified(ctx, lat, lng, g.radiusMeters)
	if err != nil {
		return false, fmt.Errorf("query verified sites: %w", err)
	}
	return verified, nil
}
