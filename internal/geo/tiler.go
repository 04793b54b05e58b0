// Package geo splits viewports into provider-sized tiles and filters
// records against viewport bounds.
package geo

import (
	"math"

	"github.com/sells-group/places-cli/internal/model"
)

const (
	// degPerMeterLat converts meters to latitude degrees (1 deg ~ 111 km).
	degPerMeterLat = 1.0 / 111_000.0
	// metersPerDegLng is the longitude scale at the equator; it shrinks
	// with cos(latitude) toward the poles.
	metersPerDegLng = 111_320.0
	// minCosLat guards the longitude scale against division overflow for
	// viewports at the poles.
	minCosLat = 1e-6
)

// Tile splits a viewport into a row-major grid (south to north, west to
// east) of tiles no larger than cellMeters on a side in approximate ground
// distance. Tiles cover the viewport exactly: the last row and column are
// clamped to the original bounds. A viewport already smaller than one cell
// yields a single tile equal to the input; a zero-area viewport yields one
// zero-area tile.
func Tile(v model.Viewport, cellMeters float64) []model.Viewport {
	b := v.Normalized()
	if cellMeters <= 0 {
		return []model.Viewport{b}
	}

	midLat := (b.North + b.South) / 2
	cosLat := math.Cos(midLat * math.Pi / 180)
	if cosLat < minCosLat {
		cosLat = minCosLat
	}

	stepLat := cellMeters * degPerMeterLat
	stepLng := cellMeters / (metersPerDegLng * cosLat)

	var tiles []model.Viewport
	for lat := b.South; lat < b.North; lat += stepLat {
		top := math.Min(lat+stepLat, b.North)
		for lng := b.West; lng < b.East; lng += stepLng {
			right := math.Min(lng+stepLng, b.East)
			tiles = append(tiles, model.Viewport{
				South: lat,
				North: top,
				West:  lng,
				East:  right,
			})
		}
	}

	// Degenerate input produces no loop iterations; callers still expect
	// one (zero-area) tile.
	if len(tiles) == 0 {
		tiles = []model.Viewport{b}
	}
	return tiles
}
