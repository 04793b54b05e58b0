package geo

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/places-cli/internal/model"
)

// InView returns the records whose coordinates fall inside the viewport.
// Records without a known location are excluded: they are still valid for
// aggregation and export, but cannot pass a spatial filter.
func InView(records []model.PlaceRecord, v model.Viewport) []model.PlaceRecord {
	b := v.Normalized()
	bounds := geom.NewBounds(geom.XY).SetCoords(
		geom.Coord{b.West, b.South},
		geom.Coord{b.East, b.North},
	)

	out := make([]model.PlaceRecord, 0, len(records))
	for _, r := range records {
		if !r.HasLocation() {
			continue
		}
		if bounds.OverlapsPoint(geom.XY, geom.Coord{*r.Lng, *r.Lat}) {
			out = append(out, r)
		}
	}
	return out
}
