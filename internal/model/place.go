package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// Viewport is a rectangular geographic region in decimal degrees.
type Viewport struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	West  float64 `json:"west" yaml:"west"`
}

// Normalized returns the viewport with north/south and east/west swapped
// into min/max order so that North >= South and East >= West.
func (v Viewport) Normalized() Viewport {
	return Viewport{
		North: math.Max(v.North, v.South),
		South: math.Min(v.North, v.South),
		East:  math.Max(v.East, v.West),
		West:  math.Min(v.East, v.West),
	}
}

// Validate rejects viewports with non-finite or out-of-range coordinates.
func (v Viewport) Validate() error {
	for _, f := range []float64{v.North, v.South, v.East, v.West} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return eris.New("viewport: coordinates must be finite")
		}
	}
	if math.Abs(v.North) > 90 || math.Abs(v.South) > 90 {
		return eris.New("viewport: latitude out of range [-90, 90]")
	}
	if math.Abs(v.East) > 180 || math.Abs(v.West) > 180 {
		return eris.New("viewport: longitude out of range [-180, 180]")
	}
	return nil
}

// IsZeroArea reports whether the viewport spans no area after normalization.
func (v Viewport) IsZeroArea() bool {
	n := v.Normalized()
	return n.North == n.South || n.East == n.West
}

// PlaceRecord is the canonical, provider-agnostic representation of one
// point of interest. ID is the dedup key: two records with equal non-empty
// IDs are the same entity. Numeric pointers encode "unknown"; coordinates
// are nil, never 0, when the provider omitted them.
type PlaceRecord struct {
	ID          string   `json:"place_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Rating      *float64 `json:"rating"`
	RatingCount *int     `json:"user_ratings_total"`
	Categories  []string `json:"types"`
	Status      string   `json:"business_status,omitempty"`
	Website     string   `json:"website,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	MapsURI     string   `json:"maps_uri,omitempty"`
}

// HasLocation reports whether both coordinates are known.
func (r PlaceRecord) HasLocation() bool {
	return r.Lat != nil && r.Lng != nil
}

// SearchRequest describes one search/export operation.
type SearchRequest struct {
	Query    string   `json:"query"`
	Viewport Viewport `json:"viewport"`
	Language string   `json:"language"`
	Region   string   `json:"region"`

	// PageCap bounds pages fetched per tile; 0 means paginate to exhaustion.
	PageCap int `json:"page_cap,omitempty"`
	// MaxResults bounds the aggregate size; 0 means unbounded.
	MaxResults int `json:"max_results,omitempty"`
	// CellMeters splits the viewport into tiles of roughly this ground size.
	// 0 means the viewport itself is the single tile.
	CellMeters float64 `json:"cell_meters,omitempty"`
}
