package search

import (
	"github.com/sells-group/places-cli/internal/model"
	"github.com/sells-group/places-cli/pkg/google"
)

// Normalize maps one raw provider entry to the canonical record shape. The
// mapping is total: absent numerics stay nil, absent lists become empty,
// absent strings become "". Coordinates are copied only when the provider
// sent them, so an unknown location is nil rather than the equator.
func Normalize(p google.Place) model.PlaceRecord {
	r := model.PlaceRecord{
		ID:         p.ID,
		Address:    p.FormattedAddress,
		Categories: []string{},
		Status:     p.BusinessStatus,
		Website:    p.WebsiteURI,
		Phone:      p.NationalPhoneNumber,
		MapsURI:    p.GoogleMapsURI,
	}

	if p.DisplayName != nil {
		r.Name = p.DisplayName.Text
	}
	if p.Location != nil {
		lat, lng := p.Location.Latitude, p.Location.Longitude
		r.Lat, r.Lng = &lat, &lng
	}
	if p.Rating != nil {
		rating := *p.Rating
		r.Rating = &rating
	}
	if p.UserRatingCount != nil {
		count := *p.UserRatingCount
		r.RatingCount = &count
	}
	if len(p.Types) > 0 {
		r.Categories = append(r.Categories, p.Types...)
	}

	return r
}

// NormalizePage converts a raw provider response into a PageResult.
func NormalizePage(resp *google.TextSearchResponse) PageResult {
	page := PageResult{NextPageToken: resp.NextPageToken}
	page.Records = make([]model.PlaceRecord, 0, len(resp.Places))
	for _, p := range resp.Places {
		page.Records = append(page.Records, Normalize(p))
	}
	return page
}
