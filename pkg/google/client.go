// Package google provides a Places API (New) text-search client.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// fieldMask lists the place fields requested from the API. Everything the
// canonical record carries must be named here or the API omits it.
const fieldMask = "places.id,places.displayName,places.formattedAddress," +
	"places.location,places.rating,places.userRatingCount,places.types," +
	"places.businessStatus,places.websiteUri,places.nationalPhoneNumber," +
	"places.googleMapsUri,nextPageToken"

// Client performs Google Places API operations.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Rectangle is a lat/lng-aligned bounding box.
type Rectangle struct {
	Low  LatLng `json:"low"`
	High LatLng `json:"high"`
}

// LocationRect restricts a search to a rectangle.
type LocationRect struct {
	Rectangle Rectangle `json:"rectangle"`
}

// TextSearchRequest is the Places Text Search request body. PageToken, when
// set, continues a prior search; the API ignores the other query parameters
// on continuation requests.
type TextSearchRequest struct {
	TextQuery           string        `json:"textQuery,omitempty"`
	LanguageCode        string        `json:"languageCode,omitempty"`
	RegionCode          string        `json:"regionCode,omitempty"`
	LocationRestriction *LocationRect `json:"locationRestriction,omitempty"`
	PageToken           string        `json:"pageToken,omitempty"`
}

// TextSearchResponse is the response from Places Text Search. An empty
// NextPageToken means the result set is exhausted.
type TextSearchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken"`
}

// Place is one raw place entry as returned by the API. Optional numeric
// fields are pointers so that "absent" survives decoding.
type Place struct {
	ID                  string       `json:"id"`
	DisplayName         *DisplayName `json:"displayName"`
	FormattedAddress    string       `json:"formattedAddress"`
	Location            *LatLng      `json:"location"`
	Rating              *float64     `json:"rating"`
	UserRatingCount     *int         `json:"userRatingCount"`
	Types               []string     `json:"types"`
	BusinessStatus      string       `json:"businessStatus"`
	WebsiteURI          string       `json:"websiteUri"`
	NationalPhoneNumber string       `json:"nationalPhoneNumber"`
	GoogleMapsURI       string       `json:"googleMapsUri"`
}

// DisplayName holds the place's localized display name.
type DisplayName struct {
	Text string `json:"text"`
}

// APIError is a non-success or unparseable response from the Places API.
// It carries the upstream HTTP status and raw body so callers can tell
// quota exhaustion from bad requests from transient failures.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google: upstream status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, tsReq TextSearchRequest) (*TextSearchResponse, error) {
	body, err := json.Marshal(tsReq)
	if err != nil {
		return nil, eris.Wrap(err, "google: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrap(&APIError{StatusCode: resp.StatusCode, Body: string(respBody)}, "google: text search")
	}

	var result TextSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		// An unparseable payload is an upstream failure; keep the raw body
		// for diagnostics.
		return nil, eris.Wrap(&APIError{StatusCode: resp.StatusCode, Body: string(respBody)}, "google: decode response")
	}

	return &result, nil
}
