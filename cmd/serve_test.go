package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/places-cli/internal/config"
	"github.com/sells-group/places-cli/internal/search"
	"github.com/sells-group/places-cli/pkg/google"
)

// fakeUpstream serves canned Places API responses keyed by page token.
func fakeUpstream(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req google.TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		body, ok := pages[req.PageToken]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"unknown page token"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, pages map[string]string) http.Handler {
	t.Helper()
	upstream := fakeUpstream(t, pages)
	client := google.NewClient("test-key", google.WithBaseURL(upstream.URL))
	s := search.NewSearcher(client, search.Options{
		RPS:        1000,
		TokenDelay: time.Millisecond,
	})
	return newRouter(s, &config.Config{})
}

const pageOne = `{
	"places": [
		{"id": "p1", "displayName": {"text": "Cafe Rimon"}, "formattedAddress": "Luncz St 4, Jerusalem", "location": {"latitude": 31.78, "longitude": 35.21}, "rating": 4.2, "userRatingCount": 1500, "types": ["cafe", "food"]},
		{"id": "p2", "displayName": {"text": "Cafe Neto"}, "formattedAddress": "Jaffa St 97, Jerusalem"}
	],
	"nextPageToken": "tok-2"
}`

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestPlaces_SinglePage(t *testing.T) {
	router := newTestRouter(t, map[string]string{"": pageOne})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places?query=cafe", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []struct {
			PlaceID string `json:"place_id"`
			Name    string `json:"name"`
		} `json:"results"`
		NextPageToken string `json:"next_page_token"`
		Count         int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "p1", resp.Results[0].PlaceID)
	assert.Equal(t, "Cafe Rimon", resp.Results[0].Name)
	assert.Equal(t, "tok-2", resp.NextPageToken)
	assert.Equal(t, 2, resp.Count)
}

func TestPlaces_ContinuationToken(t *testing.T) {
	router := newTestRouter(t, map[string]string{
		"tok-2": `{"places": [{"id": "p3", "displayName": {"text": "Cafe Aroma"}}]}`,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places?pagetoken=tok-2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "p3")
	assert.Contains(t, rec.Body.String(), `"next_page_token":""`)
}

func TestPlaces_MissingQueryAndToken(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaces_PartialViewportRejected(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places?query=cafe&north=32.1&south=32.0", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "viewport")
}

func TestPlaces_UpstreamFailureIsBadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	t.Cleanup(upstream.Close)

	client := google.NewClient("test-key", google.WithBaseURL(upstream.URL))
	s := search.NewSearcher(client, search.Options{RPS: 1000, TokenDelay: time.Millisecond})
	router := newRouter(s, &config.Config{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places?query=cafe", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp struct {
		UpstreamStatus int `json:"upstream_status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusTooManyRequests, resp.UpstreamStatus)
}

func TestExport_CSVAttachment(t *testing.T) {
	router := newTestRouter(t, map[string]string{
		"": `{"places": [{"id": "p1", "displayName": {"text": "Cafe Rimon"}, "formattedAddress": "Luncz St 4"}]}`,
	})

	body, err := json.Marshal(map[string]any{
		"query":    "cafe",
		"viewport": map[string]float64{"north": 31.8, "south": 31.7, "east": 35.3, "west": 35.2},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/export", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="places_`))

	raw := rec.Body.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "csv must carry a UTF-8 BOM")
	assert.Contains(t, string(raw), "Cafe Rimon")
}

func TestExport_UnknownFormat(t *testing.T) {
	router := newTestRouter(t, nil)

	body := `{"query": "cafe", "format": "pdf"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport_BadBody(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
