package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/places-cli/internal/model"
)

func fp(f float64) *float64 { return &f }
func ip(i int) *int         { return &i }

func sampleRecords() []model.PlaceRecord {
	return []model.PlaceRecord{
		{
			ID:          "ChIJ-1",
			Name:        "מאפיית הכיכר",
			Address:     "Allenby 1, Tel Aviv",
			Lat:         fp(32.05),
			Lng:         fp(34.85),
			Rating:      fp(4.5),
			RatingCount: ip(127),
			Categories:  []string{"bakery", "food"},
			Status:      "OPERATIONAL",
			Website:     "https://example.co.il",
			Phone:       "03-1234567",
			MapsURI:     "https://maps.google.com/?cid=1",
		},
		{
			ID:   "ChIJ-2",
			Name: `Cafe "Central", downtown`,
		},
	}
}

func TestWriteCSV_BOMPrefix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\xEF\xBB\xBF")))
}

func TestWriteCSV_HeaderAndRowCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3) // header + 2 rows
	assert.Equal(t, "\ufeff"+strings.Join(Columns, ","), lines[0])
}

func TestWriteCSV_EscapesDelimiterQuoteNewline(t *testing.T) {
	var buf bytes.Buffer
	records := []model.PlaceRecord{{
		ID:      "x",
		Name:    `Cafe "Central", downtown`,
		Address: "line one\nline two",
	}}
	require.NoError(t, WriteCSV(&buf, records))

	out := buf.String()
	// Embedded quotes are doubled and the field is wrapped in quotes.
	assert.Contains(t, out, `"Cafe ""Central"", downtown"`)
	assert.Contains(t, out, "\"line one\nline two\"")
}

func TestWriteCSV_NilValuesRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []model.PlaceRecord{{ID: "only-id"}}))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff")))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "only-id", row[4])
	for _, i := range []int{2, 3, 5, 6} { // lat, lng, rating, count
		assert.Empty(t, row[i])
		assert.NotEqual(t, "null", row[i])
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff")))
	rows, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, len(records)+1)
	for i, rec := range records {
		assert.Equal(t, rec.Name, rows[i+1][0])
		assert.Equal(t, rec.ID, rows[i+1][4])
	}
}

func TestWriteCSV_CategoriesJoined(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	assert.Contains(t, buf.String(), "bakery|food")
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 8, 28, 13, 45, 9, 0, time.UTC)
	assert.Equal(t, "places_2026-08-28T13:45:09.csv", Filename(ts, "csv"))
	assert.Equal(t, "places_2026-08-28T13:45:09.xlsx", Filename(ts, "xlsx"))
}
