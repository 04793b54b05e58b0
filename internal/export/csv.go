// Package export serializes aggregated place records into downloadable
// tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-cli/internal/model"
)

// utf8BOM marks the output as UTF-8 for consumers with locale-detection
// heuristics (spreadsheet apps opening right-to-left text).
const utf8BOM = "\ufeff"

// categorySep joins category lists inside a single cell. It must not occur
// in provider category identifiers.
const categorySep = "|"

// Columns is the fixed, ordered CSV schema.
var Columns = []string{
	"name",
	"address",
	"lat",
	"lng",
	"place_id",
	"rating",
	"user_ratings_total",
	"types",
	"business_status",
	"website",
	"phone",
	"maps_uri",
}

// WriteCSV renders records as a BOM-prefixed CSV table with the fixed
// column order. Absent values render as empty cells, never as "null".
func WriteCSV(w io.Writer, records []model.PlaceRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return eris.Wrap(err, "export: write BOM")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush")
	}
	return nil
}

// Row maps one record to its CSV cells in Columns order.
func Row(r model.PlaceRecord) []string {
	return []string{
		r.Name,
		r.Address,
		floatCell(r.Lat),
		floatCell(r.Lng),
		r.ID,
		floatCell(r.Rating),
		intCell(r.RatingCount),
		strings.Join(r.Categories, categorySep),
		r.Status,
		r.Website,
		r.Phone,
		r.MapsURI,
	}
}

// Filename suggests a download name embedding the operation timestamp.
func Filename(t time.Time, ext string) string {
	return fmt.Sprintf("places_%s.%s", t.UTC().Format("2006-01-02T15:04:05"), ext)
}

func floatCell(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func intCell(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
