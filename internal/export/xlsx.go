package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/places-cli/internal/model"
)

// WriteXLSX renders records as a single-sheet spreadsheet with the same
// columns as the CSV table. XLSX is UTF-8 throughout, so no BOM games are
// needed for right-to-left text.
func WriteXLSX(w io.Writer, records []model.PlaceRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Places")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, r := range records {
		row := sheet.AddRow()
		for _, cell := range Row(r) {
			row.AddCell().SetString(cell)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}
