package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/parse"
)

// WriteXLSX emits the feed as a single-sheet workbook with the fixed
// column order. Some downstream consumers live in Excel; this keeps them
// off hand-edited copies of the CSV.
func WriteXLSX(path string, records []model.CanonicalRecord) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Roadmap")
	if err != nil {
		return eris.Wrap(err, "report: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range parse.TableHeader {
		header.AddCell().SetString(col)
	}
	for _, rec := range records {
		row := sheet.AddRow()
		for _, cell := range FeedRow(rec) {
			row.AddCell().SetString(cell)
		}
	}

	return eris.Wrapf(wb.Save(path), "report: save xlsx %s", path)
}
