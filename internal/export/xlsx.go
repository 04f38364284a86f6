package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/schema"
)

// SheetName is the worksheet WriteXLSX writes to.
const SheetName = "Records"

// WriteXLSX writes rs to a single-sheet workbook at path. Cells are stored as
// strings so postal codes keep their leading zeros.
func WriteXLSX(path string, rs *schema.RecordSet) (int, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range rs.Header {
		header.AddCell().SetString(schema.Clean(h))
	}

	for _, row := range rs.Rows {
		r := sheet.AddRow()
		for i := range rs.Header {
			v := ""
			if i < len(row) {
				v = schema.Clean(row[i])
			}
			r.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return 0, eris.Wrapf(err, "export: save %s", path)
	}

	zap.L().Info("xlsx written", zap.String("path", path), zap.Int("rows", len(rs.Rows)))
	return len(rs.Rows), nil
}
