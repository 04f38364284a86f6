// Package export writes normalized record sets to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/schema"
)

// WriteCSV writes rs to w as UTF-8 CSV with a header row and no index column.
// Every value is cleaned again on the way out. Returns the number of data rows.
func WriteCSV(w io.Writer, rs *schema.RecordSet) (int, error) {
	cw := csv.NewWriter(w)

	header := make([]string, len(rs.Header))
	for i, h := range rs.Header {
		header[i] = schema.Clean(h)
	}
	if err := cw.Write(header); err != nil {
		return 0, eris.Wrap(err, "export: write csv header")
	}

	record := make([]string, len(header))
	for n, row := range rs.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = schema.Clean(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return n, eris.Wrapf(err, "export: write csv row %d", n+1)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, eris.Wrap(err, "export: flush csv")
	}
	return len(rs.Rows), nil
}

// WriteCSVFile creates path and writes rs into it.
func WriteCSVFile(path string, rs *schema.RecordSet) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create %s", path)
	}

	n, err := WriteCSV(f, rs)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = eris.Wrapf(closeErr, "export: close %s", path)
	}
	if err != nil {
		return n, err
	}

	zap.L().Info("csv written", zap.String("path", path), zap.Int("rows", n))
	return n, nil
}
