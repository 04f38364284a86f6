package pipeline

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReportRow is one line of the geocode report: the outcome for a single
// directory entry, matched or not.
type ReportRow struct {
	ID        string  `csv:"id" json:"id"`
	Name      string  `csv:"name" json:"name"`
	Address   string  `csv:"address" json:"address"`
	Status    string  `csv:"status" json:"status"`
	Mapped    bool    `csv:"mapped" json:"mapped"`
	Latitude  float64 `csv:"latitude" json:"latitude"`
	Longitude float64 `csv:"longitude" json:"longitude"`
	Quality   string  `csv:"quality" json:"quality,omitempty"`
	Source    string  `csv:"source" json:"source,omitempty"`
	Error     string  `csv:"error" json:"error,omitempty"`
}

// WriteReport writes rows to path as CSV with a header.
func WriteReport(path string, rows []ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "pipeline: create report %s", path)
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "pipeline: marshal report")
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "pipeline: close report %s", path)
	}
	zap.L().Info("geocode report written", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) ([]ReportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: open report %s", path)
	}
	defer f.Close() //nolint:errcheck

	var rows []ReportRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse report")
	}
	return rows, nil
}
