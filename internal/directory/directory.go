// Package directory reads the extracted record CSV and derives a postal
// address for each practice.
package directory

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/fetcher"
	"github.com/sells-group/praxis-map/internal/schema"
)

// ErrMissingColumn is returned when an address column is absent from the header.
var ErrMissingColumn = eris.New("directory: missing required column")

// Entry is one record plus its derived address.
type Entry struct {
	Fields  map[string]string
	Address string
}

// Get returns the value of column, or "".
func (e Entry) Get(column string) string {
	return e.Fields[column]
}

// Directory is the loaded record set.
type Directory struct {
	Header  []string
	Entries []Entry
	schema  *schema.Schema
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.Entries) }

// ID returns the entry's identifier column value, or "".
func (d *Directory) ID(e Entry) string {
	return strings.TrimSpace(e.Get(d.schema.Address.ID))
}

// DisplayName joins first and last name with a space.
func (d *Directory) DisplayName(e Entry) string {
	first := strings.TrimSpace(e.Get(d.schema.Address.FirstName))
	last := strings.TrimSpace(e.Get(d.schema.Address.LastName))
	return strings.TrimSpace(first + " " + last)
}

// BuildAddress formats "street, postal_code city, country".
func BuildAddress(street, postalCode, city, country string) string {
	return strings.TrimSpace(street) + ", " +
		strings.TrimSpace(postalCode) + " " + strings.TrimSpace(city) + ", " +
		strings.TrimSpace(country)
}

// Load reads a CSV (or .xlsx) record file. A nil schema means schema.Default().
func Load(ctx context.Context, path string, s *schema.Schema) (*Directory, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		headerCh := make(chan []string, 1)
		rowCh, errCh := fetcher.StreamXLSX(ctx, path, fetcher.XLSXOptions{HasHeader: true, HeaderCh: headerCh})
		return collect(path, s, headerCh, rowCh, errCh)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "directory: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Read(ctx, f, s)
}

// Read parses CSV records from r.
func Read(ctx context.Context, r io.Reader, s *schema.Schema) (*Directory, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{HasHeader: true, HeaderCh: headerCh})
	return collect("csv", s, headerCh, rowCh, errCh)
}

func collect(source string, s *schema.Schema, headerCh chan []string, rowCh <-chan []string, errCh <-chan error) (*Directory, error) {
	if s == nil {
		s = schema.Default()
	}

	rows, err := fetcher.Drain(rowCh, errCh)
	if err != nil {
		return nil, eris.Wrapf(err, "directory: read %s", source)
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
	}
	if len(header) == 0 {
		return nil, eris.Wrapf(ErrMissingColumn, "directory: %s has no header", source)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, col := range s.RequiredAddressColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Wrapf(ErrMissingColumn, "directory: %s lacks %s", source, strings.Join(missing, ", "))
	}

	d := &Directory{Header: header, Entries: make([]Entry, 0, len(rows)), schema: s}
	for _, row := range rows {
		fields := make(map[string]string, len(index))
		for name, i := range index {
			if i < len(row) {
				fields[name] = row[i]
			} else {
				fields[name] = ""
			}
		}
		d.Entries = append(d.Entries, Entry{
			Fields: fields,
			Address: BuildAddress(
				fields[s.Address.Street],
				fields[s.Address.PostalCode],
				fields[s.Address.City],
				s.Address.Country,
			),
		})
	}

	zap.L().Debug("directory loaded", zap.String("source", source), zap.Int("entries", len(d.Entries)))
	return d, nil
}
