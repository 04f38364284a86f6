package schema

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// ErrNoHeader is returned when the first table has no rows to take a header from.
var ErrNoHeader = eris.New("schema: first table has no header row")

// RecordSet is a rectangular table of cleaned strings. Every row has exactly
// len(Header) values.
type RecordSet struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (rs *RecordSet) Len() int { return len(rs.Rows) }

// Clean composes the string to NFC, collapses whitespace runs to a single space
// and trims both ends. Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Normalize concatenates tables under the header taken from the first row of
// the first table. Rows of every table are padded with empty strings or
// truncated to the header width by position; names are never matched.
func Normalize(tables [][][]string) (*RecordSet, error) {
	if len(tables) == 0 || len(tables[0]) == 0 {
		return nil, ErrNoHeader
	}

	header := cleanRow(tables[0][0])
	rs := &RecordSet{Header: header}

	for idx, table := range tables {
		rows := table
		if idx == 0 {
			rows = table[1:]
		}
		for _, row := range rows {
			rs.Rows = append(rs.Rows, fitWidth(cleanRow(row), len(header)))
		}
	}

	return rs, nil
}

// Project keeps only the allow-listed columns that exist in the header, in
// header order. Missing columns are skipped silently. When the header repeats
// a name, the first occurrence wins.
func (rs *RecordSet) Project(allow []string) *RecordSet {
	allowed := make(map[string]bool, len(allow))
	for _, c := range allow {
		allowed[c] = true
	}

	var idx []int
	seen := make(map[string]bool)
	out := &RecordSet{}
	for i, name := range rs.Header {
		if !allowed[name] || seen[name] {
			continue
		}
		seen[name] = true
		idx = append(idx, i)
		out.Header = append(out.Header, name)
	}

	out.Rows = make([][]string, len(rs.Rows))
	for r, row := range rs.Rows {
		projected := make([]string, len(idx))
		for j, i := range idx {
			projected[j] = row[i]
		}
		out.Rows[r] = projected
	}

	return out
}

// Column returns the index of name in the header, or -1.
func (rs *RecordSet) Column(name string) int {
	for i, h := range rs.Header {
		if h == name {
			return i
		}
	}
	return -1
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = Clean(cell)
	}
	return out
}

// fitWidth pads row with empty strings or truncates it to width.
func fitWidth(row []string, width int) []string {
	if len(row) > width {
		return row[:width]
	}
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
