package pdftable

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Layout of the generated table page, in points.
const (
	tableTop   = 700.0
	rowHeight  = 20.0
	fontSize   = 10.0
	cellIndent = 4.0
)

var columnEdges = []float64{72, 172, 292, 412}

var doctorRows = [][]string{
	{"ID", "Vorname", "Name"},
	{"1", "Anna", "Schmidt"},
	{"2", "Ben", "Meyer"},
	{"3", "Clara", "Wagner"},
	{"4", "David", "Becker"},
	{"5", "Eva", "Hoffmann"},
	{"6", "Felix", "Koch"},
	{"7", "Greta", "Richter"},
}

// writeTablePDF writes a one-page PDF holding rows in Helvetica, one text
// show per cell, under a single-line title. Ruled pages get a full grid of
// stroked lines around every cell.
func writeTablePDF(t *testing.T, rows [][]string, ruled bool) string {
	t.Helper()

	var content bytes.Buffer
	fmt.Fprintf(&content, "BT /F1 14 Tf %.1f %.1f Td (Praxisliste) Tj ET\n", columnEdges[0], tableTop+30)
	for r, row := range rows {
		baseline := tableTop - float64(r)*rowHeight - 14
		for c, cell := range row {
			if cell == "" {
				continue
			}
			fmt.Fprintf(&content, "BT /F1 %.0f Tf %.1f %.1f Td (%s) Tj ET\n",
				fontSize, columnEdges[c]+cellIndent, baseline, pdfEscape(cell))
		}
	}
	if ruled {
		bottom := tableTop - float64(len(rows))*rowHeight
		left, right := columnEdges[0], columnEdges[len(columnEdges)-1]
		content.WriteString("0.5 w\n")
		for r := 0; r <= len(rows); r++ {
			y := tableTop - float64(r)*rowHeight
			fmt.Fprintf(&content, "%.1f %.1f m %.1f %.1f l S\n", left, y, right, y)
		}
		for _, x := range columnEdges {
			fmt.Fprintf(&content, "%.1f %.1f m %.1f %.1f l S\n", x, tableTop, x, bottom)
		}
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "liste.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

var pdfStringEscaper = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)

func pdfEscape(s string) string {
	return pdfStringEscaper.Replace(s)
}
