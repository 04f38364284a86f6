package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/praxis-map/internal/directory"
	"github.com/sells-group/praxis-map/internal/pdftable"
	"github.com/sells-group/praxis-map/internal/schema"
)

var header = []string{"ID", "Fachgebiet", "Schwerpunkte / Angebote / Bemerkungen", "Vorname", "Name", "Straße", "PLZ", "Ort", "Bemerkung", "Telefon"}

func sampleTables() []pdftable.Table {
	return []pdftable.Table{
		{Page: 1, Rows: [][]string{
			header,
			{"1", "Allgemeinmedizin", "", "Anna", "Müller", "Chariteplatz  1", "10117", "Berlin", "", "030 1"},
		}},
		{Page: 2, Rows: [][]string{
			// Short row: padded with empty cells.
			{"2", "Innere Medizin", "Diabetes", "Jonas", "Weber", "Alexanderplatz 3", "10178", "Berlin"},
			// Wide row: extra cells dropped.
			{"3", "HNO", "", "Lea", "Schmidt", "Unter den Linden 5", "10117", "Berlin", "", "030 3", "x", "y"},
		}},
	}
}

func TestExtractStage_WritesNormalizedCSV(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "liste.pdf", "%PDF-1.4")
	csvPath := filepath.Join(dir, "out.csv")
	ex := &fakeExtractor{tables: sampleTables()}

	res, err := ExtractStage(context.Background(), ExtractConfig{
		Source:   pdf,
		CSVPath:  csvPath,
		Pages:    "all",
		Strategy: pdftable.StrategyAuto,
	}, ex)
	require.NoError(t, err)

	assert.Equal(t, pdf, ex.path)
	assert.Equal(t, "all", ex.opts.Pages)
	assert.Equal(t, 2, res.Tables)
	assert.Equal(t, 3, res.Rows)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, schema.Default().Columns, res.Columns)
	assert.Empty(t, res.XLSXPath)

	d, err := directory.Load(context.Background(), csvPath, nil)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	assert.Equal(t, schema.Default().Columns, d.Header)
	assert.Equal(t, "Chariteplatz 1, 10117 Berlin, Deutschland", d.Entries[0].Address)
	assert.Equal(t, "Diabetes", d.Entries[1].Get("Schwerpunkte / Angebote / Bemerkungen"))
	assert.Equal(t, "", d.Entries[1].Get("Bemerkung"))
	assert.Equal(t, "Lea", d.Entries[2].Get("Vorname"))
}

func TestExtractStage_WritesXLSX(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "liste.pdf", "%PDF-1.4")
	xlsxPath := filepath.Join(dir, "out.xlsx")

	res, err := ExtractStage(context.Background(), ExtractConfig{
		Source:   pdf,
		CSVPath:  filepath.Join(dir, "out.csv"),
		XLSXPath: xlsxPath,
	}, &fakeExtractor{tables: sampleTables()})
	require.NoError(t, err)
	assert.Equal(t, xlsxPath, res.XLSXPath)

	d, err := directory.Load(context.Background(), xlsxPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
}

func TestExtractStage_NoTablesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "liste.pdf", "%PDF-1.4")
	csvPath := filepath.Join(dir, "out.csv")

	_, err := ExtractStage(context.Background(), ExtractConfig{Source: pdf, CSVPath: csvPath},
		&fakeExtractor{err: pdftable.ErrNoTables})
	require.Error(t, err)
	assert.True(t, eris.Is(err, pdftable.ErrNoTables))

	_, statErr := os.Stat(csvPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractStage_EmptyFirstTable(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "liste.pdf", "%PDF-1.4")

	_, err := ExtractStage(context.Background(), ExtractConfig{Source: pdf, CSVPath: filepath.Join(dir, "out.csv")},
		&fakeExtractor{tables: []pdftable.Table{{Page: 1}}})
	require.Error(t, err)
	assert.True(t, eris.Is(err, schema.ErrNoHeader))
}

func TestExtractStage_MissingSource(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{tables: sampleTables()}

	_, err := ExtractStage(context.Background(), ExtractConfig{
		Source:  filepath.Join(dir, "missing.pdf"),
		CSVPath: filepath.Join(dir, "out.csv"),
	}, ex)
	require.Error(t, err)
	assert.Empty(t, ex.path, "extractor must not run")
}

func TestExtractStage_RequiresCSVPath(t *testing.T) {
	_, err := ExtractStage(context.Background(), ExtractConfig{Source: "x.pdf"}, &fakeExtractor{})
	assert.Error(t, err)
}

func TestExtractStage_CustomSchema(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "liste.pdf", "%PDF-1.4")
	s := schema.Default()
	s.Columns = []string{"Name", "Telefon", "Fehlt"}

	res, err := ExtractStage(context.Background(), ExtractConfig{
		Source:  pdf,
		CSVPath: filepath.Join(dir, "out.csv"),
		Schema:  s,
	}, &fakeExtractor{tables: sampleTables()})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Telefon"}, res.Columns)

	data, err := os.ReadFile(res.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, "Name,Telefon\nMüller,030 1\nWeber,\nSchmidt,030 3\n", string(data))
}

func TestExtractStage_ReportsMissingColumns(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "liste.pdf", "%PDF-1.4")
	ex := &fakeExtractor{tables: []pdftable.Table{{Page: 1, Rows: [][]string{
		{"ID", "Vorname", "Name", "Straße", "PLZ", "Ort"},
		{"1", "Anna", "Müller", "Chariteplatz 1", "10117", "Berlin"},
	}}}}

	res, err := ExtractStage(context.Background(), ExtractConfig{
		Source:  pdf,
		CSVPath: filepath.Join(dir, "out.csv"),
	}, ex)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fachgebiet", "Schwerpunkte / Angebote / Bemerkungen", "Bemerkung"}, res.Missing)
	assert.Equal(t, []string{"ID", "Vorname", "Name", "Straße", "PLZ", "Ort"}, res.Columns)
}

func TestMissingColumns(t *testing.T) {
	rs := &schema.RecordSet{Header: []string{"ID", "PLZ"}}
	assert.Equal(t, []string{"Ort"}, missingColumns(rs, []string{"PLZ", "Ort", "ID"}))
	assert.Empty(t, missingColumns(rs, []string{"ID"}))
}
