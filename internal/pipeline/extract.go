package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/export"
	"github.com/sells-group/praxis-map/internal/fetcher"
	"github.com/sells-group/praxis-map/internal/metrics"
	"github.com/sells-group/praxis-map/internal/pdftable"
	"github.com/sells-group/praxis-map/internal/schema"
)

// TableExtractor finds tables in a local PDF. *pdftable.Extractor satisfies it.
type TableExtractor interface {
	Extract(ctx context.Context, path string, opts pdftable.Options) ([]pdftable.Table, error)
}

// ExtractConfig configures ExtractStage.
type ExtractConfig struct {
	// Source is a local path or an http(s):// or ftp:// URL.
	Source   string
	CSVPath  string
	XLSXPath string
	Pages    string
	Strategy pdftable.Strategy
	Schema   *schema.Schema
	Fetch    fetcher.SourceOptions
	Metrics  *metrics.Recorder
}

// ExtractResult summarizes a finished extraction.
type ExtractResult struct {
	RunID   string
	Tables  int
	Rows    int
	Columns []string
	// Missing lists allow-listed columns the tables did not carry.
	Missing  []string
	CSVPath  string
	XLSXPath string
	Elapsed  time.Duration
}

// ExtractStage resolves the source PDF, extracts and normalizes its tables
// and writes the record set as CSV (and XLSX when configured). Nothing is
// written when no table is found.
func ExtractStage(ctx context.Context, cfg ExtractConfig, ex TableExtractor) (*ExtractResult, error) {
	log, runID := newRunLogger("extract")
	start := time.Now()

	if cfg.CSVPath == "" {
		return nil, eris.New("pipeline: csv path is required")
	}
	s := cfg.Schema
	if s == nil {
		s = schema.Default()
	}

	src, err := fetcher.Resolve(ctx, cfg.Source, cfg.Fetch)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: resolve pdf")
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("cleanup failed", zap.Error(err))
		}
	}()

	log.Info("extracting tables", zap.String("source", cfg.Source), zap.String("pages", cfg.Pages))

	tables, err := ex.Extract(ctx, src.Path, pdftable.Options{Pages: cfg.Pages, Strategy: cfg.Strategy})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: extract tables")
	}

	rs, err := schema.Normalize(pdftable.Grids(tables))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: normalize")
	}
	projected := rs.Project(s.Columns)
	missing := missingColumns(projected, s.Columns)
	if len(missing) > 0 {
		log.Warn("allow-listed columns missing from header",
			zap.Strings("missing", missing), zap.Strings("header", rs.Header))
	}
	if lost := missingColumns(projected, s.RequiredAddressColumns()); len(lost) > 0 {
		log.Warn("address columns missing, the map stage will reject this csv", zap.Strings("columns", lost))
	}

	rows, err := export.WriteCSVFile(cfg.CSVPath, projected)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: write csv")
	}

	res := &ExtractResult{
		RunID:   runID,
		Tables:  len(tables),
		Rows:    rows,
		Columns: projected.Header,
		Missing: missing,
		CSVPath: cfg.CSVPath,
	}

	if cfg.XLSXPath != "" {
		if _, err := export.WriteXLSX(cfg.XLSXPath, projected); err != nil {
			return nil, eris.Wrap(err, "pipeline: write xlsx")
		}
		res.XLSXPath = cfg.XLSXPath
	}

	res.Elapsed = time.Since(start)
	cfg.Metrics.SetExtracted(res.Tables, res.Rows)
	cfg.Metrics.StageDone("extract", res.Elapsed)
	log.Info("extraction complete",
		zap.Int("tables", res.Tables),
		zap.Int("rows", res.Rows),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func missingColumns(rs *schema.RecordSet, cols []string) []string {
	var out []string
	for _, col := range cols {
		if rs.Column(col) < 0 {
			out = append(out, col)
		}
	}
	return out
}
