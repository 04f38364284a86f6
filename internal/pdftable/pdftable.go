// Package pdftable detects tables in PDF documents. Ruling-line (lattice)
// detection runs first; whitespace alignment (stream) detection is the fallback
// when lattice fails or finds nothing.
package pdftable

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoTables is returned when no strategy finds a table on any page.
var ErrNoTables = eris.New("pdftable: no tables detected on any page")

// Strategy selects the detection approach.
type Strategy string

// Supported strategies.
const (
	StrategyAuto    Strategy = "auto"
	StrategyLattice Strategy = "lattice"
	StrategyStream  Strategy = "stream"
)

// ParseStrategy converts a config value to a Strategy. Empty means auto.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyLattice:
		return StrategyLattice, nil
	case StrategyStream:
		return StrategyStream, nil
	default:
		return "", eris.Errorf("pdftable: unknown strategy %q", s)
	}
}

// Table is one detected table region.
type Table struct {
	Page int
	Rows [][]string
}

// Options control a single extraction.
type Options struct {
	// Pages is a page selection such as "all", "1-3,5" or "4-".
	Pages    string
	Strategy Strategy
}

// detectFunc finds tables on one page.
type detectFunc func(ctx context.Context, page *Page) ([]Table, error)

// Extractor runs preflight, page loading and table detection.
type Extractor struct {
	open      func(path string) (Document, error)
	preflight func(path string) (int, error)
	lattice   detectFunc
	stream    detectFunc
}

// NewExtractor returns an Extractor backed by pdfcpu validation and tabula
// page parsing.
func NewExtractor() *Extractor {
	return &Extractor{
		open:      OpenDocument,
		preflight: Preflight,
		lattice:   detectLattice,
		stream:    detectStream,
	}
}

// Extract returns the tables of the selected pages in page order.
func (e *Extractor) Extract(ctx context.Context, path string, opts Options) ([]Table, error) {
	log := zap.L().With(zap.String("pdf", path))

	count, err := e.preflight(path)
	if err != nil {
		return nil, err
	}

	selected, err := ParsePages(opts.Pages, count)
	if err != nil {
		return nil, err
	}

	doc, err := e.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close() //nolint:errcheck

	readable, err := doc.PageCount()
	if err != nil {
		return nil, err
	}
	if readable != count {
		log.Warn("reader and validator disagree on page count",
			zap.Int("validator", count),
			zap.Int("reader", readable),
		)
	}

	pages := make([]*Page, 0, len(selected))
	for _, n := range selected {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pdftable: load pages")
		}
		p, err := doc.Page(n)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}

	log.Debug("pdf loaded", zap.Int("page_count", count), zap.Int("selected", len(pages)))

	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}

	var found []Table
	used := strategy
	switch strategy {
	case StrategyLattice:
		found, err = e.run(ctx, pages, e.lattice)
	case StrategyStream:
		found, err = e.run(ctx, pages, e.stream)
	case StrategyAuto:
		used = StrategyLattice
		found, err = e.run(ctx, pages, e.lattice)
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "pdftable: lattice")
		}
		if err != nil || len(found) == 0 {
			log.Warn("lattice detection found no tables, falling back to stream", zap.Error(err))
			used = StrategyStream
			found, err = e.run(ctx, pages, e.stream)
		}
	default:
		return nil, eris.Errorf("pdftable: unknown strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNoTables
	}

	log.Info("tables extracted",
		zap.String("strategy", string(used)),
		zap.Int("tables", len(found)),
	)
	return found, nil
}

func (e *Extractor) run(ctx context.Context, pages []*Page, detect detectFunc) ([]Table, error) {
	var out []Table
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tables, err := detect(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, tables...)
	}
	return out, nil
}

// Grids strips the page numbers, leaving the cell grids in order.
func Grids(tables []Table) [][][]string {
	out := make([][][]string, len(tables))
	for i, t := range tables {
		out[i] = t.Rows
	}
	return out
}

var cellReplacer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// cellText turns line breaks inside a cell into spaces.
func cellText(s string) string {
	return strings.TrimSpace(cellReplacer.Replace(s))
}
