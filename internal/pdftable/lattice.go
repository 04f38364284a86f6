package pdftable

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/tables"
)

// sameLineTolerance is the vertical distance (points) under which two
// fragments in a cell are read as the same text line.
const sameLineTolerance = 2.0

// detectLattice finds tables bounded by ruling lines. Every grid hypothesis
// from the page's vector graphics becomes a table; text fragments are placed in
// the cell containing their center.
func detectLattice(_ context.Context, page *Page) ([]Table, error) {
	if len(page.Content) == 0 {
		return nil, nil
	}

	ge := graphicsstate.NewGraphicsExtractor()
	if err := ge.ExtractFromBytes(page.Content); err != nil {
		return nil, eris.Wrapf(err, "pdftable: lattice graphics on page %d", page.Number)
	}

	result := tables.DetectGrids(ge)

	var out []Table
	for _, g := range distinctGrids(result.Hypotheses) {
		rows := fillGrid(g, page.Fragments)
		if !hasText(rows) {
			continue
		}
		out = append(out, Table{Page: page.Number, Rows: rows})
	}
	return out, nil
}

// distinctGrids drops hypotheses that mostly overlap a more confident one and
// orders the rest top-to-bottom, then left-to-right. Input is expected sorted
// by descending confidence.
func distinctGrids(hyps []*tables.GridHypothesis) []*tables.GridHypothesis {
	var kept []*tables.GridHypothesis
	for _, h := range hyps {
		if h == nil || len(h.HorizontalLines) < 2 || len(h.VerticalLines) < 2 {
			continue
		}
		dup := false
		for _, k := range kept {
			if overlaps(h, k) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, h)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		ti, tj := kept[i].BBox.Top(), kept[j].BBox.Top()
		if math.Abs(ti-tj) > sameLineTolerance {
			return ti > tj
		}
		return kept[i].BBox.Left() < kept[j].BBox.Left()
	})
	return kept
}

func overlaps(a, b *tables.GridHypothesis) bool {
	inter := a.BBox.Intersection(b.BBox).Area()
	smaller := math.Min(a.BBox.Area(), b.BBox.Area())
	if smaller <= 0 {
		return false
	}
	return inter > 0.5*smaller
}

// fillGrid assigns fragments to the cells of g. HorizontalLines are Y values in
// descending order, VerticalLines X values in ascending order.
func fillGrid(g *tables.GridHypothesis, frags []Fragment) [][]string {
	ys := g.HorizontalLines
	xs := g.VerticalLines
	nRows, nCols := len(ys)-1, len(xs)-1
	if nRows < 1 || nCols < 1 {
		return nil
	}

	cells := make([][][]Fragment, nRows)
	for r := range cells {
		cells[r] = make([][]Fragment, nCols)
	}

	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		cx := f.X + f.Width/2
		cy := f.Y + f.Height/2

		r := rowIndex(ys, cy)
		c := colIndex(xs, cx)
		if r < 0 || c < 0 {
			continue
		}
		cells[r][c] = append(cells[r][c], f)
	}

	rows := make([][]string, nRows)
	for r := range cells {
		rows[r] = make([]string, nCols)
		for c, cf := range cells[r] {
			rows[r][c] = joinFragments(cf)
		}
	}
	return rows
}

// rowIndex returns r such that ys[r] >= y > ys[r+1], or -1.
func rowIndex(ys []float64, y float64) int {
	for r := 0; r+1 < len(ys); r++ {
		if y <= ys[r] && y > ys[r+1] {
			return r
		}
	}
	return -1
}

// colIndex returns c such that xs[c] <= x < xs[c+1], or -1.
func colIndex(xs []float64, x float64) int {
	for c := 0; c+1 < len(xs); c++ {
		if x >= xs[c] && x < xs[c+1] {
			return c
		}
	}
	return -1
}

// joinFragments reads fragments in top-to-bottom, left-to-right order.
func joinFragments(frags []Fragment) string {
	if len(frags) == 0 {
		return ""
	}
	sort.SliceStable(frags, func(i, j int) bool {
		if math.Abs(frags[i].Y-frags[j].Y) > sameLineTolerance {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})

	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		parts = append(parts, cellText(f.Text))
	}
	return strings.Join(parts, " ")
}

func hasText(rows [][]string) bool {
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return true
			}
		}
	}
	return false
}
