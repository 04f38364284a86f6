package pdftable

import (
	"context"
	"math"
	"sort"
	"strings"
)

// rowToleranceRatio is the baseline distance, as a fraction of font size, under
// which two fragments are read as the same table row.
const rowToleranceRatio = 0.5

// span is a column's horizontal extent.
type span struct {
	left, right float64
}

// detectStream finds a table from text alignment alone. Fragments are grouped
// into rows by baseline, and columns come from the fragment extents of the rows
// that share the most common fragment count. Leading and trailing rows with
// fewer than two fragments (titles, page footers) are dropped.
func detectStream(_ context.Context, page *Page) ([]Table, error) {
	lines := groupLines(page.Fragments)
	if len(lines) == 0 {
		return nil, nil
	}

	start, end := 0, len(lines)
	for start < end && len(lines[start]) < 2 {
		start++
	}
	for end > start && len(lines[end-1]) < 2 {
		end--
	}
	lines = lines[start:end]
	if len(lines) < 2 {
		return nil, nil
	}

	cols := columnSpans(lines)
	if len(cols) < 2 {
		return nil, nil
	}

	rows := make([][]string, len(lines))
	for r, line := range lines {
		cells := make([][]Fragment, len(cols))
		for _, f := range line {
			c := nearestColumn(cols, f)
			cells[c] = append(cells[c], f)
		}
		rows[r] = make([]string, len(cols))
		for c, cf := range cells {
			rows[r][c] = joinFragments(cf)
		}
	}
	if !hasText(rows) {
		return nil, nil
	}
	return []Table{{Page: page.Number, Rows: rows}}, nil
}

// groupLines sorts non-blank fragments top-to-bottom and splits them into
// lines by baseline. Each line is ordered left-to-right.
func groupLines(frags []Fragment) [][]Fragment {
	kept := make([]Fragment, 0, len(frags))
	for _, f := range frags {
		if strings.TrimSpace(f.Text) != "" {
			kept = append(kept, f)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Y != kept[j].Y {
			return kept[i].Y > kept[j].Y
		}
		return kept[i].X < kept[j].X
	})

	var (
		lines [][]Fragment
		lineY float64
	)
	for _, f := range kept {
		if len(lines) == 0 || lineY-f.Y > rowTolerance(f) {
			lines = append(lines, nil)
			lineY = f.Y
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], f)
	}
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
	}
	return lines
}

func rowTolerance(f Fragment) float64 {
	size := f.FontSize
	if size <= 0 {
		size = f.Height
	}
	return math.Max(rowToleranceRatio*size, 1)
}

// columnSpans derives column extents from the lines holding the most frequent
// fragment count (ties go to the wider layout). Overlapping extents merge.
func columnSpans(lines [][]Fragment) []span {
	counts := make(map[int]int)
	for _, line := range lines {
		if len(line) >= 2 {
			counts[len(line)]++
		}
	}
	mode, best := 0, 0
	for n, c := range counts {
		if c > best || (c == best && n > mode) {
			mode, best = n, c
		}
	}
	if mode < 2 {
		return nil
	}

	spans := make([]span, mode)
	for i := range spans {
		spans[i] = span{left: math.Inf(1), right: math.Inf(-1)}
	}
	for _, line := range lines {
		if len(line) != mode {
			continue
		}
		for i, f := range line {
			spans[i].left = math.Min(spans[i].left, f.X)
			spans[i].right = math.Max(spans[i].right, f.X+f.Width)
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].left < spans[j].left })
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.left <= last.right {
			last.right = math.Max(last.right, s.right)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// nearestColumn returns the column containing the fragment's center, or the
// closest one when the center falls in a gap.
func nearestColumn(cols []span, f Fragment) int {
	cx := f.X + f.Width/2
	best, bestDist := 0, math.Inf(1)
	for i, s := range cols {
		var d float64
		switch {
		case cx < s.left:
			d = s.left - cx
		case cx > s.right:
			d = cx - s.right
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
