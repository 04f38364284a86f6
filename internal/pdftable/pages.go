package pdftable

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ParsePages expands a page selection into sorted, distinct 1-based page
// numbers. Accepted forms: "" or "all", "N", "N-M", "N-" and comma-separated
// combinations of them.
func ParsePages(sel string, count int) ([]int, error) {
	sel = strings.TrimSpace(sel)
	if count < 1 {
		return nil, eris.Errorf("pdftable: document has %d pages", count)
	}
	if sel == "" || strings.EqualFold(sel, "all") {
		out := make([]int, count)
		for i := range out {
			out[i] = i + 1
		}
		return out, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(sel, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		from, to, err := parseRange(part, count)
		if err != nil {
			return nil, err
		}
		for p := from; p <= to; p++ {
			seen[p] = true
		}
	}
	if len(seen) == 0 {
		return nil, eris.Errorf("pdftable: empty page selection %q", sel)
	}

	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out, nil
}

func parseRange(part string, count int) (int, int, error) {
	lo, hi, isRange := strings.Cut(part, "-")

	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, eris.Errorf("pdftable: invalid page %q", part)
	}
	to := from
	if isRange {
		hi = strings.TrimSpace(hi)
		if hi == "" {
			to = count
		} else if to, err = strconv.Atoi(hi); err != nil {
			return 0, 0, eris.Errorf("pdftable: invalid page %q", part)
		}
	}

	if from < 1 || to > count || from > to {
		return 0, 0, eris.Errorf("pdftable: page range %q outside 1-%d", part, count)
	}
	return from, to, nil
}
