package roster

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultProbeDepth is how many physical rows are scanned for the header.
const DefaultProbeDepth = 3

// Fold prepares a header cell for comparison: NFKC maps full-width
// characters such as "（" and "Ａ" to their half-width forms, then case and
// all whitespace are dropped.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// MatchesMarker reports whether a header cell equals or contains marker once
// both are folded.
func MatchesMarker(cell, marker string) bool {
	m := Fold(marker)
	if m == "" {
		return false
	}
	c := Fold(cell)
	return c != "" && strings.Contains(c, m)
}

// LocateHeader returns the index of the row that names the columns.
//
// With markers, the leading probeDepth rows are searched in three passes: a
// cell that folds equal to a marker, then a cell containing a marker in a
// row that reads like a header (wide enough, no numbers), then any cell
// containing a marker. The first pass keeps a data value such as "法学院" or
// a title such as "温州理工学院名单" from beating a header cell "学院" below it.
//
// Without markers, the first row whose non-empty cells are all label-like
// text and which is about as wide as the widest probed row wins; this skips
// a merged title line above the real header. When nothing qualifies the
// first row is assumed.
func LocateHeader(rows [][]string, probeDepth int, markers ...string) int {
	if probeDepth <= 0 {
		probeDepth = DefaultProbeDepth
	}
	if probeDepth > len(rows) {
		probeDepth = len(rows)
	}

	folded := foldMarkers(markers)
	widest := 0
	for i := 0; i < probeDepth; i++ {
		if n := countNonEmpty(rows[i]); n > widest {
			widest = n
		}
	}

	if len(folded) > 0 {
		for i := 0; i < probeDepth; i++ {
			if rowHas(rows[i], folded, func(c, m string) bool { return c == m }) {
				return i
			}
		}
		for i := 0; i < probeDepth; i++ {
			if isLabelRow(rows[i], widest) && rowHas(rows[i], folded, strings.Contains) {
				return i
			}
		}
		for i := 0; i < probeDepth; i++ {
			if rowHas(rows[i], folded, strings.Contains) {
				return i
			}
		}
		return 0
	}

	for i := 0; i < probeDepth; i++ {
		if isLabelRow(rows[i], widest) {
			return i
		}
	}
	return 0
}

func foldMarkers(markers []string) []string {
	var out []string
	for _, m := range markers {
		if f := Fold(m); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// rowHas reports whether any folded cell of row satisfies match against one
// of the folded markers.
func rowHas(row []string, folded []string, match func(cell, marker string) bool) bool {
	for _, cell := range row {
		c := Fold(cell)
		if c == "" {
			continue
		}
		for _, m := range folded {
			if match(c, m) {
				return true
			}
		}
	}
	return false
}

func isLabelRow(row []string, widest int) bool {
	n := countNonEmpty(row)
	if n == 0 || n*2 < widest {
		return false
	}
	for _, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if !isLabelLike(cell) {
			return false
		}
	}
	return true
}

// isLabelLike reports whether a cell reads like a column name: not a number
// and containing at least one letter (Han, Latin, ...).
func isLabelLike(cell string) bool {
	s := strings.TrimSpace(cell)
	if _, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return false
	}
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func countNonEmpty(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

// FindField picks the category column from a header. An exact match on name
// wins, then a folded match on name or any marker, then a folded substring
// match in the same order.
func FindField(fields []string, name string, markers []string) (string, error) {
	candidates := make([]string, 0, len(markers)+1)
	if strings.TrimSpace(name) != "" {
		candidates = append(candidates, name)
	}
	candidates = append(candidates, markers...)

	for _, f := range fields {
		if name != "" && strings.TrimSpace(f) == strings.TrimSpace(name) {
			return f, nil
		}
	}
	for _, c := range candidates {
		fc := Fold(c)
		if fc == "" {
			continue
		}
		for _, f := range fields {
			if Fold(f) == fc {
				return f, nil
			}
		}
	}
	for _, c := range candidates {
		for _, f := range fields {
			if MatchesMarker(f, c) {
				return f, nil
			}
		}
	}
	return "", ErrMissingCategoryField
}
