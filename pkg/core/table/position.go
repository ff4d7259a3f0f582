package table

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"sidu_reader/pkg/core/grid"
)

// AnchorID names a reference text located by coordinates on a position page
type AnchorID int

const (
	AnchorCargoLocation AnchorID = iota
	AnchorLine
	AnchorTotal
	AnchorFooter
	AnchorDocNumber

	anchorCount
)

var anchorNames = [anchorCount]string{"cargoLocation", "line", "total", "footer", "docNumber"}

func (a AnchorID) String() string {
	if a < 0 || a >= anchorCount {
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
	return anchorNames[a]
}

// AllAnchors lists every anchor in declaration order
func AllAnchors() []AnchorID {
	out := make([]AnchorID, anchorCount)
	for i := range out {
		out[i] = AnchorID(i)
	}
	return out
}

// Anchor is where a reference text was found. The band of an anchor is [X, X+Width).
type Anchor struct {
	X, Y, Width float64
	Found       bool
}

// Contains reports whether x falls inside the anchor's band
func (a Anchor) Contains(x float64) bool {
	return a.Found && x >= a.X && x < a.X+a.Width
}

// Anchors holds every anchor of a page
type Anchors [anchorCount]Anchor

// AnchorKeyword pairs an anchor with the folded prefix that identifies it
type AnchorKeyword struct {
	ID      AnchorID
	Keyword string
}

// AnchorKeywords derives the anchor table from the header keywords and markers
func AnchorKeywords(opts Options) []AnchorKeyword {
	byslot := make(map[Slot]string, len(opts.Keywords))
	for _, kw := range opts.Keywords {
		byslot[kw.Slot] = kw.Keyword
	}
	return []AnchorKeyword{
		{AnchorCargoLocation, byslot[SlotLocation]},
		{AnchorLine, byslot[SlotLine]},
		{AnchorTotal, opts.Markers.Total},
		{AnchorFooter, opts.Markers.Footer},
		{AnchorDocNumber, byslot[SlotBLNumber]},
	}
}

// ResolveAnchors finds every anchor among the page runs. A later run matching the same
// anchor replaces an earlier one.
func ResolveAnchors(runs []grid.TextRun, keywords []AnchorKeyword) Anchors {
	var anchors Anchors

	folded := make([]string, len(keywords))
	for i, kw := range keywords {
		folded[i] = Fold(kw.Keyword)
	}

	for _, r := range runs {
		text := Fold(r.Text)
		if text == "" {
			continue
		}
		for i, kw := range keywords {
			if folded[i] != "" && strings.HasPrefix(text, folded[i]) {
				anchors[kw.ID] = Anchor{X: r.X, Y: r.Y, Width: r.Width, Found: true}
			}
		}
	}
	return anchors
}

// FilterRuns keeps the non-blank runs lying strictly between the total sub-header and
// the footer. A missing total anchor returns ErrMissingTotalMarker and no runs; a missing
// footer returns ErrMissingFooterMarker with every run below the total anchor.
func FilterRuns(runs []grid.TextRun, anchors Anchors) ([]grid.TextRun, error) {
	total, footer := anchors[AnchorTotal], anchors[AnchorFooter]
	if !total.Found {
		return nil, fmt.Errorf("%w: no total anchor", ErrMissingTotalMarker)
	}

	bottom := math.Inf(1)
	if footer.Found {
		bottom = footer.Y
	}

	var out []grid.TextRun
	for _, r := range runs {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		if r.Y > total.Y && r.Y < bottom {
			out = append(out, r)
		}
	}

	if !footer.Found {
		return out, fmt.Errorf("%w: no footer anchor", ErrMissingFooterMarker)
	}
	return out, nil
}

// GroupRows sorts runs top to bottom, left to right and groups those whose Y is within
// tolerance of the row's first run.
func GroupRows(runs []grid.TextRun, tolerance float64) [][]grid.TextRun {
	sorted := make([]grid.TextRun, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]grid.TextRun
	var rowY float64
	for _, r := range sorted {
		if len(rows) > 0 && math.Abs(r.Y-rowY) <= tolerance {
			rows[len(rows)-1] = append(rows[len(rows)-1], r)
			continue
		}
		rows = append(rows, []grid.TextRun{r})
		rowY = r.Y
	}

	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	return rows
}

// LineRows projects grouped runs onto a single column holding the text inside the line band
func LineRows(rows [][]grid.TextRun, band Anchor) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		var parts []string
		for _, r := range row {
			if band.Contains(r.X) {
				parts = append(parts, strings.TrimSpace(r.Text))
			}
		}
		out = append(out, []string{strings.Join(parts, " ")})
	}
	return out
}
