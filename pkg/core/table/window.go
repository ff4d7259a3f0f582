package table

import (
	"fmt"
	"strings"

	"sidu_reader/pkg/core/grid"
)

// Markers are the literal texts that bound the data region of a page
type Markers struct {
	// Total is the sub-header cell closing the header block; matched exactly
	Total string `yaml:"total" json:"total"`
	// Footer prefixes the first cell of the row printed under the table; matched folded
	Footer string `yaml:"footer" json:"footer"`
}

// DefaultMarkers returns the markers of the customs manifest export
func DefaultMarkers() Markers {
	return Markers{Total: "Total", Footer: "impreso el"}
}

// Window is the half-open row range [Start, End) holding table data
type Window struct {
	Start int
	End   int
}

// Len returns the number of rows in the window
func (w Window) Len() int {
	if w.End <= w.Start {
		return 0
	}
	return w.End - w.Start
}

// Rows returns the windowed rows of a page
func (w Window) Rows(rows [][]string) [][]string {
	if w.Len() == 0 || w.Start >= len(rows) {
		return nil
	}
	end := w.End
	if end > len(rows) {
		end = len(rows)
	}
	return rows[w.Start:end]
}

// FindWindow locates the data rows of a page: they start right after the first row
// holding a cell equal to the total marker and stop before the first later row whose
// first non-empty cell starts with the footer marker.
//
// Without a total marker it returns ErrMissingTotalMarker and an empty window. Without a
// footer it returns ErrMissingFooterMarker together with a window running to the last row.
func FindWindow(rows [][]string, m Markers) (Window, error) {
	total := -1
	for i, row := range rows {
		if rowHasExact(row, m.Total) {
			total = i
			break
		}
	}
	if total < 0 {
		return Window{}, fmt.Errorf("%w: %q", ErrMissingTotalMarker, m.Total)
	}

	w := Window{Start: total + 1, End: len(rows)}
	footer := Fold(m.Footer)
	for i := w.Start; i < len(rows); i++ {
		if hasFoldedPrefix(grid.FirstNonEmpty(rows[i]), footer) {
			w.End = i
			return w, nil
		}
	}
	return w, fmt.Errorf("%w: %q", ErrMissingFooterMarker, m.Footer)
}

func rowHasExact(row []string, marker string) bool {
	if marker == "" {
		return false
	}
	for _, c := range row {
		if strings.TrimSpace(c) == marker {
			return true
		}
	}
	return false
}
