// Package grid holds the page shapes produced by the source adapters:
// cell grids for spreadsheet-like exports and text runs for position-addressed documents.
package grid

import "strings"

// Page is one sheet or page of a grid export
type Page struct {
	Name string
	Rows [][]string
}

// CellAt returns the trimmed text at col, or "" when the row is shorter or the index is negative
func CellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// FirstNonEmpty returns the first non-blank cell of a row
func FirstNonEmpty(row []string) string {
	for _, c := range row {
		if t := strings.TrimSpace(c); t != "" {
			return t
		}
	}
	return ""
}

// TextRun is a piece of text placed on a page. Y grows downward from the top edge.
type TextRun struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
	Text  string  `json:"str"`
}

// PositionPage is one page of a position-addressed document
type PositionPage struct {
	Number int
	Runs   []TextRun
}
