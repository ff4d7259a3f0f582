package table

// Unresolved is the column of a slot whose keyword was not found on the page
const Unresolved = -1

// HeaderIndex maps each slot to its column on one page
type HeaderIndex [slotCount]int

// NewHeaderIndex returns an index with every slot unresolved
func NewHeaderIndex() HeaderIndex {
	var h HeaderIndex
	for i := range h {
		h[i] = Unresolved
	}
	return h
}

// Column returns the slot's column and whether it was resolved
func (h HeaderIndex) Column(s Slot) (int, bool) {
	col := h[s]
	return col, col != Unresolved
}

// StartsOtherSlot reports whether col is the resolved column of any slot but s
func (h HeaderIndex) StartsOtherSlot(col int, s Slot) bool {
	for other, c := range h {
		if Slot(other) != s && c != Unresolved && c == col {
			return true
		}
	}
	return false
}

// UnresolvedSlots lists the slots left without a column
func (h HeaderIndex) UnresolvedSlots() []Slot {
	var out []Slot
	for i, c := range h {
		if c == Unresolved {
			out = append(out, Slot(i))
		}
	}
	return out
}

// ResolveHeaders scans the header rows of a page and returns the column of every slot
// whose keyword prefixes a folded header cell. Within a row the leftmost matching cell
// is used; a match in a later row replaces one from an earlier row, which handles
// two-row headers where the specific label sits under a generic one.
func ResolveHeaders(headerRows [][]string, keywords []Keyword) HeaderIndex {
	index := NewHeaderIndex()

	folded := make([]string, len(keywords))
	for i, kw := range keywords {
		folded[i] = Fold(kw.Keyword)
	}

	for _, row := range headerRows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = Fold(c)
		}

		for i, kw := range keywords {
			if folded[i] == "" {
				continue
			}
			for j, cell := range cells {
				if len(cell) >= len(folded[i]) && cell[:len(folded[i])] == folded[i] {
					index[kw.Slot] = j
					break
				}
			}
		}
	}

	return index
}
