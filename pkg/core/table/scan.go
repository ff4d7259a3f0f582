package table

import "sidu_reader/pkg/core/grid"

// State is the record key tracker threaded from page to page.
// ActiveKey is the key of the operation that owns the next row; Records is owned by
// the engine for the lifetime of one document.
type State struct {
	ActiveKey string
	Records   *RecordMap
}

// NewState returns a tracker with no active key and no records
func NewState() State {
	return State{Records: NewRecordMap()}
}

// PageInput is the windowed part of a page ready to be scanned
type PageInput struct {
	Page      string
	Rows      [][]string
	KeyColumn int
	// KeySlot re-keys the active record in the field pass; BLNumber unless the page is
	// keyed by another field
	KeySlot Slot
	Index   HeaderIndex
}

// ScanStats reports what the field pass could not attribute
type ScanStats struct {
	Rows           int
	MissingKeyRows []int // indexes into PageInput.Rows
}

// DiscoverKeys is the first pass over a page. A non-empty cell in the key column makes
// that value the active key and starts a fresh builder for it, replacing one created
// earlier on the same page; a builder carried over from a previous page is kept. Every
// row attributed to an active key adds the page to that key's page set.
func DiscoverKeys(st State, in PageInput) State {
	for _, row := range in.Rows {
		if key := grid.CellAt(row, in.KeyColumn); key != "" {
			st.ActiveKey = key
			if prev := st.Records.Get(key); prev == nil || prev.Origin() == in.Page {
				st.Records.Put(NewBuilder(key, in.Page))
			}
		}

		if st.ActiveKey != "" {
			st.Records.Ensure(st.ActiveKey, in.Page).AddPage(in.Page)
		}
	}
	return st
}

// RestoreKey puts back the key that was active when the page began, so the field pass
// starts with the operation continued from the previous page instead of the last key
// the discovery pass found. An empty saved key means no operation was open.
func RestoreKey(st State, saved string) State {
	st.ActiveKey = saved
	return st
}

// AccumulateFields is the second pass over a page. It writes each resolved slot's cell
// into the active record; a cell in the key slot (the BL number) re-keys it first. Rows that
// arrive while no key is active are reported in ScanStats and skipped.
func AccumulateFields(st State, in PageInput) (State, ScanStats) {
	stats := ScanStats{Rows: len(in.Rows)}

	for i, row := range in.Rows {
		if key := slotValue(row, in.Index, in.KeySlot); key != "" {
			st.ActiveKey = key
		}

		if st.ActiveKey == "" {
			stats.MissingKeyRows = append(stats.MissingKeyRows, i)
			continue
		}

		b := st.Records.Ensure(st.ActiveKey, in.Page)
		b.AddPage(in.Page)

		for _, slot := range AllSlots() {
			var v string
			switch slot {
			case SlotContainerInfo, SlotShipperConsignee:
				v = compoundValue(row, in.Index, slot)
			default:
				v = slotValue(row, in.Index, slot)
			}
			if v != "" {
				b.Set(slot, v)
			}
		}
	}

	return st, stats
}

func slotValue(row []string, index HeaderIndex, slot Slot) string {
	col, ok := index.Column(slot)
	if !ok {
		return ""
	}
	return grid.CellAt(row, col)
}

// compoundValue reads a slot whose text may overflow into the next column, as happens
// with merged cells in the export. The neighbor is joined only when it is not the
// column of another slot.
func compoundValue(row []string, index HeaderIndex, slot Slot) string {
	col, ok := index.Column(slot)
	if !ok {
		return ""
	}
	primary := grid.CellAt(row, col)
	if primary == "" {
		return ""
	}

	next := col + 1
	if more := grid.CellAt(row, next); more != "" && !index.StartsOtherSlot(next, slot) {
		return primary + " " + more
	}
	return primary
}
