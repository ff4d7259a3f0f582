// Package table rebuilds manifest operations from paged table exports.
//
// A page goes through three steps: the data window is located between the "Total"
// sub-header and the "impreso el" footer, the header rows above the window are matched
// against localized keywords to find each field's column, and the windowed rows are
// scanned twice to attribute every row to the operation whose document number was seen
// last, even when that number was printed on a previous page.
package table

import (
	"fmt"
	"strings"
)

// Slot is a logical field of an operation awaiting a physical column
type Slot int

const (
	SlotBLNumber Slot = iota
	SlotLine
	SlotLocation
	SlotShipperConsignee
	SlotContainerInfo
	SlotCargoAmountType
	SlotCargoDescription

	slotCount
)

var slotNames = [slotCount]string{
	SlotBLNumber:         "blNumber",
	SlotLine:             "line",
	SlotLocation:         "location",
	SlotShipperConsignee: "shipperConsignee",
	SlotContainerInfo:    "containerInfo",
	SlotCargoAmountType:  "cargoAmountType",
	SlotCargoDescription: "cargoDescription",
}

func (s Slot) String() string {
	if s < 0 || s >= slotCount {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

// ParseSlot resolves a slot by its name, case-insensitively
func ParseSlot(name string) (Slot, error) {
	for i, n := range slotNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("unknown slot %q", name)
}

// AllSlots lists every slot in declaration order
func AllSlots() []Slot {
	out := make([]Slot, slotCount)
	for i := range out {
		out[i] = Slot(i)
	}
	return out
}

// Mode is how repeated values for a slot are combined on a record
type Mode int

const (
	// Overwrite keeps the last value seen
	Overwrite Mode = iota
	// Append keeps every value in scan order
	Append
)

// Mode returns the accumulation mode of the slot
func (s Slot) Mode() Mode {
	switch s {
	case SlotBLNumber, SlotLine:
		return Overwrite
	}
	return Append
}

// Keyword pairs a slot with the header label prefix that identifies its column
type Keyword struct {
	Slot    Slot
	Keyword string
}

// DefaultKeywords is the Spanish header table of the customs manifest export
func DefaultKeywords() []Keyword {
	return []Keyword{
		{SlotLocation, "lugar de carga"},
		{SlotLine, "linea"},
		{SlotBLNumber, "numero d/t"},
		{SlotShipperConsignee, "consignatario"},
		{SlotContainerInfo, "numero precinto"},
		{SlotCargoAmountType, "bulto"},
		{SlotCargoDescription, "marcas transporte"},
	}
}

// KeywordsWithOverrides replaces default keywords by slot name (e.g. "line": "linea naviera").
// Unknown slot names are an error; empty values are ignored.
func KeywordsWithOverrides(overrides map[string]string) ([]Keyword, error) {
	kws := DefaultKeywords()
	for name, kw := range overrides {
		slot, err := ParseSlot(name)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(kw) == "" {
			continue
		}
		for i := range kws {
			if kws[i].Slot == slot {
				kws[i].Keyword = kw
			}
		}
	}
	return kws, nil
}
