package models

import (
	"fmt"
	"strings"
	"time"
)

// OperationType is the direction of the manifest being read
type OperationType string

const (
	OperationImport OperationType = "import"
	OperationExport OperationType = "export"
)

// ParseOperationType accepts "import" or "export" in any case
func ParseOperationType(s string) (OperationType, error) {
	switch OperationType(strings.ToLower(strings.TrimSpace(s))) {
	case OperationImport:
		return OperationImport, nil
	case OperationExport:
		return OperationExport, nil
	}
	return "", fmt.Errorf("unknown operation type %q (want import or export)", s)
}

// Record is one normalized manifest operation (bill of lading level)
type Record struct {
	Shipper            string `json:"shipper"`
	Consignee          string `json:"consignee"`
	Notify             string `json:"notify"`
	TotalContainers    string `json:"total_containers"`
	Location           string `json:"location"`
	OriginPort         string `json:"origin_port"`
	OriginCountry      string `json:"origin_country"`
	DestinationPort    string `json:"destination_port"`
	DestinationCountry string `json:"destination_country"`
	CargoAmount        string `json:"cargo_amount"` // "NaN" when the source value is not numeric
	CargoType          string `json:"cargo_type"`
	CargoDescription   string `json:"cargo_description"`
	Containers         string `json:"containers"`
	Line               string `json:"line"`
	BLNumber           string `json:"bl_number"`
	Pages              string `json:"pages"`
	File               string `json:"file"`

	OpType OperationType `json:"op_type"`

	// Flags lists normalization problems found on this record (e.g. non_numeric_amount)
	Flags []string `json:"flags,omitempty"`
}

// HasFlag reports whether the normalizer attached the given flag
func (r Record) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Entity returns the party used to detect repeated operations:
// the shipper for exports, the consignee for imports.
func (r Record) Entity(op OperationType) string {
	if op == OperationExport {
		return r.Shipper
	}
	return r.Consignee
}

// RunParams are the boundary parameters of a single reconstruction run
type RunParams struct {
	Operation  OperationType `json:"operation"`
	Port       string        `json:"port"` // destination port written on every record
	InputPath  string        `json:"input_path"`
	OutputPath string        `json:"output_path"`
	Format     string        `json:"format"`
	Locale     string        `json:"locale"`
}

// RunSummary describes one finished run for reporting and persistence
type RunSummary struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Operation  OperationType `json:"operation"`
	Port       string        `json:"port"`
	InputFile  string        `json:"input_file"`
	OutputFile string        `json:"output_file"`
	Pages      int           `json:"pages"`
	Operations int           `json:"operations"`
	Kept       int           `json:"kept"`
	Removed    int           `json:"removed"`
}
