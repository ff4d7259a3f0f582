package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"sidu_reader/pkg/core/pipeline"
	"sidu_reader/pkg/core/table"
	"sidu_reader/pkg/models"
)

func TestPrintReport(t *testing.T) {
	r := &pipeline.Report{
		RunSummary: models.RunSummary{
			ID:         "run-1",
			Operation:  models.OperationExport,
			OutputFile: "files/362-processed.xlsx",
			Pages:      4,
			Operations: 10,
			Kept:       8,
			Removed:    2,
		},
		Diagnostics: table.Diagnostics{SkippedPages: 1, MissingKeyRows: 3},
		Persisted:   true,
	}

	var buf bytes.Buffer
	printReport(&buf, "files/362.xlsx", r)
	out := buf.String()

	assert.Contains(t, out, "SIDU-READER")
	assert.Contains(t, out, "files/362.xlsx")
	assert.Regexp(t, `Valid operations included:\s+8 / 10`, out)
	assert.Regexp(t, `Repeated operations removed:\s+2 / 10`, out)
	assert.Regexp(t, `Skipped pages:\s+1`, out)
	assert.Contains(t, out, "run-1")
}

func TestPrintHeaders(t *testing.T) {
	index := table.NewHeaderIndex()
	index[table.SlotBLNumber] = 2

	var buf bytes.Buffer
	printHeaders(&buf, []pipeline.PageHeaders{
		{Page: "1", Window: table.Window{Start: 3, End: 9}, Index: index},
		{Page: "2", WindowErr: errors.New("no total"), Index: table.NewHeaderIndex()},
	})
	out := buf.String()

	assert.Contains(t, out, "page 1  window [3, 9)")
	assert.Regexp(t, `blNumber\s+col 2`, out)
	assert.Contains(t, out, "unresolved: line, location")
	assert.Contains(t, out, "(no total)")
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	printRecords(&buf, "run-1", []models.Record{
		{BLNumber: "BL1", Line: "MSC", Pages: "1, 2", Shipper: "ACME", Consignee: "GLOBEX",
			OriginPort: "CLVAP", DestinationPort: "ARBUE", CargoAmount: "NaN",
			Flags: []string{"non_numeric_amount"}},
	})
	out := buf.String()

	assert.Contains(t, out, "RUN run-1")
	assert.Regexp(t, `BL:\s+BL1 \(MSC\) pages 1, 2`, out)
	assert.Regexp(t, `Route:\s+CLVAP -> ARBUE`, out)
	assert.Regexp(t, `Flags:\s+non_numeric_amount`, out)
	assert.Regexp(t, `Total operations:\s+1`, out)
}
