package main

import (
	"fmt"
	"io"
	"strings"

	"sidu_reader/pkg/core/pipeline"
	"sidu_reader/pkg/core/table"
	"sidu_reader/pkg/models"
)

const banner = "- - - - - - - - - - - - - - - - - - - - "

func line(w io.Writer, label string, values ...interface{}) {
	fmt.Fprintf(w, "* %-30s", label)
	for _, v := range values {
		fmt.Fprintf(w, " %v", v)
	}
	fmt.Fprintln(w)
}

// printReport writes the end-of-run statistics
func printReport(w io.Writer, input string, r *pipeline.Report) {
	fmt.Fprintf(w, "%s SIDU-READER %s\n\n", banner, banner)
	line(w, "Data obtained from:", input)
	line(w, "OP Type:", r.Operation)
	line(w, "Total Pages:", r.Pages)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s STATS %s\n\n", banner, banner)
	line(w, "Total operations:", r.Operations)
	line(w, "Valid operations included:", r.Kept, "/", r.Operations)
	line(w, "Repeated operations removed:", r.Removed, "/", r.Operations)
	line(w, "Skipped pages:", r.Diagnostics.SkippedPages)
	line(w, "Rows without operation:", r.Diagnostics.MissingKeyRows)
	line(w, "Non-numeric amounts:", r.FlaggedAmounts)
	line(w, "New File created at:", r.OutputFile)
	if r.Persisted {
		line(w, "Run saved as:", r.ID)
	}
}

// printHeaders writes one block per page with the resolved columns or anchors
func printHeaders(w io.Writer, pages []pipeline.PageHeaders) {
	for _, p := range pages {
		fmt.Fprintf(w, "page %s", p.Page)
		if p.Anchors == nil {
			fmt.Fprintf(w, "  window [%d, %d)", p.Window.Start, p.Window.End)
		}
		if p.WindowErr != nil {
			fmt.Fprintf(w, "  (%v)", p.WindowErr)
		}
		fmt.Fprintln(w)

		if p.Anchors != nil {
			for _, id := range table.AllAnchors() {
				a := p.Anchors[id]
				if a.Found {
					fmt.Fprintf(w, "  %-18s x=%.1f y=%.1f w=%.1f\n", id, a.X, a.Y, a.Width)
				} else {
					fmt.Fprintf(w, "  %-18s -\n", id)
				}
			}
			continue
		}

		var missing []string
		for _, s := range table.AllSlots() {
			if col, ok := p.Index.Column(s); ok {
				fmt.Fprintf(w, "  %-18s col %d\n", s, col)
			} else {
				missing = append(missing, s.String())
			}
		}
		if len(missing) > 0 {
			fmt.Fprintf(w, "  unresolved: %s\n", strings.Join(missing, ", "))
		}
	}
}

// printRecords writes the saved operations of a run, one block per record
func printRecords(w io.Writer, runID string, records []models.Record) {
	fmt.Fprintf(w, "%s RUN %s %s\n\n", banner, runID, banner)
	for _, r := range records {
		line(w, "BL:", r.BLNumber, "("+r.Line+")", "pages", r.Pages)
		line(w, "  Shipper / Consignee:", r.Shipper, "/", r.Consignee)
		line(w, "  Route:", r.OriginPort, "->", r.DestinationPort)
		line(w, "  Cargo:", r.CargoAmount, r.CargoType, r.CargoDescription)
		if len(r.Flags) > 0 {
			line(w, "  Flags:", strings.Join(r.Flags, ", "))
		}
	}
	fmt.Fprintln(w)
	line(w, "Total operations:", len(records))
}
