// Package export writes kept manifest records to a workbook
package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sidu_reader/pkg/models"
)

// SheetName is the single sheet every output workbook carries
const SheetName = "data"

var columns = []string{
	"consignee", "totalContainers", "location", "originPort", "originCountry",
	"destinationPort", "destinationCountry", "cargoAmount", "cargoType",
	"cargoDescription", "blNumber", "pages", "opType",
}

// Headers returns the output header row. The shipper column leads for exports and is
// omitted for imports.
func Headers(op models.OperationType) []string {
	if op == models.OperationExport {
		return append([]string{"shipper"}, columns...)
	}
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Row returns the cells of one record in Headers order
func Row(op models.OperationType, r models.Record) []string {
	row := []string{
		r.Consignee, r.TotalContainers, r.Location, r.OriginPort, r.OriginCountry,
		r.DestinationPort, r.DestinationCountry, r.CargoAmount, r.CargoType,
		r.CargoDescription, r.BLNumber, r.Pages, string(r.OpType),
	}
	if op == models.OperationExport {
		return append([]string{r.Shipper}, row...)
	}
	return row
}

// WorkbookWriter writes records as an xlsx workbook with a single "data" sheet
type WorkbookWriter struct {
	logger *zap.Logger
}

func NewWorkbookWriter(logger *zap.Logger) *WorkbookWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkbookWriter{logger: logger.Named("export")}
}

// Write replaces the file at path
func (w *WorkbookWriter) Write(ctx context.Context, path string, op models.OperationType, records []models.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(Headers(op))); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(Row(op, r))); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	w.logger.Info("workbook written", zap.String("path", path), zap.Int("records", len(records)))
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
