package ingest

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sidu_reader/pkg/core/grid"
)

// XLSXSource reads every sheet of a workbook as one page named after the sheet
type XLSXSource struct {
	logger *zap.Logger
}

func NewXLSXSource(logger *zap.Logger) *XLSXSource {
	return &XLSXSource{logger: orNop(logger)}
}

func (s *XLSXSource) ReadPages(ctx context.Context, path string) ([]grid.Page, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	pages := make([]grid.Page, 0, len(sheets))
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		pages = append(pages, grid.Page{Name: sheet, Rows: rows})
	}

	s.logger.Debug("workbook read", zap.String("path", path), zap.Int("sheets", len(pages)))
	return pages, nil
}
