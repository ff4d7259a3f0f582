package ingest

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"sidu_reader/pkg/core/grid"
	"sidu_reader/pkg/core/utils"
)

// runsDocument is the pdf.js-extract dump shape
type runsDocument struct {
	Pages []runsPage `json:"pages"`
}

type runsPage struct {
	PageInfo struct {
		Num int `json:"num"`
	} `json:"pageInfo"`
	Content []grid.TextRun `json:"content"`
}

// RunsJSONSource reads text runs dumped by pdf.js-extract (top-down Y). Truncated or
// hand-edited dumps are repaired before decoding.
type RunsJSONSource struct {
	logger *zap.Logger
}

func NewRunsJSONSource(logger *zap.Logger) *RunsJSONSource {
	return &RunsJSONSource{logger: orNop(logger)}
}

func (s *RunsJSONSource) ReadPositionPages(ctx context.Context, path string) ([]grid.PositionPage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, strategy, err := DecodeRuns(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode runs %s: %w", path, err)
	}
	if strategy != utils.StrategyJSON {
		s.logger.Warn("runs file was not valid JSON and was decoded leniently",
			zap.String("path", path), zap.String("strategy", string(strategy)))
	}
	return pages, nil
}

// DecodeRuns decodes a runs dump. Pages without a number are numbered by position.
func DecodeRuns(raw []byte) ([]grid.PositionPage, utils.Strategy, error) {
	var doc runsDocument
	strategy, err := utils.SmartDecode(raw, &doc)
	if err != nil {
		return nil, "", err
	}

	pages := make([]grid.PositionPage, 0, len(doc.Pages))
	for i, p := range doc.Pages {
		num := p.PageInfo.Num
		if num == 0 {
			num = i + 1
		}
		pages = append(pages, grid.PositionPage{Number: num, Runs: p.Content})
	}
	return pages, strategy, nil
}
