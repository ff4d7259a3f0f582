package ingest

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"go.uber.org/zap"

	"sidu_reader/pkg/core/grid"
	"sidu_reader/pkg/core/utils"
)

// MarkdownSource reads pipe-table exports. A thematic break (a "---" line after a blank
// line) starts a new page. Table rows become grid rows; paragraphs and headings become
// single-cell rows so markers written outside the table still frame the window.
type MarkdownSource struct {
	logger *zap.Logger
}

func NewMarkdownSource(logger *zap.Logger) *MarkdownSource {
	return &MarkdownSource{logger: orNop(logger)}
}

func (s *MarkdownSource) ReadPages(ctx context.Context, path string) ([]grid.Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := ParseMarkdownPages([]byte(utils.StripCodeFence(string(raw))))
	s.logger.Debug("markdown read", zap.String("path", path), zap.Int("pages", len(pages)))
	return pages, nil
}

// ParseMarkdownPages splits source into pages named "1", "2", ... Empty pages are dropped.
func ParseMarkdownPages(source []byte) []grid.Page {
	doc := utils.ParseMarkdown(source)

	var pages []grid.Page
	current := grid.Page{}
	flush := func() {
		if len(current.Rows) > 0 {
			current.Name = strconv.Itoa(len(pages) + 1)
			pages = append(pages, current)
		}
		current = grid.Page{}
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.ThematicBreak:
			flush()
		case *east.Table:
			current.Rows = append(current.Rows, tableRows(node, source)...)
		case *ast.Paragraph, *ast.Heading:
			if t := nodeText(node, source); t != "" {
				current.Rows = append(current.Rows, []string{t})
			}
		}
	}
	flush()

	return pages
}

func tableRows(table *east.Table, source []byte) [][]string {
	var rows [][]string
	for r := table.FirstChild(); r != nil; r = r.NextSibling() {
		var row []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*east.TableCell); ok {
				row = append(row, nodeText(c, source))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// nodeText concatenates the inline text under n
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
