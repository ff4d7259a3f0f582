package ingest

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"sidu_reader/pkg/core/grid"
)

// maxColspan bounds colspan expansion for malformed exports
const maxColspan = 64

// HTMLSource reads each <table> of an HTML export as one page. The page is named by the
// table's data-page attribute, else its 1-based position; a repeated name gets a "-N" suffix.
type HTMLSource struct {
	logger *zap.Logger
}

func NewHTMLSource(logger *zap.Logger) *HTMLSource {
	return &HTMLSource{logger: orNop(logger)}
}

func (s *HTMLSource) ReadPages(ctx context.Context, path string) ([]grid.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages := ParseHTMLTables(doc)
	s.logger.Debug("html read", zap.String("path", path), zap.Int("tables", len(pages)))
	return pages, nil
}

// ParseHTMLTables converts every table of doc to a page. A cell spanning n columns
// keeps its text in the first column and leaves n-1 empty cells, the way merged
// cells read back from a spreadsheet.
func ParseHTMLTables(doc *goquery.Document) []grid.Page {
	var pages []grid.Page
	seen := make(map[string]struct{})

	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		page := grid.Page{Name: tableName(table, i, seen)}

		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			// nested tables own their rows
			if tr.Closest("table").Get(0) != table.Get(0) {
				return
			}
			var row []string
			tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, strings.TrimSpace(cell.Text()))
				for n := colspan(cell); n > 1; n-- {
					row = append(row, "")
				}
			})
			page.Rows = append(page.Rows, row)
		})

		pages = append(pages, page)
	})

	return pages
}

// tableName returns a page name unique within the document. Captions are not used:
// exports repeat the same caption on every page.
func tableName(table *goquery.Selection, i int, seen map[string]struct{}) string {
	name := strconv.Itoa(i + 1)
	if attr, ok := table.Attr("data-page"); ok && strings.TrimSpace(attr) != "" {
		name = strings.TrimSpace(attr)
	}
	for base, n := name, 2; ; n++ {
		if _, dup := seen[name]; !dup {
			break
		}
		name = base + "-" + strconv.Itoa(n)
	}
	seen[name] = struct{}{}
	return name
}

func colspan(cell *goquery.Selection) int {
	raw, ok := cell.Attr("colspan")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxColspan {
		return maxColspan
	}
	return n
}
