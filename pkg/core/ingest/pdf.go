package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"sidu_reader/pkg/core/grid"
)

// defaultPageHeight is US Letter, used when a page has no MediaBox
const defaultPageHeight = 792.0

// PDFSource extracts text runs from a PDF. The library yields one glyph at a time with
// a bottom-up Y; glyphs are merged into runs and Y is flipped to grow downward.
type PDFSource struct {
	logger *zap.Logger
}

func NewPDFSource(logger *zap.Logger) *PDFSource {
	return &PDFSource{logger: orNop(logger)}
}

func (s *PDFSource) ReadPositionPages(ctx context.Context, path string) ([]grid.PositionPage, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	var pages []grid.PositionPage
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		texts, err := pageTexts(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d of %s: %w", i, path, err)
		}
		runs := MergeGlyphs(texts, pageHeight(p))
		pages = append(pages, grid.PositionPage{Number: i, Runs: runs})
		s.logger.Debug("pdf page read", zap.Int("page", i), zap.Int("glyphs", len(texts)), zap.Int("runs", len(runs)))
	}
	return pages, nil
}

// pageTexts guards Content, which panics on some malformed content streams
func pageTexts(p pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()
	return p.Content().Text, nil
}

func pageHeight(p pdf.Page) float64 {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if box := v.Key("MediaBox"); box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

// MergeGlyphs joins glyphs drawn on the same baseline into runs. A gap under a quarter
// of the font size continues the word; a gap up to one font size inserts a space; a
// larger gap or a baseline change starts a new run. Y is flipped against height.
func MergeGlyphs(texts []pdf.Text, height float64) []grid.TextRun {
	var (
		runs   []grid.TextRun
		b      strings.Builder
		cur    grid.TextRun
		right  float64
		base   float64
		active bool
	)

	flush := func() {
		if active {
			cur.Text = strings.TrimSpace(b.String())
			cur.Width = right - cur.X
			if cur.Text != "" {
				runs = append(runs, cur)
			}
		}
		b.Reset()
		active = false
	}

	for _, t := range texts {
		size := t.FontSize
		if size <= 0 {
			size = 10
		}

		if active && math.Abs(t.Y-base) < 0.5 {
			gap := t.X - right
			switch {
			case gap >= -size/4 && gap < size/4:
				b.WriteString(t.S)
				right = math.Max(right, t.X+t.W)
				continue
			case gap >= size/4 && gap <= size:
				b.WriteByte(' ')
				b.WriteString(t.S)
				right = t.X + t.W
				continue
			}
		}

		flush()
		active = true
		base = t.Y
		cur = grid.TextRun{X: t.X, Y: height - t.Y}
		right = t.X + t.W
		b.WriteString(t.S)
	}
	flush()

	return runs
}
