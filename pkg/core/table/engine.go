package table

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"sidu_reader/pkg/core/grid"
)

// Options configure how pages are read
type Options struct {
	Keywords []Keyword
	Markers  Markers
	// KeyColumn is the fixed column holding the document number in the discovery pass
	KeyColumn int
	// Strict turns a missing window marker into a run error instead of a skipped page
	Strict bool
	// RowTolerance is the vertical distance under which text runs share a row (position mode)
	RowTolerance float64
}

// DefaultOptions returns the settings of the customs manifest export
func DefaultOptions() Options {
	return Options{
		Keywords:     DefaultKeywords(),
		Markers:      DefaultMarkers(),
		KeyColumn:    2,
		RowTolerance: 2.0,
	}
}

// PageReport describes how one page was read
type PageReport struct {
	Page           string
	Window         Window
	Skipped        bool
	MissingFooter  bool
	Unresolved     []Slot
	Rows           int
	MissingKeyRows int
}

// Diagnostics aggregates the non-fatal problems of a document
type Diagnostics struct {
	Pages          []PageReport
	SkippedPages   int
	MissingKeyRows int
}

// Engine reconstructs the operations of one document, page by page
type Engine struct {
	opts   Options
	logger *zap.Logger
	state  State
	diag   Diagnostics
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Keywords) == 0 {
		opts.Keywords = DefaultKeywords()
	}
	if opts.RowTolerance <= 0 {
		opts.RowTolerance = DefaultOptions().RowTolerance
	}
	return &Engine{
		opts:   opts,
		logger: logger.Named("table"),
		state:  NewState(),
	}
}

// State returns the tracker as it stands between pages
func (e *Engine) State() State {
	return e.state
}

// Diagnostics returns what was collected so far
func (e *Engine) Diagnostics() Diagnostics {
	return e.diag
}

// Reconstruct processes every grid page in order and drains the resulting builders
func (e *Engine) Reconstruct(pages []grid.Page) ([]*Builder, error) {
	for _, p := range pages {
		if err := e.ProcessPage(p); err != nil {
			return nil, err
		}
	}
	return e.Drain(), nil
}

// ProcessPage reads one grid page into the record map. The header layout is resolved
// again for every page because columns can shift between pages.
func (e *Engine) ProcessPage(p grid.Page) error {
	report := PageReport{Page: p.Name}

	win, err := FindWindow(p.Rows, e.opts.Markers)
	if err != nil {
		skip, werr := e.windowPolicy(p.Name, err, &report)
		if werr != nil {
			return werr
		}
		if skip {
			return nil
		}
	}
	report.Window = win

	index := ResolveHeaders(p.Rows[:win.Start], e.opts.Keywords)

	e.scan(PageInput{
		Page:      p.Name,
		Rows:      win.Rows(p.Rows),
		KeyColumn: e.opts.KeyColumn,
		Index:     index,
	}, win.Start, &report)
	return nil
}

// ProcessPositionPage reads one position-addressed page. Only the line column is
// resolved in this mode, as a coordinate band under its header anchor; records are
// keyed by the line text.
func (e *Engine) ProcessPositionPage(p grid.PositionPage) error {
	name := strconv.Itoa(p.Number)
	report := PageReport{Page: name}

	anchors := ResolveAnchors(p.Runs, AnchorKeywords(e.opts))
	if !anchors[AnchorLine].Found || !anchors[AnchorDocNumber].Found {
		e.logger.Warn("line or document number anchor missing, page skipped",
			zap.String("page", name), zap.Error(ErrUnresolvedSlot))
		report.Skipped = true
		e.record(report)
		return nil
	}

	runs, err := FilterRuns(p.Runs, anchors)
	if err != nil {
		skip, werr := e.windowPolicy(name, err, &report)
		if werr != nil {
			return werr
		}
		if skip {
			return nil
		}
	}

	for _, r := range runs {
		e.logger.Debug("run",
			zap.String("page", name),
			zap.Float64("x", r.X),
			zap.Float64("y", r.Y),
			zap.String("text", r.Text))
	}

	index := NewHeaderIndex()
	index[SlotLine] = 0

	e.scan(PageInput{
		Page:      name,
		Rows:      LineRows(GroupRows(runs, e.opts.RowTolerance), anchors[AnchorLine]),
		KeyColumn: 0,
		KeySlot:   SlotLine,
		Index:     index,
	}, 0, &report)
	return nil
}

// ReconstructPositions processes every position page in order and drains the builders
func (e *Engine) ReconstructPositions(pages []grid.PositionPage) ([]*Builder, error) {
	for _, p := range pages {
		if err := e.ProcessPositionPage(p); err != nil {
			return nil, err
		}
	}
	return e.Drain(), nil
}

// Drain moves the builders out of the engine and resets the tracker for a new document
func (e *Engine) Drain() []*Builder {
	out := e.state.Records.Drain()
	e.state = NewState()
	return out
}

// scan runs the two passes over a windowed page. offset converts window-relative
// row indexes back to page rows for logging.
func (e *Engine) scan(in PageInput, offset int, report *PageReport) {
	saved := e.state.ActiveKey

	report.Unresolved = in.Index.UnresolvedSlots()
	for _, s := range report.Unresolved {
		e.logger.Debug("slot not found on page",
			zap.String("page", in.Page), zap.Stringer("slot", s), zap.Error(ErrUnresolvedSlot))
	}

	e.state = DiscoverKeys(e.state, in)
	e.state = RestoreKey(e.state, saved)

	var stats ScanStats
	e.state, stats = AccumulateFields(e.state, in)

	for _, i := range stats.MissingKeyRows {
		e.logger.Warn("no record key established, row skipped",
			zap.String("page", in.Page), zap.Int("row", offset+i), zap.Error(ErrMissingKeyRow))
	}

	report.Rows = stats.Rows
	report.MissingKeyRows = len(stats.MissingKeyRows)
	e.record(*report)
}

// windowPolicy applies the missing-marker rules: strict mode fails the run, otherwise a
// page without the total marker is skipped and a page without a footer is read to its end.
func (e *Engine) windowPolicy(page string, err error, report *PageReport) (skip bool, fatal error) {
	if e.opts.Strict {
		return false, fmt.Errorf("page %s: %w", page, err)
	}
	if errors.Is(err, ErrMissingTotalMarker) {
		e.logger.Warn("total marker not found, page skipped", zap.String("page", page), zap.Error(err))
		report.Skipped = true
		e.record(*report)
		return true, nil
	}
	e.logger.Warn("footer marker not found, reading to end of page", zap.String("page", page), zap.Error(err))
	report.MissingFooter = true
	return false, nil
}

func (e *Engine) record(r PageReport) {
	e.diag.Pages = append(e.diag.Pages, r)
	e.diag.MissingKeyRows += r.MissingKeyRows
	if r.Skipped {
		e.diag.SkippedPages++
	}
}
