// Package pipeline runs a manifest file through reading, reconstruction, normalization,
// deduplication and output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sidu_reader/pkg/core/dedup"
	"sidu_reader/pkg/core/ingest"
	"sidu_reader/pkg/core/normalize"
	"sidu_reader/pkg/core/table"
	"sidu_reader/pkg/models"
)

// SourceResolver hands out the reader for an input format.
// Implemented by ingest.Registry.
type SourceResolver interface {
	GridSource(f ingest.Format) (ingest.GridSource, error)
	PositionSource(f ingest.Format) (ingest.PositionSource, error)
}

// RecordWriter writes the kept records of a run
type RecordWriter interface {
	Write(ctx context.Context, path string, op models.OperationType, records []models.Record) error
}

// RecordSink persists a finished run. Optional.
type RecordSink interface {
	SaveRun(ctx context.Context, run models.RunSummary, records []models.Record) error
}

// Report is what one run produced
type Report struct {
	models.RunSummary
	Format          ingest.Format
	Diagnostics     table.Diagnostics
	FlaggedAmounts  int
	RemovedEntities []string
	Persisted       bool
	Duration        time.Duration
}

// Orchestrator wires the stages of a run
type Orchestrator struct {
	sources   SourceResolver
	writer    RecordWriter
	sink      RecordSink
	countries normalize.CountryNamer
	options   table.Options
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewOrchestrator creates an orchestrator; countries are named with the run locale
// unless SetCountryNamer is called.
func NewOrchestrator(sources SourceResolver, writer RecordWriter, options table.Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(options.Keywords) == 0 {
		options.Keywords = table.DefaultKeywords()
	}
	if options.Markers == (table.Markers{}) {
		options.Markers = table.DefaultMarkers()
	}
	return &Orchestrator{
		sources: sources,
		writer:  writer,
		options: options,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// SetSink enables persistence of finished runs
func (o *Orchestrator) SetSink(sink RecordSink) {
	o.sink = sink
}

// SetCountryNamer replaces the locale-based country lookup
func (o *Orchestrator) SetCountryNamer(n normalize.CountryNamer) {
	o.countries = n
}

// Run processes one manifest file. Read and write failures abort the run; a sink
// failure is logged and reported through Report.Persisted.
func (o *Orchestrator) Run(ctx context.Context, params models.RunParams) (*Report, error) {
	start := o.now()
	runID := o.newID()
	log := o.logger.Named("pipeline").With(zap.String("run", runID))

	format, err := ingest.ResolveFormat(params.Format, params.InputPath)
	if err != nil {
		return nil, err
	}
	log.Info("run started",
		zap.String("input", params.InputPath),
		zap.String("format", string(format)),
		zap.String("operation", string(params.Operation)))

	engine := table.NewEngine(o.options, o.logger)
	builders, pages, err := o.reconstruct(ctx, engine, format, params.InputPath)
	if err != nil {
		return nil, err
	}

	countries := o.countries
	if countries == nil {
		countries = normalize.NewDisplayNamer(params.Locale)
	}
	records := normalize.NewNormalizer(params, countries, o.logger).NormalizeAll(builders)

	flagged := 0
	for _, r := range records {
		if r.HasFlag(normalize.FlagNonNumericAmount) {
			flagged++
		}
	}

	kept, removed := dedup.Dedup(records, params.Operation)

	if err := o.writer.Write(ctx, params.OutputPath, params.Operation, kept); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}

	report := &Report{
		RunSummary: models.RunSummary{
			ID:         runID,
			StartedAt:  start,
			Operation:  params.Operation,
			Port:       params.Port,
			InputFile:  filepath.Base(params.InputPath),
			OutputFile: params.OutputPath,
			Pages:      pages,
			Operations: len(records),
			Kept:       len(kept),
			Removed:    len(removed),
		},
		Format:         format,
		Diagnostics:    engine.Diagnostics(),
		FlaggedAmounts: flagged,
	}
	for _, r := range removed {
		report.RemovedEntities = append(report.RemovedEntities, r.Entity(params.Operation))
	}

	if o.sink != nil {
		if err := o.sink.SaveRun(ctx, report.RunSummary, kept); err != nil {
			log.Warn("failed to persist run", zap.Error(err))
		} else {
			report.Persisted = true
		}
	}

	report.Duration = o.now().Sub(start)
	log.Info("run finished",
		zap.Int("pages", pages),
		zap.Int("operations", len(records)),
		zap.Int("kept", len(kept)),
		zap.Int("removed", len(removed)),
		zap.Duration("took", report.Duration))
	return report, nil
}

func (o *Orchestrator) reconstruct(ctx context.Context, engine *table.Engine, format ingest.Format, path string) ([]*table.Builder, int, error) {
	if format.Positional() {
		src, err := o.sources.PositionSource(format)
		if err != nil {
			return nil, 0, err
		}
		pages, err := src.ReadPositionPages(ctx, path)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read input: %w", err)
		}
		builders, err := engine.ReconstructPositions(pages)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to reconstruct records: %w", err)
		}
		return builders, len(pages), nil
	}

	src, err := o.sources.GridSource(format)
	if err != nil {
		return nil, 0, err
	}
	pages, err := src.ReadPages(ctx, path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read input: %w", err)
	}
	builders, err := engine.Reconstruct(pages)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reconstruct records: %w", err)
	}
	return builders, len(pages), nil
}

// PageHeaders is the header layout found on one page
type PageHeaders struct {
	Page   string
	Window table.Window
	// WindowErr is the missing-marker error, if any
	WindowErr error
	Index     table.HeaderIndex
	// Anchors is set for positional formats only
	Anchors *table.Anchors
}

// Headers reads the input and resolves the header layout of every page without
// reconstructing records. It is meant for tuning keyword tables.
func (o *Orchestrator) Headers(ctx context.Context, params models.RunParams) ([]PageHeaders, error) {
	format, err := ingest.ResolveFormat(params.Format, params.InputPath)
	if err != nil {
		return nil, err
	}

	if format.Positional() {
		src, err := o.sources.PositionSource(format)
		if err != nil {
			return nil, err
		}
		pages, err := src.ReadPositionPages(ctx, params.InputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		keywords := table.AnchorKeywords(o.options)
		out := make([]PageHeaders, 0, len(pages))
		for _, p := range pages {
			anchors := table.ResolveAnchors(p.Runs, keywords)
			_, werr := table.FilterRuns(p.Runs, anchors)
			index := table.NewHeaderIndex()
			if anchors[table.AnchorLine].Found {
				index[table.SlotLine] = 0
			}
			out = append(out, PageHeaders{
				Page:      strconv.Itoa(p.Number),
				WindowErr: werr,
				Index:     index,
				Anchors:   &anchors,
			})
		}
		return out, nil
	}

	src, err := o.sources.GridSource(format)
	if err != nil {
		return nil, err
	}
	pages, err := src.ReadPages(ctx, params.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	out := make([]PageHeaders, 0, len(pages))
	for _, p := range pages {
		win, werr := table.FindWindow(p.Rows, o.options.Markers)
		ph := PageHeaders{Page: p.Name, Window: win, WindowErr: werr, Index: table.NewHeaderIndex()}
		if !errors.Is(werr, table.ErrMissingTotalMarker) {
			ph.Index = table.ResolveHeaders(p.Rows[:win.Start], o.options.Keywords)
		}
		out = append(out, ph)
	}
	return out, nil
}
