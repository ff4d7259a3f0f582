package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidu_reader/pkg/core/grid"
	"sidu_reader/pkg/core/ingest"
	"sidu_reader/pkg/core/normalize"
	"sidu_reader/pkg/core/table"
	"sidu_reader/pkg/models"
)

// --- Mocks ---

type MockGridSource struct {
	ReadPagesFunc func(ctx context.Context, path string) ([]grid.Page, error)
}

func (m *MockGridSource) ReadPages(ctx context.Context, path string) ([]grid.Page, error) {
	return m.ReadPagesFunc(ctx, path)
}

type MockPositionSource struct {
	ReadPositionPagesFunc func(ctx context.Context, path string) ([]grid.PositionPage, error)
}

func (m *MockPositionSource) ReadPositionPages(ctx context.Context, path string) ([]grid.PositionPage, error) {
	return m.ReadPositionPagesFunc(ctx, path)
}

type MockSources struct {
	Grid     ingest.GridSource
	Position ingest.PositionSource
}

func (m *MockSources) GridSource(f ingest.Format) (ingest.GridSource, error) {
	if m.Grid == nil {
		return nil, ingest.ErrUnknownFormat
	}
	return m.Grid, nil
}

func (m *MockSources) PositionSource(f ingest.Format) (ingest.PositionSource, error) {
	if m.Position == nil {
		return nil, ingest.ErrUnknownFormat
	}
	return m.Position, nil
}

type MockWriter struct {
	WriteFunc func(ctx context.Context, path string, op models.OperationType, records []models.Record) error
	Written   []models.Record
	Calls     int
}

func (m *MockWriter) Write(ctx context.Context, path string, op models.OperationType, records []models.Record) error {
	m.Calls++
	m.Written = records
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, path, op, records)
	}
	return nil
}

type MockSink struct {
	SaveRunFunc func(ctx context.Context, run models.RunSummary, records []models.Record) error
	Run         models.RunSummary
	Records     []models.Record
}

func (m *MockSink) SaveRun(ctx context.Context, run models.RunSummary, records []models.Record) error {
	m.Run = run
	m.Records = records
	if m.SaveRunFunc != nil {
		return m.SaveRunFunc(ctx, run, records)
	}
	return nil
}

type mapNamer map[string]string

func (m mapNamer) CountryName(code string) string { return m[code] }

// --- Fixtures ---

var headerRow = []string{
	"Línea", "Lugar de carga", "Número D/T", "Consignatario / Embarcador", "",
	"Número precinto", "", "Bultos", "Marcas transporte",
}

func manifestPage(name string, data ...[]string) grid.Page {
	rows := [][]string{{"MANIFIESTO DE CARGA"}, headerRow, {"", "", "", "", "", "", "", "Total", ""}}
	rows = append(rows, data...)
	rows = append(rows, []string{"", "Impreso el 02/05/2024 10:31"})
	return grid.Page{Name: name, Rows: rows}
}

func dataRow(vals ...string) []string {
	row := make([]string, 9)
	copy(row, vals)
	return row
}

func manifestPages() []grid.Page {
	return []grid.Page{
		manifestPage("1",
			dataRow("MSC", "CLVAP", "BL1", "SH: ACME CN: GLOBEX", "", "MSCU1234567", "", "12", "S/M VINO"),
			dataRow("", "DEPOSITO 3", "", "NY: NOTIFYCO CT: 1", "", "", "", "CARTONS", ""),
			dataRow("CMA", "CLSAI", "BL2", "SH: ACME CN: INITECH", "", "", "", "abc", ""),
		),
		manifestPage("2",
			dataRow("", "", "", "", "", "", "", "", "MAS VINO"),
		),
	}
}

func newTestOrchestrator(sources SourceResolver, writer RecordWriter) *Orchestrator {
	o := NewOrchestrator(sources, writer, table.DefaultOptions(), nil)
	o.SetCountryNamer(mapNamer{"CL": "Chile", "AR": "Argentina"})
	o.newID = func() string { return "run-1" }
	o.now = func() time.Time { return time.Date(2024, 5, 2, 10, 31, 0, 0, time.UTC) }
	return o
}

func gridSources(pages []grid.Page, err error) *MockSources {
	return &MockSources{Grid: &MockGridSource{
		ReadPagesFunc: func(ctx context.Context, path string) ([]grid.Page, error) {
			return pages, err
		},
	}}
}

func exportParams() models.RunParams {
	return models.RunParams{
		Operation:  models.OperationExport,
		Port:       "ARBUE",
		InputPath:  "files/362.xlsx",
		OutputPath: "files/362-processed.xlsx",
	}
}

// --- Tests ---

func TestOrchestrator_Run(t *testing.T) {
	writer := &MockWriter{}
	sink := &MockSink{}
	o := newTestOrchestrator(gridSources(manifestPages(), nil), writer)
	o.SetSink(sink)

	report, err := o.Run(context.Background(), exportParams())
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.ID)
	assert.Equal(t, ingest.FormatXLSX, report.Format)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 2, report.Operations)
	assert.Equal(t, 1, report.Kept)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, []string{"ACME"}, report.RemovedEntities)
	assert.Equal(t, 1, report.FlaggedAmounts)
	assert.Equal(t, "362.xlsx", report.InputFile)
	assert.True(t, report.Persisted)
	assert.Equal(t, 0, report.Diagnostics.SkippedPages)

	require.Equal(t, 1, writer.Calls)
	require.Len(t, writer.Written, 1)
	rec := writer.Written[0]
	assert.Equal(t, "BL1", rec.BLNumber)
	assert.Equal(t, "ACME", rec.Shipper)
	assert.Equal(t, "GLOBEX", rec.Consignee)
	assert.Equal(t, "1", rec.TotalContainers)
	assert.Equal(t, "12", rec.CargoAmount)
	assert.Equal(t, "CARTONS", rec.CargoType)
	assert.Equal(t, "VINO", rec.CargoDescription)
	assert.Equal(t, "CLVAP", rec.OriginPort)
	assert.Equal(t, "DEPOSITO 3", rec.Location)
	assert.Equal(t, "Chile", rec.OriginCountry)
	assert.Equal(t, "Argentina", rec.DestinationCountry)
	assert.Equal(t, "1", rec.Pages)

	assert.Equal(t, report.RunSummary, sink.Run)
	assert.Equal(t, writer.Written, sink.Records)
}

func TestOrchestrator_RunImportKeepsDistinctConsignees(t *testing.T) {
	writer := &MockWriter{}
	o := newTestOrchestrator(gridSources(manifestPages(), nil), writer)

	params := exportParams()
	params.Operation = models.OperationImport
	report, err := o.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Kept)
	assert.Empty(t, report.RemovedEntities)
	assert.False(t, report.Persisted)

	require.Len(t, writer.Written, 2)
	second := writer.Written[1]
	assert.Equal(t, "BL2", second.BLNumber)
	assert.Equal(t, "1, 2", second.Pages)
	assert.Equal(t, "MAS VINO", second.CargoDescription)
	assert.Equal(t, normalize.NaN, second.CargoAmount)
	assert.True(t, second.HasFlag(normalize.FlagNonNumericAmount))
}

func TestOrchestrator_SinkFailureIsNotFatal(t *testing.T) {
	sink := &MockSink{SaveRunFunc: func(ctx context.Context, run models.RunSummary, records []models.Record) error {
		return errors.New("connection refused")
	}}
	o := newTestOrchestrator(gridSources(manifestPages(), nil), &MockWriter{})
	o.SetSink(sink)

	report, err := o.Run(context.Background(), exportParams())
	require.NoError(t, err)
	assert.False(t, report.Persisted)
}

func TestOrchestrator_Failures(t *testing.T) {
	readErr := errors.New("disk gone")
	writeErr := errors.New("read-only")

	tests := []struct {
		name    string
		sources *MockSources
		writer  *MockWriter
		params  func(p *models.RunParams)
		wantErr error
		writes  int
	}{
		{
			name:    "Read error aborts before writing",
			sources: gridSources(nil, readErr),
			writer:  &MockWriter{},
			wantErr: readErr,
		},
		{
			name:    "Write error aborts",
			sources: gridSources(manifestPages(), nil),
			writer: &MockWriter{WriteFunc: func(ctx context.Context, path string, op models.OperationType, records []models.Record) error {
				return writeErr
			}},
			wantErr: writeErr,
			writes:  1,
		},
		{
			name:    "Unknown format",
			sources: gridSources(nil, nil),
			writer:  &MockWriter{},
			params:  func(p *models.RunParams) { p.InputPath = "files/362.csv" },
			wantErr: ingest.ErrUnknownFormat,
		},
		{
			name:    "Positional format without a source",
			sources: gridSources(nil, nil),
			writer:  &MockWriter{},
			params:  func(p *models.RunParams) { p.Format = "pdf" },
			wantErr: ingest.ErrUnknownFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := exportParams()
			if tt.params != nil {
				tt.params(&params)
			}
			o := newTestOrchestrator(tt.sources, tt.writer)

			report, err := o.Run(context.Background(), params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, report)
			assert.Equal(t, tt.writes, tt.writer.Calls)
		})
	}
}

func TestOrchestrator_StrictWindowFailsRun(t *testing.T) {
	pages := []grid.Page{{Name: "1", Rows: [][]string{{"no markers here"}}}}
	opts := table.DefaultOptions()
	opts.Strict = true

	o := NewOrchestrator(gridSources(pages, nil), &MockWriter{}, opts, nil)
	_, err := o.Run(context.Background(), exportParams())
	assert.ErrorIs(t, err, table.ErrMissingTotalMarker)
}

func positionPage(number int, runs ...grid.TextRun) grid.PositionPage {
	all := []grid.TextRun{
		{X: 50, Y: 100, Width: 40, Text: "Línea"},
		{X: 120, Y: 100, Width: 60, Text: "Número D/T"},
		{X: 300, Y: 110, Width: 30, Text: "Total"},
	}
	all = append(all, runs...)
	all = append(all, grid.TextRun{X: 10, Y: 500, Width: 120, Text: "Impreso el 02/05/2024"})
	return grid.PositionPage{Number: number, Runs: all}
}

func TestOrchestrator_RunPositional(t *testing.T) {
	sources := &MockSources{Position: &MockPositionSource{
		ReadPositionPagesFunc: func(ctx context.Context, path string) ([]grid.PositionPage, error) {
			return []grid.PositionPage{
				positionPage(1,
					grid.TextRun{X: 55, Y: 130, Width: 20, Text: "MSC"},
					grid.TextRun{X: 52, Y: 150, Width: 20, Text: "CMA"},
				),
				positionPage(2, grid.TextRun{X: 130, Y: 130, Width: 40, Text: "continued"}),
			}, nil
		},
	}}
	writer := &MockWriter{}
	o := newTestOrchestrator(sources, writer)

	params := exportParams()
	params.InputPath = "files/362.runs.json"
	report, err := o.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, ingest.FormatRunsJSON, report.Format)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 2, report.Operations)
	// both records have no shipper, so the export dedup keeps the first only
	assert.Equal(t, 1, report.Kept)
	require.Len(t, writer.Written, 1)
	assert.Equal(t, "MSC", writer.Written[0].Line)
}

func TestOrchestrator_Headers(t *testing.T) {
	pages := append(manifestPages(), grid.Page{Name: "3", Rows: [][]string{{"cover"}}})
	o := newTestOrchestrator(gridSources(pages, nil), &MockWriter{})

	headers, err := o.Headers(context.Background(), exportParams())
	require.NoError(t, err)
	require.Len(t, headers, 3)

	assert.NoError(t, headers[0].WindowErr)
	assert.Equal(t, 3, headers[0].Window.Start)
	col, ok := headers[0].Index.Column(table.SlotBLNumber)
	assert.True(t, ok)
	assert.Equal(t, 2, col)

	assert.ErrorIs(t, headers[2].WindowErr, table.ErrMissingTotalMarker)
	assert.Len(t, headers[2].Index.UnresolvedSlots(), len(table.AllSlots()))
}

func TestOrchestrator_HeadersPositional(t *testing.T) {
	sources := &MockSources{Position: &MockPositionSource{
		ReadPositionPagesFunc: func(ctx context.Context, path string) ([]grid.PositionPage, error) {
			return []grid.PositionPage{positionPage(4)}, nil
		},
	}}
	o := newTestOrchestrator(sources, &MockWriter{})

	params := exportParams()
	params.Format = "pdf"
	headers, err := o.Headers(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, headers, 1)

	assert.Equal(t, "4", headers[0].Page)
	require.NotNil(t, headers[0].Anchors)
	assert.True(t, headers[0].Anchors[table.AnchorLine].Found)
	col, ok := headers[0].Index.Column(table.SlotLine)
	assert.True(t, ok)
	assert.Equal(t, 0, col)
}
