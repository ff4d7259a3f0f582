package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidu_reader/pkg/core/grid"
)

func headerRuns() []grid.TextRun {
	return []grid.TextRun{
		{X: 50, Y: 100, Width: 40, Text: "Línea"},
		{X: 120, Y: 100, Width: 60, Text: "Número D/T"},
		{X: 200, Y: 100, Width: 70, Text: "Lugar de carga"},
		{X: 300, Y: 110, Width: 30, Text: "Total"},
	}
}

func footerRun() grid.TextRun {
	return grid.TextRun{X: 10, Y: 500, Width: 120, Text: "Impreso el 02/05/2024"}
}

func TestAnchor_ContainsIsHalfOpen(t *testing.T) {
	a := Anchor{X: 50, Width: 40, Found: true}
	assert.True(t, a.Contains(50))
	assert.True(t, a.Contains(89.9))
	assert.False(t, a.Contains(90))
	assert.False(t, a.Contains(49.9))
	assert.False(t, Anchor{X: 50, Width: 40}.Contains(60))
}

func TestResolveAnchors(t *testing.T) {
	runs := append(headerRuns(), footerRun())
	anchors := ResolveAnchors(runs, AnchorKeywords(DefaultOptions()))

	assert.Equal(t, Anchor{X: 50, Y: 100, Width: 40, Found: true}, anchors[AnchorLine])
	assert.True(t, anchors[AnchorDocNumber].Found)
	assert.True(t, anchors[AnchorCargoLocation].Found)
	assert.Equal(t, 110.0, anchors[AnchorTotal].Y)
	assert.Equal(t, 500.0, anchors[AnchorFooter].Y)
}

func TestFilterRuns(t *testing.T) {
	runs := append(headerRuns(),
		grid.TextRun{X: 55, Y: 130, Text: "MSC"},
		grid.TextRun{X: 60, Y: 140, Text: "   "},
		footerRun(),
		grid.TextRun{X: 55, Y: 520, Text: "page 1 of 3"},
	)
	anchors := ResolveAnchors(runs, AnchorKeywords(DefaultOptions()))

	out, err := FilterRuns(runs, anchors)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "MSC", out[0].Text)

	anchors[AnchorFooter] = Anchor{}
	out, err = FilterRuns(runs, anchors)
	assert.ErrorIs(t, err, ErrMissingFooterMarker)
	assert.Len(t, out, 3)

	anchors[AnchorTotal] = Anchor{}
	_, err = FilterRuns(runs, anchors)
	assert.ErrorIs(t, err, ErrMissingTotalMarker)
}

func TestGroupRows(t *testing.T) {
	rows := GroupRows([]grid.TextRun{
		{X: 120, Y: 131, Text: "BL1"},
		{X: 55, Y: 130, Text: "MSC"},
		{X: 55, Y: 150, Text: "CMA"},
	}, 2)

	require.Len(t, rows, 2)
	assert.Equal(t, "MSC", rows[0][0].Text)
	assert.Equal(t, "BL1", rows[0][1].Text)
	assert.Equal(t, "CMA", rows[1][0].Text)
}

func TestEngine_PositionPages(t *testing.T) {
	page1 := append(headerRuns(),
		grid.TextRun{X: 55, Y: 130, Width: 20, Text: "MSC"},
		grid.TextRun{X: 125, Y: 130, Width: 30, Text: "BL1"},
		grid.TextRun{X: 52, Y: 150, Width: 20, Text: "CMA"},
		grid.TextRun{X: 130, Y: 170, Width: 40, Text: "continuation"},
		footerRun(),
	)
	page2 := append(headerRuns(),
		grid.TextRun{X: 130, Y: 130, Width: 40, Text: "still CMA"},
		footerRun(),
	)

	e := NewEngine(DefaultOptions(), nil)
	builders, err := e.ReconstructPositions([]grid.PositionPage{
		{Number: 1, Runs: page1},
		{Number: 2, Runs: page2},
	})
	require.NoError(t, err)
	require.Len(t, builders, 2)

	assert.Equal(t, "MSC", builders[0].Key)
	assert.Equal(t, "MSC", builders[0].Line)
	assert.Equal(t, []string{"1"}, builders[0].Pages())

	assert.Equal(t, "CMA", builders[1].Line)
	assert.Equal(t, []string{"1", "2"}, builders[1].Pages())
}

func TestEngine_PositionPageWithoutLineAnchorIsSkipped(t *testing.T) {
	e := NewEngine(DefaultOptions(), nil)
	require.NoError(t, e.ProcessPositionPage(grid.PositionPage{
		Number: 1,
		Runs:   []grid.TextRun{{X: 300, Y: 110, Width: 30, Text: "Total"}, footerRun()},
	}))

	assert.Equal(t, 1, e.Diagnostics().SkippedPages)
	assert.Empty(t, e.Drain())
}
