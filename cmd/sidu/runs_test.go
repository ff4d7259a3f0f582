package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidu_reader/pkg/models"
)

type mockRunReader struct {
	RunExistsFunc     func(ctx context.Context, runID string) bool
	GetRunRecordsFunc func(ctx context.Context, runID string) ([]models.Record, error)
}

func (m *mockRunReader) RunExists(ctx context.Context, runID string) bool {
	return m.RunExistsFunc(ctx, runID)
}

func (m *mockRunReader) GetRunRecords(ctx context.Context, runID string) ([]models.Record, error) {
	return m.GetRunRecordsFunc(ctx, runID)
}

func TestShowRun(t *testing.T) {
	repo := &mockRunReader{
		RunExistsFunc: func(_ context.Context, runID string) bool { return runID == "run-1" },
		GetRunRecordsFunc: func(_ context.Context, runID string) ([]models.Record, error) {
			return []models.Record{{BLNumber: "BL1"}, {BLNumber: "BL2"}}, nil
		},
	}

	var buf bytes.Buffer
	require.NoError(t, showRun(context.Background(), &buf, repo, "run-1"))
	assert.Contains(t, buf.String(), "BL2")
	assert.Regexp(t, `Total operations:\s+2`, buf.String())

	buf.Reset()
	err := showRun(context.Background(), &buf, repo, "run-9")
	assert.EqualError(t, err, "run run-9 not found")
	assert.Empty(t, buf.String())
}

func TestShowRun_QueryError(t *testing.T) {
	repo := &mockRunReader{
		RunExistsFunc: func(context.Context, string) bool { return true },
		GetRunRecordsFunc: func(context.Context, string) ([]models.Record, error) {
			return nil, errors.New("connection reset")
		},
	}

	err := showRun(context.Background(), &bytes.Buffer{}, repo, "run-1")
	assert.EqualError(t, err, "connection reset")
}
