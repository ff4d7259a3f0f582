// Package ingest reads manifest exports into grid pages or positioned text runs.
// Each input format has one source; Registry picks it from a format name or a file
// extension.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sidu_reader/pkg/core/grid"
)

// ErrUnknownFormat is returned for a format name or extension no source handles
var ErrUnknownFormat = errors.New("unknown input format")

// Format is an input format name
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
	FormatRunsJSON Format = "runs.json"
)

// Positional reports whether the format yields text runs instead of grids
func (f Format) Positional() bool {
	return f == FormatPDF || f == FormatRunsJSON
}

// ParseFormat accepts a format name, case-insensitively, with common aliases
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "html", "htm":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	case "runs.json", "runs", "json":
		return FormatRunsJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// DetectFormat picks the format from the file name
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".runs.json") || strings.HasSuffix(name, ".json") {
		return FormatRunsJSON, nil
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// ResolveFormat uses the explicit format when given, else the file extension
func ResolveFormat(explicit, path string) (Format, error) {
	if strings.TrimSpace(explicit) != "" {
		return ParseFormat(explicit)
	}
	return DetectFormat(path)
}

// GridSource reads a spreadsheet-like export as one grid per page
type GridSource interface {
	ReadPages(ctx context.Context, path string) ([]grid.Page, error)
}

// PositionSource reads a position-addressed document as text runs per page
type PositionSource interface {
	ReadPositionPages(ctx context.Context, path string) ([]grid.PositionPage, error)
}

// Registry maps formats to their sources
type Registry struct {
	grids     map[Format]GridSource
	positions map[Format]PositionSource
}

// NewRegistry returns a registry with every built-in source
func NewRegistry(logger *zap.Logger) *Registry {
	logger = orNop(logger).Named("ingest")

	return &Registry{
		grids: map[Format]GridSource{
			FormatXLSX:     NewXLSXSource(logger),
			FormatHTML:     NewHTMLSource(logger),
			FormatMarkdown: NewMarkdownSource(logger),
		},
		positions: map[Format]PositionSource{
			FormatPDF:      NewPDFSource(logger),
			FormatRunsJSON: NewRunsJSONSource(logger),
		},
	}
}

// GridSource returns the grid source for f
func (r *Registry) GridSource(f Format) (GridSource, error) {
	src, ok := r.grids[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a grid format", ErrUnknownFormat, f)
	}
	return src, nil
}

// PositionSource returns the position source for f
func (r *Registry) PositionSource(f Format) (PositionSource, error) {
	src, ok := r.positions[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a positional format", ErrUnknownFormat, f)
	}
	return src, nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
