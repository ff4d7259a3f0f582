// Package config loads run profiles from YAML or HJSON files, the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"sidu_reader/pkg/core/ingest"
	"sidu_reader/pkg/core/table"
	"sidu_reader/pkg/core/utils"
	"sidu_reader/pkg/models"
)

// Environment variables that override profile values
const (
	EnvOperation   = "SIDU_OPERATION"
	EnvPort        = "SIDU_PORT"
	EnvLocale      = "SIDU_LOCALE"
	EnvDatabaseURL = "DATABASE_URL"
)

// Profile holds everything a run needs besides the input data
type Profile struct {
	Operation    string            `yaml:"operation" json:"operation"`
	Port         string            `yaml:"port" json:"port"`
	Input        string            `yaml:"input" json:"input"`
	Output       string            `yaml:"output" json:"output"`
	Format       string            `yaml:"format" json:"format"`
	Locale       string            `yaml:"locale" json:"locale"`
	KeyColumn    int               `yaml:"key_column" json:"key_column"`
	StrictWindow bool              `yaml:"strict_window" json:"strict_window"`
	RowTolerance float64           `yaml:"row_tolerance" json:"row_tolerance"`
	Keywords     map[string]string `yaml:"keywords" json:"keywords"`
	Markers      table.Markers     `yaml:"markers" json:"markers"`
	DatabaseURL  string            `yaml:"database_url" json:"database_url"`
}

// Default returns the profile of the customs manifest export
func Default() Profile {
	opts := table.DefaultOptions()
	return Profile{
		Operation:    string(models.OperationExport),
		Port:         "<unknown>",
		Locale:       "es",
		KeyColumn:    opts.KeyColumn,
		RowTolerance: opts.RowTolerance,
		Markers:      opts.Markers,
	}
}

// Load reads a profile file over the defaults. YAML is chosen by a .yaml/.yml
// extension; anything else is read as HJSON, which also accepts plain JSON.
// An empty path returns the defaults.
func Load(path string) (Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	default:
		if err := utils.DecodeHJSON(data, &p); err != nil {
			return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	}
	return p, nil
}

// LoadDotEnv loads .env files into the process environment without overriding
// variables already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides profile values with non-empty environment variables
func (p *Profile) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvOperation); v != "" {
		p.Operation = v
	}
	if v := getenv(EnvPort); v != "" {
		p.Port = v
	}
	if v := getenv(EnvLocale); v != "" {
		p.Locale = v
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		p.DatabaseURL = v
	}
}

// Validate reports the first setting a run cannot start with
func (p Profile) Validate() error {
	if _, err := models.ParseOperationType(p.Operation); err != nil {
		return err
	}
	if strings.TrimSpace(p.Input) == "" {
		return fmt.Errorf("input path is required")
	}
	if _, err := ingest.ResolveFormat(p.Format, p.Input); err != nil {
		return err
	}
	if p.KeyColumn < 0 {
		return fmt.Errorf("key_column must not be negative, got %d", p.KeyColumn)
	}
	if p.RowTolerance <= 0 {
		return fmt.Errorf("row_tolerance must be positive, got %g", p.RowTolerance)
	}
	if _, err := table.KeywordsWithOverrides(p.Keywords); err != nil {
		return fmt.Errorf("invalid keywords: %w", err)
	}
	if strings.TrimSpace(p.Markers.Total) == "" || strings.TrimSpace(p.Markers.Footer) == "" {
		return fmt.Errorf("markers.total and markers.footer are required")
	}
	return nil
}

// TableOptions converts the profile to engine options
func (p Profile) TableOptions() (table.Options, error) {
	kws, err := table.KeywordsWithOverrides(p.Keywords)
	if err != nil {
		return table.Options{}, err
	}
	return table.Options{
		Keywords:     kws,
		Markers:      p.Markers,
		KeyColumn:    p.KeyColumn,
		Strict:       p.StrictWindow,
		RowTolerance: p.RowTolerance,
	}, nil
}

// RunParams converts the profile to run parameters. Without an output path the
// workbook is written next to the input as "<name>-processed.xlsx".
func (p Profile) RunParams() (models.RunParams, error) {
	op, err := models.ParseOperationType(p.Operation)
	if err != nil {
		return models.RunParams{}, err
	}

	out := p.Output
	if out == "" {
		out = ProcessedPath(p.Input)
	}
	return models.RunParams{
		Operation:  op,
		Port:       strings.TrimSpace(p.Port),
		InputPath:  p.Input,
		OutputPath: out,
		Format:     p.Format,
		Locale:     p.Locale,
	}, nil
}

// ProcessedPath derives the default output path for input
func ProcessedPath(input string) string {
	base := filepath.Base(input)
	lower := strings.ToLower(base)
	for _, ext := range []string{".runs.json", strings.ToLower(filepath.Ext(base))} {
		if ext != "" && strings.HasSuffix(lower, ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}
	return filepath.Join(filepath.Dir(input), base+"-processed.xlsx")
}
