package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sidu_reader/pkg/config"
	"sidu_reader/pkg/core/export"
	"sidu_reader/pkg/core/ingest"
	"sidu_reader/pkg/core/pipeline"
	"sidu_reader/pkg/core/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFiles   []string

	// Profile overrides
	operation string
	port      string
	output    string
	format    string
	locale    string
	strict    bool
	persist   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sidu [input]",
	Short: "sidu - manifest table reconstruction",
	Long: `sidu rebuilds bill-of-lading level operations from customs manifest exports.

Headers are located by keyword on every page, records are carried across rows and
pages, and the cleaned operations are written to a workbook with a single "data" sheet.

Inputs: xlsx, html, md (grid exports) and pdf, runs.json (positioned text).`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runManifest,
}

var runCmd = &cobra.Command{
	Use:   "run [input]",
	Short: "Reconstruct, clean and write the operations of a manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runManifest,
}

var headersCmd = &cobra.Command{
	Use:   "headers [input]",
	Short: "Show the header columns resolved on every page",
	Long: `Reads the input and prints, per page, the table window and the column (or
anchor) each field was matched to. Use it to tune keyword tables for a new export.`,
	Args: cobra.MaximumNArgs(1),
	RunE: showHeaders,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Profile file (.yaml, .yml, .hjson or .json)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Dotenv files to load")
	rootCmd.PersistentFlags().StringVar(&operation, "op", "", "Operation type: import or export")
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "Destination port (UN/LOCODE)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output workbook path")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "Input format (default: from extension)")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Locale for country names")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Fail on pages missing a window marker")
	rootCmd.PersistentFlags().BoolVar(&persist, "persist", false, "Save the run to Postgres (DATABASE_URL)")

	rootCmd.AddCommand(runCmd, headersCmd)
}

// loadProfile layers defaults, the profile file, the environment and changed flags
func loadProfile(cmd *cobra.Command, args []string) (config.Profile, error) {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return config.Profile{}, err
	}

	p, err := config.Load(configPath)
	if err != nil {
		return p, err
	}
	p.ApplyEnv(os.Getenv)

	flags := cmd.Flags()
	if flags.Changed("op") {
		p.Operation = operation
	}
	if flags.Changed("port") {
		p.Port = port
	}
	if flags.Changed("output") {
		p.Output = output
	}
	if flags.Changed("format") {
		p.Format = format
	}
	if flags.Changed("locale") {
		p.Locale = locale
	}
	if flags.Changed("strict") {
		p.StrictWindow = strict
	}
	if len(args) > 0 {
		p.Input = args[0]
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

func newOrchestrator(p config.Profile) (*pipeline.Orchestrator, error) {
	opts, err := p.TableOptions()
	if err != nil {
		return nil, err
	}
	return pipeline.NewOrchestrator(ingest.NewRegistry(logger), export.NewWorkbookWriter(logger), opts, logger), nil
}

func runManifest(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(cmd, args)
	if err != nil {
		return err
	}
	params, err := p.RunParams()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orch, err := newOrchestrator(p)
	if err != nil {
		return err
	}

	if persist {
		if err := store.InitDB(ctx, p.DatabaseURL); err != nil {
			logger.Warn("persistence disabled", zap.Error(err))
		} else {
			defer store.Close()
			repo := store.NewManifestRepo(store.GetPool())
			if err := repo.EnsureSchema(ctx); err != nil {
				logger.Warn("persistence disabled", zap.Error(err))
			} else {
				orch.SetSink(repo)
			}
		}
	}

	report, err := orch.Run(ctx, params)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), params.InputPath, report)
	return nil
}

func showHeaders(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(cmd, args)
	if err != nil {
		return err
	}
	params, err := p.RunParams()
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(p)
	if err != nil {
		return err
	}

	pages, err := orch.Headers(cmd.Context(), params)
	if err != nil {
		return err
	}
	printHeaders(cmd.OutOrStdout(), pages)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
