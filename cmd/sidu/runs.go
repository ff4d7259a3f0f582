package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sidu_reader/pkg/config"
	"sidu_reader/pkg/core/store"
	"sidu_reader/pkg/models"
)

// runReader reads back saved runs
type runReader interface {
	RunExists(ctx context.Context, runID string) bool
	GetRunRecords(ctx context.Context, runID string) ([]models.Record, error)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect runs saved with --persist",
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the operations saved for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  showSavedRun,
}

func init() {
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// databaseURL resolves DATABASE_URL the way loadProfile does, without requiring an input
func databaseURL() (string, error) {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return "", err
	}
	p, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	p.ApplyEnv(os.Getenv)
	return p.DatabaseURL, nil
}

func showSavedRun(cmd *cobra.Command, args []string) error {
	url, err := databaseURL()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := store.InitDB(ctx, url); err != nil {
		return err
	}
	defer store.Close()

	return showRun(ctx, cmd.OutOrStdout(), store.NewManifestRepo(store.GetPool()), args[0])
}

func showRun(ctx context.Context, w io.Writer, repo runReader, runID string) error {
	if !repo.RunExists(ctx, runID) {
		return fmt.Errorf("run %s not found", runID)
	}
	records, err := repo.GetRunRecords(ctx, runID)
	if err != nil {
		return err
	}
	printRecords(w, runID, records)
	return nil
}
