package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sidu_reader/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS manifest_runs (
	id           TEXT PRIMARY KEY,
	started_at   TIMESTAMPTZ NOT NULL,
	op_type      TEXT NOT NULL,
	port         TEXT NOT NULL,
	input_file   TEXT NOT NULL,
	output_file  TEXT NOT NULL,
	pages        INT NOT NULL,
	operations   INT NOT NULL,
	kept         INT NOT NULL,
	removed      INT NOT NULL
);

CREATE TABLE IF NOT EXISTS manifest_records (
	run_id              TEXT NOT NULL REFERENCES manifest_runs(id) ON DELETE CASCADE,
	position            INT NOT NULL,
	bl_number           TEXT NOT NULL,
	line                TEXT NOT NULL,
	shipper             TEXT NOT NULL,
	consignee           TEXT NOT NULL,
	notify              TEXT NOT NULL,
	total_containers    TEXT NOT NULL,
	location            TEXT NOT NULL,
	origin_port         TEXT NOT NULL,
	origin_country      TEXT NOT NULL,
	destination_port    TEXT NOT NULL,
	destination_country TEXT NOT NULL,
	cargo_amount        TEXT NOT NULL,
	cargo_type          TEXT NOT NULL,
	cargo_description   TEXT NOT NULL,
	containers          TEXT NOT NULL,
	pages               TEXT NOT NULL,
	file                TEXT NOT NULL,
	op_type             TEXT NOT NULL,
	flags               TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (run_id, position)
);
`

// ManifestRepo persists runs and their kept records to Postgres
type ManifestRepo struct {
	pool *pgxpool.Pool
}

// NewManifestRepo creates a repository; a nil pool makes every call return ErrNoPool
func NewManifestRepo(pool *pgxpool.Pool) *ManifestRepo {
	return &ManifestRepo{pool: pool}
}

// EnsureSchema creates the tables when missing
func (r *ManifestRepo) EnsureSchema(ctx context.Context) error {
	if r.pool == nil {
		return ErrNoPool
	}
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun stores the run and its records in one transaction. Saving a run ID again
// replaces its records.
func (r *ManifestRepo) SaveRun(ctx context.Context, run models.RunSummary, records []models.Record) error {
	if r.pool == nil {
		return ErrNoPool
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO manifest_runs (
			id, started_at, op_type, port, input_file, output_file,
			pages, operations, kept, removed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			output_file = EXCLUDED.output_file,
			pages = EXCLUDED.pages,
			operations = EXCLUDED.operations,
			kept = EXCLUDED.kept,
			removed = EXCLUDED.removed
	`, run.ID, run.StartedAt, string(run.Operation), run.Port, run.InputFile, run.OutputFile,
		run.Pages, run.Operations, run.Kept, run.Removed)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM manifest_records WHERE run_id = $1", run.ID); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	if len(records) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"manifest_records"},
			recordColumns,
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				return recordValues(run.ID, i, records[i]), nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to save records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRunRecords returns the records of a run in their written order
func (r *ManifestRepo) GetRunRecords(ctx context.Context, runID string) ([]models.Record, error) {
	if r.pool == nil {
		return nil, ErrNoPool
	}

	rows, err := r.pool.Query(ctx, `
		SELECT bl_number, line, shipper, consignee, notify, total_containers, location,
			origin_port, origin_country, destination_port, destination_country,
			cargo_amount, cargo_type, cargo_description, containers, pages, file, op_type, flags
		FROM manifest_records
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var rec models.Record
		var opType string
		if err := rows.Scan(&rec.BLNumber, &rec.Line, &rec.Shipper, &rec.Consignee, &rec.Notify,
			&rec.TotalContainers, &rec.Location, &rec.OriginPort, &rec.OriginCountry,
			&rec.DestinationPort, &rec.DestinationCountry, &rec.CargoAmount, &rec.CargoType,
			&rec.CargoDescription, &rec.Containers, &rec.Pages, &rec.File, &opType, &rec.Flags); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		rec.OpType = models.OperationType(opType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return records, nil
}

// RunExists checks if a run was already saved
func (r *ManifestRepo) RunExists(ctx context.Context, runID string) bool {
	if r.pool == nil {
		return false
	}

	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM manifest_runs WHERE id = $1)", runID).Scan(&exists)
	return err == nil && exists
}

var recordColumns = []string{
	"run_id", "position", "bl_number", "line", "shipper", "consignee", "notify",
	"total_containers", "location", "origin_port", "origin_country", "destination_port",
	"destination_country", "cargo_amount", "cargo_type", "cargo_description", "containers",
	"pages", "file", "op_type", "flags",
}

func recordValues(runID string, position int, rec models.Record) []any {
	flags := rec.Flags
	if flags == nil {
		flags = []string{}
	}
	return []any{
		runID, position, rec.BLNumber, rec.Line, rec.Shipper, rec.Consignee, rec.Notify,
		rec.TotalContainers, rec.Location, rec.OriginPort, rec.OriginCountry, rec.DestinationPort,
		rec.DestinationCountry, rec.CargoAmount, rec.CargoType, rec.CargoDescription, rec.Containers,
		rec.Pages, rec.File, string(rec.OpType), flags,
	}
}
