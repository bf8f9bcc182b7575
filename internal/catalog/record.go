package catalog

import (
	"context"
	"fmt"
	"time"
)

// RecordRun inserts the run and its per-container descriptors in a single
// transaction: either the whole run lands in the catalog or none of it.
//
// Run IDs are expected to be fresh UUIDs; reusing an ID is a constraint
// violation, not an idempotent no-op. Timestamps are stored as RFC3339 UTC.
func (c *Catalog) RecordRun(ctx context.Context, run Run, descs []Descriptor) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, source)
		VALUES (?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.Source,
	)
	if err != nil {
		return fmt.Errorf("record run: insert run: %w", err)
	}

	for _, d := range descs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO descriptors (run_id, container, fingerprint, descriptor)
			VALUES (?, ?, ?, ?)
		`,
			run.ID,
			d.Container,
			d.Fingerprint,
			d.Document,
		)
		if err != nil {
			return fmt.Errorf("record run: insert descriptor %s: %w", d.Container, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}

	return nil
}
