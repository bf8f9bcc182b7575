package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// History returns recorded runs for a container, newest first. An empty
// container name returns the history of every container.
//
// Ordering is deterministic: created_at DESC, then run ID, then container.
// RFC3339 UTC timestamps sort lexicographically in time order.
//
// Returns an empty slice (not nil) if nothing has been recorded.
func (c *Catalog) History(ctx context.Context, container string) ([]Entry, error) {
	query := `
		SELECT r.id, r.created_at, r.source, d.container, d.fingerprint
		FROM descriptors d
		JOIN runs r ON d.run_id = r.id
		ORDER BY r.created_at DESC, r.id ASC, d.container ASC
	`
	args := []any{}
	if container != "" {
		query = `
			SELECT r.id, r.created_at, r.source, d.container, d.fingerprint
			FROM descriptors d
			JOIN runs r ON d.run_id = r.id
			WHERE d.container = ?
			ORDER BY r.created_at DESC, r.id ASC
		`
		args = append(args, container)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.RunID, &created, &e.Source, &e.Container, &e.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	// Return empty slice instead of nil
	if entries == nil {
		entries = []Entry{}
	}

	return entries, nil
}

// LatestFingerprint returns the fingerprint recorded for the container in
// the most recent run, and whether any run has recorded it.
func (c *Catalog) LatestFingerprint(ctx context.Context, container string) (string, bool, error) {
	var fp string
	err := c.db.QueryRowContext(ctx, `
		SELECT d.fingerprint
		FROM descriptors d
		JOIN runs r ON d.run_id = r.id
		WHERE d.container = ?
		ORDER BY r.created_at DESC, r.id ASC
		LIMIT 1
	`, container).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("latest fingerprint: %w", err)
	}
	return fp, true, nil
}

// Document returns the serialized descriptor stored for a container in a
// specific run, and whether that pair was ever recorded.
func (c *Catalog) Document(ctx context.Context, runID, container string) (string, bool, error) {
	var doc string
	err := c.db.QueryRowContext(ctx, `
		SELECT descriptor
		FROM descriptors
		WHERE run_id = ? AND container = ?
	`, runID, container).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read descriptor: %w", err)
	}
	return doc, true, nil
}
