package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"popolo/internal/store"
)

func (c *Client) SaveSnapshot(ctx context.Context, in store.SnapshotInput) (store.Snapshot, error) {
	snap, err := store.NewSnapshot(in)
	if err != nil {
		return store.Snapshot{}, err
	}
	rows, err := store.Rows(in.Records)
	if err != nil {
		return store.Snapshot{}, err
	}
	counts, err := store.MarshalCounts(snap.Counts)
	if err != nil {
		return store.Snapshot{}, err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return store.Snapshot{}, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO datasets (name, revision, source, saved_at, counts)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE SET
    revision = EXCLUDED.revision,
    source = EXCLUDED.source,
    saved_at = EXCLUDED.saved_at,
    counts = EXCLUDED.counts
`
	if _, err := tx.Exec(ctx, query, snap.Dataset, snap.Revision, snap.Source, snap.SavedAt, counts); err != nil {
		return store.Snapshot{}, errors.Wrap(err, "upserting dataset")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM records WHERE dataset = $1`, snap.Dataset); err != nil {
		return store.Snapshot{}, errors.Wrap(err, "clearing records")
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"records"},
		[]string{"dataset", "collection", "position", "record_key", "data"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{snap.Dataset, r.Collection, r.Position, r.Key, string(r.Data)}, nil
		}),
	)
	if err != nil {
		return store.Snapshot{}, errors.Wrap(err, "copying records")
	}
	if copied != int64(len(rows)) {
		return store.Snapshot{}, errors.Newf("copied %d of %d records", copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return store.Snapshot{}, errors.Wrap(err, "committing snapshot")
	}
	return snap, nil
}

func (c *Client) LoadRecords(ctx context.Context, dataset string) (store.Records, error) {
	var exists int
	err := c.pool.QueryRow(ctx, `SELECT 1 FROM datasets WHERE name = $1`, dataset).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(store.ErrDatasetNotFound, "%s", dataset)
	}
	if err != nil {
		return nil, errors.Wrap(err, "looking up dataset")
	}

	query := `
SELECT collection, data FROM records
WHERE dataset = $1
ORDER BY collection, position
`
	rows, err := c.pool.Query(ctx, query, dataset)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer rows.Close()

	records := make(store.Records)
	for rows.Next() {
		var collection string
		var data []byte
		if err := rows.Scan(&collection, &data); err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		if err := store.DecodeRow(records, collection, data); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating records")
	}
	return records, nil
}

func (c *Client) ListSnapshots(ctx context.Context) ([]store.Snapshot, error) {
	rows, err := c.pool.Query(ctx, `
SELECT name, revision, source, saved_at, counts FROM datasets
ORDER BY name
`)
	if err != nil {
		return nil, errors.Wrap(err, "listing snapshots")
	}
	defer rows.Close()

	var snaps []store.Snapshot
	for rows.Next() {
		var snap store.Snapshot
		var counts []byte
		if err := rows.Scan(&snap.Dataset, &snap.Revision, &snap.Source, &snap.SavedAt, &counts); err != nil {
			return nil, errors.Wrap(err, "scanning snapshot")
		}
		snap.SavedAt = snap.SavedAt.UTC()
		snap.Counts, err = store.UnmarshalCounts(counts)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating snapshots")
	}
	return snaps, nil
}

// DeleteDataset removes the dataset and returns how many records went with
// it.
func (c *Client) DeleteDataset(ctx context.Context, dataset string) (int64, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM records WHERE dataset = $1`, dataset)
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	affected := tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM datasets WHERE name = $1`, dataset)
	if err != nil {
		return 0, errors.Wrap(err, "deleting dataset")
	}
	if tag.RowsAffected() == 0 {
		return 0, errors.Wrapf(store.ErrDatasetNotFound, "%s", dataset)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "committing delete")
	}
	return affected, nil
}
