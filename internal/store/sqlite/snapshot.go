package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

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

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Snapshot{}, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	query := `
	INSERT INTO datasets (name, revision, source, saved_at, counts)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (name) DO UPDATE SET
		revision = excluded.revision,
		source = excluded.source,
		saved_at = excluded.saved_at,
		counts = excluded.counts
	`
	if _, err := tx.ExecContext(ctx, query,
		snap.Dataset,
		snap.Revision,
		snap.Source,
		snap.SavedAt.Format(time.RFC3339),
		string(counts),
	); err != nil {
		return store.Snapshot{}, errors.Wrap(err, "upserting dataset")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE dataset = ?`, snap.Dataset); err != nil {
		return store.Snapshot{}, errors.Wrap(err, "clearing records")
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (dataset, collection, position, record_key, data)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return store.Snapshot{}, errors.Wrap(err, "preparing record insert")
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, snap.Dataset, row.Collection, row.Position, row.Key, string(row.Data)); err != nil {
			return store.Snapshot{}, errors.Wrapf(err, "inserting %s record %d", row.Collection, row.Position)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.Snapshot{}, errors.Wrap(err, "committing snapshot")
	}
	return snap, nil
}

func (c *Client) LoadRecords(ctx context.Context, dataset string) (store.Records, error) {
	var exists int
	err := c.db.QueryRowContext(ctx, `SELECT 1 FROM datasets WHERE name = ?`, dataset).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(store.ErrDatasetNotFound, "%s", dataset)
	}
	if err != nil {
		return nil, errors.Wrap(err, "looking up dataset")
	}

	query := `
	SELECT collection, data FROM records
	WHERE dataset = ?
	ORDER BY collection, position
	`
	rows, err := c.db.QueryContext(ctx, query, dataset)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer rows.Close()

	records := make(store.Records)
	for rows.Next() {
		var collection, data string
		if err := rows.Scan(&collection, &data); err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		if err := store.DecodeRow(records, collection, []byte(data)); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating records")
	}
	return records, nil
}

func (c *Client) ListSnapshots(ctx context.Context) ([]store.Snapshot, error) {
	rows, err := c.db.QueryContext(ctx, `
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
		var savedAt, counts string
		if err := rows.Scan(&snap.Dataset, &snap.Revision, &snap.Source, &savedAt, &counts); err != nil {
			return nil, errors.Wrap(err, "scanning snapshot")
		}
		snap.SavedAt, err = time.Parse(time.RFC3339, savedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing saved_at of %s", snap.Dataset)
		}
		snap.Counts, err = store.UnmarshalCounts([]byte(counts))
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
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM records WHERE dataset = ?`, dataset)
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "getting rows affected")
	}

	result, err = tx.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, dataset)
	if err != nil {
		return 0, errors.Wrap(err, "deleting dataset")
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "getting rows affected")
	}
	if removed == 0 {
		return 0, errors.Wrapf(store.ErrDatasetNotFound, "%s", dataset)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing delete")
	}
	return affected, nil
}
