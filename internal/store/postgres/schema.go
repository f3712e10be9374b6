package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// PostgreSQL runs a multi-statement Exec in one implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS datasets (
    name     TEXT PRIMARY KEY,
    revision TEXT NOT NULL,
    source   TEXT NOT NULL DEFAULT '',
    saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    counts   JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS records (
    dataset    TEXT NOT NULL REFERENCES datasets(name) ON DELETE CASCADE,
    collection TEXT NOT NULL,
    position   INTEGER NOT NULL,
    record_key TEXT NOT NULL,
    data       JSONB NOT NULL,
    PRIMARY KEY (dataset, collection, position)
);

CREATE INDEX IF NOT EXISTS idx_records_key ON records (dataset, collection, record_key);
CREATE INDEX IF NOT EXISTS idx_records_data ON records USING GIN (data);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return errors.Wrap(err, "ensuring schema")
	}
	return nil
}
