package sqlite

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS datasets (
		name     TEXT PRIMARY KEY,
		revision TEXT NOT NULL,
		source   TEXT NOT NULL DEFAULT '',
		saved_at TEXT NOT NULL,
		counts   TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS records (
		dataset    TEXT NOT NULL REFERENCES datasets(name) ON DELETE CASCADE,
		collection TEXT NOT NULL,
		position   INTEGER NOT NULL,
		record_key TEXT NOT NULL,
		data       TEXT NOT NULL,
		PRIMARY KEY (dataset, collection, position)
	);

	-- lookups by id within a collection
	CREATE INDEX IF NOT EXISTS idx_records_key ON records (dataset, collection, record_key);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "executing DDL")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing schema transaction")
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
