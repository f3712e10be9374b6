package postgres

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
)

// RunSQL runs a query with positional parameters keyed "1", "2", ...
func (c *Client) RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	args := make([]any, 0, len(params))
	for i := 1; i <= len(params); i++ {
		if val, ok := params[strconv.Itoa(i)]; ok {
			args = append(args, val)
		}
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "running sql")
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	results := make([]map[string]any, 0)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, "getting row values")
		}

		row := make(map[string]any, len(fieldDescriptions))
		for i, fd := range fieldDescriptions {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating sql rows")
	}

	return results, nil
}
