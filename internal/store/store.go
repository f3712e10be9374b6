package store

import (
	"context"
)

// Store persists popolo datasets as snapshots: saving a dataset replaces
// its records and stamps a new revision.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	SaveSnapshot(ctx context.Context, in SnapshotInput) (Snapshot, error)
	LoadRecords(ctx context.Context, dataset string) (Records, error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	DeleteDataset(ctx context.Context, dataset string) (int64, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
