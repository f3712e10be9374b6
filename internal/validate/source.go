package validate

import (
	"context"

	"popolo/internal/loader"
	"popolo/internal/popolo"
	"popolo/internal/store"
)

// Source supplies the aggregate to check.
type Source interface {
	Dataset(ctx context.Context) (*popolo.Popolo, error)
}

// StoreSource reads the latest snapshot of a stored dataset.
type StoreSource struct {
	Store store.Store
	Name  string
}

func (s StoreSource) Dataset(ctx context.Context) (*popolo.Popolo, error) {
	return store.Load(ctx, s.Store, s.Name)
}

// LocationSource loads a file path or URL.
type LocationSource struct {
	Location string
}

func (s LocationSource) Dataset(ctx context.Context) (*popolo.Popolo, error) {
	return loader.Load(ctx, s.Location)
}

// Loaded wraps an aggregate that is already in memory.
type Loaded struct {
	Popolo *popolo.Popolo
}

func (l Loaded) Dataset(context.Context) (*popolo.Popolo, error) {
	return l.Popolo, nil
}
