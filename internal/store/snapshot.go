package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"popolo/internal/logger"
	"popolo/internal/popolo"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrUnsupportedDSN  = errors.New("unsupported database dsn")
)

const (
	SchemeSQLite   = "sqlite"
	SchemePostgres = "postgres"
)

// Scheme names the backend a DSN selects.
func Scheme(dsn string) (string, error) {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return "", errors.Wrapf(ErrUnsupportedDSN, "no scheme in %q", dsn)
	}
	switch strings.ToLower(scheme) {
	case "sqlite":
		return SchemeSQLite, nil
	case "postgres", "postgresql":
		return SchemePostgres, nil
	}
	return "", errors.Wrapf(ErrUnsupportedDSN, "scheme %q", scheme)
}

// NewSnapshot stamps a fresh revision for in.
func NewSnapshot(in SnapshotInput) (Snapshot, error) {
	if strings.TrimSpace(in.Dataset) == "" {
		return Snapshot{}, errors.New("dataset name is required")
	}
	counts := make(map[string]int, len(popolo.CollectionKeys))
	for _, key := range popolo.CollectionKeys {
		counts[key] = len(in.Records[key])
	}
	return Snapshot{
		Dataset:  in.Dataset,
		Revision: uuid.NewString(),
		Source:   in.Source,
		SavedAt:  time.Now().UTC().Truncate(time.Second),
		Counts:   counts,
	}, nil
}

// Rows flattens records in collection order, keeping each record's
// position.
func Rows(records Records) ([]Row, error) {
	var rows []Row
	for _, collection := range popolo.CollectionKeys {
		for i, rec := range records[collection] {
			data, err := json.Marshal(rec)
			if err != nil {
				return nil, errors.Wrapf(err, "encoding %s record %d", collection, i)
			}
			rows = append(rows, Row{
				Collection: collection,
				Position:   i,
				Key:        RecordKey(rec, data),
				Data:       data,
			})
		}
	}
	return rows, nil
}

// RecordKey is the record id, or a sha256 of its JSON when it has none.
func RecordKey(rec map[string]any, encoded []byte) string {
	if id, ok := rec["id"].(string); ok && id != "" {
		return id
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// DecodeRow appends a stored row to records.
func DecodeRow(records Records, collection string, data []byte) error {
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return errors.Wrapf(err, "decoding %s record", collection)
	}
	records[collection] = append(records[collection], rec)
	return nil
}

// MarshalCounts and UnmarshalCounts move Snapshot.Counts in and out of a
// JSON column.
func MarshalCounts(counts map[string]int) ([]byte, error) {
	b, err := json.Marshal(counts)
	if err != nil {
		return nil, errors.Wrap(err, "encoding counts")
	}
	return b, nil
}

func UnmarshalCounts(data []byte) (map[string]int, error) {
	counts := make(map[string]int)
	if len(data) == 0 {
		return counts, nil
	}
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, errors.Wrap(err, "decoding counts")
	}
	return counts, nil
}

// Save snapshots the aggregate under dataset.
func Save(ctx context.Context, s Store, dataset, source string, p *popolo.Popolo) (Snapshot, error) {
	in := SnapshotInput{Dataset: dataset, Source: source, Records: make(Records, len(popolo.CollectionKeys))}
	data := p.Data()
	for _, key := range popolo.CollectionKeys {
		items, _ := data[key].([]any)
		recs := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if rec, ok := item.(map[string]any); ok {
				recs = append(recs, rec)
			}
		}
		in.Records[key] = recs
	}

	snap, err := s.SaveSnapshot(ctx, in)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "saving dataset %s", dataset)
	}
	logger.Logger.Infow("saved snapshot",
		logger.FieldDataset, dataset,
		logger.FieldRevision, snap.Revision,
		logger.FieldSource, source,
	)
	return snap, nil
}

// Load rebuilds the aggregate from the dataset's latest snapshot.
func Load(ctx context.Context, s Store, dataset string) (*popolo.Popolo, error) {
	records, err := s.LoadRecords(ctx, dataset)
	if err != nil {
		return nil, errors.Wrapf(err, "loading dataset %s", dataset)
	}
	data := make(map[string]any, len(records))
	for collection, recs := range records {
		items := make([]any, len(recs))
		for i, rec := range recs {
			items[i] = rec
		}
		data[collection] = items
	}
	return popolo.FromData(data)
}
