package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popolo/internal/popolo"
	"popolo/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "popolo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })
	require.NoError(t, c.EnsureSchema(ctx))
	return c
}

func sample(t *testing.T) *popolo.Popolo {
	t.Helper()
	p := popolo.New()
	require.NoError(t, p.Add(
		popolo.NewPerson(popolo.Record{"id": "p1", "name": "Aivar Kokk", "birth_date": "1960"}),
		popolo.NewPerson(popolo.Record{"id": "p2", "name": "Andres Herkel"}),
		popolo.NewOrganization(popolo.Record{"id": "riigikogu", "name": "Riigikogu", "seats": 101.0}),
		popolo.NewEvent(popolo.Record{"id": "term/13", "classification": "legislative period", "start_date": "2015-03-30"}),
		popolo.NewMembership(popolo.Record{"person_id": "p1", "organization_id": "riigikogu", "legislative_period_id": "term/13"}),
		popolo.NewMembership(popolo.Record{"person_id": "p2", "organization_id": "riigikogu"}),
	))
	return p
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.EnsureSchema(context.Background()))
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	p := sample(t)

	snap, err := store.Save(ctx, c, "estonia", "./ep-popolo.json", p)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Counts["memberships"])

	loaded, err := store.Load(ctx, c, "estonia")
	require.NoError(t, err)
	if diff := cmp.Diff(p.Data(), loaded.Data()); diff != "" {
		t.Fatalf("snapshot mismatch (-saved +loaded):\n%s", diff)
	}

	m := loaded.Memberships.At(0)
	term, err := m.LegislativePeriod()
	require.NoError(t, err)
	assert.Equal(t, "term/13", term.ID())
}

func TestSaveReplacesRecords(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	first, err := store.Save(ctx, c, "estonia", "v1", sample(t))
	require.NoError(t, err)

	smaller := popolo.New()
	require.NoError(t, smaller.Add(popolo.NewPerson(popolo.Record{"id": "p9"})))
	second, err := store.Save(ctx, c, "estonia", "v2", smaller)
	require.NoError(t, err)
	assert.NotEqual(t, first.Revision, second.Revision)

	records, err := c.LoadRecords(ctx, "estonia")
	require.NoError(t, err)
	assert.Len(t, records["persons"], 1)
	assert.Empty(t, records["memberships"])

	snaps, err := c.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, second.Revision, snaps[0].Revision)
	assert.Equal(t, "v2", snaps[0].Source)
	assert.Equal(t, 1, snaps[0].Counts["persons"])
	assert.True(t, second.SavedAt.Equal(snaps[0].SavedAt))
}

func TestDeleteDataset(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	_, err := store.Save(ctx, c, "estonia", "", sample(t))
	require.NoError(t, err)

	removed, err := c.DeleteDataset(ctx, "estonia")
	require.NoError(t, err)
	assert.Equal(t, int64(6), removed)

	_, err = c.LoadRecords(ctx, "estonia")
	assert.True(t, errors.Is(err, store.ErrDatasetNotFound))

	_, err = c.DeleteDataset(ctx, "estonia")
	assert.True(t, errors.Is(err, store.ErrDatasetNotFound))
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	_, err := store.Save(ctx, c, "estonia", "", sample(t))
	require.NoError(t, err)

	rows, err := c.RunSQL(ctx, `
	SELECT collection, COUNT(*) AS n FROM records
	WHERE dataset = ?
	GROUP BY collection ORDER BY collection
	`, map[string]any{"1": "estonia"})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "events", rows[0]["collection"])
	assert.EqualValues(t, 2, rows[1]["n"])

	rows, err = c.RunSQL(ctx, `SELECT record_key FROM records WHERE record_key = ?`, map[string]any{"1": "p2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
