package popolo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) *Popolo {
	t.Helper()
	return fromJSON(t, readFixture(t, name))
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func fromJSON(t *testing.T, raw []byte) *Popolo {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))
	p, err := FromData(data)
	require.NoError(t, err)
	return p
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func freezeNow(t *testing.T, when time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return when }
	t.Cleanup(func() { now = prev })
}
