package store

import (
	"time"
)

// Records holds raw popolo records keyed by collection name.
type Records map[string][]map[string]any

type SnapshotInput struct {
	Dataset string
	Source  string
	Records Records
}

type Snapshot struct {
	Dataset  string
	Revision string
	Source   string
	SavedAt  time.Time
	Counts   map[string]int
}

// Row is one record as stored: its place in the collection, an identity key
// and the record encoded as JSON.
type Row struct {
	Collection string
	Position   int
	Key        string
	Data       []byte
}
