package logger

// Standard field names for structured log calls.
const (
	FieldDataset    = "dataset"
	FieldKind       = "kind"
	FieldCount      = "count"
	FieldSource     = "source"
	FieldRevision   = "revision"
	FieldTool       = "tool"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
)
