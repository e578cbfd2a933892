package log

import "pulse/internal/core"

// Common field names for structured logging
const (
	FieldComponent       = "component"
	FieldOperation       = "operation"
	FieldError           = "error"
	FieldSource          = "source"
	FieldSnapshotID      = "snapshot_id"
	FieldRecordsTotal    = "records_total"
	FieldRecordsFiltered = "records_filtered"
	FieldRecordsRejected = "records_rejected"
	FieldRow             = "row"
	FieldStartDate       = "start_date"
	FieldEndDate         = "end_date"
	FieldCategories      = "categories"
	FieldDuration        = "duration_ms"
	FieldQueue           = "queue"
	FieldExchange        = "exchange"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentDashboard = "dashboard"
	ComponentSource    = "source"
	ComponentStorage   = "storage"
	ComponentSheets    = "sheets"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentRender    = "render"
)

// Operations defines standard operation names
const (
	OpRefresh  = "refresh"
	OpSelect   = "select"
	OpRead     = "read"
	OpImport   = "import"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpValidate = "validate"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSnapshot adds the source name, snapshot id and record count.
func (f LogFields) WithSnapshot(source, id string, records int) LogFields {
	f[FieldSource] = source
	f[FieldSnapshotID] = id
	f[FieldRecordsTotal] = records
	return f
}

// WithSelection adds the date interval and selected categories.
func (f LogFields) WithSelection(interval core.DateInterval, sel core.CategorySelection) LogFields {
	f[FieldStartDate] = interval.Start.String()
	f[FieldEndDate] = interval.End.String()
	f[FieldCategories] = sel.Names()
	return f
}

// WithRowError adds the position and cause of a rejected record.
func (f LogFields) WithRowError(e core.RowError) LogFields {
	f[FieldRow] = e.Row
	f[FieldError] = e.Err.Error()
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
