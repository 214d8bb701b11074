package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldImportID is the bulk import being created or patched
	FieldImportID = "import_id"

	// FieldCreator is the operator driving the request
	FieldCreator = "creator"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields attached at individual call sites.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the HTTP or operation status
	FieldStatus = "status"
)
