package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "file_moved").
	FieldEventType = "event_type"
	// FieldErrorHint suggests the operator's next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldPath is the file being classified.
	FieldPath = "path"
	// FieldDestination is the computed destination for a move.
	FieldDestination = "destination"
	// FieldSource identifies which producer submitted a file (watch, rescan, cleanup, cli).
	FieldSource = "source"
	// FieldJobID is the cleanup job identifier.
	FieldJobID = "job_id"
	// FieldDecisionType names the decision being logged.
	FieldDecisionType = "decision_type"
)
