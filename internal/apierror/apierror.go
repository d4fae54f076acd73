// Package apierror provides the error envelope for the agent's HTTP API.
// Every 4xx/5xx response goes through it so the UI layer can rely on one
// shape, and internals (stack traces, upstream URLs) never leak.
package apierror

// APIError is the canonical error envelope.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps per-field binding failures.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// Ambiguous is the envelope for bill submissions whose outcome is unknown.
// Warning is rendered by the UI as a blocking dialog telling the operator to
// reconcile against the journal before retrying.
type Ambiguous struct {
	Detail         string `json:"detail"`
	JournalEntryID string `json:"journal_entry_id,omitempty"`
	Warning        string `json:"warning"`
}

func NewAmbiguous(detail, entryID string) *Ambiguous {
	return &Ambiguous{
		Detail:         detail,
		JournalEntryID: entryID,
		Warning: "The submission may or may not have reached the store backend. " +
			"Check the bills list before retrying, or this sale could be recorded twice.",
	}
}
