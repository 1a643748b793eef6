// Package apierror provides the error envelopes returned to API clients.
// Internal details (database errors, stack traces) never go through here.
package apierror

// APIError is the envelope for every 4xx/5xx response.
type APIError struct {
	Message string `json:"message"`
}

func New(msg string) *APIError {
	return &APIError{Message: msg}
}

// ValidationError carries per-field failures.
type ValidationError struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: fields}
}
