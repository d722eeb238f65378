// Package apierror provides the error envelope returned by every 4xx/5xx
// response. Handlers build messages here so internal errors (SQL, ledger
// faults) are never serialized to clients.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps per-field validation failures.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Data tidak valid", Fields: fields}
}

// ListError carries several user-facing messages, e.g. one per rejected row
// of an uploaded file.
type ListError struct {
	Detail string   `json:"detail"`
	Errors []string `json:"errors"`
}

func NewList(detail string, errs []string) *ListError {
	return &ListError{Detail: detail, Errors: errs}
}
