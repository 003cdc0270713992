package models

// APIError is the body of every non-2xx JSON response
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

const (
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrForbidden        = "FORBIDDEN"
	ErrNotFound         = "NOT_FOUND"
	ErrConflict         = "CONFLICT"
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
)

// NewAPIError builds an error body; at most one details map is used
func NewAPIError(code, message string, details ...map[string]any) APIError {
	apiErr := APIError{Code: code, Message: message}
	if len(details) > 0 {
		apiErr.Details = details[0]
	}
	return apiErr
}

// WithFieldErrors puts per-field validation messages into Details,
// e.g. {"tags": ["This field is required."]}
func (e APIError) WithFieldErrors(fields map[string][]string) APIError {
	if len(fields) == 0 {
		return e
	}
	if e.Details == nil {
		e.Details = make(map[string]any, len(fields))
	}
	for field, messages := range fields {
		e.Details[field] = messages
	}
	return e
}
