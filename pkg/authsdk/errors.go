package authsdk

import "fmt"

// Stable error codes used across the API.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeInvalidCredential = "invalid_credentials"
	ErrorCodeUnauthorized      = "unauthorized"
	ErrorCodeForbidden         = "forbidden"
	ErrorCodeConflict          = "conflict"
	ErrorCodeNotFound          = "not_found"
	ErrorCodeRateLimited       = "rate_limited"
	ErrorCodeServerError       = "server_error"
)

// APIError is a structured error decoded from an ErrorResponse. It carries
// the HTTP status so callers can branch on it.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authsdk: %s (HTTP %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("authsdk: %s: %s (HTTP %d)", e.Code, e.Description, e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == status
}
