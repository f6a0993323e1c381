package types

import "net/http"

// ErrorResponse is the JSON body returned for every error that happens
// before a stream starts.
type ErrorResponse struct {
	// Detail is a human-readable error message.
	Detail string `json:"detail"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// Param names the request field that caused the error, if any.
	Param string `json:"param,omitempty"`

	// RequestID correlates the response with server logs.
	RequestID string `json:"request_id,omitempty"`

	status int
}

// Error code constants.
const (
	// CodeConfiguration indicates the server is missing required configuration.
	CodeConfiguration = "configuration_error"

	// CodeInvalidJSON indicates the request body is not valid JSON.
	CodeInvalidJSON = "invalid_json"

	// CodeRequestTooLarge indicates the request payload is too large.
	CodeRequestTooLarge = "request_too_large"

	// CodeMissingField indicates a required field is missing.
	CodeMissingField = "missing_field"

	// CodeInvalidValue indicates a field has an invalid value.
	CodeInvalidValue = "invalid_value"

	// CodeUpstreamAuth indicates the upstream rejected our credentials.
	CodeUpstreamAuth = "upstream_authentication_failed"

	// CodeRateLimited indicates the upstream is throttling requests.
	CodeRateLimited = "rate_limit_exceeded"

	// CodeUpstreamTimeout indicates the upstream request timed out.
	CodeUpstreamTimeout = "upstream_timeout"

	// CodeUpstreamError indicates any other upstream failure.
	CodeUpstreamError = "upstream_error"

	// CodeNotReady indicates the gateway cannot serve requests yet.
	CodeNotReady = "not_ready"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates an error response with an explicit status.
func NewErrorResponse(status int, detail, code string) *ErrorResponse {
	return &ErrorResponse{Detail: detail, Code: code, status: status}
}

// NewConfigurationError creates an error response for missing server
// configuration (500).
func NewConfigurationError(detail string) *ErrorResponse {
	return NewErrorResponse(http.StatusInternalServerError, detail, CodeConfiguration)
}

// NewInvalidRequestError creates an error response for unreadable requests (400).
func NewInvalidRequestError(detail, param, code string) *ErrorResponse {
	e := NewErrorResponse(http.StatusBadRequest, detail, code)
	e.Param = param
	return e
}

// NewValidationError creates an error response for well-formed requests with
// invalid content (422).
func NewValidationError(detail, param, code string) *ErrorResponse {
	e := NewErrorResponse(http.StatusUnprocessableEntity, detail, code)
	e.Param = param
	return e
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(detail string) *ErrorResponse {
	return NewErrorResponse(http.StatusInternalServerError, detail, CodeInternalError)
}

// NewBadGatewayError creates an error response for upstream errors (502).
func NewBadGatewayError(detail, code string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadGateway, detail, code)
}

// NewRateLimitError creates an error response for upstream throttling (429).
func NewRateLimitError(detail string) *ErrorResponse {
	return NewErrorResponse(http.StatusTooManyRequests, detail, CodeRateLimited)
}

// NewGatewayTimeoutError creates an error response for upstream timeouts (504).
func NewGatewayTimeoutError(detail string) *ErrorResponse {
	return NewErrorResponse(http.StatusGatewayTimeout, detail, CodeUpstreamTimeout)
}

// NewServiceUnavailableError creates an error response for a gateway that is
// not ready (503).
func NewServiceUnavailableError(detail string) *ErrorResponse {
	return NewErrorResponse(http.StatusServiceUnavailable, detail, CodeNotReady)
}

// HTTPStatusCode returns the HTTP status for the response.
func (e *ErrorResponse) HTTPStatusCode() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}
