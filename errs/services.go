package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Third-Party API Errors
var (
	ErrUpstream           = errors.New("upstream request failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrMalformedUpstream  = errors.New("malformed upstream response")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
)

// NewConfigError never names the missing setting in the response body; the
// configName only travels in Details for the server-side log.
func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
		Message:    "Server Configuration Error",
	}
}

// NewUpstreamError keeps the provider's status code so callers can tell a
// missing resource apart from a transient failure.
func NewUpstreamError(service string, statusCode int, message string) *ApiErr {
	if statusCode < 400 || statusCode > 599 {
		statusCode = http.StatusBadGateway
	}
	return &ApiErr{
		StatusCode: statusCode,
		err:        ErrUpstream,
		Details:    fmt.Sprintf("%s returned status %d", service, statusCode),
		Message:    message,
	}
}

func NewServiceUnavailableError(service string, message string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s is unavailable", service),
		Cause:      cause,
		Message:    message,
	}
}

func NewMalformedUpstreamError(service string, message string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrMalformedUpstream,
		Details:    fmt.Sprintf("%s returned a malformed response", service),
		Cause:      cause,
		Message:    message,
	}
}
