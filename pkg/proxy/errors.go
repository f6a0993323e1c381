package proxy

import (
	"errors"
	"fmt"

	"grokgate/pkg/providers"
	"grokgate/pkg/proxy/types"
)

// HandleError converts an error into the JSON error response sent when no
// stream has started yet.
//
// Example usage:
//
//	if err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var authErr *providers.AuthError
	if errors.As(err, &authErr) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Upstream authentication failed (%s)", authErr.Provider),
			types.CodeUpstreamAuth,
		)
	}

	var rateLimitErr *providers.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return types.NewRateLimitError(
			fmt.Sprintf("Upstream rate limit exceeded (%s)", rateLimitErr.Provider),
		)
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) {
		return types.NewGatewayTimeoutError(
			fmt.Sprintf("Upstream request timed out after %s", timeoutErr.Timeout),
		)
	}

	var cfgErr *providers.ConfigError
	if errors.As(err, &cfgErr) {
		return types.NewConfigurationError(cfgErr.Error())
	}

	if errors.Is(err, providers.ErrUpstream) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Upstream error: %v", err),
			types.CodeUpstreamError,
		)
	}

	return types.NewServerError(
		"An internal error occurred. Please try again later.",
	)
}
