// Package errors defines the gateway-wide error taxonomy. Domain services
// return GatewayError values so transport can translate them into stable
// HTTP statuses and machine-readable codes without string matching.
package errors

import (
	"errors"
	"net/http"
)

type Code string

const (
	// CodeInvalidCredential means the primary-provider token failed
	// verification. The caller must re-authenticate; retrying with the
	// same token will not succeed.
	CodeInvalidCredential Code = "invalid_credential"

	// CodeForbidden means the request hit a native authentication endpoint
	// while the deployment runs in managed mode.
	CodeForbidden Code = "forbidden"

	// CodeFederationUnavailable means the embedded engine was unreachable
	// or rejected the token mint. The local session remains valid and the
	// caller may retry later.
	CodeFederationUnavailable Code = "federation_unavailable"

	// CodeMalformed means the request shape was wrong (missing header,
	// invalid JSON). Caller error, not retried automatically.
	CodeMalformed Code = "malformed"

	CodeNotFound Code = "not_found"
	CodeConflict Code = "conflict"
	CodeInternal Code = "internal"
)

// GatewayError carries a stable code alongside a human-readable message.
type GatewayError struct {
	Code    Code
	Message string
}

func (e GatewayError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func New(code Code, message string) GatewayError {
	return GatewayError{Code: code, Message: message}
}

// CodeOf extracts the taxonomy code from err, unwrapping as needed.
// Non-gateway errors map to CodeInternal.
func CodeOf(err error) Code {
	var gw GatewayError
	if errors.As(err, &gw) {
		return gw.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps taxonomy codes onto HTTP statuses. Every failure path
// must stay distinguishable for client UIs ("bad password" and "workflow
// engine down" are never presented identically).
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidCredential:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeFederationUnavailable:
		return http.StatusBadGateway
	case CodeMalformed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
