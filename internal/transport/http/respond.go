package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "bronn/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	detail := "internal error"
	var gw pkgerrors.GatewayError
	if errors.As(err, &gw) {
		detail = gw.Message
	}
	writeJSON(w, pkgerrors.ToHTTPStatus(code), map[string]string{
		"error":  string(code),
		"detail": detail,
	})
}
