package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Metadata describes the client behind a request. It feeds audit events and
// log lines; it is never part of an authorization decision.
type Metadata struct {
	IP        string
	UserAgent string
}

type contextKeyMetadata struct{}

// CaptureMetadata extracts client IP and a normalized user-agent string.
func CaptureMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		md := Metadata{
			IP:        clientIP(r),
			UserAgent: normalizeUserAgent(r.UserAgent()),
		}
		ctx := context.WithValue(r.Context(), contextKeyMetadata{}, md)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetMetadata retrieves client metadata from the context.
func GetMetadata(ctx context.Context) Metadata {
	md, _ := ctx.Value(contextKeyMetadata{}).(Metadata)
	return md
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// normalizeUserAgent reduces the raw header to "browser/version (os)" so
// audit rows stay compact and comparable.
func normalizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	out := name
	if version != "" {
		out += "/" + version
	}
	if os := ua.OS(); os != "" {
		out += " (" + os + ")"
	}
	return out
}
