// Package gate decides whether native authentication endpoints are served
// or rejected in favor of the managed flow. It is deliberately small: two
// modes, no state, with the mode re-read on every check so a dynamic
// configuration source can flip it without a restart.
package gate

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bronn/internal/platform/metrics"
	mw "bronn/internal/platform/middleware"
	audit "bronn/pkg/platform/audit"
)

type Mode int

const (
	// ModeNative serves the native sign-up/sign-in handlers. This is the
	// default: absent or malformed configuration fails open to native
	// behavior, because rejecting all authentication on a misconfiguration
	// would be the worse outcome.
	ModeNative Mode = iota

	// ModeManaged rejects every native authentication request; callers must
	// authenticate through the managed provider.
	ModeManaged
)

func (m Mode) String() string {
	if m == ModeManaged {
		return "managed"
	}
	return "native"
}

// ParseMode recognizes only the literal "managed"; every other value is
// native.
func ParseMode(raw string) Mode {
	if raw == "managed" {
		return ModeManaged
	}
	return ModeNative
}

// blockedBody matches the engine's native error envelope so embedded-engine
// clients parse the rejection the same way as its own errors.
type blockedBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// BlockedMessage is the user-facing rejection text; it must point callers at
// the managed flow.
const BlockedMessage = "Native authentication is disabled. Please authenticate through Bronn."

// Gate guards the native authentication module. The mode provider is
// injected so tests can exercise both modes without touching the process
// environment.
type Gate struct {
	mode     func() Mode
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder *audit.Recorder
}

func New(mode func() Mode, logger *slog.Logger, m *metrics.Metrics, recorder *audit.Recorder) *Gate {
	return &Gate{mode: mode, logger: logger, metrics: m, recorder: recorder}
}

// Fixed returns a mode provider for static deployments.
func Fixed(m Mode) func() Mode {
	return func() Mode { return m }
}

// Mount registers the native authentication module behind the gate. In
// managed mode the guard answers every request itself with 403; the native
// handler receives zero traffic.
func (g *Gate) Mount(r chi.Router, native http.Handler) {
	if g.mode() == ModeManaged {
		g.logger.Info("managed auth mode enabled, native auth endpoints blocked")
	}
	r.Route("/v1/authentication", func(r chi.Router) {
		r.Use(g.guard)
		r.Mount("/", native)
	})
}

func (g *Gate) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.mode() != ModeManaged {
			next.ServeHTTP(w, r)
			return
		}

		g.metrics.NativeAuthBlocked.Inc()
		if g.recorder != nil {
			md := mw.GetMetadata(r.Context())
			g.recorder.Record(r.Context(), audit.Event{
				Action:    audit.ActionNativeAuthBlocked,
				Decision:  "deny",
				Reason:    r.URL.Path,
				RequestID: mw.GetRequestID(r.Context()),
				ClientIP:  md.IP,
				UserAgent: md.UserAgent,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(blockedBody{
			StatusCode: http.StatusForbidden,
			Error:      "Forbidden",
			Message:    BlockedMessage,
		})
	})
}
