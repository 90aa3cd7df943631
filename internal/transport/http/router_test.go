package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bronn/internal/gate"
	"bronn/internal/platform/metrics"
	"bronn/pkg/testutil"
)

func TestHealthz(t *testing.T) {
	router := NewRouter(RouterConfig{Logger: discardLogger()})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(t, http.MethodGet, "/healthz"))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthzDegraded(t *testing.T) {
	router := NewRouter(RouterConfig{
		Logger: discardLogger(),
		Checks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(t, http.MethodGet, "/healthz"))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "ok", body["postgres"])
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(RouterConfig{Logger: discardLogger()})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(t, http.MethodGet, "/metrics"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterMountsGateInFrontOfNative(t *testing.T) {
	g := gate.New(gate.Fixed(gate.ModeManaged), discardLogger(), metrics.NewForTesting(), nil)
	router := NewRouter(RouterConfig{
		Gate:   g,
		Native: NewNativeHandler(nil, discardLogger()),
		Logger: discardLogger(),
	})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/authentication/sign-in", map[string]string{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, gate.BlockedMessage, body["message"])
}
