package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bronn/internal/platform/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDisabledLimiterPassesThrough(t *testing.T) {
	l := New(nil, metrics.NewForTesting(), nil, discardLogger(), WithDisabled(true))

	calls := 0
	h := l.Middleware(ClassNativeAuth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("POST", "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 100, calls)
}

func TestNilRedisAllowsEverything(t *testing.T) {
	l := New(nil, metrics.NewForTesting(), nil, discardLogger())

	result, err := l.Check(context.Background(), "203.0.113.9", ClassFederation)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestUnknownClassAllows(t *testing.T) {
	l := New(nil, metrics.NewForTesting(), nil, discardLogger())

	result, err := l.Check(context.Background(), "203.0.113.9", EndpointClass("unconfigured"))
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
