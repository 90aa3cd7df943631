package gate

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"bronn/internal/platform/metrics"
	"bronn/pkg/testutil"
)

type GateSuite struct {
	suite.Suite
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

type spyHandler struct {
	calls int
}

func (s *spyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls++
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func newTestGate(mode func() Mode) (*Gate, *spyHandler, chi.Router) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := New(mode, logger, metrics.NewForTesting(), nil)
	native := &spyHandler{}
	r := chi.NewRouter()
	g.Mount(r, native)
	return g, native, r
}

func (s *GateSuite) TestParseMode() {
	cases := []struct {
		raw  string
		want Mode
	}{
		{"managed", ModeManaged},
		{"", ModeNative},
		{"native", ModeNative},
		{"MANAGED", ModeNative},
		{"Managed", ModeNative},
		{" managed", ModeNative},
		{"managed ", ModeNative},
		{"true", ModeNative},
		{"1", ModeNative},
	}
	for _, tc := range cases {
		assert.Equal(s.T(), tc.want, ParseMode(tc.raw), "raw=%q", tc.raw)
	}
}

func (s *GateSuite) TestNativeModePassesThrough() {
	_, native, r := newTestGate(Fixed(ModeNative))

	for _, path := range []string{"/v1/authentication/sign-up", "/v1/authentication/sign-in"} {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusOK, w.Code, "path=%s", path)
	}
	assert.Equal(s.T(), 2, native.calls)
}

func (s *GateSuite) TestManagedModeBlocksWithExactBody() {
	_, native, r := newTestGate(Fixed(ModeManaged))

	for _, path := range []string{"/v1/authentication/sign-up", "/v1/authentication/sign-in"} {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{
			"email": "a@b.co", "password": "hunter22",
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusForbidden, w.Code, "path=%s", path)
		assert.Equal(s.T(), "application/json", w.Header().Get("Content-Type"))

		var body map[string]any
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(s.T(), float64(403), body["statusCode"])
		assert.Equal(s.T(), "Forbidden", body["error"])
		assert.Equal(s.T(), "Native authentication is disabled. Please authenticate through Bronn.", body["message"])
	}

	assert.Zero(s.T(), native.calls, "native handler must receive no traffic in managed mode")
}

func (s *GateSuite) TestModeReadPerRequest() {
	mode := ModeNative
	_, native, r := newTestGate(func() Mode { return mode })

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/authentication/sign-in", map[string]string{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(s.T(), http.StatusOK, w.Code)

	mode = ModeManaged
	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/authentication/sign-in", map[string]string{})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(s.T(), http.StatusForbidden, w.Code)

	assert.Equal(s.T(), 1, native.calls)
}
