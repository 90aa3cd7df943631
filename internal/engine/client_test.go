package engine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "bronn/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMintSessionTokenSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "engine-session-token"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, NewSigner(t.TempDir()), 5*time.Second, discardLogger())

	token, err := client.MintSessionToken(context.Background(), "user-1", "default", "Jamie", "Lannister")
	require.NoError(t, err)
	assert.Equal(t, "engine-session-token", token)
	assert.Equal(t, "/api/v1/managed-authn/external-token", gotPath)
	assert.NotEmpty(t, gotBody["externalAccessToken"], "request carries the provisioning JWT")
}

func TestMintSessionTokenEngineRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, NewSigner(t.TempDir()), 5*time.Second, discardLogger())

	_, err := client.MintSessionToken(context.Background(), "user-1", "default", "", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeFederationUnavailable, pkgerrors.CodeOf(err))
}

func TestMintSessionTokenEngineUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, NewSigner(t.TempDir()), time.Second, discardLogger())

	_, err := client.MintSessionToken(context.Background(), "user-1", "default", "", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeFederationUnavailable, pkgerrors.CodeOf(err))
}

func TestMintSessionTokenEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, NewSigner(t.TempDir()), 5*time.Second, discardLogger())

	_, err := client.MintSessionToken(context.Background(), "user-1", "default", "", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeFederationUnavailable, pkgerrors.CodeOf(err))
}

func TestMintSessionTokenUnconfigured(t *testing.T) {
	client := NewClient("", NewSigner(t.TempDir()), time.Second, discardLogger())
	assert.False(t, client.Configured())

	_, err := client.MintSessionToken(context.Background(), "user-1", "default", "", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeFederationUnavailable, pkgerrors.CodeOf(err))
}

func TestMintSessionTokenTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, NewSigner(t.TempDir()), 50*time.Millisecond, discardLogger())

	_, err := client.MintSessionToken(context.Background(), "user-1", "default", "", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeFederationUnavailable, pkgerrors.CodeOf(err))
}
