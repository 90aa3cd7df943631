package identity

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "bronn/pkg/errors"
)

type stubVerifier struct {
	identity *PrimaryIdentity
	err      error
	gotToken string
}

func (v *stubVerifier) Verify(_ context.Context, rawToken string) (*PrimaryIdentity, error) {
	v.gotToken = rawToken
	return v.identity, v.err
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcg==", wantErr: true},
		{name: "empty token", header: "Bearer ", wantErr: true},
		{name: "lowercase scheme", header: "bearer abc", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			got, err := BearerToken(r)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, pkgerrors.CodeMalformed, pkgerrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBearerResolver(t *testing.T) {
	verifier := &stubVerifier{identity: &PrimaryIdentity{Subject: "sub-1", Email: "a@b.co"}}
	resolver := BearerResolver{Verifier: verifier}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer tok-123")

	id, err := resolver.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", id.Subject)
	assert.Equal(t, "tok-123", verifier.gotToken)
}

func TestBearerResolverRejectsMissingToken(t *testing.T) {
	resolver := BearerResolver{Verifier: &stubVerifier{}}

	_, err := resolver.Resolve(httptest.NewRequest("GET", "/", nil))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeMalformed, pkgerrors.CodeOf(err))
}

func TestTrustedHeaderResolver(t *testing.T) {
	t.Run("both headers present", func(t *testing.T) {
		resolver := TrustedHeaderResolver{}
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(HeaderUserID, "proxy-sub")
		r.Header.Set(HeaderUserEmail, "p@example.com")

		id, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "proxy-sub", id.Subject)
		assert.Equal(t, "p@example.com", id.Email)
		assert.True(t, id.EmailVerified)
	})

	t.Run("falls through to next when headers absent", func(t *testing.T) {
		verifier := &stubVerifier{identity: &PrimaryIdentity{Subject: "bearer-sub"}}
		resolver := TrustedHeaderResolver{Next: BearerResolver{Verifier: verifier}}

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer tok")

		id, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "bearer-sub", id.Subject)
	})

	t.Run("one header alone is not an identity", func(t *testing.T) {
		resolver := TrustedHeaderResolver{}
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(HeaderUserID, "proxy-sub")

		_, err := resolver.Resolve(r)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeInvalidCredential, pkgerrors.CodeOf(err))
	})
}
