package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerMintsVerifiableToken(t *testing.T) {
	signer := NewSigner(t.TempDir())

	signed, err := signer.Sign("user-1", "default", "Jamie", "Lannister", "")
	require.NoError(t, err)

	pubPEM, err := signer.PublicKeyPEM()
	require.NoError(t, err)
	pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pubPEM))
	require.NoError(t, err)

	var claims ProvisioningClaims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (any, error) {
		require.IsType(t, &jwt.SigningMethodRSA{}, token.Method)
		return pub, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "v3", claims.Version)
	assert.Equal(t, "user-1", claims.ExternalUserID)
	assert.Equal(t, "default", claims.ExternalProjectID)
	assert.Equal(t, "Jamie", claims.FirstName)
	assert.Equal(t, "Lannister", claims.LastName)
	assert.Equal(t, "EDITOR", claims.Role, "empty role falls back to the default")

	kid, ok := parsed.Header["kid"].(string)
	require.True(t, ok, "token must carry a key id header")
	assert.True(t, strings.HasPrefix(kid, "bronn-key-"))

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestSignerPersistsKeyAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first := NewSigner(dir)
	_, err := first.Sign("user-1", "default", "", "", "")
	require.NoError(t, err)

	path := filepath.Join(dir, "current_key.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var kf struct {
		KeyID      string `json:"key_id"`
		PrivateKey string `json:"private_key"`
		PublicKey  string `json:"public_key"`
		CreatedAt  string `json:"created_at"`
	}
	require.NoError(t, json.Unmarshal(data, &kf))
	assert.True(t, strings.HasPrefix(kf.KeyID, "bronn-key-"))
	assert.Contains(t, kf.PrivateKey, "PRIVATE KEY")
	assert.Contains(t, kf.PublicKey, "PUBLIC KEY")
	assert.NotEmpty(t, kf.CreatedAt)

	// A second signer reading the same directory signs with the same key.
	firstPub, err := first.PublicKeyPEM()
	require.NoError(t, err)
	second := NewSigner(dir)
	secondPub, err := second.PublicKeyPEM()
	require.NoError(t, err)
	assert.Equal(t, firstPub, secondPub)
}
