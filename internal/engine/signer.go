package engine

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRole is assigned to provisioned engine users. The engine maps it to
// its own project-level permissions.
const DefaultRole = "EDITOR"

// provisioningTTL keeps the external token short-lived; it is only consumed
// once during the managed-authn exchange.
const provisioningTTL = 5 * time.Minute

// Signer issues the short-lived RS256 provisioning JWTs the engine accepts
// on its managed-authn endpoint. The key pair is generated on first use and
// persisted so the engine-side configuration (which pins the public key)
// survives restarts.
type Signer struct {
	mu      sync.Mutex
	dir     string
	keyID   string
	private *rsa.PrivateKey
}

// keyFile is the on-disk representation of the current signing key.
type keyFile struct {
	KeyID      string `json:"key_id"`
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	CreatedAt  string `json:"created_at"`
}

func NewSigner(dir string) *Signer {
	return &Signer{dir: dir}
}

// ProvisioningClaims mirrors the engine's embedding contract (version v3).
type ProvisioningClaims struct {
	Version           string `json:"version"`
	ExternalUserID    string `json:"externalUserId"`
	ExternalProjectID string `json:"externalProjectId"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Role              string `json:"role"`
	jwt.RegisteredClaims
}

// Sign mints a provisioning token for the given user and project.
func (s *Signer) Sign(userID, projectID, firstName, lastName, role string) (string, error) {
	key, keyID, err := s.key()
	if err != nil {
		return "", err
	}
	if role == "" {
		role = DefaultRole
	}

	now := time.Now().UTC()
	claims := ProvisioningClaims{
		Version:           "v3",
		ExternalUserID:    userID,
		ExternalProjectID: projectID,
		FirstName:         firstName,
		LastName:          lastName,
		Role:              role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(provisioningTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign provisioning token: %w", err)
	}
	return signed, nil
}

// PublicKeyPEM exposes the current public key so operators can register it
// with the engine's signing-key configuration.
func (s *Signer) PublicKeyPEM() (string, error) {
	key, _, err := s.key()
	if err != nil {
		return "", err
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// key loads the persisted key pair, generating and persisting one on first
// use.
func (s *Signer) key() (*rsa.PrivateKey, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.private != nil {
		return s.private, s.keyID, nil
	}

	path := filepath.Join(s.dir, "current_key.json")
	if data, err := os.ReadFile(path); err == nil {
		var kf keyFile
		if err := json.Unmarshal(data, &kf); err != nil {
			return nil, "", fmt.Errorf("parse signing key file: %w", err)
		}
		private, err := parsePrivateKey([]byte(kf.PrivateKey))
		if err != nil {
			return nil, "", err
		}
		s.private, s.keyID = private, kf.KeyID
		return s.private, s.keyID, nil
	}

	private, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, "", fmt.Errorf("generate signing key: %w", err)
	}
	keyID := "bronn-key-" + time.Now().UTC().Format("20060102150405")

	if err := s.persist(path, keyID, private); err != nil {
		return nil, "", err
	}
	s.private, s.keyID = private, keyID
	return s.private, s.keyID, nil
}

func (s *Signer) persist(path, keyID string, private *rsa.PrivateKey) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create signing key dir: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(private)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}

	data, err := json.MarshalIndent(keyFile{
		KeyID:      keyID,
		PrivateKey: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
		PublicKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal signing key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write signing key file: %w", err)
	}
	return nil
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("signing key file holds no PEM block")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signing key is not RSA")
	}
	return key, nil
}
