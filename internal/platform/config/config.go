package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthModeEnv is the deployment flag selecting managed auth. Only the
// literal "managed" activates the gate; anything else falls back to native.
const AuthModeEnv = "AP_BRONN_AUTH_MODE"

// Server captures process-level configuration. Values are read once in main
// and injected; nothing outside this package touches os.Getenv, so tests can
// exercise both auth modes without mutating the environment.
type Server struct {
	Addr string

	// AuthMode is the raw deployment flag value. Interpretation (managed vs
	// native) belongs to the gate package.
	AuthMode string

	// TrustProxyHeaders enables the X-Bronn-User-Id/-Email identity channel.
	// Must only be set when an upstream proxy strips client-supplied values
	// of those headers.
	TrustProxyHeaders bool

	// Primary identity provider (Firebase exposes a standard OIDC surface).
	ProviderIssuer   string
	ProviderAudience string
	VerifyTimeout    time.Duration

	// Embedded workflow engine.
	EngineURL         string
	EngineInternal    string
	EngineExternalURL string
	EngineTimeout     time.Duration
	EngineProjectID   string
	SigningKeysDir    string

	// Native auth session tokens.
	SessionSigningKey string
	SessionTTL        time.Duration

	PostgresDSN string

	Redis RedisConfig

	KafkaBrokers []string
	AuditTopic   string
}

// RedisConfig mirrors the knobs the platform redis client applies on top of
// a parsed URL.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:              envOr("BRONN_ADDR", ":8090"),
		AuthMode:          os.Getenv(AuthModeEnv),
		TrustProxyHeaders: os.Getenv("BRONN_TRUST_PROXY_HEADERS") == "true",

		ProviderIssuer:   envOr("BRONN_OIDC_ISSUER", "https://securetoken.google.com/bronn-studio"),
		ProviderAudience: envOr("BRONN_OIDC_AUDIENCE", "bronn-studio"),
		VerifyTimeout:    envDuration("BRONN_VERIFY_TIMEOUT", 5*time.Second),

		EngineURL:         os.Getenv("ACTIVEPIECES_URL"),
		EngineInternal:    envOr("BRONN_ENGINE_INTERNAL_HOST", "activepieces:80"),
		EngineExternalURL: envOr("BRONN_ENGINE_EXTERNAL_URL", "http://localhost:8080"),
		EngineTimeout:     envDuration("BRONN_ENGINE_TIMEOUT", 10*time.Second),
		EngineProjectID:   envOr("BRONN_ENGINE_PROJECT_ID", "default"),
		SigningKeysDir:    envOr("SIGNING_KEYS_DIR", "data/keys"),

		SessionSigningKey: envOr("BRONN_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:        envDuration("BRONN_SESSION_TTL", time.Hour),

		PostgresDSN: os.Getenv("BRONN_DB_DSN"),

		Redis: RedisConfig{
			URL:          os.Getenv("BRONN_REDIS_URL"),
			PoolSize:     envInt("BRONN_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("BRONN_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("BRONN_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("BRONN_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("BRONN_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},

		KafkaBrokers: envList("BRONN_KAFKA_BROKERS"),
		AuditTopic:   envOr("BRONN_AUDIT_TOPIC", "bronn.audit"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
