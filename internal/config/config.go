package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
)

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type Config struct {
	Port       string
	APIBaseURL string

	APIReadTimeout  time.Duration
	APIWriteTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SessionStore selects where the token/identity pair is persisted: "redis" or "memory".
	SessionStore    string
	SessionTTL      time.Duration
	SessionInitWait time.Duration
	CookieSecure    bool

	CSRFEnabled bool
	CSRFKey     string

	SearchDebounce time.Duration

	LoginRateLimit  int
	LoginRateWindow time.Duration

	TracingEnabled bool
	OTLPEndpoint   string
	ServiceVersion string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: .env file not found, using system environment variables")
	}

	cfg := &Config{
		Port:       GetString("HTTP_PORT", "8080"),
		APIBaseURL: strings.TrimRight(GetString("API_BASE_URL", "http://localhost:5000"), "/"),

		APIReadTimeout:  GetDuration("API_READ_TIMEOUT", 5*time.Second),
		APIWriteTimeout: GetDuration("API_WRITE_TIMEOUT", 10*time.Second),

		RedisAddr:     GetString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetString("REDIS_PASSWORD", ""),
		RedisDB:       GetInt("REDIS_DB", 0),

		SessionStore:    strings.ToLower(GetString("SESSION_STORE", SessionStoreRedis)),
		SessionTTL:      GetDuration("SESSION_TTL", 24*time.Hour),
		SessionInitWait: GetDuration("SESSION_INIT_WAIT", 2*time.Second),
		CookieSecure:    GetBool("COOKIE_SECURE", false),

		CSRFEnabled: GetBool("CSRF_ENABLED", true),
		CSRFKey:     GetString("CSRF_KEY", ""),

		SearchDebounce: GetDuration("SEARCH_DEBOUNCE", 500*time.Millisecond),

		LoginRateLimit:  GetInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: GetDuration("LOGIN_RATE_WINDOW", time.Minute),

		TracingEnabled: GetBool("OTEL_ENABLED", false),
		OTLPEndpoint:   GetString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceVersion: GetString("SERVICE_VERSION", "dev"),
	}

	if cfg.CSRFEnabled && cfg.CSRFKey == "" {
		cfg.CSRFKey = randomKey()
		log.Println("config: CSRF_KEY not set, using a random per-process key; forms break across restarts and replicas")
	}
	return cfg
}

// randomKey returns 32 random bytes for the CSRF cookie signer.
func randomKey() string {
	k := securecookie.GenerateRandomKey(32)
	if k == nil {
		log.Fatal("config: cannot read random bytes for CSRF key")
	}
	return string(k)
}

func GetString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func GetBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// GetDuration accepts Go duration strings ("500ms", "2s").
func GetDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
