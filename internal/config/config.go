package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Auth modes accepted by HUBLINK_AUTH_MODE.
const (
	AuthModeNone     = ""
	AuthModeSupabase = "supabase"
	AuthModeJWT      = "jwt"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout applied by the router

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Static document (always required, the permanent fallback)
	StaticDocument      string        // file path or http(s) URL of config.json / config.yaml
	StaticFetchTimeout  time.Duration // timeout for remote static document fetches
	WatchStaticDocument bool          // refresh when the static file changes on disk
	RefreshInterval     time.Duration // periodic refresh, 0 disables

	// Remote store (optional, empty DatabaseURL = static only)
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBMigrate         bool // apply embedded migrations on startup

	// Auth
	AuthMode     string // "supabase" | "jwt" | "" (admin disabled)
	SupabaseURL  string
	SupabaseKey  string
	JWTSecret    string
	JWTIssuer    string
	ServiceToken string // session used by background refreshes, optional
	AdminRole    string

	// Redis (optional, empty RedisAddr = click counting and weather cache disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	GCInterval          time.Duration // interval to prune click counters of removed links

	// Weather widget (optional, empty WeatherCity = disabled)
	WeatherCity      string
	WeatherLatitude  float64
	WeatherLongitude float64
	WeatherInterval  time.Duration
	WeatherURL       string

	// Access restrictions
	CORSOrigins  []string // origins allowed to call the API (mobile client)
	AllowedHosts []string // optional, restrict operational endpoints to specific Host headers
	AllowedCIDRS []string // optional, restrict operational endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("HUBLINK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HUBLINK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("HUBLINK_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("HUBLINK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HUBLINK_PRETTY_LOG", true),

		// Static document
		StaticDocument:      requireEnv("HUBLINK_STATIC_DOCUMENT"),
		StaticFetchTimeout:  mustDuration("HUBLINK_STATIC_FETCH_TIMEOUT", 5*time.Second),
		WatchStaticDocument: mustBool("HUBLINK_WATCH_STATIC_DOCUMENT", true),
		RefreshInterval:     mustDuration("HUBLINK_REFRESH_INTERVAL", 15*time.Minute),

		// Remote store
		DatabaseURL:       getenv("HUBLINK_DATABASE_URL", ""),
		DBMaxOpenConns:    getenvInt("HUBLINK_DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getenvInt("HUBLINK_DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: mustDuration("HUBLINK_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBMigrate:         mustBool("HUBLINK_DB_MIGRATE", true),

		// Auth
		AuthMode:     strings.ToLower(getenv("HUBLINK_AUTH_MODE", AuthModeNone)),
		SupabaseURL:  getenv("HUBLINK_SUPABASE_URL", ""),
		SupabaseKey:  getenv("HUBLINK_SUPABASE_KEY", ""),
		JWTSecret:    getenv("HUBLINK_JWT_SECRET", ""),
		JWTIssuer:    getenv("HUBLINK_JWT_ISSUER", ""),
		ServiceToken: getenv("HUBLINK_SERVICE_TOKEN", ""),
		AdminRole:    getenv("HUBLINK_ADMIN_ROLE", "admin"),

		// Redis settings
		RedisAddr:           getenv("HUBLINK_REDIS_ADDR", ""),
		RedisUser:           getenv("HUBLINK_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("HUBLINK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("HUBLINK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		GCInterval:          mustDuration("HUBLINK_GC_INTERVAL", 24*time.Hour),

		// Weather
		WeatherCity:      getenv("HUBLINK_WEATHER_CITY", ""),
		WeatherLatitude:  getenvFloat("HUBLINK_WEATHER_LATITUDE", 0),
		WeatherLongitude: getenvFloat("HUBLINK_WEATHER_LONGITUDE", 0),
		WeatherInterval:  mustDuration("HUBLINK_WEATHER_INTERVAL", 10*time.Minute),
		WeatherURL:       getenv("HUBLINK_WEATHER_URL", "https://api.open-meteo.com"),

		// Access restrictions
		CORSOrigins:  splitAndTrim(getenv("HUBLINK_CORS_ORIGINS", "*")),
		AllowedHosts: splitAndTrim(getenv("HUBLINK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("HUBLINK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("HUBLINK_TRUST_PROXY", true),
	}

	validateAuth(cfg)

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cfgCopy := *c
	redact := func(s *string) {
		if *s != "" {
			*s = "***REDACTED***"
		}
	}
	redact(&cfgCopy.RedisPassword)
	redact(&cfgCopy.DatabaseURL)
	redact(&cfgCopy.SupabaseKey)
	redact(&cfgCopy.JWTSecret)
	redact(&cfgCopy.ServiceToken)
	return cfgCopy
}

// AdminAvailable reports whether an auth backend is configured.
func (c *Config) AdminAvailable() bool {
	return c.AuthMode != AuthModeNone
}

// WeatherEnabled reports whether the weather widget should be polled.
func (c *Config) WeatherEnabled() bool {
	return c.WeatherCity != ""
}

func validateAuth(cfg *Config) {
	switch cfg.AuthMode {
	case AuthModeNone:
	case AuthModeSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			panic("❌ FATAL: HUBLINK_SUPABASE_URL and HUBLINK_SUPABASE_KEY are required when HUBLINK_AUTH_MODE=supabase")
		}
	case AuthModeJWT:
		if cfg.JWTSecret == "" {
			panic("❌ FATAL: HUBLINK_JWT_SECRET is required when HUBLINK_AUTH_MODE=jwt")
		}
		if cfg.DatabaseURL == "" {
			panic("❌ FATAL: HUBLINK_DATABASE_URL is required when HUBLINK_AUTH_MODE=jwt (roles are read from user_roles)")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid HUBLINK_AUTH_MODE %q (expected supabase, jwt or empty)", cfg.AuthMode))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
