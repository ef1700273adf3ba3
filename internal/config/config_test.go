package config

import (
	"os"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenvNumbers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "not_a_number")
	t.Setenv("TEST_FLOAT", "48.8566")

	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %v, want 42", got)
	}
	if got := getenvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("getenvInt() invalid = %v, want default 7", got)
	}
	if got := getenvInt("TEST_INT_MISSING", 3); got != 3 {
		t.Errorf("getenvInt() missing = %v, want default 3", got)
	}
	if got := getenvFloat("TEST_FLOAT", 0); got != 48.8566 {
		t.Errorf("getenvFloat() = %v, want 48.8566", got)
	}
	if got := getenvFloat("TEST_FLOAT_MISSING", 2.5); got != 2.5 {
		t.Errorf("getenvFloat() missing = %v, want default 2.5", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{name: "single value", value: "value1", expected: []string{"value1"}},
		{name: "multiple values", value: "value1, value2, value3", expected: []string{"value1", "value2", "value3"}},
		{name: "quoted values", value: `"a.example", 'b.example'`, expected: []string{"a.example", "b.example"}},
		{name: "empty entries dropped", value: "a,, ,b", expected: []string{"a", "b"}},
		{name: "empty string", value: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() = %v, want %v", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HUBLINK_STATIC_DOCUMENT", "./config.json")
	t.Setenv("HUBLINK_AUTH_MODE", "")

	cfg := Load()

	if cfg.StaticDocument != "./config.json" {
		t.Errorf("StaticDocument = %q", cfg.StaticDocument)
	}
	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.AdminAvailable() {
		t.Error("AdminAvailable() should be false without an auth mode")
	}
	if cfg.WeatherEnabled() {
		t.Error("WeatherEnabled() should be false without a city")
	}
	if cfg.WeatherInterval != 10*time.Minute {
		t.Errorf("WeatherInterval = %v, want 10m", cfg.WeatherInterval)
	}
	if cfg.AdminRole != "admin" {
		t.Errorf("AdminRole = %q, want admin", cfg.AdminRole)
	}
}

func TestLoadRequiresStaticDocument(t *testing.T) {
	t.Setenv("HUBLINK_STATIC_DOCUMENT", "")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked without HUBLINK_STATIC_DOCUMENT")
		}
	}()
	Load()
}

func TestValidateAuth(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantPanic bool
	}{
		{name: "no auth", cfg: Config{}},
		{name: "supabase complete", cfg: Config{AuthMode: AuthModeSupabase, SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"}},
		{name: "supabase missing key", cfg: Config{AuthMode: AuthModeSupabase, SupabaseURL: "https://x.supabase.co"}, wantPanic: true},
		{name: "jwt complete", cfg: Config{AuthMode: AuthModeJWT, JWTSecret: "s", DatabaseURL: "postgres://x"}},
		{name: "jwt without database", cfg: Config{AuthMode: AuthModeJWT, JWTSecret: "s"}, wantPanic: true},
		{name: "unknown mode", cfg: Config{AuthMode: "ldap"}, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if tt.wantPanic && r == nil {
					t.Errorf("validateAuth() should have panicked")
				}
				if !tt.wantPanic && r != nil {
					t.Errorf("validateAuth() panicked: %v", r)
				}
			}()
			cfg := tt.cfg
			validateAuth(&cfg)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@h/db", JWTSecret: "s", RedisPassword: ""}
	r := cfg.Redacted()
	if r.DatabaseURL == cfg.DatabaseURL || r.JWTSecret == cfg.JWTSecret {
		t.Error("Redacted() should hide secrets")
	}
	if r.RedisPassword != "" {
		t.Error("Redacted() should leave empty values empty")
	}
	if cfg.JWTSecret != "s" {
		t.Error("Redacted() mutated the receiver")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}
