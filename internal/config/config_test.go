package config

import (
	"os"
	"testing"
)

func clearWipEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOCATION_RESOLVER_HOST", "LOCATION_RESOLVER_PORT",
		"QUERY_GENERATOR_HOST", "QUERY_GENERATOR_PORT",
		"WEATHER_SERVER_HOST", "WEATHER_SERVER_PORT",
		"REPORT_SERVER_HOST", "REPORT_SERVER_PORT",
		"WIP_TIMEOUT_MS", "WIP_RECV_TIMEOUT_MS", "WIP_DIRECT_MODE",
		"WEATHER_SERVER_PASSPHRASE", "LOCATION_SERVER_PASSPHRASE",
		"QUERY_SERVER_PASSPHRASE", "REPORT_SERVER_PASSPHRASE",
		"WEATHER_REQUEST_AUTH_ENABLED", "LOCATION_REQUEST_AUTH_ENABLED",
		"QUERY_REQUEST_AUTH_ENABLED", "REPORT_REQUEST_AUTH_ENABLED",
		"WIP_CLIENT_VERIFY_RESPONSE_AUTH", "WIP_AUTH_ALGO",
		"WIP_CACHE_PATH", "WIP_CACHE_TTL_HOURS", "WIP_LOG_LEVEL", "WIP_LOG_FORMAT",
	} {
		old, had := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				os.Setenv(key, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearWipEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LocationAddr() != "127.0.0.1:4109" {
		t.Fatalf("got LocationAddr()=%s, want 127.0.0.1:4109", cfg.LocationAddr())
	}
	if cfg.QueryAddr() != "127.0.0.1:4111" {
		t.Fatalf("got QueryAddr()=%s, want 127.0.0.1:4111", cfg.QueryAddr())
	}
	if cfg.WeatherAddr() != "127.0.0.1:4110" {
		t.Fatalf("got WeatherAddr()=%s, want 127.0.0.1:4110", cfg.WeatherAddr())
	}
	if cfg.ReportAddr() != "127.0.0.1:4112" {
		t.Fatalf("got ReportAddr()=%s, want 127.0.0.1:4112", cfg.ReportAddr())
	}
	if cfg.CacheTTLHours != defaultCacheTTLHours {
		t.Fatalf("got CacheTTLHours=%d, want %d", cfg.CacheTTLHours, defaultCacheTTLHours)
	}
	if cfg.AuthAlgorithm != "sha256" {
		t.Fatalf("got AuthAlgorithm=%s, want sha256", cfg.AuthAlgorithm)
	}
	if cfg.Weather.Enabled || cfg.Location.Enabled || cfg.Query.Enabled || cfg.Report.Enabled {
		t.Fatalf("expected all per-role auth disabled by default: %+v", cfg)
	}
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	clearWipEnv(t)
	os.Setenv("QUERY_GENERATOR_HOST", "weather.example.com")
	os.Setenv("QUERY_GENERATOR_PORT", "9999")
	os.Setenv("WIP_DIRECT_MODE", "true")
	os.Setenv("QUERY_REQUEST_AUTH_ENABLED", "true")
	os.Setenv("QUERY_SERVER_PASSPHRASE", "s3cret")
	os.Setenv("WIP_AUTH_ALGO", "sha1")
	os.Setenv("WIP_CLIENT_VERIFY_RESPONSE_AUTH", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QueryHost != "weather.example.com" || cfg.QueryPort != 9999 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if !cfg.DirectMode {
		t.Fatalf("expected DirectMode=true")
	}
	if !cfg.Query.Enabled || cfg.Query.Passphrase != "s3cret" {
		t.Fatalf("expected query role auth enabled with passphrase, got %+v", cfg.Query)
	}
	if cfg.AuthAlgorithm != "sha1" {
		t.Fatalf("got AuthAlgorithm=%s, want sha1", cfg.AuthAlgorithm)
	}
	if !cfg.VerifyResponseAuth {
		t.Fatalf("expected VerifyResponseAuth=true")
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	clearWipEnv(t)
	os.Setenv("WEATHER_SERVER_PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid WEATHER_SERVER_PORT")
	}
}

func TestLoadRejectsInvalidAuthEnabledFlag(t *testing.T) {
	clearWipEnv(t)
	os.Setenv("REPORT_REQUEST_AUTH_ENABLED", "not-a-bool")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid REPORT_REQUEST_AUTH_ENABLED")
	}
}
