// Package config loads runtime settings from the process environment, by
// way of a .env file if one is present (github.com/joho/godotenv). Every
// setting has a hardcoded default so a zero-configuration client still
// works against servers on the conventional ports. The env var names here
// follow the protocol spec's external-interface table verbatim, since
// they are a contract other WIP client implementations share.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/wip-client/wip/internal/logging"

	"github.com/joho/godotenv"
)

const (
	defaultLocationHost = "127.0.0.1"
	defaultLocationPort = 4109
	defaultQueryHost    = "127.0.0.1"
	defaultQueryPort    = 4111
	defaultWeatherHost  = "127.0.0.1"
	defaultWeatherPort  = 4110
	defaultReportHost   = "127.0.0.1"
	defaultReportPort   = 4112

	defaultTimeout       = 10 * time.Second
	defaultRecvTimeout   = 500 * time.Millisecond
	defaultCachePath     = "coordinate_cache.json"
	defaultCacheTTLHours = 24
	defaultAuthAlgo      = "sha256"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
)

// RoleAuth is one role's authentication stance: whether requests of that
// role attach an AuthHash extension, and the passphrase used to compute
// it. A role with Enabled=false never attaches auth even if a passphrase
// happens to be set.
type RoleAuth struct {
	Enabled    bool
	Passphrase string
}

// Config holds every setting a Client needs that isn't passed explicitly
// by its caller: the three (four, counting reports) protocol endpoints,
// per-role auth, and the ambient cache/logging/timeout knobs.
type Config struct {
	LocationHost string
	LocationPort int
	QueryHost    string
	QueryPort    int
	WeatherHost  string
	WeatherPort  int
	ReportHost   string
	ReportPort   int

	Timeout     time.Duration
	RecvTimeout time.Duration

	DirectMode bool

	Weather  RoleAuth
	Location RoleAuth
	Query    RoleAuth
	Report   RoleAuth

	VerifyResponseAuth bool
	AuthAlgorithm      string

	CachePath     string
	CacheTTLHours int

	LogLevel  string
	LogFormat string
}

// Load reads a .env file from the working directory if present (missing
// is not an error; godotenv.Load's own error is only surfaced for a file
// that exists but cannot be parsed), then layers environment variables
// over the defaults. As a side effect it installs the resulting log level
// and format as the package-wide logging default.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}

	cfg := Config{
		LocationHost:  defaultLocationHost,
		LocationPort:  defaultLocationPort,
		QueryHost:     defaultQueryHost,
		QueryPort:     defaultQueryPort,
		WeatherHost:   defaultWeatherHost,
		WeatherPort:   defaultWeatherPort,
		ReportHost:    defaultReportHost,
		ReportPort:    defaultReportPort,
		Timeout:       defaultTimeout,
		RecvTimeout:   defaultRecvTimeout,
		AuthAlgorithm: defaultAuthAlgo,
		CachePath:     defaultCachePath,
		CacheTTLHours: defaultCacheTTLHours,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
	}

	if err := loadEndpoint(&cfg.LocationHost, &cfg.LocationPort, "LOCATION_RESOLVER_HOST", "LOCATION_RESOLVER_PORT"); err != nil {
		return Config{}, err
	}
	if err := loadEndpoint(&cfg.QueryHost, &cfg.QueryPort, "QUERY_GENERATOR_HOST", "QUERY_GENERATOR_PORT"); err != nil {
		return Config{}, err
	}
	if err := loadEndpoint(&cfg.WeatherHost, &cfg.WeatherPort, "WEATHER_SERVER_HOST", "WEATHER_SERVER_PORT"); err != nil {
		return Config{}, err
	}
	if err := loadEndpoint(&cfg.ReportHost, &cfg.ReportPort, "REPORT_SERVER_HOST", "REPORT_SERVER_PORT"); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("WIP_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: WIP_TIMEOUT_MS: %w", err)
		}
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("WIP_RECV_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: WIP_RECV_TIMEOUT_MS: %w", err)
		}
		cfg.RecvTimeout = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("WIP_DIRECT_MODE"); v != "" {
		direct, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: WIP_DIRECT_MODE: %w", err)
		}
		cfg.DirectMode = direct
	}

	cfg.Weather.Passphrase = os.Getenv("WEATHER_SERVER_PASSPHRASE")
	cfg.Location.Passphrase = os.Getenv("LOCATION_SERVER_PASSPHRASE")
	cfg.Query.Passphrase = os.Getenv("QUERY_SERVER_PASSPHRASE")
	cfg.Report.Passphrase = os.Getenv("REPORT_SERVER_PASSPHRASE")

	var err error
	if cfg.Weather.Enabled, err = boolEnv("WEATHER_REQUEST_AUTH_ENABLED"); err != nil {
		return Config{}, err
	}
	if cfg.Location.Enabled, err = boolEnv("LOCATION_REQUEST_AUTH_ENABLED"); err != nil {
		return Config{}, err
	}
	if cfg.Query.Enabled, err = boolEnv("QUERY_REQUEST_AUTH_ENABLED"); err != nil {
		return Config{}, err
	}
	if cfg.Report.Enabled, err = boolEnv("REPORT_REQUEST_AUTH_ENABLED"); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("WIP_CLIENT_VERIFY_RESPONSE_AUTH"); v != "" {
		verify, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: WIP_CLIENT_VERIFY_RESPONSE_AUTH: %w", err)
		}
		cfg.VerifyResponseAuth = verify
	}
	if v := os.Getenv("WIP_AUTH_ALGO"); v != "" {
		cfg.AuthAlgorithm = v
	}

	if v := os.Getenv("WIP_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("WIP_CACHE_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: WIP_CACHE_TTL_HOURS: %w", err)
		}
		cfg.CacheTTLHours = hours
	}
	if v := os.Getenv("WIP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WIP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	logging.SetDefault(logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}))
	return cfg, nil
}

// loadEndpoint overrides *host/*port from the given env var names if set.
// "true" is spelled out in the spec only for the auth-enabled flags;
// ordinary string and int env vars here follow the same "empty means
// unset" convention used throughout this package.
func loadEndpoint(host *string, port *int, hostVar, portVar string) error {
	if v := os.Getenv(hostVar); v != "" {
		*host = v
	}
	if v := os.Getenv(portVar); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", portVar, err)
		}
		*port = p
	}
	return nil
}

// boolEnv parses name as a bool for the *_REQUEST_AUTH_ENABLED flags: an
// unset value is off, any value strconv.ParseBool accepts ("true", "1",
// "false", "0", ...) is used as parsed, and anything else is an error.
func boolEnv(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", name, err)
	}
	return b, nil
}

// LocationAddr formats the location-resolver endpoint as "host:port".
func (c Config) LocationAddr() string { return fmt.Sprintf("%s:%d", c.LocationHost, c.LocationPort) }

// QueryAddr formats the query-generator endpoint as "host:port".
func (c Config) QueryAddr() string { return fmt.Sprintf("%s:%d", c.QueryHost, c.QueryPort) }

// WeatherAddr formats the proxy-mode weather endpoint as "host:port".
func (c Config) WeatherAddr() string { return fmt.Sprintf("%s:%d", c.WeatherHost, c.WeatherPort) }

// ReportAddr formats the report endpoint as "host:port".
func (c Config) ReportAddr() string { return fmt.Sprintf("%s:%d", c.ReportHost, c.ReportPort) }
