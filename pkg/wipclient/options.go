// Package wipclient is the public client facade: it wires the protocol
// codec (pkg/wipproto), the auth scheme (pkg/wipauth), the UDP transactor
// and the coordinate cache together behind a handful of request methods.
package wipclient

import (
	"time"

	"github.com/wip-client/wip/internal/config"
	"github.com/wip-client/wip/pkg/wipauth"
)

// RoleAuth is re-exported from internal/config so callers building Options
// by hand don't need to import an internal package.
type RoleAuth = config.RoleAuth

// Options configures a Client. Zero-value fields fall back to the
// defaults internal/config.Load would produce; most callers build
// Options from a loaded config.Config with FromConfig instead of filling
// it in by hand.
type Options struct {
	// LocationAddr is the location-resolver endpoint a CoordinateRequest
	// is sent to in direct mode.
	LocationAddr string
	// QueryAddr is the query-generator endpoint a WeatherRequest is sent
	// to, whether by area code directly or after direct-mode resolution.
	QueryAddr string
	// WeatherAddr is the pre-aggregating proxy endpoint used for a
	// coordinate query in non-direct (proxy) mode: one WeatherRequest,
	// carrying coordinate extensions, with no separate resolution step.
	WeatherAddr string
	// ReportAddr is the endpoint a ReportRequest is sent to.
	ReportAddr string

	// Timeout is the overall per-transaction deadline (D in the protocol
	// spec's transactor contract).
	Timeout time.Duration
	// RecvTimeout bounds a single recvfrom call (t_recv).
	RecvTimeout time.Duration

	// DirectMode selects the two-step orchestration: resolve a coordinate
	// to an area code with one request against LocationAddr, then query
	// weather for that area code against QueryAddr. When false, a
	// coordinate query is a single WeatherRequest against WeatherAddr,
	// leaving resolution to the server.
	DirectMode bool

	Weather  RoleAuth
	Location RoleAuth
	Query    RoleAuth
	Report   RoleAuth

	// VerifyResponseAuth, when set, makes every request ask its peer to
	// authenticate the response (header flag_response_auth) and rejects
	// any response that comes back without a valid AuthHash extension.
	VerifyResponseAuth bool
	AuthAlgorithm       wipauth.Algorithm

	CachePath string
	CacheTTL  time.Duration

	// InitialState seeds the Client's mutable query target — the same
	// state a caller could set afterwards with SetAreaCode/SetCoordinates
	// — so a caller that already knows what it wants to query doesn't
	// have to call a setter before the first GetWeather.
	InitialState QueryState
}

// QueryState is the area code or coordinate pair GetWeather dispatches
// against. It mirrors the reference client's persisted state_ member, set
// through set_area_code()/set_coordinates(): both an area code and a
// coordinate pair can be set at once, in which case the area code wins;
// Has* flags track which, if either, was actually set, since (0, 0) is a
// valid coordinate and area code 0 is a valid area code.
type QueryState struct {
	AreaCode    uint32
	HasAreaCode bool

	Latitude       float64
	Longitude      float64
	HasCoordinates bool
}

// FromConfig builds Options from a loaded configuration.
func FromConfig(cfg config.Config) Options {
	return Options{
		LocationAddr:       cfg.LocationAddr(),
		QueryAddr:          cfg.QueryAddr(),
		WeatherAddr:        cfg.WeatherAddr(),
		ReportAddr:         cfg.ReportAddr(),
		Timeout:            cfg.Timeout,
		RecvTimeout:        cfg.RecvTimeout,
		DirectMode:         cfg.DirectMode,
		Weather:            cfg.Weather,
		Location:           cfg.Location,
		Query:              cfg.Query,
		Report:             cfg.Report,
		VerifyResponseAuth: cfg.VerifyResponseAuth,
		AuthAlgorithm:      parseAlgorithm(cfg.AuthAlgorithm),
		CachePath:          cfg.CachePath,
		CacheTTL:           time.Duration(cfg.CacheTTLHours) * time.Hour,
	}
}

func parseAlgorithm(name string) wipauth.Algorithm {
	switch name {
	case "sha1":
		return wipauth.SHA1
	case "md5":
		return wipauth.MD5
	default:
		return wipauth.SHA256
	}
}

func (o Options) withDefaults() Options {
	if o.LocationAddr == "" {
		o.LocationAddr = "127.0.0.1:4109"
	}
	if o.QueryAddr == "" {
		o.QueryAddr = "127.0.0.1:4111"
	}
	if o.WeatherAddr == "" {
		o.WeatherAddr = "127.0.0.1:4110"
	}
	if o.ReportAddr == "" {
		o.ReportAddr = "127.0.0.1:4112"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RecvTimeout <= 0 {
		o.RecvTimeout = 500 * time.Millisecond
	}
	if o.CachePath == "" {
		o.CachePath = "coordinate_cache.json"
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 24 * time.Hour
	}
	return o
}
