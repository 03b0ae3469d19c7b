package wipclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/wip-client/wip/internal/cache"
	"github.com/wip-client/wip/internal/logging"
	"github.com/wip-client/wip/internal/transport"
	"github.com/wip-client/wip/pkg/wiperrors"
	"github.com/wip-client/wip/pkg/wipproto"
)

// Client is the WIP client facade: one packet_id generator and one
// coordinate cache shared across every request it sends, to any of the
// protocol's endpoints. It is safe for concurrent use by multiple
// goroutines; the underlying Transactor opens a fresh socket per
// transaction, so concurrent calls never contend over one connection.
//
// Besides the explicit-argument request methods, Client also holds a
// mutable query target (state, set via SetAreaCode/SetCoordinates) that
// GetWeather dispatches against, mirroring the reference client's
// stateful get_weather().
type Client struct {
	opts       Options
	transactor *transport.Transactor
	idgen      *transport.IDGenerator
	cache      *cache.Cache
	metrics    *metricsSet
	log        *logging.Logger

	stateMu sync.Mutex
	state   QueryState
}

// Dial opens a Client. Unlike a TCP dial, nothing is sent over the
// network yet: endpoints are only contacted the first time a request
// targets them. The coordinate cache, however, is loaded from disk
// immediately.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	c, err := cache.Open(opts.CachePath, opts.CacheTTL)
	if err != nil {
		return nil, err
	}

	return &Client{
		opts:       opts,
		transactor: transport.New(),
		idgen:      transport.NewIDGenerator(),
		cache:      c,
		metrics:    newMetricsSet(),
		log:        logging.Default(),
		state:      opts.InitialState,
	}, nil
}

// Close flushes the coordinate cache to disk.
func (c *Client) Close() error {
	return c.cache.Flush()
}

// SetAreaCode sets the area code in the client's query state, the same
// mutation the reference client's set_area_code() makes to state_. Any
// coordinates already set are kept; GetWeather prefers the area code.
func (c *Client) SetAreaCode(areaCode uint32) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.state.AreaCode = areaCode
	c.state.HasAreaCode = true
}

// SetCoordinates sets (latitude, longitude) in the client's query state,
// mirroring the reference client's set_coordinates(). Any area code
// already set is kept and still wins in GetWeather.
func (c *Client) SetCoordinates(latitude, longitude float64) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.state.Latitude = latitude
	c.state.Longitude = longitude
	c.state.HasCoordinates = true
}

// State returns the client's current query target.
func (c *Client) State() QueryState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// GetWeather queries weather for the client's current state, set via
// SetAreaCode/SetCoordinates or Options.InitialState. If an area code is
// set it wins outright, even over coordinates also set; if neither is
// set, the call fails with ErrInvalidPacket rather than guessing.
func (c *Client) GetWeather(ctx context.Context) (*WeatherResult, error) {
	state := c.State()
	switch {
	case state.HasAreaCode:
		return c.GetWeatherByAreaCode(ctx, state.AreaCode)
	case state.HasCoordinates:
		return c.GetWeatherByCoordinates(ctx, state.Latitude, state.Longitude)
	default:
		return nil, fmt.Errorf("%w: neither an area code nor coordinates are set", wiperrors.ErrInvalidPacket)
	}
}

// GetWeatherByAreaCode queries weather directly for a known area code,
// against the query-generator endpoint.
func (c *Client) GetWeatherByAreaCode(ctx context.Context, areaCode uint32) (*WeatherResult, error) {
	c.metrics.requestsTotal.WithLabelValues("weather_by_area_code").Inc()
	header, extras, err := c.newRequestHeader(wipproto.PacketTypeWeatherRequest, areaCode, c.opts.Query)
	if err != nil {
		return nil, err
	}
	header.FlagWeather = true
	header.FlagTemperature = true
	header.FlagPrecipitation = true
	header.FlagAlert = true
	header.FlagDisaster = true

	resp, err := c.send(ctx, c.opts.QueryAddr, wipproto.Packet{Header: header, Extensions: extras}, c.opts.Query.Passphrase)
	if err != nil {
		c.metrics.errorsTotal.WithLabelValues("weather_by_area_code").Inc()
		return nil, err
	}
	return newWeatherResult(resp), nil
}

// GetWeatherByCoordinates queries weather for a (latitude, longitude)
// pair. In direct mode (Options.DirectMode) this is two round trips: a
// CoordinateRequest to the location resolver (cached across calls), then
// a WeatherRequest to the query generator for the resolved area code.
// Otherwise it is a single WeatherRequest to the proxy endpoint carrying
// the coordinate extensions, leaving resolution to the server.
func (c *Client) GetWeatherByCoordinates(ctx context.Context, latitude, longitude float64) (*WeatherResult, error) {
	c.metrics.requestsTotal.WithLabelValues("weather_by_coordinates").Inc()

	if c.opts.DirectMode {
		areaCode, err := c.resolveAreaCode(ctx, latitude, longitude)
		if err != nil {
			c.metrics.errorsTotal.WithLabelValues("weather_by_coordinates").Inc()
			return nil, err
		}
		return c.GetWeatherByAreaCode(ctx, areaCode)
	}

	header, extras, err := c.newRequestHeader(wipproto.PacketTypeWeatherRequest, 0, c.opts.Weather)
	if err != nil {
		return nil, err
	}
	header.FlagWeather = true
	header.FlagTemperature = true
	header.FlagPrecipitation = true
	extras = append(extras, wipproto.NewLatitudeField(latitude), wipproto.NewLongitudeField(longitude))

	resp, err := c.send(ctx, c.opts.WeatherAddr, wipproto.Packet{Header: header, Extensions: extras}, c.opts.Weather.Passphrase)
	if err != nil {
		c.metrics.errorsTotal.WithLabelValues("weather_by_coordinates").Inc()
		return nil, err
	}
	return newWeatherResult(resp), nil
}

// SubmitReport sends an observation report to the report endpoint and
// returns the server's acknowledgement.
func (c *Client) SubmitReport(ctx context.Context, report Report) (*ReportResult, error) {
	c.metrics.requestsTotal.WithLabelValues("submit_report").Inc()
	header, extras, err := c.newRequestHeader(wipproto.PacketTypeReportRequest, report.AreaCode, c.opts.Report)
	if err != nil {
		return nil, err
	}
	tail := wipproto.ResponseTail{
		WeatherCode:       report.WeatherCode,
		TemperatureRaw:    int8(report.Temperature + wipproto.TemperatureOffset),
		PrecipitationProb: report.PrecipitationProb,
	}
	extras = append(extras, wipproto.ExtendedField{Key: wipproto.ExtendedKeySensorReading, Value: mustEncodeResponseTail(tail)})

	resp, err := c.send(ctx, c.opts.ReportAddr, wipproto.Packet{Header: header, Extensions: extras}, c.opts.Report.Passphrase)
	if err != nil {
		c.metrics.errorsTotal.WithLabelValues("submit_report").Inc()
		return nil, err
	}
	return newReportResult(resp), nil
}

func mustEncodeResponseTail(t wipproto.ResponseTail) []byte {
	b := wipproto.EncodeResponseTail(t)
	return b[:]
}

// WeatherFuture is returned by the *Async methods: the request has been
// dispatched on its own goroutine, and Wait blocks for its outcome.
type WeatherFuture struct {
	done chan weatherOutcome
}

type weatherOutcome struct {
	result *WeatherResult
	err    error
}

// Wait blocks until the request completes or ctx is done, whichever
// happens first.
func (f *WeatherFuture) Wait(ctx context.Context) (*WeatherResult, error) {
	select {
	case o := <-f.done:
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetWeatherByAreaCodeAsync dispatches GetWeatherByAreaCode on its own
// goroutine and returns immediately with a future.
func (c *Client) GetWeatherByAreaCodeAsync(ctx context.Context, areaCode uint32) *WeatherFuture {
	f := &WeatherFuture{done: make(chan weatherOutcome, 1)}
	go func() {
		result, err := c.GetWeatherByAreaCode(ctx, areaCode)
		f.done <- weatherOutcome{result: result, err: err}
	}()
	return f
}

// GetWeatherByCoordinatesAsync is the async form of GetWeatherByCoordinates.
func (c *Client) GetWeatherByCoordinatesAsync(ctx context.Context, latitude, longitude float64) *WeatherFuture {
	f := &WeatherFuture{done: make(chan weatherOutcome, 1)}
	go func() {
		result, err := c.GetWeatherByCoordinates(ctx, latitude, longitude)
		f.done <- weatherOutcome{result: result, err: err}
	}()
	return f
}
