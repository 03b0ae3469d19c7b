// Package wip is the top-level entry point for the WIP client: Dial builds
// a Client from Options (no datagram is sent until a request method is
// called), and the returned Client exposes the request methods documented
// on wipclient.Client.
package wip

import (
	"context"

	"github.com/wip-client/wip/internal/config"
	"github.com/wip-client/wip/pkg/wipclient"
)

// Client is the facade every caller of this module uses. It is an alias
// for wipclient.Client so documentation and examples can refer to either
// import path interchangeably.
type Client = wipclient.Client

// Options configures Dial. See wipclient.Options for field documentation.
type Options = wipclient.Options

// Dial opens a Client using opts. Unlike net.Dial there is no single
// address: opts.LocationAddr/QueryAddr/WeatherAddr/ReportAddr each name an
// endpoint, and which ones get contacted depends on DirectMode and which
// request methods are called.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	return wipclient.Dial(ctx, opts)
}

// DialFromEnvironment loads configuration the way internal/config.Load
// does (a .env file plus environment variables, each with a sane
// default) and dials a Client with the endpoints and auth settings it
// produces, via wipclient.FromConfig. cmd/wip-query and cmd/wip-report do
// not use it: they call config.Load themselves so they can apply flag
// overrides before calling Dial.
func DialFromEnvironment(ctx context.Context) (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return wipclient.Dial(ctx, wipclient.FromConfig(cfg))
}
