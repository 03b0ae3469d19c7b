package main

// wip-query looks up the current weather for an area code or a
// (latitude, longitude) pair and prints the result. Configuration is
// loaded from the environment the same way a long-running service would
// (see internal/config); the flags below only override the pieces a
// one-off invocation typically wants to change.

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wip-client/wip"
	"github.com/wip-client/wip/internal/config"
	"github.com/wip-client/wip/pkg/wipclient"

	"github.com/alecthomas/kingpin"
)

var (
	flgQueryAddr = kingpin.Flag("query-addr", "host:port of the query-generator endpoint.").
			String()
	flgWeatherAddr = kingpin.Flag("weather-addr", "host:port of the proxy weather endpoint (non-direct mode).").
			String()
	flgLocationAddr = kingpin.Flag("location-addr", "host:port of the location-resolver endpoint (direct mode).").
				String()
	flgAreaCode = kingpin.Flag("area-code", "Area code to query directly.").
			Uint()
	flgLatitude = kingpin.Flag("lat", "Latitude to resolve, used with --lon.").
			Float64()
	flgLongitude = kingpin.Flag("lon", "Longitude to resolve, used with --lat.").
			Float64()
	flgDirect = kingpin.Flag("direct", "Resolve coordinates to an area code locally before querying.").
			Bool()
	flgPassphrase = kingpin.Flag("passphrase", "Shared passphrase for the role this command exercises (location and query in direct mode, query for --area-code, weather otherwise).").
			String()
)

func main() {
	kingpin.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	opts := wipclient.FromConfig(cfg)

	if *flgQueryAddr != "" {
		opts.QueryAddr = *flgQueryAddr
	}
	if *flgWeatherAddr != "" {
		opts.WeatherAddr = *flgWeatherAddr
	}
	if *flgLocationAddr != "" {
		opts.LocationAddr = *flgLocationAddr
	}
	if *flgDirect {
		opts.DirectMode = true
	}
	if *flgPassphrase != "" {
		switch {
		case opts.DirectMode:
			opts.Query.Enabled = true
			opts.Query.Passphrase = *flgPassphrase
			opts.Location.Enabled = true
			opts.Location.Passphrase = *flgPassphrase
		case *flgAreaCode != 0:
			opts.Query.Enabled = true
			opts.Query.Passphrase = *flgPassphrase
		default:
			opts.Weather.Enabled = true
			opts.Weather.Passphrase = *flgPassphrase
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := wip.Dial(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	var result *wipclient.WeatherResult
	switch {
	case *flgAreaCode != 0:
		result, err = client.GetWeatherByAreaCode(ctx, uint32(*flgAreaCode))
	case *flgLatitude != 0 || *flgLongitude != 0:
		result, err = client.GetWeatherByCoordinates(ctx, *flgLatitude, *flgLongitude)
	default:
		log.Fatal("one of --area-code or --lat/--lon is required")
	}
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("weather_code=%d temperature=%dC precipitation_prob=%d%%\n",
		result.WeatherCode, result.Temperature, result.PrecipitationProb)
	for _, alert := range result.Alerts {
		fmt.Printf("alert: %s\n", alert)
	}
	for _, disaster := range result.Disasters {
		fmt.Printf("disaster: %s\n", disaster)
	}
}
