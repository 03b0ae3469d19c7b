package main

// wip-report submits an observation report for an area code.

import (
	"context"
	"log"
	"time"

	"github.com/wip-client/wip"
	"github.com/wip-client/wip/internal/config"
	"github.com/wip-client/wip/pkg/wipclient"

	"github.com/alecthomas/kingpin"
)

var (
	flgReportAddr = kingpin.Flag("report-addr", "host:port of the report endpoint.").
			String()
	argAreaCode = kingpin.Arg("area-code", "Area code the report is for.").
			Required().
			Uint()
	argWeatherCode = kingpin.Arg("weather-code", "Observed weather code.").
			Required().
			Uint16()
	argTemperature = kingpin.Arg("temperature", "Observed temperature in whole degrees Celsius.").
			Required().
			Int()
	argPrecipitation = kingpin.Arg("precipitation", "Observed precipitation probability, 0-100.").
				Required().
				Uint8()
	flgPassphrase = kingpin.Flag("passphrase", "Shared passphrase for report request/response authentication.").
			String()
)

func main() {
	kingpin.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	opts := wipclient.FromConfig(cfg)

	if *flgReportAddr != "" {
		opts.ReportAddr = *flgReportAddr
	}
	if *flgPassphrase != "" {
		opts.Report.Enabled = true
		opts.Report.Passphrase = *flgPassphrase
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := wip.Dial(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	result, err := client.SubmitReport(ctx, wipclient.Report{
		AreaCode:          uint32(*argAreaCode),
		WeatherCode:       *argWeatherCode,
		Temperature:       *argTemperature,
		PrecipitationProb: *argPrecipitation,
	})
	if err != nil {
		log.Fatal(err)
	}

	if result.Accepted {
		log.Printf("report accepted: %s", result.Message)
	} else {
		log.Printf("report rejected: %s", result.Message)
	}
}
