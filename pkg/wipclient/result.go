package wipclient

import "github.com/wip-client/wip/pkg/wipproto"

// WeatherResult is the decoded, caller-facing view of a WeatherResponse
// packet. Temperature is already converted out of the wire's offset byte
// representation; callers never see wipproto.ResponseTail directly.
type WeatherResult struct {
	AreaCode          uint32
	WeatherCode       uint16
	Temperature       int
	PrecipitationProb uint8
	Alerts            []string
	Disasters         []string
}

func newWeatherResult(p wipproto.Packet) *WeatherResult {
	tail := p.Header.ResponseTail
	r := &WeatherResult{AreaCode: p.Header.AreaCode}
	if tail != nil {
		r.WeatherCode = tail.WeatherCode
		r.Temperature = tail.Temperature()
		r.PrecipitationProb = tail.PrecipitationProb
	}
	if f, ok := p.Find(wipproto.ExtendedKeyAlert); ok {
		r.Alerts = f.StringList()
	}
	if f, ok := p.Find(wipproto.ExtendedKeyDisaster); ok {
		r.Disasters = f.StringList()
	}
	return r
}

// ReportResult is the caller-facing view of a ReportResponse packet.
type ReportResult struct {
	Accepted bool
	Message  string
}

func newReportResult(p wipproto.Packet) *ReportResult {
	r := &ReportResult{Accepted: true}
	if f, ok := p.Find(wipproto.ExtendedKeyCustomData); ok {
		r.Message = f.CustomDataString()
	}
	return r
}

// Report is the data a caller submits with SubmitReport: an observation
// of local conditions for a given area code.
type Report struct {
	AreaCode          uint32
	WeatherCode       uint16
	Temperature       int
	PrecipitationProb uint8
}
