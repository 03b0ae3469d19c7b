package wipproto

import "github.com/google/gopacket"

// Layer type identifiers for the three gopacket layers a WIP packet can be
// decomposed into: the fixed header, the optional response tail, and the
// trailing run of extensions. Registering them lets callers that already
// work in terms of gopacket.Packet (gopacket.NewPacket, LayerClass lookups)
// use this protocol the same way they'd use any other gopacket-based codec.
var (
	LayerTypeHeader       = gopacket.RegisterLayerType(2001, gopacket.LayerTypeMetadata{Name: "WIPHeader", Decoder: gopacket.DecodeFunc(decodeHeaderLayer)})
	LayerTypeResponseTail = gopacket.RegisterLayerType(2002, gopacket.LayerTypeMetadata{Name: "WIPResponseTail", Decoder: gopacket.DecodeFunc(decodeResponseTailLayer)})
	LayerTypeExtensions   = gopacket.RegisterLayerType(2003, gopacket.LayerTypeMetadata{Name: "WIPExtensions", Decoder: gopacket.DecodeFunc(decodeExtensionsLayer)})
)

func decodeHeaderLayer(data []byte, p gopacket.PacketBuilder) error {
	h := &Header{}
	if err := h.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(h)
	return p.NextDecoder(h.NextLayerType())
}

func decodeResponseTailLayer(data []byte, p gopacket.PacketBuilder) error {
	t := &ResponseTail{}
	if err := t.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(t)
	return p.NextDecoder(t.NextLayerType())
}

func decodeExtensionsLayer(data []byte, p gopacket.PacketBuilder) error {
	e := &Extensions{}
	if err := e.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(e)
	return p.NextDecoder(gopacket.LayerTypePayload)
}

// PacketType is the 3-bit type field of the fixed header.
type PacketType uint8

const (
	PacketTypeCoordinateRequest  PacketType = 0
	PacketTypeCoordinateResponse PacketType = 1
	PacketTypeWeatherRequest     PacketType = 2
	PacketTypeWeatherResponse    PacketType = 3
	PacketTypeReportRequest      PacketType = 4
	PacketTypeReportResponse     PacketType = 5
	PacketTypeError              PacketType = 7
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeCoordinateRequest:
		return "CoordinateRequest"
	case PacketTypeCoordinateResponse:
		return "CoordinateResponse"
	case PacketTypeWeatherRequest:
		return "WeatherRequest"
	case PacketTypeWeatherResponse:
		return "WeatherResponse"
	case PacketTypeReportRequest:
		return "ReportRequest"
	case PacketTypeReportResponse:
		return "ReportResponse"
	case PacketTypeError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsResponse reports whether t is one of the three response types that
// carry a response tail.
func (t PacketType) IsResponse() bool {
	switch t {
	case PacketTypeCoordinateResponse, PacketTypeWeatherResponse, PacketTypeReportResponse:
		return true
	default:
		return false
	}
}
