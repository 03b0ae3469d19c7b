package wipproto

import (
	"errors"
	"testing"

	"github.com/wip-client/wip/pkg/wiperrors"

	"github.com/google/go-cmp/cmp"
)

func sampleRequestHeader() Header {
	return Header{
		Version:         1,
		PacketID:        0x0AB,
		Type:            PacketTypeWeatherRequest,
		FlagWeather:     true,
		FlagTemperature: true,
		Day:             3,
		Timestamp:       1_700_000_000,
		AreaCode:        130010,
	}
}

func TestEncodeHeaderStandaloneRoundTrip(t *testing.T) {
	h := sampleRequestHeader()
	encoded, err := EncodeHeader(h)
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	decoded, err := DecodeHeader(encoded[:])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	decoded.Checksum = 0
	h.Checksum = 0
	if diff := cmp.Diff(h, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, err := DecodeHeader(make([]byte, FixedHeaderSize-1))
	if !errors.Is(err, wiperrors.ErrInvalidPacket) {
		t.Fatalf("got %v, want ErrInvalidPacket", err)
	}
}

func TestDecodeHeaderDetectsChecksumMismatch(t *testing.T) {
	h := sampleRequestHeader()
	encoded, err := EncodeHeader(h)
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	encoded[0] ^= 0xFF
	_, err = DecodeHeader(encoded[:])
	if !errors.Is(err, wiperrors.ErrChecksumMismatch) {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}

func TestEncodeHeaderRejectsOutOfRangeFields(t *testing.T) {
	h := sampleRequestHeader()
	h.PacketID = 0x1FFF
	if _, err := EncodeHeader(h); !errors.Is(err, wiperrors.ErrInvalidPacket) {
		t.Fatalf("got %v, want ErrInvalidPacket for oversized packet_id", err)
	}
}

func TestDecodeHeaderPopulatesResponseTail(t *testing.T) {
	h := Header{
		Version:  1,
		PacketID: 1,
		Type:     PacketTypeWeatherResponse,
		Day:      1,
		Timestamp: 1_700_000_001,
		AreaCode: 130010,
		ResponseTail: &ResponseTail{
			WeatherCode:       100,
			TemperatureRaw:    20,
			PrecipitationProb: 30,
		},
	}
	buf := make([]byte, FixedHeaderSize+ResponseTailSize)
	writeHeaderFields(buf[:FixedHeaderSize], &h)
	h.ResponseTail.encodeInto(buf[FixedHeaderSize:])
	cs := checksum12OverPacket(buf)
	setBits(buf, checksumBitStart, checksumBitLen, uint64(cs))

	decoded, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if decoded.ResponseTail == nil {
		t.Fatalf("expected response tail to be populated")
	}
	if decoded.ResponseTail.WeatherCode != 100 || decoded.ResponseTail.PrecipitationProb != 30 {
		t.Fatalf("response tail fields mismatch: %+v", decoded.ResponseTail)
	}
}

func TestHeaderNextLayerType(t *testing.T) {
	h := Header{FlagExtended: true}
	if lt := h.NextLayerType(); lt != LayerTypeExtensions {
		t.Fatalf("got %v, want LayerTypeExtensions", lt)
	}
}
