package wipproto

import (
	"errors"
	"testing"

	"github.com/wip-client/wip/pkg/wiperrors"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodePacketRequestRoundTrip(t *testing.T) {
	p := Packet{
		Header: Header{
			Version:     1,
			PacketID:    42,
			Type:        PacketTypeWeatherRequest,
			FlagWeather: true,
			Day:         2,
			Timestamp:   1_700_000_123,
			AreaCode:    130010,
		},
		Extensions: []ExtendedField{
			NewLatitudeField(35.6),
			NewLongitudeField(139.7),
		},
	}

	encoded, err := EncodePacket(p)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	decoded, err := DecodePacket(encoded)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}

	if !decoded.Header.FlagExtended {
		t.Fatalf("expected flag_extended to be set since extensions were attached")
	}
	if diff := cmp.Diff(p.Extensions, decoded.Extensions); diff != "" {
		t.Fatalf("extensions mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodePacketResponseRoundTrip(t *testing.T) {
	p := Packet{
		Header: Header{
			Version:  1,
			PacketID: 7,
			Type:     PacketTypeWeatherResponse,
			Day:      5,
			Timestamp: 1_700_000_456,
			AreaCode: 130010,
			ResponseTail: &ResponseTail{
				WeatherCode:       200,
				TemperatureRaw:    15,
				PrecipitationProb: 60,
			},
		},
	}

	encoded, err := EncodePacket(p)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	decoded, err := DecodePacket(encoded)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if decoded.Header.ResponseTail == nil {
		t.Fatalf("expected response tail after decode")
	}
	if *decoded.Header.ResponseTail != *p.Header.ResponseTail {
		t.Fatalf("got %+v, want %+v", decoded.Header.ResponseTail, p.Header.ResponseTail)
	}
}

func TestEncodePacketRejectsMissingResponseTail(t *testing.T) {
	p := Packet{Header: Header{Version: 1, Type: PacketTypeWeatherResponse, Timestamp: 1}}
	if _, err := EncodePacket(p); !errors.Is(err, wiperrors.ErrInvalidPacket) {
		t.Fatalf("got %v, want ErrInvalidPacket", err)
	}
}

func TestEncodePacketRejectsTailOnRequest(t *testing.T) {
	p := Packet{Header: Header{
		Version:      1,
		Type:         PacketTypeWeatherRequest,
		Timestamp:    1,
		ResponseTail: &ResponseTail{},
	}}
	if _, err := EncodePacket(p); !errors.Is(err, wiperrors.ErrInvalidPacket) {
		t.Fatalf("got %v, want ErrInvalidPacket", err)
	}
}

func TestDecodePacketChecksumCoversExtensions(t *testing.T) {
	p := Packet{
		Header: Header{
			Version:   1,
			PacketID:  1,
			Type:      PacketTypeWeatherRequest,
			Timestamp: 1_700_000_000,
			AreaCode:  1,
		},
		Extensions: []ExtendedField{NewAlertField([]string{"test"})},
	}
	encoded, err := EncodePacket(p)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	// Corrupt a byte inside the extension region; the whole-packet checksum
	// must catch it even though it lies outside the fixed header.
	encoded[len(encoded)-1] ^= 0xFF

	if _, err := DecodePacket(encoded); !errors.Is(err, wiperrors.ErrChecksumMismatch) {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}
