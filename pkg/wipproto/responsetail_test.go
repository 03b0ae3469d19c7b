package wipproto

import "testing"

func TestResponseTailTemperatureOffset(t *testing.T) {
	tail := ResponseTail{TemperatureRaw: 125}
	if got := tail.Temperature(); got != 25 {
		t.Fatalf("Temperature() = %d, want 25 for raw byte 125", got)
	}
}

func TestResponseTailEncodeDecodeRoundTrip(t *testing.T) {
	tail := ResponseTail{WeatherCode: 0x1234, TemperatureRaw: -10, PrecipitationProb: 42}
	encoded := EncodeResponseTail(tail)
	decoded, err := DecodeResponseTail(encoded[:])
	if err != nil {
		t.Fatalf("DecodeResponseTail: %v", err)
	}
	if decoded != tail {
		t.Fatalf("got %+v, want %+v", decoded, tail)
	}
}

func TestDecodeResponseTailTruncated(t *testing.T) {
	if _, err := DecodeResponseTail([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error decoding truncated response tail")
	}
}
