package wipproto

import (
	"errors"
	"testing"

	"github.com/wip-client/wip/pkg/wiperrors"

	"github.com/google/go-cmp/cmp"
)

func TestExtendedFieldRoundTrip(t *testing.T) {
	fields := []ExtendedField{
		NewLatitudeField(35.681236),
		NewLongitudeField(139.767125),
		NewAlertField([]string{"heavy rain", "flood watch"}),
		NewAuthHashField([]byte{0xDE, 0xAD, 0xBE, 0xEF}),
	}

	encoded, err := EncodeExtendedFields(fields)
	if err != nil {
		t.Fatalf("EncodeExtendedFields: %v", err)
	}
	decoded, err := DecodeExtendedFields(encoded)
	if err != nil {
		t.Fatalf("DecodeExtendedFields: %v", err)
	}
	if diff := cmp.Diff(fields, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLatitudeRoundTripPrecision(t *testing.T) {
	f := NewLatitudeField(35.681236)
	got, err := f.CoordinateAxis()
	if err != nil {
		t.Fatalf("CoordinateAxis: %v", err)
	}
	const epsilon = 1e-6
	if diff := got - 35.681236; diff > epsilon || diff < -epsilon {
		t.Fatalf("got %v, want ~35.681236", got)
	}
}

func TestCoordinateFieldRoundTrip(t *testing.T) {
	f := NewCoordinateField(35.0, 139.0)
	lat, lon, err := f.Coordinate()
	if err != nil {
		t.Fatalf("Coordinate: %v", err)
	}
	if lat != 35.0 || lon != 139.0 {
		t.Fatalf("got (%v, %v), want (35, 139)", lat, lon)
	}
}

func TestStringListEmptyValue(t *testing.T) {
	f := ExtendedField{Key: ExtendedKeyAlert}
	if got := f.StringList(); got != nil {
		t.Fatalf("got %v, want nil for empty value", got)
	}
}

func TestDecodeExtendedFieldsRejectsOverrunLength(t *testing.T) {
	// header claims key=1, length=5 but no value bytes follow.
	header := uint16(1)<<extLengthBits | 5
	data := []byte{byte(header), byte(header >> 8)}
	_, err := DecodeExtendedFields(data)
	if !errors.Is(err, wiperrors.ErrInvalidPacket) {
		t.Fatalf("got %v, want ErrInvalidPacket", err)
	}
}

func TestEncodeExtendedFieldRejectsOversizedValue(t *testing.T) {
	f := ExtendedField{Key: ExtendedKeyCustomData, Value: make([]byte, extMaxLength+1)}
	if _, err := EncodeExtendedField(f); !errors.Is(err, wiperrors.ErrInvalidPacket) {
		t.Fatalf("got %v, want ErrInvalidPacket", err)
	}
}

func TestExtensionsFind(t *testing.T) {
	e := &Extensions{Fields: []ExtendedField{
		{Key: ExtendedKeyAlert, Value: []byte("x")},
		{Key: ExtendedKeyCoordinate, Value: []byte("y")},
	}}
	f, ok := e.Find(ExtendedKeyCoordinate)
	if !ok || string(f.Value) != "y" {
		t.Fatalf("Find did not return expected field: %+v, %v", f, ok)
	}
	if _, ok := e.Find(ExtendedKeyMetadata); ok {
		t.Fatalf("Find returned true for absent key")
	}
}
