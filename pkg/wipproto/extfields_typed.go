package wipproto

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/wip-client/wip/pkg/wiperrors"
)

// This file holds typed constructors and accessors layered over the raw
// ExtendedField TLV records in extension.go. Each function here knows the
// on-wire shape for exactly one key; callers that only need to pass
// extension data through untouched can keep working with the raw Value
// bytes instead.

// NewLatitudeField and NewLongitudeField encode a single coordinate axis as
// a signed, little-endian, coordinateScale-fixed-point i32.
func NewLatitudeField(degrees float64) ExtendedField {
	return ExtendedField{Key: ExtendedKeyLatitude, Value: encodeFixedCoordinate(degrees)}
}

func NewLongitudeField(degrees float64) ExtendedField {
	return ExtendedField{Key: ExtendedKeyLongitude, Value: encodeFixedCoordinate(degrees)}
}

func encodeFixedCoordinate(degrees float64) []byte {
	raw := int32(math.Round(degrees * coordinateScale))
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(raw))
	return buf
}

// CoordinateAxis decodes a field previously built with NewLatitudeField or
// NewLongitudeField.
func (f ExtendedField) CoordinateAxis() (float64, error) {
	if len(f.Value) != 4 {
		return 0, fmt.Errorf("%w: coordinate axis field has length %d, want 4", wiperrors.ErrInvalidPacket, len(f.Value))
	}
	raw := int32(binary.LittleEndian.Uint32(f.Value))
	return float64(raw) / coordinateScale, nil
}

// NewCoordinateField encodes a resolved (latitude, longitude) pair as two
// back-to-back little-endian float32 values, the form returned in
// CoordinateResponse packets.
func NewCoordinateField(latitude, longitude float64) ExtendedField {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(latitude)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(longitude)))
	return ExtendedField{Key: ExtendedKeyCoordinate, Value: buf}
}

// Coordinate decodes a field built with NewCoordinateField.
func (f ExtendedField) Coordinate() (latitude, longitude float64, err error) {
	if len(f.Value) != 8 {
		return 0, 0, fmt.Errorf("%w: coordinate field has length %d, want 8", wiperrors.ErrInvalidPacket, len(f.Value))
	}
	latitude = float64(math.Float32frombits(binary.LittleEndian.Uint32(f.Value[0:4])))
	longitude = float64(math.Float32frombits(binary.LittleEndian.Uint32(f.Value[4:8])))
	return latitude, longitude, nil
}

// stringListSeparator joins the human-readable entries of Alert and
// Disaster fields. Entries never contain NUL, so it is an unambiguous
// delimiter without a length-prefixed encoding.
const stringListSeparator = "\x00"

// NewAlertField and NewDisasterField encode a list of short messages as a
// NUL-joined UTF-8 string list.
func NewAlertField(messages []string) ExtendedField {
	return ExtendedField{Key: ExtendedKeyAlert, Value: []byte(strings.Join(messages, stringListSeparator))}
}

func NewDisasterField(messages []string) ExtendedField {
	return ExtendedField{Key: ExtendedKeyDisaster, Value: []byte(strings.Join(messages, stringListSeparator))}
}

// StringList decodes a field built with NewAlertField or NewDisasterField.
// An empty Value decodes to an empty, not a one-element, list.
func (f ExtendedField) StringList() []string {
	if len(f.Value) == 0 {
		return nil
	}
	return strings.Split(string(f.Value), stringListSeparator)
}

// NewAuthHashField wraps a raw HMAC digest for transmission in the
// AuthHash extension. Hex is used on the wire so the field round-trips
// through tools and logs that assume extension payloads are printable.
func NewAuthHashField(mac []byte) ExtendedField {
	encoded := make([]byte, hex.EncodedLen(len(mac)))
	hex.Encode(encoded, mac)
	return ExtendedField{Key: ExtendedKeyAuthHash, Value: encoded}
}

// AuthHashBytes decodes a field built with NewAuthHashField back into the
// raw digest.
func (f ExtendedField) AuthHashBytes() ([]byte, error) {
	mac := make([]byte, hex.DecodedLen(len(f.Value)))
	n, err := hex.Decode(mac, f.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: auth hash field is not valid hex: %v", wiperrors.ErrInvalidPacket, err)
	}
	return mac[:n], nil
}

// NewCustomDataField and CustomDataString carry an opaque human-readable
// string, used for the message text of a decoded ServerError.
func NewCustomDataField(text string) ExtendedField {
	return ExtendedField{Key: ExtendedKeyCustomData, Value: []byte(text)}
}

func (f ExtendedField) CustomDataString() string {
	return string(f.Value)
}
