package wipproto

import (
	"fmt"

	"github.com/wip-client/wip/pkg/wiperrors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ExtendedKey identifies the kind of data an extended field carries. Keys
// without a constant below (8-32, 35-39, and above 40) are reserved or
// unassigned; they are round-tripped verbatim without interpretation.
type ExtendedKey uint8

const (
	ExtendedKeyAlert         ExtendedKey = 1
	ExtendedKeyDisaster      ExtendedKey = 2
	ExtendedKeyCoordinate    ExtendedKey = 3
	ExtendedKeyAuthHash      ExtendedKey = 4
	ExtendedKeyCustomData    ExtendedKey = 5
	ExtendedKeySensorReading ExtendedKey = 6
	ExtendedKeyMetadata      ExtendedKey = 7
	ExtendedKeySourceInfo    ExtendedKey = 40

	// ExtendedKeyLatitude and ExtendedKeyLongitude carry a single
	// coordinate axis each, as a signed i32 LE fixed-point value scaled by
	// 1e6 (micro-degrees). Requests that query by coordinate attach both;
	// ExtendedKeyCoordinate (above) is used instead on responses that
	// hand back a resolved, combined coordinate pair.
	ExtendedKeyLatitude  ExtendedKey = 33
	ExtendedKeyLongitude ExtendedKey = 34
)

// coordinateScale converts between a real-world degree value and the
// fixed-point micro-degree integer carried by ExtendedKeyLatitude/
// ExtendedKeyLongitude.
const coordinateScale = 1e6

func (k ExtendedKey) String() string {
	switch k {
	case ExtendedKeyAlert:
		return "Alert"
	case ExtendedKeyDisaster:
		return "Disaster"
	case ExtendedKeyCoordinate:
		return "Coordinate"
	case ExtendedKeyAuthHash:
		return "AuthHash"
	case ExtendedKeyCustomData:
		return "CustomData"
	case ExtendedKeySensorReading:
		return "SensorReading"
	case ExtendedKeyMetadata:
		return "Metadata"
	case ExtendedKeySourceInfo:
		return "SourceInfo"
	default:
		return fmt.Sprintf("ExtendedKey(%d)", uint8(k))
	}
}

// Layout of the 2-byte LE extension header: a 6-bit key in the high bits
// above a 10-bit length.
const (
	extKeyBits    = 6
	extLengthBits = 10
	extHeaderSize = 2
	extMaxLength  = (1 << extLengthBits) - 1
)

// ExtendedField is one TLV record in the trailing extension run. Value
// holds the raw payload bytes; the typed accessors below decode it
// according to Key.
type ExtendedField struct {
	Key   ExtendedKey
	Value []byte
}

// EncodeExtendedField writes a single field's 2-byte header plus its value
// into a freshly allocated buffer.
func EncodeExtendedField(f ExtendedField) ([]byte, error) {
	if len(f.Value) > extMaxLength {
		return nil, fmt.Errorf("%w: extended field value length %d exceeds %d", wiperrors.ErrInvalidPacket, len(f.Value), extMaxLength)
	}
	out := make([]byte, extHeaderSize+len(f.Value))
	header := (uint16(f.Key) << extLengthBits) | uint16(len(f.Value))
	out[0] = byte(header)
	out[1] = byte(header >> 8)
	copy(out[extHeaderSize:], f.Value)
	return out, nil
}

// decodeExtendedFieldAt decodes one TLV record starting at offset in data,
// returning the field and the offset of the next record.
func decodeExtendedFieldAt(data []byte, offset int) (ExtendedField, int, error) {
	if offset+extHeaderSize > len(data) {
		return ExtendedField{}, 0, fmt.Errorf("%w: truncated extension header at offset %d", wiperrors.ErrInvalidPacket, offset)
	}
	header := uint16(data[offset]) | uint16(data[offset+1])<<8
	key := ExtendedKey(header >> extLengthBits)
	length := int(header & extMaxLength)
	valueStart := offset + extHeaderSize
	if valueStart+length > len(data) {
		return ExtendedField{}, 0, fmt.Errorf("%w: extension value length %d overruns buffer at offset %d", wiperrors.ErrInvalidPacket, length, offset)
	}
	value := make([]byte, length)
	copy(value, data[valueStart:valueStart+length])
	return ExtendedField{Key: key, Value: value}, valueStart + length, nil
}

// DecodeExtendedFields decodes every TLV record in data, consuming it to
// the end. A trailing partial header or an overrunning length is
// ErrInvalidPacket.
func DecodeExtendedFields(data []byte) ([]ExtendedField, error) {
	var fields []ExtendedField
	offset := 0
	for offset < len(data) {
		f, next, err := decodeExtendedFieldAt(data, offset)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		offset = next
	}
	return fields, nil
}

// EncodeExtendedFields serializes fields in order, one after another.
func EncodeExtendedFields(fields []ExtendedField) ([]byte, error) {
	var out []byte
	for _, f := range fields {
		enc, err := EncodeExtendedField(f)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

// Extensions is the gopacket layer wrapping the trailing run of extended
// fields. Unlike Header and ResponseTail, which each describe a
// fixed-size record, Extensions consumes everything remaining in the
// packet: the number of TLV records is not known up front, only found by
// walking them until the buffer is exhausted.
type Extensions struct {
	layers.BaseLayer

	Fields []ExtendedField
}

func (*Extensions) LayerType() gopacket.LayerType { return LayerTypeExtensions }

func (e *Extensions) CanDecode() gopacket.LayerClass { return e.LayerType() }

func (e *Extensions) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func (e *Extensions) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	fields, err := DecodeExtendedFields(data)
	if err != nil {
		return err
	}
	e.Fields = fields
	e.BaseLayer.Contents = data
	e.BaseLayer.Payload = nil
	return nil
}

func (e *Extensions) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	enc, err := EncodeExtendedFields(e.Fields)
	if err != nil {
		return err
	}
	buf, err := b.PrependBytes(len(enc))
	if err != nil {
		return err
	}
	copy(buf, enc)
	return nil
}

// Find returns the first field with the given key, if any.
func (e *Extensions) Find(key ExtendedKey) (ExtendedField, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return ExtendedField{}, false
}
