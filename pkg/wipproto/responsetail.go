package wipproto

import (
	"fmt"

	"github.com/wip-client/wip/pkg/wiperrors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ResponseTailSize is the wire size, in bytes, of the response tail.
const ResponseTailSize = 4

// TemperatureOffset is added to a real-world Celsius temperature before it
// is narrowed to the signed byte carried on the wire (see Client's
// SubmitReport), and subtracted back off by ResponseTail.Temperature.
// EncodeResponseTail/DecodeResponseTail carry the raw byte unchanged.
// Because the raw byte is an int8, only -228..27 degrees Celsius survive
// the round trip; a value outside that range wraps when narrowed.
const TemperatureOffset = 100

// ResponseTail is the 4-byte block that follows the fixed header on every
// response packet (CoordinateResponse, WeatherResponse, ReportResponse).
//
// Wire format:
//
//	[0:2) weather_code      u16 LE
//	[2]   temperature_raw   i8, TemperatureOffset already applied
//	[3]   precipitation_prob u8, percent 0-100
type ResponseTail struct {
	layers.BaseLayer

	WeatherCode       uint16
	TemperatureRaw    int8
	PrecipitationProb uint8
}

func (*ResponseTail) LayerType() gopacket.LayerType { return LayerTypeResponseTail }

func (t *ResponseTail) CanDecode() gopacket.LayerClass { return t.LayerType() }

func (t *ResponseTail) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

// Temperature returns the tail's temperature in whole-degree Celsius.
func (t *ResponseTail) Temperature() int {
	return int(t.TemperatureRaw) - TemperatureOffset
}

// EncodeResponseTail writes t's fields into a standalone 4-byte buffer.
func EncodeResponseTail(t ResponseTail) [ResponseTailSize]byte {
	var out [ResponseTailSize]byte
	t.encodeInto(out[:])
	return out
}

func (t *ResponseTail) encodeInto(buf []byte) {
	buf[0] = byte(t.WeatherCode)
	buf[1] = byte(t.WeatherCode >> 8)
	buf[2] = byte(t.TemperatureRaw)
	buf[3] = t.PrecipitationProb
}

func decodeResponseTailFields(buf []byte) ResponseTail {
	return ResponseTail{
		WeatherCode:       uint16(buf[0]) | uint16(buf[1])<<8,
		TemperatureRaw:    int8(buf[2]),
		PrecipitationProb: buf[3],
	}
}

// DecodeResponseTail decodes a standalone ResponseTailSize-byte buffer.
func DecodeResponseTail(data []byte) (ResponseTail, error) {
	if len(data) < ResponseTailSize {
		return ResponseTail{}, fmt.Errorf("%w: need %d bytes for response tail, got %d", wiperrors.ErrInvalidPacket, ResponseTailSize, len(data))
	}
	return decodeResponseTailFields(data[:ResponseTailSize]), nil
}

func (t *ResponseTail) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < ResponseTailSize {
		df.SetTruncated()
		return fmt.Errorf("%w: need %d bytes for response tail, got %d", wiperrors.ErrInvalidPacket, ResponseTailSize, len(data))
	}
	*t = decodeResponseTailFields(data[:ResponseTailSize])
	t.BaseLayer.Contents = data[:ResponseTailSize]
	t.BaseLayer.Payload = data[ResponseTailSize:]
	return nil
}

func (t *ResponseTail) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.PrependBytes(ResponseTailSize)
	if err != nil {
		return err
	}
	t.encodeInto(buf)
	return nil
}
