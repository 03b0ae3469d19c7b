package wipproto

import (
	"fmt"

	"github.com/wip-client/wip/pkg/wiperrors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// FixedHeaderSize is the wire size, in bytes, of the fixed WIP header.
const FixedHeaderSize = 16

// Header represents the 128-bit fixed header described in the protocol
// spec, plus — when the packet type is a response — the 4-byte response
// tail that immediately follows it on the wire. The two are decoded
// together here because whether a tail is present depends entirely on a
// field of the header itself; ResponseTail still has its own standalone
// Encode/Decode functions (see responsetail.go) for callers that only ever
// handle that piece.
//
// Wire format (bit position counted from the LSB of byte 0; see the
// protocol spec for the authoritative table):
//
//  1. [0:4)    version            u4, must be 1
//  2. [4:16)   packet_id          u12
//  3. [16:19)  type               u3 (PacketType)
//  4. [19]     flag_weather       bit
//  5. [20]     flag_temperature   bit
//  6. [21]     flag_precipitation bit
//  7. [22]     flag_alert         bit
//  8. [23]     flag_disaster      bit
//  9. [24]     flag_extended      bit, set iff extensions present
//  10. [25]    flag_request_auth  bit
//  11. [26]    flag_response_auth bit
//  12. [27:30) day                u3
//  13. [30:32) reserved           u2, must be 0 on emit
//  14. [32:96) timestamp          u64, seconds since UNIX epoch
//  15. [96:116) area_code         u20
//  16. [116:128) checksum         u12, see checksum.go
//
// If Type is a response type, 4 more bytes follow immediately: ResponseTail
// (see responsetail.go).
type Header struct {
	layers.BaseLayer

	Version  uint8
	PacketID uint16
	Type     PacketType

	FlagWeather       bool
	FlagTemperature   bool
	FlagPrecipitation bool
	FlagAlert         bool
	FlagDisaster      bool
	FlagExtended      bool
	FlagRequestAuth   bool
	FlagResponseAuth  bool

	Day       uint8
	Reserved  uint8
	Timestamp uint64
	AreaCode  uint32
	Checksum  uint16

	// ResponseTail is populated iff Type.IsResponse(). It is nil for
	// request headers.
	ResponseTail *ResponseTail
}

func (*Header) LayerType() gopacket.LayerType { return LayerTypeHeader }

func (h *Header) CanDecode() gopacket.LayerClass { return h.LayerType() }

// NextLayerType dispatches to the extensions layer when flag_extended is
// set, otherwise there is nothing more to decode.
func (h *Header) NextLayerType() gopacket.LayerType {
	if h.FlagExtended {
		return LayerTypeExtensions
	}
	return gopacket.LayerTypePayload
}

// validateHeaderRanges enforces the range constraints from the protocol
// spec's header table before anything is written to the wire.
func validateHeaderRanges(h *Header) error {
	if h.Version > 0x0F {
		return fmt.Errorf("%w: version %d out of range", wiperrors.ErrInvalidPacket, h.Version)
	}
	if h.PacketID > 0x0FFF {
		return fmt.Errorf("%w: packet_id %d out of range", wiperrors.ErrInvalidPacket, h.PacketID)
	}
	if h.Type > 7 {
		return fmt.Errorf("%w: type %d out of range", wiperrors.ErrInvalidPacket, h.Type)
	}
	if h.Day > 7 {
		return fmt.Errorf("%w: day %d out of range", wiperrors.ErrInvalidPacket, h.Day)
	}
	if h.AreaCode > 0xFFFFF {
		return fmt.Errorf("%w: area_code %d out of range", wiperrors.ErrInvalidPacket, h.AreaCode)
	}
	return nil
}

// EncodeHeader writes h's fields into a standalone 16-byte buffer and
// computes the 12-bit checksum over just those 16 bytes. This standalone
// checksum is correct for a header used in isolation (the
// "encode(header)/decode(header)" round trip), but is superseded by
// EncodePacket, which recomputes the checksum over the entire assembled
// packet (header + tail + extensions) and patches it in afterwards — see
// packet.go.
func EncodeHeader(h Header) ([FixedHeaderSize]byte, error) {
	var out [FixedHeaderSize]byte
	if err := validateHeaderRanges(&h); err != nil {
		return out, err
	}
	writeHeaderFields(out[:], &h)
	cs := checksum12OverPacket(out[:])
	setBits(out[:], checksumBitStart, checksumBitLen, uint64(cs))
	return out, nil
}

func writeHeaderFields(buf []byte, h *Header) {
	pos := 0
	setBits(buf, pos, 4, uint64(h.Version))
	pos += 4
	setBits(buf, pos, 12, uint64(h.PacketID))
	pos += 12
	setBits(buf, pos, 3, uint64(h.Type))
	pos += 3
	setBit(buf, pos, h.FlagWeather)
	pos++
	setBit(buf, pos, h.FlagTemperature)
	pos++
	setBit(buf, pos, h.FlagPrecipitation)
	pos++
	setBit(buf, pos, h.FlagAlert)
	pos++
	setBit(buf, pos, h.FlagDisaster)
	pos++
	setBit(buf, pos, h.FlagExtended)
	pos++
	setBit(buf, pos, h.FlagRequestAuth)
	pos++
	setBit(buf, pos, h.FlagResponseAuth)
	pos++
	setBits(buf, pos, 3, uint64(h.Day))
	pos += 3
	setBits(buf, pos, 2, 0) // reserved, always 0 on emit
	pos += 2
	setBits(buf, pos, 64, h.Timestamp)
	pos += 64
	setBits(buf, pos, 20, uint64(h.AreaCode))
	pos += 20
	// checksum bits left zero here; caller patches them in.
}

func readHeaderFields(buf []byte) Header {
	var h Header
	pos := 0
	h.Version = uint8(getBits(buf, pos, 4))
	pos += 4
	h.PacketID = uint16(getBits(buf, pos, 12))
	pos += 12
	h.Type = PacketType(getBits(buf, pos, 3))
	pos += 3
	h.FlagWeather = getBit(buf, pos)
	pos++
	h.FlagTemperature = getBit(buf, pos)
	pos++
	h.FlagPrecipitation = getBit(buf, pos)
	pos++
	h.FlagAlert = getBit(buf, pos)
	pos++
	h.FlagDisaster = getBit(buf, pos)
	pos++
	h.FlagExtended = getBit(buf, pos)
	pos++
	h.FlagRequestAuth = getBit(buf, pos)
	pos++
	h.FlagResponseAuth = getBit(buf, pos)
	pos++
	h.Day = uint8(getBits(buf, pos, 3))
	pos += 3
	h.Reserved = uint8(getBits(buf, pos, 2))
	pos += 2
	h.Timestamp = getBits(buf, pos, 64)
	pos += 64
	h.AreaCode = uint32(getBits(buf, pos, 20))
	pos += 20
	h.Checksum = uint16(getBits(buf, pos, 12))
	return h
}

// PeekPacketID reads just the packet_id field (bits 4..15) directly out of
// data without verifying the checksum or decoding anything else. Callers
// that are matching inbound datagrams against an expected packet_id — the
// UDP transactor, principally — use this to decide whether a datagram is
// even worth fully decoding, per the protocol spec's correlation algorithm:
// a mismatched id is discarded before the cost (and checksum risk) of a
// full decode is paid.
func PeekPacketID(data []byte) (uint16, bool) {
	if len(data) < FixedHeaderSize {
		return 0, false
	}
	return uint16(getBits(data, 4, 12)), true
}

// DecodeHeader decodes the leading FixedHeaderSize bytes of data and, if
// the type is a response type and at least 4 more bytes are present,
// decodes the response tail too. The checksum is verified over the whole
// of data (with the checksum bits cleared), matching how it is computed at
// encode time over the whole assembled packet — see packet.go's rationale.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < FixedHeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes for header, got %d", wiperrors.ErrInvalidPacket, FixedHeaderSize, len(data))
	}
	stored := uint16(getBits(data, checksumBitStart, checksumBitLen))
	if !verifyChecksum12(data, stored) {
		return Header{}, fmt.Errorf("%w", wiperrors.ErrChecksumMismatch)
	}
	h := readHeaderFields(data)

	if h.Type.IsResponse() && len(data) >= FixedHeaderSize+ResponseTailSize {
		tail := decodeResponseTailFields(data[FixedHeaderSize : FixedHeaderSize+ResponseTailSize])
		h.ResponseTail = &tail
	}
	return h, nil
}

// DecodeFromBytes implements gopacket.DecodingLayer. data is expected to be
// the full remaining packet bytes (header onward), since the checksum
// covers everything past this layer too.
func (h *Header) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FixedHeaderSize {
		df.SetTruncated()
		return fmt.Errorf("%w: need %d bytes for header, got %d", wiperrors.ErrInvalidPacket, FixedHeaderSize, len(data))
	}
	decoded, err := DecodeHeader(data)
	if err != nil {
		return err
	}
	*h = decoded
	consumed := FixedHeaderSize
	if h.ResponseTail != nil {
		consumed += ResponseTailSize
	}
	h.BaseLayer.Contents = data[:consumed]
	h.BaseLayer.Payload = data[consumed:]
	return nil
}

// SerializeTo implements gopacket.SerializableLayer. It writes the header
// followed by the response tail, if present. With opts.ComputeChecksums
// set, the checksum is computed over just those bytes; otherwise the
// checksum bits stay zero. The whole-packet checksum, covering extensions
// too, is computed and patched in by EncodePacket, not here.
func (h *Header) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if err := validateHeaderRanges(h); err != nil {
		return err
	}
	size := FixedHeaderSize
	if h.Type.IsResponse() && h.ResponseTail != nil {
		size += ResponseTailSize
	}
	buf, err := b.PrependBytes(size)
	if err != nil {
		return err
	}
	writeHeaderFields(buf[:FixedHeaderSize], h)
	if h.Type.IsResponse() && h.ResponseTail != nil {
		h.ResponseTail.encodeInto(buf[FixedHeaderSize:])
	}
	if opts.ComputeChecksums {
		cs := checksum12OverPacket(buf)
		setBits(buf, checksumBitStart, checksumBitLen, uint64(cs))
	}
	return nil
}
