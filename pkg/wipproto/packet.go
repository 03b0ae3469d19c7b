package wipproto

import (
	"fmt"

	"github.com/wip-client/wip/pkg/wiperrors"

	"github.com/google/gopacket"
)

// Packet is the fully assembled unit this package exchanges with the wire:
// a fixed header, an optional response tail, and zero or more extended
// fields. EncodePacket and DecodePacket are the primary entry points;
// Header, ResponseTail and Extensions remain independently usable gopacket
// layers for callers that want to decode a packet incrementally through
// gopacket.NewPacket instead.
type Packet struct {
	Header     Header
	Extensions []ExtendedField
}

// EncodePacket assembles p into a single buffer. The header's own checksum
// (computed in isolation by EncodeHeader) is discarded and replaced with
// one computed over the whole buffer, so a verifier only ever needs
// DecodePacket/verifyChecksum12 against the complete datagram it received.
func EncodePacket(p Packet) ([]byte, error) {
	p.Header.FlagExtended = len(p.Extensions) > 0
	if p.Header.Type.IsResponse() && p.Header.ResponseTail == nil {
		return nil, fmt.Errorf("%w: response packet type %s requires a response tail", wiperrors.ErrInvalidPacket, p.Header.Type)
	}
	if !p.Header.Type.IsResponse() && p.Header.ResponseTail != nil {
		return nil, fmt.Errorf("%w: request packet type %s must not carry a response tail", wiperrors.ErrInvalidPacket, p.Header.Type)
	}

	headerBytes, err := EncodeHeader(p.Header)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, FixedHeaderSize+ResponseTailSize+64)
	buf = append(buf, headerBytes[:]...)

	if p.Header.ResponseTail != nil {
		tailBytes := EncodeResponseTail(*p.Header.ResponseTail)
		buf = append(buf, tailBytes[:]...)
	}

	extBytes, err := EncodeExtendedFields(p.Extensions)
	if err != nil {
		return nil, err
	}
	buf = append(buf, extBytes...)

	cs := checksum12OverPacket(buf)
	setBits(buf, checksumBitStart, checksumBitLen, uint64(cs))
	return buf, nil
}

// DecodePacket verifies the whole-buffer checksum, decodes the fixed
// header (and response tail, if the type calls for one), and walks any
// trailing extension records.
func DecodePacket(data []byte) (Packet, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return Packet{}, err
	}

	offset := FixedHeaderSize
	if header.ResponseTail != nil {
		offset += ResponseTailSize
	}

	var extensions []ExtendedField
	if header.FlagExtended {
		extensions, err = DecodeExtendedFields(data[offset:])
		if err != nil {
			return Packet{}, err
		}
	}

	return Packet{Header: header, Extensions: extensions}, nil
}

// DecodeWithGopacket is an alternate entry point that goes through
// gopacket's generic NewPacket machinery instead of the direct calls
// DecodePacket makes, for callers already working with gopacket.Packet
// elsewhere in their stack. It returns the gopacket.Packet itself: its
// Header layer (with the response tail folded in) and, when flag_extended
// is set, its Extensions layer carry the data DecodePacket returns.
func DecodeWithGopacket(data []byte) (gopacket.Packet, error) {
	pkt := gopacket.NewPacket(data, LayerTypeHeader, gopacket.DecodeOptions{Lazy: false, NoCopy: true})
	if errLayer := pkt.ErrorLayer(); errLayer != nil {
		return nil, fmt.Errorf("%w: %v", wiperrors.ErrInvalidPacket, errLayer.Error())
	}
	return pkt, nil
}

// Find returns the first extended field with the given key, if any.
func (p Packet) Find(key ExtendedKey) (ExtendedField, bool) {
	for _, f := range p.Extensions {
		if f.Key == key {
			return f, true
		}
	}
	return ExtendedField{}, false
}
