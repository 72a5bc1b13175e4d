package rtcp

import (
	"fmt"
)

// Packet represents an RTCP packet, a protocol used for out-of-band statistics
// and control information for an RTP session
type Packet interface {
	// DestinationSSRC returns an array of SSRC values that this packet refers to.
	DestinationSSRC() []uint32

	Marshal() ([]byte, error)
	Unmarshal(rawPacket []byte) error
}

// Unmarshal takes an entire udp datagram (which may consist of multiple RTCP
// packets) and returns the parsed packet. A datagram framing exactly one
// packet yields that packet directly; several back-to-back packets yield a
// CompoundPacket in buffer order. A buffer framing no valid packet at all
// fails with ErrNoValidPackets.
//
// Unknown packet types are an error here; use a Decoder with
// AllowUnknownPacketTypes to capture them as RawPackets instead.
func Unmarshal(rawData []byte) (Packet, error) {
	d := Decoder{}
	return d.Decode(rawData)
}

// Marshal encodes the given packets back to back in list order, the framing
// dual of Unmarshal. Each packet is self-padded so no extra padding is
// emitted between packets.
func Marshal(packets []Packet) ([]byte, error) {
	out := make([]byte, 0)
	for i, p := range packets {
		data, err := p.Marshal()
		if err != nil {
			return nil, fmt.Errorf("sub packet %d: %w", i, err)
		}
		out = append(out, data...)
	}
	return out, nil
}

// unmarshal parses the first packet framed by rawData, returning it together
// with the number of bytes it occupied.
func unmarshal(rawData []byte, allowUnknown bool) (Packet, int, error) {
	var h Header
	if err := h.Unmarshal(rawData); err != nil {
		return nil, 0, err
	}

	available := len(rawData) - headerLength
	if h.payloadLength() > available {
		return nil, 0, fmt.Errorf("%w: declared %d bytes, %d available",
			ErrInvalidLengthValue, h.payloadLength(), available)
	}

	// The packet codec sees exactly the window the length field declares,
	// never the rest of the buffer.
	window := rawData[:h.packetLength()]

	var packet Packet
	switch h.Type {
	case TypeSenderReport:
		packet = new(SenderReport)
	case TypeReceiverReport:
		packet = new(ReceiverReport)
	case TypeSourceDescription:
		packet = new(SourceDescription)
	case TypeGoodbye:
		packet = new(Goodbye)

	case TypeTransportSpecificFeedback:
		switch h.Count {
		case FormatTLN:
			packet = new(TransportLayerNack)
		case FormatTCC:
			packet = new(TransportLayerCC)
		default:
			return nil, 0, fmt.Errorf("%w: packet type %d, fmt %d", ErrUnsupportedFeedbackFormat, h.Type, h.Count)
		}

	case TypePayloadSpecificFeedback:
		switch h.Count {
		case FormatPLI:
			packet = new(PictureLossIndication)
		case FormatFIR:
			packet = new(FullIntraRequest)
		default:
			return nil, 0, fmt.Errorf("%w: packet type %d, fmt %d", ErrUnsupportedFeedbackFormat, h.Type, h.Count)
		}

	default:
		if !allowUnknown {
			return nil, 0, fmt.Errorf("%w: %d", ErrUnrecognizedPacketType, h.Type)
		}
		packet = new(RawPacket)
	}

	if err := packet.Unmarshal(window); err != nil {
		return nil, 0, err
	}

	return packet, h.packetLength(), nil
}

// A CompoundPacket is a collection of RTCP packets transmitted as a single
// packet with the underlying protocol (for example UDP).
type CompoundPacket []Packet

// Marshal encodes the CompoundPacket as its member packets back to back.
func (c CompoundPacket) Marshal() ([]byte, error) {
	return Marshal(c)
}

// Unmarshal decodes the CompoundPacket from binary.
func (c *CompoundPacket) Unmarshal(rawData []byte) error {
	packet, err := Unmarshal(rawData)
	if err != nil {
		return err
	}

	if compound, ok := packet.(*CompoundPacket); ok {
		*c = *compound
		return nil
	}
	*c = CompoundPacket{packet}
	return nil
}

// DestinationSSRC returns the SSRC values of all member packets.
func (c CompoundPacket) DestinationSSRC() []uint32 {
	ssrcs := make([]uint32, 0)
	for _, p := range c {
		ssrcs = append(ssrcs, p.DestinationSSRC()...)
	}
	return ssrcs
}

// getPadding returns the number of zero bytes needed to bring len up to a
// 4-byte boundary.
func getPadding(len int) int {
	if len%4 == 0 {
		return 0
	}
	return 4 - (len % 4)
}

// checkPadding verifies that every byte of data is zero, the decode-side
// counterpart of getPadding.
func checkPadding(data []byte) error {
	for _, b := range data {
		if b != 0 {
			return fmt.Errorf("%w: 0x%02x", ErrNonZeroPadding, b)
		}
	}
	return nil
}
