package rtcp

import (
	"encoding/binary"
	"fmt"
)

// RTCP packet types registered with IANA. See: https://www.iana.org/assignments/rtp-parameters/rtp-parameters.xhtml#rtp-parameters-4
const (
	TypeSenderReport                    = 200 // RFC 3550, 6.4.1
	TypeReceiverReport                  = 201 // RFC 3550, 6.4.2
	TypeSourceDescription               = 202 // RFC 3550, 6.5
	TypeGoodbye                         = 203 // RFC 3550, 6.6
	TypeApplicationDefined              = 204 // RFC 3550, 6.7
	TypeTransportSpecificFeedback uint8 = 205 // RFC 4585, 6.2
	TypePayloadSpecificFeedback         = 206 // RFC 4585, 6.3
)

// Feedback message formats, carried in the header Count field of feedback
// packets. See RFC 4585, 6.1 (FMT) and the per-message registrations.
const (
	FormatTLN        = 1  // transport-layer nack      RFC 4585, 6.2.1
	FormatTCC  uint8 = 15 // transport-wide congestion control, draft-holmer-rmcat-transport-wide-cc-extensions-01
	FormatPLI        = 1  // picture loss indication   RFC 4585, 6.3.1
	FormatFIR        = 4  // full intra request        RFC 5104, 4.3.1
	rtpVersion       = 2
)

// A Header is the common header shared by all RTCP packets.
type Header struct {
	// Identifies the version of RTP, which is the same in RTCP packets
	// as in RTP data packets.
	Version uint8
	// If the padding bit is set, this individual RTCP packet contains
	// some additional padding octets at the end which are not part of
	// the control information but are included in the length field.
	Padding bool
	// The number of reception reports or sources contained in this packet,
	// or the feedback message format (FMT) for feedback packet types.
	Count uint8
	// The RTCP packet type for this packet.
	Type uint8
	// The length of this RTCP packet in 32-bit words minus one,
	// including the header and any padding.
	Length uint16
}

const (
	headerLength = 4
	ssrcLength   = 4
	versionShift = 6
	versionMask  = 0x3
	paddingShift = 5
	paddingMask  = 0x1
	countShift   = 0
	countMask    = 0x1f
	countMax     = (1 << 5) - 1
)

// Marshal encodes the Header in binary
func (h Header) Marshal() ([]byte, error) {
	/*
	 *  0                   1                   2                   3
	 *  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |V=2|P|    RC   |   PT=SR=200   |             length            |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 */
	rawPacket := make([]byte, headerLength)

	if h.Version != rtpVersion {
		return nil, ErrInvalidVersion
	}
	rawPacket[0] |= h.Version << versionShift

	if h.Padding {
		rawPacket[0] |= 1 << paddingShift
	}

	if h.Count > countMax {
		return nil, ErrTooManyReports
	}
	rawPacket[0] |= h.Count << countShift

	rawPacket[1] = h.Type

	binary.BigEndian.PutUint16(rawPacket[2:], h.Length)

	return rawPacket, nil
}

// Unmarshal decodes the Header from binary
func (h *Header) Unmarshal(rawPacket []byte) error {
	if len(rawPacket) < headerLength {
		return fmt.Errorf("header: %w", ErrTruncatedRead)
	}

	h.Version = rawPacket[0] >> versionShift & versionMask
	h.Padding = (rawPacket[0] >> paddingShift & paddingMask) > 0
	h.Count = rawPacket[0] >> countShift & countMask

	h.Type = rawPacket[1]

	h.Length = binary.BigEndian.Uint16(rawPacket[2:])

	if h.Version != rtpVersion {
		return fmt.Errorf("version: expected %d, got %d: %w", rtpVersion, h.Version, ErrInvalidVersion)
	}

	return nil
}

// payloadLength returns the number of payload bytes declared by the length
// field, excluding the header itself.
func (h Header) payloadLength() int {
	return int(h.Length) * 4
}

// packetLength returns the total number of bytes declared by the length
// field, including the header.
func (h Header) packetLength() int {
	return headerLength + h.payloadLength()
}
