package rtcp

import (
	"encoding/binary"
	"fmt"
)

// PacketReport is the reception status of one sequence number inside a
// TransportLayerCC feedback packet. Delta is the receive delta in 250us
// units; it is only meaningful when Status says the packet was received.
type PacketReport struct {
	SequenceNumber uint16
	Status         PacketStatusSymbol
	Delta          int32
}

// The TransportLayerCC packet provides transport-wide congestion control
// feedback, reporting the arrival time and reception status of every
// transport-wide sequence number since the base.
// See draft-holmer-rmcat-transport-wide-cc-extensions-01
type TransportLayerCC struct {
	// SSRC of sender
	SenderSSRC uint32

	// SSRC of the media source
	MediaSSRC uint32

	// Transport-wide sequence number of the first reported packet
	BaseSequenceNumber uint16

	// 24-bit absolute reference time in 64ms units that the receive
	// deltas are relative to
	ReferenceTime uint32

	// Wrapping counter of feedback packets sent, for detecting lost
	// feedback on the return path
	FeedbackPacketCount uint8

	// One report per sequence number starting at BaseSequenceNumber,
	// in strictly ascending order. Marshal fills sequence gaps with
	// not-received entries.
	PacketReports []PacketReport
}

const (
	baseSequenceNumberOffset = 8
	packetStatusCountOffset  = 10
	referenceTimeOffset      = 12
	fbPktCountOffset         = 15
	packetChunkOffset        = 16
	maxReferenceTime         = 0xFFFFFF
	maxStatusCount           = 0xFFFF
)

// expandSymbols walks the reports, validating order and delta ranges, and
// returns one status symbol per sequence number from the base to the last
// report, with gaps filled as not received.
func (p TransportLayerCC) expandSymbols() ([]PacketStatusSymbol, error) {
	symbols := make([]PacketStatusSymbol, 0, len(p.PacketReports))
	expected := p.BaseSequenceNumber
	for _, r := range p.PacketReports {
		gap := r.SequenceNumber - expected
		if gap >= 1<<15 {
			// A modular gap in the upper half of the range means the
			// report stepped backwards or repeated.
			return nil, fmt.Errorf("%w: %d after %d", ErrBadSequenceOrder, r.SequenceNumber, expected-1)
		}
		if len(symbols)+int(gap)+1 > maxStatusCount {
			return nil, fmt.Errorf("%w: %d reported statuses", ErrTooManyChunks, len(symbols)+int(gap)+1)
		}
		for j := uint16(0); j < gap; j++ {
			symbols = append(symbols, PacketStatusNotReceived)
		}

		switch r.Status {
		case PacketStatusNotReceived:
		case PacketStatusReceivedSmallDelta:
			if r.Delta < 0 || r.Delta > 0xFF {
				return nil, fmt.Errorf("%w: small delta %d", ErrDeltaOutOfRange, r.Delta)
			}
		case PacketStatusReceivedLargeOrNegativeDelta:
			if r.Delta < -32768 || r.Delta > 32767 {
				return nil, fmt.Errorf("%w: large delta %d", ErrDeltaOutOfRange, r.Delta)
			}
		default:
			return nil, fmt.Errorf("%w: %d", ErrInvalidStatusSymbol, uint8(r.Status))
		}
		symbols = append(symbols, r.Status)
		expected = r.SequenceNumber + 1
	}
	return symbols, nil
}

// Marshal encodes the TransportLayerCC in binary
func (p TransportLayerCC) Marshal() ([]byte, error) {
	/*
	 *  0                   1                   2                   3
	 *  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |                     SSRC of packet sender                     |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |                      SSRC of media source                     |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |      base sequence number     |      packet status count      |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |                 reference time                | fb pkt. count |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |          packet chunk         |         packet chunk          |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |                       recv delta(s) ...                       |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 */
	if p.ReferenceTime > maxReferenceTime {
		return nil, fmt.Errorf("%w: %d", ErrReferenceTimeTooLarge, p.ReferenceTime)
	}

	symbols, err := p.expandSymbols()
	if err != nil {
		return nil, err
	}
	chunks := packStatusSymbols(symbols)

	deltaLen := 0
	for _, s := range symbols {
		deltaLen += s.DeltaSize()
	}
	payloadLen := packetChunkOffset + len(chunks)*statusChunkBytes + deltaLen
	rawPacket := make([]byte, payloadLen+getPadding(payloadLen))

	binary.BigEndian.PutUint32(rawPacket, p.SenderSSRC)
	binary.BigEndian.PutUint32(rawPacket[ssrcLength:], p.MediaSSRC)
	binary.BigEndian.PutUint16(rawPacket[baseSequenceNumberOffset:], p.BaseSequenceNumber)
	binary.BigEndian.PutUint16(rawPacket[packetStatusCountOffset:], uint16(len(symbols)))
	rawPacket[referenceTimeOffset] = byte(p.ReferenceTime >> 16)
	rawPacket[referenceTimeOffset+1] = byte(p.ReferenceTime >> 8)
	rawPacket[referenceTimeOffset+2] = byte(p.ReferenceTime)
	rawPacket[fbPktCountOffset] = p.FeedbackPacketCount

	offset := packetChunkOffset
	for _, chunk := range chunks {
		binary.BigEndian.PutUint16(rawPacket[offset:], chunk)
		offset += statusChunkBytes
	}
	for _, r := range p.PacketReports {
		switch r.Status.DeltaSize() {
		case 1:
			rawPacket[offset] = byte(r.Delta)
			offset++
		case 2:
			binary.BigEndian.PutUint16(rawPacket[offset:], uint16(int16(r.Delta)))
			offset += 2
		}
	}
	// pad bytes stay zero

	hData, err := p.Header().Marshal()
	if err != nil {
		return nil, err
	}
	return append(hData, rawPacket...), nil
}

// Unmarshal decodes the TransportLayerCC from binary
func (p *TransportLayerCC) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}

	if h.Type != TypeTransportSpecificFeedback || h.Count != FormatTCC {
		return ErrWrongType
	}
	if len(rawPacket) < h.packetLength() || h.payloadLength() < packetChunkOffset {
		return fmt.Errorf("transport layer cc: %w", ErrTruncatedRead)
	}

	payload := rawPacket[headerLength:h.packetLength()]
	p.SenderSSRC = binary.BigEndian.Uint32(payload)
	p.MediaSSRC = binary.BigEndian.Uint32(payload[ssrcLength:])
	p.BaseSequenceNumber = binary.BigEndian.Uint16(payload[baseSequenceNumberOffset:])
	statusCount := int(binary.BigEndian.Uint16(payload[packetStatusCountOffset:]))
	p.ReferenceTime = uint32(payload[referenceTimeOffset])<<16 |
		uint32(payload[referenceTimeOffset+1])<<8 |
		uint32(payload[referenceTimeOffset+2])
	p.FeedbackPacketCount = payload[fbPktCountOffset]

	symbols := make([]PacketStatusSymbol, 0, statusCount)
	offset := packetChunkOffset
	for len(symbols) < statusCount {
		if offset+statusChunkBytes > len(payload) {
			return fmt.Errorf("packet status chunks: %w", ErrTruncatedRead)
		}
		chunk, err := parseStatusChunk(binary.BigEndian.Uint16(payload[offset:]), statusCount-len(symbols))
		if err != nil {
			return err
		}
		symbols = append(symbols, chunk...)
		offset += statusChunkBytes
	}

	p.PacketReports = make([]PacketReport, 0, statusCount)
	seq := p.BaseSequenceNumber
	for _, s := range symbols {
		report := PacketReport{SequenceNumber: seq, Status: s}
		switch s.DeltaSize() {
		case 1:
			if offset+1 > len(payload) {
				return fmt.Errorf("receive deltas: %w", ErrTruncatedRead)
			}
			report.Delta = int32(payload[offset])
			offset++
		case 2:
			if offset+2 > len(payload) {
				return fmt.Errorf("receive deltas: %w", ErrTruncatedRead)
			}
			report.Delta = int32(int16(binary.BigEndian.Uint16(payload[offset:])))
			offset += 2
		}
		p.PacketReports = append(p.PacketReports, report)
		seq++
	}

	// Only sub-word zero padding may remain.
	if len(payload)-offset >= 4 {
		return fmt.Errorf("transport layer cc: %w", ErrBufferNotFullyConsumed)
	}
	if err := checkPadding(payload[offset:]); err != nil {
		return err
	}
	return nil
}

func (p TransportLayerCC) len() int {
	symbols, err := p.expandSymbols()
	if err != nil {
		// Reports that cannot be expanded still account for the fixed
		// part of the feedback message, so Header stays well formed.
		return headerLength + packetChunkOffset
	}
	deltaLen := 0
	for _, s := range symbols {
		deltaLen += s.DeltaSize()
	}
	n := headerLength + packetChunkOffset + len(packStatusSymbols(symbols))*statusChunkBytes + deltaLen
	return n + getPadding(n)
}

// Header returns the Header associated with this packet.
func (p TransportLayerCC) Header() Header {
	return Header{
		Version: rtpVersion,
		Count:   FormatTCC,
		Type:    TypeTransportSpecificFeedback,
		Length:  uint16((p.len() / 4) - 1),
	}
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
func (p TransportLayerCC) DestinationSSRC() []uint32 {
	return []uint32{p.MediaSSRC}
}

func (p TransportLayerCC) String() string {
	out := fmt.Sprintf("TransportLayerCC from %x\n\tMedia SSRC %x\n", p.SenderSSRC, p.MediaSSRC)
	out += fmt.Sprintf("\tBase Sequence Number %d\n", p.BaseSequenceNumber)
	out += fmt.Sprintf("\tReference Time %d\n\tFeedback Packet Count %d\n", p.ReferenceTime, p.FeedbackPacketCount)
	out += "\tSeqNo\tStatus\tDelta\n"
	for _, r := range p.PacketReports {
		out += fmt.Sprintf("\t%d\t%s\t%d\n", r.SequenceNumber, r.Status, r.Delta)
	}
	return out
}
