package rtcp

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// PacketBitmap shouldn't be used like a normal integral,
// so it's type is masked here. Access it with PacketList().
type PacketBitmap uint16

// NackPair is a wire-encoded pair of packet IDs: the ID of a lost packet and
// a bitmask of the 16 packets following it.
type NackPair struct {
	// ID of lost packet
	PacketID uint16

	// Bitmask of following lost packets
	LostPackets PacketBitmap
}

// The TransportLayerNack packet informs the encoder about the loss of a transport packet
type TransportLayerNack struct {
	// SSRC of sender
	SenderSSRC uint32

	// SSRC of the media source
	MediaSSRC uint32

	Nacks []NackPair
}

const (
	tlnLength  = 2
	nackOffset = 8
	// Each pair reports its packet ID plus up to 16 packets after it.
	nackPairSpan = 17
)

// Range calls f sequentially for each sequence number covered by n, in
// ascending order with 16-bit wraparound. If f returns false, Range stops the
// iteration.
func (n *NackPair) Range(f func(seqno uint16) bool) {
	if !f(n.PacketID) {
		return
	}

	b := uint16(n.LostPackets)
	for i := uint16(0); b != 0; i++ {
		if (b & (1 << i)) != 0 {
			b &^= 1 << i
			if !f(n.PacketID + i + 1) {
				return
			}
		}
	}
}

// PacketList returns a list of Nack'd packets that's referenced by a NackPair
func (n *NackPair) PacketList() []uint16 {
	out := make([]uint16, 0, nackPairSpan)
	n.Range(func(seqno uint16) bool {
		out = append(out, seqno)
		return true
	})
	return out
}

// CreateNackPair encodes a sorted slice of sequence numbers as a single
// NackPair. It fails with ErrSpanTooLarge when the slice spans more
// sequence numbers than one pair can represent.
func CreateNackPair(missing []uint16) (NackPair, error) {
	if len(missing) == 0 {
		return NackPair{}, nil
	}

	out := NackPair{PacketID: missing[0]}
	for _, m := range missing[1:] {
		// Callers hand in numerically sorted input, so the distance
		// cannot underflow.
		d := m - out.PacketID
		if d > 16 {
			return NackPair{}, fmt.Errorf("%d..%d: %w", out.PacketID, m, ErrSpanTooLarge)
		}
		if d == 0 {
			continue
		}
		out.LostPackets |= 1 << (d - 1)
	}
	return out, nil
}

// NackPairsFromSequenceNumbers partitions a sorted slice of lost sequence
// numbers into the minimal list of NackPairs covering it: a single greedy
// left-to-right scan that starts a new pair whenever the next number is more
// than 16 ahead of the current pair's packet ID.
func NackPairsFromSequenceNumbers(missing []uint16) []NackPair {
	if len(missing) == 0 {
		return []NackPair{}
	}

	out := make([]NackPair, 0)
	pair := NackPair{PacketID: missing[0]}
	for _, m := range missing[1:] {
		d := m - pair.PacketID
		switch {
		case d == 0:
		case d > 16:
			out = append(out, pair)
			pair = NackPair{PacketID: m}
		default:
			pair.LostPackets |= 1 << (d - 1)
		}
	}
	return append(out, pair)
}

// Marshal encodes the TransportLayerNack in binary
func (p TransportLayerNack) Marshal() ([]byte, error) {
	/*
	 *  0                   1                   2                   3
	 *  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |            PID                |             BLP               |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 */
	if len(p.Nacks)+tlnLength > 0xFFFF {
		return nil, ErrTooManyReports
	}

	rawPacket := make([]byte, nackOffset+(len(p.Nacks)*4))
	binary.BigEndian.PutUint32(rawPacket, p.SenderSSRC)
	binary.BigEndian.PutUint32(rawPacket[ssrcLength:], p.MediaSSRC)

	for i, nack := range p.Nacks {
		binary.BigEndian.PutUint16(rawPacket[nackOffset+(4*i):], nack.PacketID)
		binary.BigEndian.PutUint16(rawPacket[nackOffset+(4*i)+2:], uint16(nack.LostPackets))
	}

	hData, err := p.Header().Marshal()
	if err != nil {
		return nil, err
	}

	return append(hData, rawPacket...), nil
}

// Unmarshal decodes the TransportLayerNack from binary
func (p *TransportLayerNack) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}

	if h.Type != TypeTransportSpecificFeedback || h.Count != FormatTLN {
		return ErrWrongType
	}
	if len(rawPacket) < h.packetLength() || h.payloadLength() < nackOffset {
		return fmt.Errorf("transport layer nack: %w", ErrTruncatedRead)
	}
	if h.payloadLength()%4 != 0 {
		return fmt.Errorf("transport layer nack: %w", ErrBufferNotFullyConsumed)
	}

	p.SenderSSRC = binary.BigEndian.Uint32(rawPacket[headerLength:])
	p.MediaSSRC = binary.BigEndian.Uint32(rawPacket[headerLength+ssrcLength:])

	for i := headerLength + nackOffset; i < h.packetLength(); i += 4 {
		p.Nacks = append(p.Nacks, NackPair{
			PacketID:    binary.BigEndian.Uint16(rawPacket[i:]),
			LostPackets: PacketBitmap(binary.BigEndian.Uint16(rawPacket[i+2:])),
		})
	}
	return nil
}

// MissingSequenceNumbers returns the union of every pair's expansion as a
// deduplicated set in ascending numeric order. Overlapping or retransmitted
// pairs collapse.
func (p TransportLayerNack) MissingSequenceNumbers() []uint16 {
	seen := make(map[uint16]struct{})
	for i := range p.Nacks {
		p.Nacks[i].Range(func(seqno uint16) bool {
			seen[seqno] = struct{}{}
			return true
		})
	}

	out := make([]uint16, 0, len(seen))
	for seqno := range seen {
		out = append(out, seqno)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p TransportLayerNack) len() int {
	return headerLength + nackOffset + (len(p.Nacks) * 4)
}

// Header returns the Header associated with this packet.
func (p TransportLayerNack) Header() Header {
	return Header{
		Version: rtpVersion,
		Count:   FormatTLN,
		Type:    TypeTransportSpecificFeedback,
		Length:  uint16((p.len() / 4) - 1),
	}
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
func (p TransportLayerNack) DestinationSSRC() []uint32 {
	return []uint32{p.MediaSSRC}
}

func (p TransportLayerNack) String() string {
	out := fmt.Sprintf("TransportLayerNack from %x\n\tMedia SSRC %x\n\tID\tLostPackets\n", p.SenderSSRC, p.MediaSSRC)
	for _, n := range p.Nacks {
		out += fmt.Sprintf("\t%d\t%b\n", n.PacketID, n.LostPackets)
	}
	return out
}
