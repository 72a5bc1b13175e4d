package rtcp

import (
	"encoding/binary"
	"fmt"
)

// A FIREntry is a (media sender SSRC, command sequence number) pair carried
// in the FCI of a FullIntraRequest.
type FIREntry struct {
	// SSRC of the media sender the request applies to
	SSRC uint32
	// Command sequence number, incremented by one for each new command
	SequenceNumber uint8
}

// The FullIntraRequest packet is used to reliably request an encoder to send
// a decoder refresh point as soon as possible.
type FullIntraRequest struct {
	// SSRC of sender
	SenderSSRC uint32

	// SSRC of media source; not used and shall be set to 0 (RFC 5104, 4.3.1.2)
	MediaSSRC uint32

	// One FCI entry per target media sender
	FIR []FIREntry
}

const firEntryLength = 8

// Marshal encodes the FullIntraRequest in binary
func (p FullIntraRequest) Marshal() ([]byte, error) {
	/*
	 *  0                   1                   2                   3
	 *  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |                              SSRC                             |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * | Seq nr.       |    Reserved                                   |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 */
	rawPacket := make([]byte, ssrcLength*2+len(p.FIR)*firEntryLength)
	binary.BigEndian.PutUint32(rawPacket, p.SenderSSRC)
	binary.BigEndian.PutUint32(rawPacket[ssrcLength:], p.MediaSSRC)

	for i, fir := range p.FIR {
		entry := rawPacket[ssrcLength*2+i*firEntryLength:]
		binary.BigEndian.PutUint32(entry, fir.SSRC)
		entry[4] = fir.SequenceNumber
	}

	hData, err := p.Header().Marshal()
	if err != nil {
		return nil, err
	}

	return append(hData, rawPacket...), nil
}

// Unmarshal decodes the FullIntraRequest from binary
func (p *FullIntraRequest) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}

	if h.Type != TypePayloadSpecificFeedback || h.Count != FormatFIR {
		return ErrWrongType
	}
	if len(rawPacket) < h.packetLength() || h.payloadLength() < ssrcLength*2 {
		return fmt.Errorf("full intra request: %w", ErrTruncatedRead)
	}

	p.SenderSSRC = binary.BigEndian.Uint32(rawPacket[headerLength:])
	p.MediaSSRC = binary.BigEndian.Uint32(rawPacket[headerLength+ssrcLength:])

	offset := headerLength + ssrcLength*2
	end := h.packetLength()
	if (end-offset)%firEntryLength != 0 {
		return fmt.Errorf("full intra request: %d trailing bytes: %w", (end-offset)%firEntryLength, ErrBufferNotFullyConsumed)
	}
	for i := 0; offset < end; i++ {
		p.FIR = append(p.FIR, FIREntry{
			SSRC:           binary.BigEndian.Uint32(rawPacket[offset:]),
			SequenceNumber: rawPacket[offset+4],
		})
		offset += firEntryLength
	}

	return nil
}

// Header returns the Header associated with this packet.
func (p FullIntraRequest) Header() Header {
	return Header{
		Version: rtpVersion,
		Count:   FormatFIR,
		Type:    TypePayloadSpecificFeedback,
		Length:  uint16((p.len() / 4) - 1),
	}
}

func (p FullIntraRequest) len() int {
	return headerLength + ssrcLength*2 + len(p.FIR)*firEntryLength
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
func (p FullIntraRequest) DestinationSSRC() []uint32 {
	ssrcs := make([]uint32, 0, len(p.FIR))
	for _, entry := range p.FIR {
		ssrcs = append(ssrcs, entry.SSRC)
	}
	return ssrcs
}

func (p FullIntraRequest) String() string {
	out := fmt.Sprintf("FullIntraRequest %x %x", p.SenderSSRC, p.MediaSSRC)
	for _, e := range p.FIR {
		out += fmt.Sprintf(" (%x %v)", e.SSRC, e.SequenceNumber)
	}
	return out
}
