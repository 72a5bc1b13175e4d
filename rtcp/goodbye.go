package rtcp

import (
	"encoding/binary"
	"fmt"
)

// The Goodbye packet indicates that one or more sources are no longer active.
type Goodbye struct {
	// The SSRC/CSRC identifiers that are no longer active
	Sources []uint32
	// Optional text indicating the reason for leaving, e.g., "camera malfunction" or "RTP loop detected"
	Reason string
}

// Marshal encodes the Goodbye packet in binary
func (g Goodbye) Marshal() ([]byte, error) {
	/*
	 *        0                   1                   2                   3
	 *        0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 *       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *       |V=2|P|    SC   |   PT=BYE=203  |             length            |
	 *       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *       |                           SSRC/CSRC                           |
	 *       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *       :                              ...                              :
	 *       +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 * (opt) |     length    |               reason for leaving            ...
	 *       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 */
	if len(g.Sources) > countMax {
		return nil, ErrTooManySources
	}

	rawPacket := make([]byte, len(g.Sources)*ssrcLength)
	for i, s := range g.Sources {
		binary.BigEndian.PutUint32(rawPacket[i*ssrcLength:], s)
	}

	if g.Reason != "" {
		reason := []byte(g.Reason)

		if len(reason) > sdesMaxOctetCount {
			return nil, ErrReasonTooLong
		}

		rawPacket = append(rawPacket, uint8(len(reason)))
		rawPacket = append(rawPacket, reason...)
		rawPacket = append(rawPacket, make([]byte, getPadding(len(rawPacket)))...)
	}

	hData, err := g.Header().Marshal()
	if err != nil {
		return nil, err
	}

	return append(hData, rawPacket...), nil
}

// Unmarshal decodes the Goodbye packet from binary
func (g *Goodbye) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}

	if h.Type != TypeGoodbye {
		return ErrWrongType
	}
	if len(rawPacket) < h.packetLength() {
		return fmt.Errorf("goodbye: %w", ErrTruncatedRead)
	}
	end := h.packetLength()

	reasonOffset := headerLength + int(h.Count)*ssrcLength
	if reasonOffset > end {
		return fmt.Errorf("goodbye sources: %w", ErrTruncatedRead)
	}

	g.Sources = make([]uint32, h.Count)
	for i := 0; i < int(h.Count); i++ {
		g.Sources[i] = binary.BigEndian.Uint32(rawPacket[headerLength+i*ssrcLength:])
	}

	// Zero bytes remaining means the optional reason is simply absent; a
	// reason whose length octet promises more than remains is a hard error.
	if reasonOffset == end {
		return nil
	}

	reasonLen := int(rawPacket[reasonOffset])
	reasonEnd := reasonOffset + 1 + reasonLen
	if reasonEnd > end {
		return fmt.Errorf("goodbye reason: %w", ErrTruncatedRead)
	}
	g.Reason = string(rawPacket[reasonOffset+1 : reasonEnd])

	if err := checkPadding(rawPacket[reasonEnd:end]); err != nil {
		return fmt.Errorf("goodbye padding: %w", err)
	}

	return nil
}

// Header returns the Header associated with this packet.
func (g Goodbye) Header() Header {
	return Header{
		Version: rtpVersion,
		Count:   uint8(len(g.Sources)),
		Type:    TypeGoodbye,
		Length:  uint16((g.len() / 4) - 1),
	}
}

func (g Goodbye) len() int {
	srcsLength := len(g.Sources) * ssrcLength
	reasonLength := 0
	if g.Reason != "" {
		reasonLength = len([]byte(g.Reason)) + 1
	}
	l := headerLength + srcsLength + reasonLength
	return l + getPadding(l)
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
func (g Goodbye) DestinationSSRC() []uint32 {
	out := make([]uint32, len(g.Sources))
	copy(out, g.Sources)
	return out
}

func (g Goodbye) String() string {
	out := "Goodbye:\n\tSources:\n"
	for _, s := range g.Sources {
		out += fmt.Sprintf("\t\t%x\n", s)
	}
	out += fmt.Sprintf("\tReason: %q\n", g.Reason)
	return out
}
