package rtcp

import (
	"encoding/binary"
	"fmt"
)

// The PictureLossIndication packet informs the encoder about the loss of an
// undefined amount of coded video data belonging to one or more pictures
type PictureLossIndication struct {
	// SSRC of sender
	SenderSSRC uint32

	// SSRC where the loss was experienced
	MediaSSRC uint32
}

const pliLength = 2

// Marshal encodes the PictureLossIndication in binary
func (p PictureLossIndication) Marshal() ([]byte, error) {
	/*
	 * PLI does not require parameters.  Therefore, the length field MUST be
	 * 2, and there MUST NOT be any Feedback Control Information.
	 *
	 * The semantics of this FB message is independent of the payload type.
	 */
	rawPacket := make([]byte, ssrcLength*2)
	binary.BigEndian.PutUint32(rawPacket, p.SenderSSRC)
	binary.BigEndian.PutUint32(rawPacket[ssrcLength:], p.MediaSSRC)

	hData, err := p.Header().Marshal()
	if err != nil {
		return nil, err
	}

	return append(hData, rawPacket...), nil
}

// Unmarshal decodes the PictureLossIndication from binary
func (p *PictureLossIndication) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}

	if h.Type != TypePayloadSpecificFeedback || h.Count != FormatPLI {
		return ErrWrongType
	}
	if len(rawPacket) < headerLength+ssrcLength*2 {
		return fmt.Errorf("picture loss indication: %w", ErrTruncatedRead)
	}
	if h.payloadLength() != ssrcLength*2 {
		return fmt.Errorf("picture loss indication carries no FCI: %w", ErrBufferNotFullyConsumed)
	}

	p.SenderSSRC = binary.BigEndian.Uint32(rawPacket[headerLength:])
	p.MediaSSRC = binary.BigEndian.Uint32(rawPacket[headerLength+ssrcLength:])
	return nil
}

// Header returns the Header associated with this packet.
func (p PictureLossIndication) Header() Header {
	return Header{
		Version: rtpVersion,
		Count:   FormatPLI,
		Type:    TypePayloadSpecificFeedback,
		Length:  pliLength,
	}
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
func (p PictureLossIndication) DestinationSSRC() []uint32 {
	return []uint32{p.MediaSSRC}
}

func (p PictureLossIndication) String() string {
	return fmt.Sprintf("PictureLossIndication %x %x", p.SenderSSRC, p.MediaSSRC)
}
