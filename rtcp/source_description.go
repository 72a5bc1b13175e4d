package rtcp

import (
	"encoding/binary"
	"fmt"
)

// RTP SDES item types registered with IANA. See: https://www.iana.org/assignments/rtp-parameters/rtp-parameters.xhtml#rtp-parameters-5
const (
	SDESEnd      = iota // end of SDES list                RFC 3550, 6.5
	SDESCNAME           // canonical name                  RFC 3550, 6.5.1
	SDESName            // user name                       RFC 3550, 6.5.2
	SDESEmail           // user's electronic mail address  RFC 3550, 6.5.3
	SDESPhone           // user's phone number             RFC 3550, 6.5.4
	SDESLocation        // geographic user location        RFC 3550, 6.5.5
	SDESTool            // name of application or tool     RFC 3550, 6.5.6
	SDESNote            // notice about the source         RFC 3550, 6.5.7
	SDESPrivate         // private extensions              RFC 3550, 6.5.8
)

const (
	sdesTypeLen       = 1
	sdesOctetCountLen = 1
	sdesMaxOctetCount = (1 << 8) - 1
	sdesTextOffset    = 2
)

// A SourceDescription (SDES) packet describes the sources in an RTP stream.
type SourceDescription struct {
	Chunks []SourceDescriptionChunk
}

// Marshal encodes the SourceDescription in binary
func (s SourceDescription) Marshal() ([]byte, error) {
	/*
	 *         0                   1                   2                   3
	 *         0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * header |V=2|P|    SC   |  PT=SDES=202  |             length            |
	 *        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 * chunk  |                          SSRC/CSRC_1                          |
	 *   1    +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *        |                           SDES items                          |
	 *        |                              ...                              |
	 *        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 * chunk  |                          SSRC/CSRC_2                          |
	 *   2    +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *        |                           SDES items                          |
	 *        |                              ...                              |
	 *        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 */
	if len(s.Chunks) > countMax {
		return nil, ErrTooManyChunks
	}

	rawPacket := make([]byte, 0)
	for i, c := range s.Chunks {
		data, err := c.Marshal()
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		rawPacket = append(rawPacket, data...)
	}

	hData, err := s.Header().Marshal()
	if err != nil {
		return nil, err
	}

	return append(hData, rawPacket...), nil
}

// Unmarshal decodes the SourceDescription from binary
func (s *SourceDescription) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}

	if h.Type != TypeSourceDescription {
		return ErrWrongType
	}
	if len(rawPacket) < h.packetLength() {
		return fmt.Errorf("source description: %w", ErrTruncatedRead)
	}

	offset := headerLength
	end := h.packetLength()
	for i := 0; i < int(h.Count); i++ {
		var chunk SourceDescriptionChunk
		if err := chunk.Unmarshal(rawPacket[offset:end]); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		s.Chunks = append(s.Chunks, chunk)
		offset += chunk.len()
	}

	if offset != end {
		return fmt.Errorf("source description: %d trailing bytes: %w", end-offset, ErrBufferNotFullyConsumed)
	}

	return nil
}

// Header returns the Header associated with this packet.
func (s SourceDescription) Header() Header {
	return Header{
		Version: rtpVersion,
		Count:   uint8(len(s.Chunks)),
		Type:    TypeSourceDescription,
		Length:  uint16((s.len() / 4) - 1),
	}
}

func (s SourceDescription) len() int {
	chunksLength := 0
	for _, c := range s.Chunks {
		chunksLength += c.len()
	}
	return headerLength + chunksLength
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
func (s SourceDescription) DestinationSSRC() []uint32 {
	out := make([]uint32, len(s.Chunks))
	for i, v := range s.Chunks {
		out[i] = v.Source
	}
	return out
}

func (s SourceDescription) String() string {
	out := "Source Description:\n"
	for _, c := range s.Chunks {
		out += fmt.Sprintf("\t%x: %s\n", c.Source, c.Items)
	}
	return out
}

// A SourceDescriptionChunk contains items describing a single RTP source
type SourceDescriptionChunk struct {
	// The source (ssrc) or contributing source (csrc) identifier this packet describes
	Source uint32
	Items  []SourceDescriptionItem
}

// Marshal encodes the SourceDescriptionChunk in binary
func (s SourceDescriptionChunk) Marshal() ([]byte, error) {
	/*
	 *  +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 *  |                          SSRC/CSRC_1                          |
	 *  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *  |                           SDES items                          |
	 *  |                              ...                              |
	 *  +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 */
	rawPacket := make([]byte, ssrcLength)
	binary.BigEndian.PutUint32(rawPacket, s.Source)

	for _, it := range s.Items {
		data, err := it.Marshal()
		if err != nil {
			return nil, err
		}
		rawPacket = append(rawPacket, data...)
	}

	// The list of items in each chunk MUST be terminated by one or more
	// null octets, padding the chunk to the next 32-bit boundary.
	rawPacket = append(rawPacket, uint8(SDESEnd))
	rawPacket = append(rawPacket, make([]byte, getPadding(len(rawPacket)))...)

	return rawPacket, nil
}

// Unmarshal decodes the SourceDescriptionChunk from binary
func (s *SourceDescriptionChunk) Unmarshal(rawPacket []byte) error {
	if len(rawPacket) < ssrcLength+sdesTypeLen {
		return fmt.Errorf("sdes chunk: %w", ErrTruncatedRead)
	}

	s.Source = binary.BigEndian.Uint32(rawPacket)

	for i := ssrcLength; i < len(rawPacket); {
		if itemType := rawPacket[i]; itemType == SDESEnd {
			// The end octet and any padding after it must be zero
			// up to the next 32-bit boundary.
			padEnd := i + 1 + getPadding(i+1)
			if padEnd > len(rawPacket) {
				return fmt.Errorf("sdes chunk padding: %w", ErrTruncatedRead)
			}
			if err := checkPadding(rawPacket[i+1 : padEnd]); err != nil {
				return fmt.Errorf("sdes chunk padding: %w", err)
			}
			return nil
		}

		var it SourceDescriptionItem
		if err := it.Unmarshal(rawPacket[i:]); err != nil {
			return err
		}
		s.Items = append(s.Items, it)
		i += it.len()
	}

	return fmt.Errorf("sdes chunk missing terminator: %w", ErrTruncatedRead)
}

func (s SourceDescriptionChunk) len() int {
	chunkLen := ssrcLength
	for _, it := range s.Items {
		chunkLen += it.len()
	}
	chunkLen += sdesTypeLen // end null octet
	chunkLen += getPadding(chunkLen)
	return chunkLen
}

// A SourceDescriptionItem is a part of a SourceDescription that describes a stream.
type SourceDescriptionItem struct {
	// The type identifier for this item. eg, SDESCNAME for canonical name description.
	//
	// Type zero or SDESEnd is interpreted as the end of an item list and cannot be used.
	Type uint8
	// Text is a unicode text blob associated with the item. Its meaning varies based on the item's Type.
	Text string
}

func (s SourceDescriptionItem) len() int {
	return sdesTypeLen + sdesOctetCountLen + len([]byte(s.Text))
}

func (s SourceDescriptionItem) String() string {
	return fmt.Sprintf("%d:%q", s.Type, s.Text)
}

// Marshal encodes the SourceDescriptionItem in binary
func (s SourceDescriptionItem) Marshal() ([]byte, error) {
	/*
	 *   0                   1                   2                   3
	 *   0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 *  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *  |     Type      |     length    |          value              ...
	 *  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 */

	if s.Type == SDESEnd {
		return nil, ErrSDESMissingType
	}

	rawPacket := make([]byte, sdesTypeLen+sdesOctetCountLen)

	rawPacket[0] = s.Type

	txtBytes := []byte(s.Text)
	octetCount := len(txtBytes)
	if octetCount > sdesMaxOctetCount {
		return nil, ErrSDESTextTooLong
	}
	rawPacket[1] = uint8(octetCount)

	return append(rawPacket, txtBytes...), nil
}

// Unmarshal decodes the SourceDescriptionItem from binary
func (s *SourceDescriptionItem) Unmarshal(rawPacket []byte) error {
	if len(rawPacket) < sdesTypeLen+sdesOctetCountLen {
		return fmt.Errorf("sdes item: %w", ErrTruncatedRead)
	}

	s.Type = rawPacket[0]

	octetCount := int(rawPacket[1])
	if sdesTextOffset+octetCount > len(rawPacket) {
		return fmt.Errorf("sdes item text: %w", ErrTruncatedRead)
	}

	s.Text = string(rawPacket[sdesTextOffset : sdesTextOffset+octetCount])

	return nil
}
