package rtcp

import (
	"encoding/binary"
	"fmt"
)

// A SenderReport (SR) packet provides reception quality feedback for an RTP stream
type SenderReport struct {
	// The synchronization source identifier for the originator of this SR packet.
	SSRC uint32
	// The wallclock time when this report was sent so that it may be used in
	// combination with timestamps returned in reception reports from other
	// receivers to measure round-trip propagation to those receivers.
	NTPTime uint64
	// Corresponds to the same time as the NTP timestamp (above), but in
	// the same units and with the same random offset as the RTP
	// timestamps in data packets. This correspondence may be used for
	// intra- and inter-media synchronization for sources whose NTP
	// timestamps are synchronized, and may be used by media-independent
	// receivers to estimate the nominal RTP clock frequency.
	RTPTime uint32
	// The total number of RTP data packets transmitted by the sender
	// since starting transmission up until the time this SR packet was
	// generated.
	PacketCount uint32
	// The total number of payload octets (i.e., not including header or
	// padding) transmitted in RTP data packets by the sender since
	// starting transmission up until the time this SR packet was
	// generated.
	OctetCount uint32
	// Zero or more reception report blocks depending on the number of other
	// sources heard by this sender since the last report. Each reception report
	// block conveys statistics on the reception of RTP packets from a
	// single synchronization source.
	Reports []ReceptionReport
	// ProfileExtensions contains additional, payload-specific information
	// that needs to be exchanged regularly. Such information should be
	// defined in a profile specification.
	ProfileExtensions []byte
}

const (
	// NTP timestamp, RTP timestamp, packet count, octet count
	srSenderInfoLength  = 20
	srSSRCOffset        = headerLength
	srNTPOffset         = srSSRCOffset + ssrcLength
	srRTPOffset         = srNTPOffset + 8
	srPacketCountOffset = srRTPOffset + 4
	srOctetCountOffset  = srPacketCountOffset + 4
	srReportOffset      = srOctetCountOffset + 4
)

// Marshal encodes the SenderReport in binary
func (r SenderReport) Marshal() ([]byte, error) {
	/*
	 *         0                   1                   2                   3
	 *         0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * header |V=2|P|    RC   |   PT=SR=200   |             length            |
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *        |                         SSRC of sender                        |
	 *        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 * sender |              NTP timestamp, most significant word             |
	 * info   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *        |             NTP timestamp, least significant word             |
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *        |                         RTP timestamp                         |
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *        |                     sender's packet count                     |
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *        |                      sender's octet count                     |
	 *        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 * report |                           report blocks                       |
	 * blocks :                              ...                              :
	 *        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 *        |                  profile-specific extensions                  |
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 */
	rawPacket := make([]byte, ssrcLength+srSenderInfoLength)

	binary.BigEndian.PutUint32(rawPacket, r.SSRC)
	binary.BigEndian.PutUint64(rawPacket[srNTPOffset-headerLength:], r.NTPTime)
	binary.BigEndian.PutUint32(rawPacket[srRTPOffset-headerLength:], r.RTPTime)
	binary.BigEndian.PutUint32(rawPacket[srPacketCountOffset-headerLength:], r.PacketCount)
	binary.BigEndian.PutUint32(rawPacket[srOctetCountOffset-headerLength:], r.OctetCount)

	if len(r.Reports) > countMax {
		return nil, ErrTooManyReports
	}
	for _, rp := range r.Reports {
		data, err := rp.Marshal()
		if err != nil {
			return nil, err
		}
		rawPacket = append(rawPacket, data...)
	}

	rawPacket = append(rawPacket, r.ProfileExtensions...)
	if len(rawPacket)%4 != 0 {
		return nil, ErrMisalignedExtension
	}

	hData, err := r.Header().Marshal()
	if err != nil {
		return nil, err
	}

	return append(hData, rawPacket...), nil
}

// Unmarshal decodes the SenderReport from binary
func (r *SenderReport) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}

	if h.Type != TypeSenderReport {
		return ErrWrongType
	}
	if len(rawPacket) < h.packetLength() ||
		h.payloadLength() < ssrcLength+srSenderInfoLength {
		return fmt.Errorf("sender report: %w", ErrTruncatedRead)
	}

	r.SSRC = binary.BigEndian.Uint32(rawPacket[srSSRCOffset:])
	r.NTPTime = binary.BigEndian.Uint64(rawPacket[srNTPOffset:])
	r.RTPTime = binary.BigEndian.Uint32(rawPacket[srRTPOffset:])
	r.PacketCount = binary.BigEndian.Uint32(rawPacket[srPacketCountOffset:])
	r.OctetCount = binary.BigEndian.Uint32(rawPacket[srOctetCountOffset:])

	offset := srReportOffset
	end := h.packetLength()
	for i := 0; i < int(h.Count); i++ {
		if offset+receptionReportLength > end {
			return fmt.Errorf("report block %d: %w", i, ErrTruncatedRead)
		}
		var rb ReceptionReport
		if err := rb.Unmarshal(rawPacket[offset:end]); err != nil {
			return fmt.Errorf("report block %d: %w", i, err)
		}
		r.Reports = append(r.Reports, rb)
		offset += receptionReportLength
	}

	if offset < end {
		r.ProfileExtensions = append([]byte(nil), rawPacket[offset:end]...)
	}

	return nil
}

// Header returns the Header associated with this packet.
func (r SenderReport) Header() Header {
	return Header{
		Version: rtpVersion,
		Count:   uint8(len(r.Reports)),
		Type:    TypeSenderReport,
		Length:  uint16((r.len() / 4) - 1),
	}
}

func (r SenderReport) len() int {
	return headerLength + ssrcLength + srSenderInfoLength +
		len(r.Reports)*receptionReportLength + len(r.ProfileExtensions)
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
func (r SenderReport) DestinationSSRC() []uint32 {
	out := make([]uint32, len(r.Reports))
	for i, rp := range r.Reports {
		out[i] = rp.SSRC
	}
	return out
}

func (r SenderReport) String() string {
	out := fmt.Sprintf("SenderReport from %x\n", r.SSRC)
	out += fmt.Sprintf("\tNTPTime:\t%d\n", r.NTPTime)
	out += fmt.Sprintf("\tRTPTIme:\t%d\n", r.RTPTime)
	out += fmt.Sprintf("\tPacketCount:\t%d\n", r.PacketCount)
	out += fmt.Sprintf("\tOctetCount:\t%d\n", r.OctetCount)
	for _, i := range r.Reports {
		out += fmt.Sprintf("\t%x\t%d/%d\t%d\n", i.SSRC, i.FractionLost, i.TotalLost, i.LastSequenceNumber)
	}
	return out
}
