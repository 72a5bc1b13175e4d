package rtcp

import (
	"encoding/binary"
	"fmt"
)

// A ReceiverReport (RR) packet provides reception quality feedback for an RTP stream
type ReceiverReport struct {
	// The synchronization source identifier for the originator of this RR packet.
	SSRC uint32
	// Zero or more reception report blocks depending on the number of other
	// sources heard by this sender since the last report. Each reception report
	// block conveys statistics on the reception of RTP packets from a
	// single synchronization source.
	Reports []ReceptionReport
	// Extension contains additional, payload-specific information that needs to
	// be exchanged regularly. Such information should be defined in a profile
	// specification.
	ProfileExtensions []byte
}

const rrSSRCOffset = headerLength

// Marshal encodes the ReceiverReport in binary
func (r ReceiverReport) Marshal() ([]byte, error) {
	/*
	 *         0                   1                   2                   3
	 *         0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * header |V=2|P|    RC   |   PT=RR=201   |             length            |
	 *        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 *        |                     SSRC of packet sender                     |
	 *        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 * report |                           report blocks                       |
	 * blocks :                              ...                              :
	 *        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	 */
	rawPacket := make([]byte, ssrcLength)

	binary.BigEndian.PutUint32(rawPacket, r.SSRC)

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

// Unmarshal decodes the ReceiverReport from binary
func (r *ReceiverReport) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}

	if h.Type != TypeReceiverReport {
		return ErrWrongType
	}
	if len(rawPacket) < h.packetLength() || h.payloadLength() < ssrcLength {
		return fmt.Errorf("receiver report: %w", ErrTruncatedRead)
	}

	r.SSRC = binary.BigEndian.Uint32(rawPacket[rrSSRCOffset:])

	offset := rrSSRCOffset + ssrcLength
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

	// Whatever follows the declared report blocks is a profile-specific
	// extension.
	if offset < end {
		r.ProfileExtensions = append([]byte(nil), rawPacket[offset:end]...)
	}

	return nil
}

// Header returns the Header associated with this packet.
func (r ReceiverReport) Header() Header {
	return Header{
		Version: rtpVersion,
		Count:   uint8(len(r.Reports)),
		Type:    TypeReceiverReport,
		Length:  uint16((r.len() / 4) - 1),
	}
}

func (r ReceiverReport) len() int {
	return headerLength + ssrcLength +
		len(r.Reports)*receptionReportLength + len(r.ProfileExtensions)
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
func (r ReceiverReport) DestinationSSRC() []uint32 {
	out := make([]uint32, len(r.Reports))
	for i, rp := range r.Reports {
		out[i] = rp.SSRC
	}
	return out
}

func (r ReceiverReport) String() string {
	out := fmt.Sprintf("ReceiverReport from %x\n\tSSRC    \tLost\tLastSequence\n", r.SSRC)
	for _, i := range r.Reports {
		out += fmt.Sprintf("\t%x\t%d/%d\t%d\n", i.SSRC, i.FractionLost, i.TotalLost, i.LastSequenceNumber)
	}
	return out
}
