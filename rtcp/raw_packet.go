package rtcp

// RawPacket represents an unparsed RTCP packet. It carries the complete wire
// bytes, header included, of a sub-packet whose type this package does not
// recognize.
type RawPacket []byte

// Marshal returns the stored wire bytes unchanged.
func (r RawPacket) Marshal() ([]byte, error) {
	return r, nil
}

// Unmarshal stores the raw bytes after validating the common header.
func (r *RawPacket) Unmarshal(rawPacket []byte) error {
	var h Header
	if err := h.Unmarshal(rawPacket); err != nil {
		return err
	}
	*r = append(RawPacket(nil), rawPacket...)
	return nil
}

// Header returns the common header of the stored packet.
func (r RawPacket) Header() Header {
	var h Header
	if err := h.Unmarshal(r); err != nil {
		return Header{}
	}
	return h
}

// DestinationSSRC returns an array of SSRC values that this packet refers to.
// The payload of an unknown packet type cannot be interpreted, so it is
// always empty.
func (r RawPacket) DestinationSSRC() []uint32 {
	return []uint32{}
}
