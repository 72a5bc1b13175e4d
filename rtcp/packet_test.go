package rtcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// realPacket returns one RR followed by one PLI, the way they arrive framed
// inside a single datagram.
func realPacket() []byte {
	return []byte{
		// ReceiverReport (offset=0)
		// v=2, p=0, count=1, RR, len=7
		0x81, 0xc9, 0x00, 0x07,
		// ssrc=0x902f9e2e
		0x90, 0x2f, 0x9e, 0x2e,
		// ssrc=0xbc5e9a40
		0xbc, 0x5e, 0x9a, 0x40,
		// fracLost=0, totalLost=0
		0x00, 0x00, 0x00, 0x00,
		// lastSeq=0x46e1
		0x00, 0x00, 0x46, 0xe1,
		// jitter=273
		0x00, 0x00, 0x01, 0x11,
		// lsr=0x9f36432
		0x09, 0xf3, 0x64, 0x32,
		// delay=150137
		0x00, 0x02, 0x4a, 0x79,

		// PictureLossIndication (offset=32)
		// v=2, p=0, FMT=1, PSFB, len=2
		0x81, 0xce, 0x00, 0x02,
		// sender=0x902f9e2e
		0x90, 0x2f, 0x9e, 0x2e,
		// media=0x902f9e2e
		0x90, 0x2f, 0x9e, 0x2e,
	}
}

func TestUnmarshalSingle(t *testing.T) {
	packet, err := Unmarshal(realPacket()[:32])
	require.NoError(t, err)

	rr, ok := packet.(*ReceiverReport)
	require.True(t, ok, "expected *ReceiverReport, got %T", packet)
	assert.Equal(t, uint32(0x902f9e2e), rr.SSRC)
	require.Len(t, rr.Reports, 1)
	assert.Equal(t, uint32(0xbc5e9a40), rr.Reports[0].SSRC)
	assert.Equal(t, uint32(273), rr.Reports[0].Jitter)
}

func TestUnmarshalCompound(t *testing.T) {
	packet, err := Unmarshal(realPacket())
	require.NoError(t, err)

	compound, ok := packet.(*CompoundPacket)
	require.True(t, ok, "expected *CompoundPacket, got %T", packet)
	require.Len(t, *compound, 2)

	_, ok = (*compound)[0].(*ReceiverReport)
	assert.True(t, ok, "expected *ReceiverReport, got %T", (*compound)[0])
	pli, ok := (*compound)[1].(*PictureLossIndication)
	require.True(t, ok, "expected *PictureLossIndication, got %T", (*compound)[1])
	assert.Equal(t, uint32(0x902f9e2e), pli.MediaSSRC)

	assert.Equal(t, []uint32{0xbc5e9a40, 0x902f9e2e}, compound.DestinationSSRC())
}

func TestUnmarshalCompoundTruncatedTail(t *testing.T) {
	// Cutting bytes off the trailing sub packet fails the entire decode:
	// no partial packet list comes back.
	data := realPacket()
	packet, err := Unmarshal(data[:len(data)-4])
	assert.ErrorIs(t, err, ErrInvalidLengthValue)
	assert.Nil(t, packet)
}

func TestUnmarshalErrors(t *testing.T) {
	for _, test := range []struct {
		Name      string
		Data      []byte
		WantError error
	}{
		{
			Name:      "empty",
			Data:      []byte{},
			WantError: ErrNoValidPackets,
		},
		{
			Name: "unknown packet type",
			Data: []byte{
				// v=2, p=0, count=0, pt=192, len=0
				0x80, 0xc0, 0x00, 0x00,
			},
			WantError: ErrUnrecognizedPacketType,
		},
		{
			Name: "unknown transport feedback format",
			Data: []byte{
				// v=2, p=0, FMT=5, RTPFB, len=2
				0x85, 0xcd, 0x00, 0x02,
				0x90, 0x2f, 0x9e, 0x2e,
				0x90, 0x2f, 0x9e, 0x2e,
			},
			WantError: ErrUnsupportedFeedbackFormat,
		},
		{
			Name: "unknown payload feedback format",
			Data: []byte{
				// v=2, p=0, FMT=9, PSFB, len=2
				0x89, 0xce, 0x00, 0x02,
				0x90, 0x2f, 0x9e, 0x2e,
				0x90, 0x2f, 0x9e, 0x2e,
			},
			WantError: ErrUnsupportedFeedbackFormat,
		},
		{
			Name: "length past end of buffer",
			Data: []byte{
				// v=2, p=0, count=1, RR, len=7 but only 8 bytes follow
				0x81, 0xc9, 0x00, 0x07,
				0x90, 0x2f, 0x9e, 0x2e,
				0xbc, 0x5e, 0x9a, 0x40,
			},
			WantError: ErrInvalidLengthValue,
		},
	} {
		_, err := Unmarshal(test.Data)
		assert.ErrorIs(t, err, test.WantError, "Unmarshal %q", test.Name)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	packet, err := Unmarshal(realPacket())
	require.NoError(t, err)

	compound := packet.(*CompoundPacket)
	data, err := Marshal(*compound)
	require.NoError(t, err)
	assert.Equal(t, realPacket(), data)

	// CompoundPacket.Marshal is the same framing
	data2, err := compound.Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestCompoundPacketUnmarshalSingle(t *testing.T) {
	var compound CompoundPacket
	require.NoError(t, compound.Unmarshal(realPacket()[:32]))
	require.Len(t, compound, 1)
	_, ok := compound[0].(*ReceiverReport)
	assert.True(t, ok)
}

func TestGetPadding(t *testing.T) {
	for _, test := range []struct{ Len, Want int }{
		{0, 0}, {1, 3}, {2, 2}, {3, 1}, {4, 0}, {5, 3}, {21, 3}, {24, 0},
	} {
		assert.Equal(t, test.Want, getPadding(test.Len), "getPadding(%d)", test.Len)
	}
}

func TestCheckPadding(t *testing.T) {
	assert.NoError(t, checkPadding(nil))
	assert.NoError(t, checkPadding([]byte{0, 0, 0}))
	assert.ErrorIs(t, checkPadding([]byte{0, 1, 0}), ErrNonZeroPadding)
}
