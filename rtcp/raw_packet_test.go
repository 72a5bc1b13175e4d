package rtcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawPacketRoundTrip(t *testing.T) {
	raw := RawPacket{
		// v=2, p=0, count=0, BYE, len=1
		0x80, 0xcb, 0x00, 0x01,
		0x90, 0x2f, 0x9e, 0x2e,
	}

	data, err := raw.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), data)

	var decoded RawPacket
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, raw, decoded)

	assert.Equal(t, uint8(TypeGoodbye), decoded.Header().Type)
	assert.Empty(t, decoded.DestinationSSRC())
}

func TestRawPacketUnmarshalInvalid(t *testing.T) {
	var raw RawPacket
	assert.ErrorIs(t, raw.Unmarshal(nil), ErrTruncatedRead)
	assert.ErrorIs(t, raw.Unmarshal([]byte{0x00, 0xcb, 0x00, 0x00}), ErrInvalidVersion)
}
