package rtcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderUnmarshal(t *testing.T) {
	for _, test := range []struct {
		Name      string
		Data      []byte
		Want      Header
		WantError error
	}{
		{
			Name: "valid",
			Data: []byte{
				// v=2, p=0, count=1, RR, len=7
				0x81, 0xc9, 0x00, 0x07,
			},
			Want: Header{
				Version: 2,
				Padding: false,
				Count:   1,
				Type:    TypeReceiverReport,
				Length:  7,
			},
		},
		{
			Name: "padded with count",
			Data: []byte{
				// v=2, p=1, count=3, pt=89, len=5
				0xa3, 0x59, 0x00, 0x05,
			},
			Want: Header{
				Version: 2,
				Padding: true,
				Count:   3,
				Type:    89,
				Length:  5,
			},
		},
		{
			Name: "bad version",
			Data: []byte{
				// v=0, p=0, count=0, RR, len=4
				0x00, 0xc9, 0x00, 0x04,
			},
			WantError: ErrInvalidVersion,
		},
		{
			Name:      "truncated",
			Data:      []byte{0x81, 0xc9},
			WantError: ErrTruncatedRead,
		},
		{
			Name:      "nil",
			Data:      nil,
			WantError: ErrTruncatedRead,
		},
	} {
		var h Header
		err := h.Unmarshal(test.Data)
		if test.WantError != nil {
			assert.ErrorIs(t, err, test.WantError, "Unmarshal %q", test.Name)
			continue
		}
		assert.NoError(t, err, "Unmarshal %q", test.Name)
		assert.Equal(t, test.Want, h, "Unmarshal %q", test.Name)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, test := range []struct {
		Name      string
		Header    Header
		WantError error
	}{
		{
			Name: "valid",
			Header: Header{
				Version: 2,
				Padding: true,
				Count:   31,
				Type:    TypeSenderReport,
				Length:  4,
			},
		},
		{
			Name: "also valid",
			Header: Header{
				Version: 2,
				Padding: false,
				Count:   28,
				Type:    TypeReceiverReport,
				Length:  65535,
			},
		},
		{
			Name:      "invalid version",
			Header:    Header{Version: 99, Count: 31, Type: TypeSenderReport},
			WantError: ErrInvalidVersion,
		},
		{
			Name:      "invalid count",
			Header:    Header{Version: 2, Count: 40, Type: TypeSenderReport},
			WantError: ErrTooManyReports,
		},
	} {
		data, err := test.Header.Marshal()
		if test.WantError != nil {
			assert.ErrorIs(t, err, test.WantError, "Marshal %q", test.Name)
			continue
		}
		assert.NoError(t, err, "Marshal %q", test.Name)

		var decoded Header
		assert.NoError(t, decoded.Unmarshal(data), "Unmarshal %q", test.Name)
		assert.Equal(t, test.Header, decoded, "round trip %q", test.Name)
	}
}

func TestHeaderDeclaredLengths(t *testing.T) {
	h := Header{Version: 2, Type: TypeGoodbye, Length: 5}
	assert.Equal(t, 20, h.payloadLength())
	assert.Equal(t, 24, h.packetLength())

	// length zero declares a header-only packet
	h.Length = 0
	assert.Equal(t, 0, h.payloadLength())
	assert.Equal(t, 4, h.packetLength())
}
