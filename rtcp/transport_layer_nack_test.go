package rtcp

import (
	"sort"
	"testing"

	"github.com/pion/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportLayerNackUnmarshal(t *testing.T) {
	for _, test := range []struct {
		Name      string
		Data      []byte
		Want      TransportLayerNack
		WantError error
	}{
		{
			Name: "valid",
			Data: []byte{
				// v=2, p=0, FMT=1, RTPFB, len=3
				0x81, 0xcd, 0x00, 0x03,
				// sender=0x902f9e2e
				0x90, 0x2f, 0x9e, 0x2e,
				// media=0x902f9e2e
				0x90, 0x2f, 0x9e, 0x2e,
				// nack pid=10, blp=0xa8a1
				0x00, 0x0a, 0xa8, 0xa1,
			},
			Want: TransportLayerNack{
				SenderSSRC: 0x902f9e2e,
				MediaSSRC:  0x902f9e2e,
				Nacks:      []NackPair{{PacketID: 10, LostPackets: 0xa8a1}},
			},
		},
		{
			Name: "short report",
			Data: []byte{
				// v=2, p=0, FMT=1, RTPFB, len=1
				0x81, 0xcd, 0x00, 0x01,
				// sender only, no media ssrc or pairs
				0x90, 0x2f, 0x9e, 0x2e,
			},
			WantError: ErrTruncatedRead,
		},
		{
			Name: "wrong type",
			Data: []byte{
				// v=2, p=0, FMT=1, PSFB, len=3
				0x81, 0xce, 0x00, 0x03,
				0x90, 0x2f, 0x9e, 0x2e,
				0x90, 0x2f, 0x9e, 0x2e,
				0x00, 0x0a, 0xa8, 0xa1,
			},
			WantError: ErrWrongType,
		},
		{
			Name:      "nil",
			Data:      nil,
			WantError: ErrTruncatedRead,
		},
	} {
		var tln TransportLayerNack
		err := tln.Unmarshal(test.Data)
		if test.WantError != nil {
			assert.ErrorIs(t, err, test.WantError, "Unmarshal %q", test.Name)
			continue
		}
		assert.NoError(t, err, "Unmarshal %q", test.Name)
		assert.Equal(t, test.Want, tln, "Unmarshal %q", test.Name)
	}
}

func TestTransportLayerNackRoundTrip(t *testing.T) {
	pkt := TransportLayerNack{
		SenderSSRC: 0x902f9e2e,
		MediaSSRC:  0x902f9e2e,
		Nacks:      []NackPair{{PacketID: 1, LostPackets: 0xaa40}, {PacketID: 1034, LostPackets: 0x0141}},
	}

	data, err := pkt.Marshal()
	require.NoError(t, err)

	var decoded TransportLayerNack
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, pkt, decoded)
}

func TestNackPairExpansion(t *testing.T) {
	for _, test := range []struct {
		Pair NackPair
		Want []uint16
	}{
		{NackPair{42, 0}, []uint16{42}},
		{NackPair{42, 1}, []uint16{42, 43}},
		{NackPair{42, 0x8000}, []uint16{42, 58}},
		{NackPair{42, 0xffff}, []uint16{
			42, 43, 44, 45, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58,
		}},
		{NackPair{10, 0xa8a1}, []uint16{10, 11, 16, 18, 22, 24, 26}},
		// expansion wraps with 16-bit arithmetic
		{NackPair{0xffff, 1}, []uint16{0xffff, 0}},
	} {
		assert.Equal(t, test.Want, test.Pair.PacketList(), "PacketList(%v)", test.Pair)
	}
}

func TestCreateNackPair(t *testing.T) {
	pair, err := CreateNackPair([]uint16{42, 43, 58})
	require.NoError(t, err)
	assert.Equal(t, NackPair{PacketID: 42, LostPackets: 0x8001}, pair)

	// duplicates collapse
	pair, err = CreateNackPair([]uint16{42, 42, 43})
	require.NoError(t, err)
	assert.Equal(t, NackPair{PacketID: 42, LostPackets: 0x0001}, pair)

	_, err = CreateNackPair([]uint16{42, 59})
	assert.ErrorIs(t, err, ErrSpanTooLarge)

	pair, err = CreateNackPair(nil)
	require.NoError(t, err)
	assert.Equal(t, NackPair{}, pair)
}

func TestNackPairsFromSequenceNumbers(t *testing.T) {
	for _, test := range []struct {
		Name    string
		Missing []uint16
		Want    []NackPair
	}{
		{
			Name:    "empty",
			Missing: []uint16{},
			Want:    []NackPair{},
		},
		{
			Name:    "single group",
			Missing: []uint16{10, 11, 16, 18, 22, 24, 26},
			Want:    []NackPair{{PacketID: 10, LostPackets: 0xa8a1}},
		},
		{
			Name:    "split on span overflow",
			Missing: []uint16{100, 101, 120, 121},
			Want: []NackPair{
				{PacketID: 100, LostPackets: 0x0001},
				{PacketID: 120, LostPackets: 0x0001},
			},
		},
		{
			Name:    "boundary distance of 16 stays grouped",
			Missing: []uint16{100, 116, 117},
			Want: []NackPair{
				{PacketID: 100, LostPackets: 0x8000},
				{PacketID: 117},
			},
		},
	} {
		assert.Equal(t, test.Want, NackPairsFromSequenceNumbers(test.Missing), "%q", test.Name)
	}
}

// Grouping then expanding must reproduce the input set exactly.
func TestNackGroupingRoundTrip(t *testing.T) {
	rand := randutil.NewMathRandomGenerator()

	for iteration := 0; iteration < 50; iteration++ {
		seen := make(map[uint16]struct{})
		for i := 0; i < 1+rand.Intn(200); i++ {
			seen[uint16(rand.Intn(5000))] = struct{}{}
		}
		missing := make([]uint16, 0, len(seen))
		for seqno := range seen {
			missing = append(missing, seqno)
		}
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

		pkt := TransportLayerNack{
			SenderSSRC: 1,
			MediaSSRC:  2,
			Nacks:      NackPairsFromSequenceNumbers(missing),
		}
		assert.Equal(t, missing, pkt.MissingSequenceNumbers())
	}
}
