package rtcp

import (
	"fmt"
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderStrictMatchesUnmarshal(t *testing.T) {
	d := NewDecoder(logging.NewDefaultLoggerFactory())

	packet, err := d.Decode(realPacket())
	require.NoError(t, err)
	compound, ok := packet.(*CompoundPacket)
	require.True(t, ok, "expected *CompoundPacket, got %T", packet)
	assert.Len(t, *compound, 2)

	_, err = d.Decode([]byte{
		// v=2, p=0, count=0, pt=192, len=0
		0x80, 0xc0, 0x00, 0x00,
	})
	assert.ErrorIs(t, err, ErrUnrecognizedPacketType)
}

func TestDecoderAllowUnknownPacketTypes(t *testing.T) {
	unknown := []byte{
		// v=2, p=0, count=0, pt=192, len=1
		0x80, 0xc0, 0x00, 0x01,
		0xde, 0xad, 0xbe, 0xef,
	}
	data := append(unknown, realPacket()[:32]...)

	d := &Decoder{AllowUnknownPacketTypes: true}
	packet, err := d.Decode(data)
	require.NoError(t, err)

	compound, ok := packet.(*CompoundPacket)
	require.True(t, ok, "expected *CompoundPacket, got %T", packet)
	require.Len(t, *compound, 2)

	raw, ok := (*compound)[0].(*RawPacket)
	require.True(t, ok, "expected *RawPacket, got %T", (*compound)[0])
	assert.Equal(t, RawPacket(unknown), *raw)
	assert.Equal(t, uint8(192), raw.Header().Type)

	_, ok = (*compound)[1].(*ReceiverReport)
	assert.True(t, ok)
}

func TestDecoderLenientStillRejectsUnknownFormats(t *testing.T) {
	// Leniency covers packet types, not feedback formats inside a known
	// feedback type.
	d := &Decoder{AllowUnknownPacketTypes: true}
	_, err := d.Decode([]byte{
		// v=2, p=0, FMT=5, RTPFB, len=2
		0x85, 0xcd, 0x00, 0x02,
		0x90, 0x2f, 0x9e, 0x2e,
		0x90, 0x2f, 0x9e, 0x2e,
	})
	assert.ErrorIs(t, err, ErrUnsupportedFeedbackFormat)
}

func TestDecoderNoValidPackets(t *testing.T) {
	d := &Decoder{}
	_, err := d.Decode(nil)
	assert.ErrorIs(t, err, ErrNoValidPackets)
}

type recordingLogger struct {
	traces []string
	warns  []string
}

func (l *recordingLogger) Trace(msg string) { l.traces = append(l.traces, msg) }
func (l *recordingLogger) Tracef(format string, args ...interface{}) {
	l.traces = append(l.traces, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Debug(string)                  {}
func (l *recordingLogger) Debugf(string, ...interface{}) {}
func (l *recordingLogger) Info(string)                   {}
func (l *recordingLogger) Infof(string, ...interface{})  {}
func (l *recordingLogger) Warn(msg string)               { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Error(string)                  {}
func (l *recordingLogger) Errorf(string, ...interface{}) {}

type recordingLoggerFactory struct {
	logger *recordingLogger
}

func (f *recordingLoggerFactory) NewLogger(string) logging.LeveledLogger { return f.logger }

func TestDecoderTracesEachSubPacket(t *testing.T) {
	logger := &recordingLogger{}
	d := NewDecoder(&recordingLoggerFactory{logger: logger})

	_, err := d.Decode(realPacket())
	require.NoError(t, err)

	require.Len(t, logger.traces, 3)
	assert.Contains(t, logger.traces[0], "sub packet 0")
	assert.Contains(t, logger.traces[1], "sub packet 1")
	assert.Contains(t, logger.traces[2], "compound packet with 2 sub packets")
}

func TestDecoderWarnsOnCapturedRawPacket(t *testing.T) {
	logger := &recordingLogger{}
	d := NewDecoder(&recordingLoggerFactory{logger: logger})
	d.AllowUnknownPacketTypes = true

	_, err := d.Decode([]byte{
		// v=2, p=0, count=0, pt=192, len=1
		0x80, 0xc0, 0x00, 0x01,
		0xde, 0xad, 0xbe, 0xef,
	})
	require.NoError(t, err)

	require.Len(t, logger.warns, 1)
	assert.Contains(t, logger.warns[0], "unknown type 192")
}
