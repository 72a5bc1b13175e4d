package rtcp

import (
	"fmt"

	"github.com/pion/logging"
)

// A Decoder parses compound RTCP buffers with configurable tolerance and
// logging. The zero value is a strict, silent decoder equivalent to the
// package-level Unmarshal.
type Decoder struct {
	// LoggerFactory customizes logging. Nil disables logging.
	LoggerFactory logging.LoggerFactory

	// AllowUnknownPacketTypes captures sub-packets with an unrecognized
	// packet type as RawPacket instead of failing the whole decode.
	// Unknown feedback formats inside a recognized feedback packet type
	// still fail.
	AllowUnknownPacketTypes bool

	log logging.LeveledLogger
}

// NewDecoder creates a Decoder logging through loggerFactory. Passing nil
// uses the default logger factory.
func NewDecoder(loggerFactory logging.LoggerFactory) *Decoder {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Decoder{
		LoggerFactory: loggerFactory,
		log:           loggerFactory.NewLogger("rtcp"),
	}
}

func (d *Decoder) logger() logging.LeveledLogger {
	if d.log == nil && d.LoggerFactory != nil {
		d.log = d.LoggerFactory.NewLogger("rtcp")
	}
	return d.log
}

// Decode parses an entire datagram the same way the package-level Unmarshal
// does, honoring the Decoder's settings.
func (d *Decoder) Decode(rawData []byte) (Packet, error) {
	log := d.logger()

	var packets []Packet
	for offset := 0; len(rawData)-offset >= headerLength; {
		packet, bytesProcessed, err := unmarshal(rawData[offset:], d.AllowUnknownPacketTypes)
		if err != nil {
			return nil, fmt.Errorf("sub packet %d: %w", len(packets), err)
		}
		if raw, ok := packet.(*RawPacket); ok && log != nil {
			log.Warnf("captured packet with unknown type %d (%d bytes)", raw.Header().Type, len(*raw))
		}
		if log != nil {
			log.Tracef("sub packet %d: %T (%d bytes)", len(packets), packet, bytesProcessed)
		}
		packets = append(packets, packet)
		offset += bytesProcessed
	}

	switch len(packets) {
	case 0:
		return nil, ErrNoValidPackets
	case 1:
		return packets[0], nil
	default:
		if log != nil {
			log.Tracef("decoded compound packet with %d sub packets", len(packets))
		}
		compound := CompoundPacket(packets)
		return &compound, nil
	}
}
