// Package rtcp implements encoding and decoding of RTCP packets as defined
// in RFC 3550, the feedback message extensions of RFC 4585 and RFC 5104, and
// the transport-wide congestion control feedback format of
// draft-holmer-rmcat-transport-wide-cc-extensions-01.
//
// Unmarshal parses a raw buffer into one typed packet, or a CompoundPacket
// when the buffer carries several packets back to back:
//
//	packet, err := rtcp.Unmarshal(raw)
//
// Every packet type also implements the Packet interface directly, so a
// single known packet can be decoded and re-encoded without going through
// the compound framing:
//
//	var nack rtcp.TransportLayerNack
//	err := nack.Unmarshal(raw)
//	raw, err = nack.Marshal()
//
// Decoding is strict: declared lengths are validated against the buffer,
// payloads must be fully consumed, and padding bytes must be zero. The first
// error anywhere in a compound buffer fails the whole decode; this package
// never returns partial results.
package rtcp
