package rtcp

import "errors"

// Decode errors. Errors returned from Unmarshal wrap one of these sentinels
// with context naming the field, sub-packet or chunk where decoding failed,
// so callers can match them with errors.Is.
var (
	ErrInvalidVersion            = errors.New("rtcp: invalid packet version")
	ErrUnrecognizedPacketType    = errors.New("rtcp: unrecognized packet type")
	ErrUnsupportedFeedbackFormat = errors.New("rtcp: unsupported feedback message format")
	ErrInvalidLengthValue        = errors.New("rtcp: header length field exceeds buffer")
	ErrBufferNotFullyConsumed    = errors.New("rtcp: payload not fully consumed")
	ErrNonZeroPadding            = errors.New("rtcp: padding byte is not zero")
	ErrTruncatedRead             = errors.New("rtcp: buffer too short")
	ErrInvalidStatusSymbol       = errors.New("rtcp: invalid packet status symbol")
	ErrNoValidPackets            = errors.New("rtcp: no valid packets in buffer")
	ErrWrongType                 = errors.New("rtcp: wrong packet type")
)

// Encode errors.
var (
	ErrSpanTooLarge          = errors.New("rtcp: nack sequence numbers span more than 17 packets")
	ErrTooManyReports        = errors.New("rtcp: too many reports")
	ErrTooManyChunks         = errors.New("rtcp: too many chunks")
	ErrTooManySources        = errors.New("rtcp: too many sources")
	ErrInvalidTotalLost      = errors.New("rtcp: invalid total lost count")
	ErrSDESTextTooLong       = errors.New("rtcp: sdes must be < 255 octets long")
	ErrSDESMissingType       = errors.New("rtcp: sdes item missing type")
	ErrReasonTooLong         = errors.New("rtcp: reason must be < 255 octets long")
	ErrBadSequenceOrder      = errors.New("rtcp: packet reports must have strictly increasing sequence numbers")
	ErrDeltaOutOfRange       = errors.New("rtcp: receive delta out of range for status symbol")
	ErrReferenceTimeTooLarge = errors.New("rtcp: reference time exceeds 24 bits")
	ErrMisalignedExtension   = errors.New("rtcp: profile-specific extension is not 32-bit aligned")
)
