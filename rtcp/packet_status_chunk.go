package rtcp

import (
	"fmt"
)

// PacketStatusSymbol is the per-packet reception status carried by the
// packet status chunks of a transport-wide congestion control feedback
// packet.
type PacketStatusSymbol uint8

// Packet status symbols. See draft-holmer-rmcat-transport-wide-cc-extensions-01, 3.1.1
const (
	PacketStatusNotReceived                  PacketStatusSymbol = 0
	PacketStatusReceivedSmallDelta           PacketStatusSymbol = 1
	PacketStatusReceivedLargeOrNegativeDelta PacketStatusSymbol = 2
)

// DeltaSize returns the number of receive-delta bytes that follow the status
// chunks for one occurrence of this symbol. Both the decoder and the chunk
// packer key off this mapping.
func (s PacketStatusSymbol) DeltaSize() int {
	switch s {
	case PacketStatusReceivedSmallDelta:
		return 1
	case PacketStatusReceivedLargeOrNegativeDelta:
		return 2
	default:
		return 0
	}
}

func (s PacketStatusSymbol) String() string {
	switch s {
	case PacketStatusNotReceived:
		return "NotReceived"
	case PacketStatusReceivedSmallDelta:
		return "ReceivedSmallDelta"
	case PacketStatusReceivedLargeOrNegativeDelta:
		return "ReceivedLargeOrNegativeDelta"
	default:
		return fmt.Sprintf("InvalidSymbol(%d)", uint8(s))
	}
}

// Every chunk is one 16-bit cell. A leading type bit selects run-length (0)
// or status-vector (1) form; the vector form has a size bit selecting 14
// one-bit or 7 two-bit symbols.
const (
	chunkTypeBit     = 0x8000
	chunkSizeBit     = 0x4000
	maxRunLength     = 0x1FFF
	oneBitCapacity   = 14
	twoBitCapacity   = 7
	statusChunkBytes = 2
)

// parseStatusChunk expands one 16-bit chunk into its symbol run.
//
// A vector chunk always occupies all of its 7 or 14 slots on the wire even
// when it logically carries fewer symbols, so the expansion is truncated to
// the caller's remaining symbol count. remaining must be positive.
func parseStatusChunk(chunk uint16, remaining int) ([]PacketStatusSymbol, error) {
	if chunk&chunkTypeBit == 0 {
		/*
		 *  0                   1
		 *  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
		 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
		 * |T| S |       Run Length        |
		 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
		 */
		symbol := PacketStatusSymbol(chunk >> 13 & 0x3)
		if symbol > PacketStatusReceivedLargeOrNegativeDelta {
			return nil, fmt.Errorf("run length chunk: %w: %d", ErrInvalidStatusSymbol, symbol)
		}
		runLength := int(chunk & maxRunLength)
		if runLength > remaining {
			runLength = remaining
		}
		out := make([]PacketStatusSymbol, runLength)
		for i := range out {
			out[i] = symbol
		}
		return out, nil
	}

	/*
	 *  0                   1
	 *  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 * |T|S|       symbol list         |
	 * +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	 */
	var out []PacketStatusSymbol
	if chunk&chunkSizeBit == 0 {
		// 14 one-bit symbols: only not-received / received-small-delta.
		out = make([]PacketStatusSymbol, oneBitCapacity)
		for i := 0; i < oneBitCapacity; i++ {
			out[i] = PacketStatusSymbol(chunk >> (oneBitCapacity - 1 - i) & 0x1)
		}
	} else {
		// 7 two-bit symbols.
		out = make([]PacketStatusSymbol, twoBitCapacity)
		for i := 0; i < twoBitCapacity; i++ {
			symbol := PacketStatusSymbol(chunk >> (2 * (twoBitCapacity - 1 - i)) & 0x3)
			if symbol > PacketStatusReceivedLargeOrNegativeDelta {
				return nil, fmt.Errorf("status vector slot %d: %w: %d", i, ErrInvalidStatusSymbol, symbol)
			}
			out[i] = symbol
		}
	}
	if remaining < len(out) {
		out = out[:remaining]
	}
	return out, nil
}

func encodeRunLengthChunk(symbol PacketStatusSymbol, runLength int) uint16 {
	return uint16(symbol)<<13 | uint16(runLength)
}

func encodeOneBitVectorChunk(symbols []PacketStatusSymbol) uint16 {
	chunk := uint16(chunkTypeBit)
	for i, s := range symbols {
		chunk |= uint16(s) << (oneBitCapacity - 1 - i)
	}
	return chunk
}

func encodeTwoBitVectorChunk(symbols []PacketStatusSymbol) uint16 {
	chunk := uint16(chunkTypeBit | chunkSizeBit)
	for i, s := range symbols {
		chunk |= uint16(s) << (2 * (twoBitCapacity - 1 - i))
	}
	return chunk
}

type builderState int

const (
	// no symbols accumulated
	stateEmpty builderState = iota
	// every accumulated symbol is equal; eligible for a run-length chunk
	// of up to 8191 symbols
	stateHomogeneous
	// mixed symbols without a large delta; eligible for the one-bit
	// vector form, up to 14 symbols
	stateMixedOneBit
	// mixed symbols including a large delta; only the two-bit vector
	// form remains, up to 7 symbols
	stateMixedTwoBit
)

// chunkBuilder is the greedy accumulator behind the status chunk encoder.
// Symbols are fed in sequence order through canAdd/add; emit drains the
// accumulated run into the most compact chunk representation available.
type chunkBuilder struct {
	state builderState

	// run symbol and length while homogeneous; a homogeneous run is not
	// materialized symbol by symbol so run-length encoding never needs a
	// scratch array.
	symbol PacketStatusSymbol
	count  int

	// accumulated symbols in the mixed states, at most 14
	symbols []PacketStatusSymbol
}

func (b *chunkBuilder) empty() bool {
	return b.state == stateEmpty
}

// canAdd reports whether one more occurrence of s still fits some chunk
// representation together with everything accumulated so far.
func (b *chunkBuilder) canAdd(s PacketStatusSymbol) bool {
	switch b.state {
	case stateEmpty:
		return true
	case stateHomogeneous:
		switch {
		case b.count < twoBitCapacity:
			return true
		case s == b.symbol:
			return b.count < maxRunLength
		case s != PacketStatusReceivedLargeOrNegativeDelta &&
			b.symbol != PacketStatusReceivedLargeOrNegativeDelta:
			return b.count < oneBitCapacity
		default:
			return false
		}
	case stateMixedOneBit:
		if s == PacketStatusReceivedLargeOrNegativeDelta {
			return len(b.symbols) < twoBitCapacity
		}
		return len(b.symbols) < oneBitCapacity
	default: // stateMixedTwoBit
		return len(b.symbols) < twoBitCapacity
	}
}

// add appends s. Callers must have checked canAdd.
func (b *chunkBuilder) add(s PacketStatusSymbol) {
	switch b.state {
	case stateEmpty:
		b.state = stateHomogeneous
		b.symbol = s
		b.count = 1
	case stateHomogeneous:
		if s == b.symbol {
			b.count++
			return
		}
		// The run breaks: materialize it and go mixed. canAdd
		// guarantees the materialized run is short enough to vector-
		// encode.
		b.symbols = make([]PacketStatusSymbol, b.count, oneBitCapacity)
		for i := range b.symbols {
			b.symbols[i] = b.symbol
		}
		b.symbols = append(b.symbols, s)
		b.setMixedState()
	default:
		b.symbols = append(b.symbols, s)
		b.setMixedState()
	}
}

func (b *chunkBuilder) setMixedState() {
	b.state = stateMixedOneBit
	for _, s := range b.symbols {
		if s == PacketStatusReceivedLargeOrNegativeDelta {
			b.state = stateMixedTwoBit
			return
		}
	}
}

// emit encodes the most compact chunk for the current accumulated content.
// In the homogeneous and full-vector cases the accumulator is cleared. A
// mixed run longer than 7 but shorter than 14 spills across two-bit vector
// chunks: the first 7 symbols are emitted and the remainder is retained with
// its state recomputed.
func (b *chunkBuilder) emit() uint16 {
	switch b.state {
	case stateHomogeneous:
		chunk := encodeRunLengthChunk(b.symbol, b.count)
		b.clear()
		return chunk
	case stateMixedOneBit, stateMixedTwoBit:
		if len(b.symbols) == oneBitCapacity && b.state == stateMixedOneBit {
			chunk := encodeOneBitVectorChunk(b.symbols)
			b.clear()
			return chunk
		}
		if len(b.symbols) <= twoBitCapacity {
			chunk := encodeTwoBitVectorChunk(b.symbols)
			b.clear()
			return chunk
		}
		chunk := encodeTwoBitVectorChunk(b.symbols[:twoBitCapacity])
		b.retain(b.symbols[twoBitCapacity:])
		return chunk
	default:
		return encodeRunLengthChunk(PacketStatusNotReceived, 0)
	}
}

func (b *chunkBuilder) clear() {
	b.state = stateEmpty
	b.count = 0
	b.symbols = nil
}

// retain keeps the tail of a spilled vector chunk, recomputing the state
// over the retained symbols. A homogeneous tail drops back to the
// run-length-eligible state.
func (b *chunkBuilder) retain(tail []PacketStatusSymbol) {
	allSame := true
	for _, s := range tail[1:] {
		if s != tail[0] {
			allSame = false
			break
		}
	}
	if allSame {
		b.state = stateHomogeneous
		b.symbol = tail[0]
		b.count = len(tail)
		b.symbols = nil
		return
	}
	b.symbols = append(b.symbols[:0], tail...)
	b.setMixedState()
}

// packStatusSymbols encodes a symbol stream into status chunks using the
// greedy accumulator. Concatenating the chunks' expansions reproduces the
// input exactly.
func packStatusSymbols(symbols []PacketStatusSymbol) []uint16 {
	var b chunkBuilder
	chunks := make([]uint16, 0)
	for _, s := range symbols {
		if !b.canAdd(s) {
			chunks = append(chunks, b.emit())
		}
		b.add(s)
	}
	for !b.empty() {
		chunks = append(chunks, b.emit())
	}
	return chunks
}
