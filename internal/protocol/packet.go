package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame is one raw 10-byte window as it travels on the wire.
type Frame [FrameSize]byte

// Packet is a decoded frame.
type Packet struct {
	Opcode  Opcode
	Payload [PayloadSize]byte
}

// Frame errors. Decode always returns them wrapped in a *FrameError.
var (
	ErrBadStartMarker = errors.New("bad start marker")
	ErrBadTerminator  = errors.New("bad terminator")
)

// FrameError describes a window that failed marker or terminator validation.
type FrameError struct {
	Kind  error // ErrBadStartMarker or ErrBadTerminator
	Frame Frame
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("protocol: %v in frame % X", e.Kind, e.Frame[:])
}

func (e *FrameError) Unwrap() error {
	return e.Kind
}

// ExceptionOpcode returns the protocol-exception opcode reported to the
// ground station for this error.
func (e *FrameError) ExceptionOpcode() Opcode {
	if errors.Is(e.Kind, ErrBadStartMarker) {
		return OpErrStartMarker
	}
	return OpErrTerminator
}

// Encode builds a frame for op. The payload is zero-padded to PayloadSize.
// A longer payload is a programming error and panics.
func Encode(op Opcode, payload []byte) Frame {
	if len(payload) > PayloadSize {
		panic(fmt.Sprintf("protocol: payload for %s is %d bytes (max %d)", op, len(payload), PayloadSize))
	}

	var f Frame
	f[0] = StartMarker
	f[1] = byte(op)
	copy(f[2:2+PayloadSize], payload)
	f[FrameSize-2] = EndFirst
	f[FrameSize-1] = EndSecond
	return f
}

// Decode validates the framing bytes of f and extracts opcode and payload.
// The start marker is checked first.
func Decode(f Frame) (Packet, error) {
	if f[0] != StartMarker {
		return Packet{}, &FrameError{Kind: ErrBadStartMarker, Frame: f}
	}
	if f[FrameSize-2] != EndFirst || f[FrameSize-1] != EndSecond {
		return Packet{}, &FrameError{Kind: ErrBadTerminator, Frame: f}
	}

	p := Packet{Opcode: Opcode(f[1])}
	copy(p.Payload[:], f[2:2+PayloadSize])
	return p, nil
}

// Bytes returns the frame as a slice ready for writing.
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

// Assembler accumulates received bytes into 10-byte windows.
// Framing is positional: the caller decides when to Reset or Resync.
// Not safe for concurrent use.
type Assembler struct {
	buf     [FrameSize]byte
	n       int
	hunting bool
	skipped int
}

// Push appends b to the window. When the window is full it is returned with
// ok=true and the assembler starts a fresh window. While hunting, bytes are
// dropped until one equals StartMarker, which opens the next window.
func (a *Assembler) Push(b byte) (f Frame, ok bool) {
	if a.hunting {
		if b != StartMarker {
			a.skipped++
			return Frame{}, false
		}
		a.hunting = false
	}

	a.buf[a.n] = b
	a.n++
	if a.n < FrameSize {
		return Frame{}, false
	}
	f = Frame(a.buf)
	a.n = 0
	return f, true
}

// Reset discards any partial window and stops hunting.
func (a *Assembler) Reset() {
	a.n = 0
	a.hunting = false
}

// Resync discards any partial window and hunts for the next start marker.
// Call it after a window fails to decode.
func (a *Assembler) Resync() {
	a.n = 0
	a.hunting = true
}

// Hunting reports whether the assembler is waiting for a start marker.
func (a *Assembler) Hunting() bool {
	return a.hunting
}

// Skipped returns the number of bytes dropped while hunting.
func (a *Assembler) Skipped() int {
	return a.skipped
}

// Pending returns the number of bytes held in the current partial window.
func (a *Assembler) Pending() int {
	return a.n
}

// PutUint32 writes v little-endian into b[0:4].
func PutUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// Uint32 reads a little-endian uint32 from b[0:4].
func Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// Reply builds the conventional reply payload: status byte then value bytes.
func Reply(status byte, value ...byte) []byte {
	return append([]byte{status}, value...)
}

// ReplyUint32 builds a reply payload carrying a little-endian uint32.
func ReplyUint32(status byte, v uint32) []byte {
	p := make([]byte, 5)
	p[0] = status
	PutUint32(p[1:], v)
	return p
}

// RoundHalfUp rounds to the nearest integer, halves away from zero.
func RoundHalfUp(v float64) int32 {
	if v < 0 {
		return -int32(-v + 0.5)
	}
	return int32(v + 0.5)
}

// StateByte converts an enabled flag to its wire representation.
func StateByte(enabled bool) byte {
	if enabled {
		return SystemEnabled
	}
	return SystemDisabled
}
