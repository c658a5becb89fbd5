// Package wire implements the control-channel handshake and payload framing.
//
// Handshake fields are fixed-width and null-padded. Payload frames carry their
// logical content up to the first null byte (the sentinel). A genuine null
// inside a binary payload truncates the frame; this is a known limitation of
// the protocol and is preserved for compatibility with existing servers.
package wire

import (
	"bytes"
	"fmt"
	"io"
)

// Wire sizes. These must not change: existing peers read exactly these widths.
const (
	// FieldWidth is the on-wire width of each handshake field.
	FieldWidth = 30
	// HandshakeSize is identity field + operation field.
	HandshakeSize = 2 * FieldWidth
	// ListingFrameSize is the size of the single directory listing frame.
	ListingFrameSize = 1024
	// FileChunkSize is the maximum size of one file chunk.
	FileChunkSize = 512
	// Sentinel marks the logical end of a frame's content.
	Sentinel byte = 0x00
)

// EncodeField returns exactly width bytes: the first min(len(value), width)
// bytes of value followed by zero fill. Values longer than width do not
// round-trip; use Truncated to detect them.
func EncodeField(value string, width int) []byte {
	buf := make([]byte, width)
	copy(buf, value)
	return buf
}

// EncodeHandshakeField encodes value at FieldWidth.
func EncodeHandshakeField(value string) []byte {
	return EncodeField(value, FieldWidth)
}

// DecodeField returns the prefix of b up to the first null byte,
// or all of b when it holds no null byte.
func DecodeField(b []byte) string {
	return string(TrimAtSentinel(b))
}

// TrimAtSentinel returns b truncated at its first null byte.
// The returned slice aliases b.
func TrimAtSentinel(b []byte) []byte {
	if i := bytes.IndexByte(b, Sentinel); i >= 0 {
		return b[:i]
	}
	return b
}

// Truncated reports whether value is too long to survive a handshake field.
func Truncated(value string) bool {
	return len(value) > FieldWidth
}

// Handshake is the pair of fields that opens a session.
type Handshake struct {
	Identity string
	Command  string
}

// MarshalBinary encodes the handshake as identity field then operation field.
func (h Handshake) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, HandshakeSize)
	buf = append(buf, EncodeHandshakeField(h.Identity)...)
	buf = append(buf, EncodeHandshakeField(h.Command)...)
	return buf, nil
}

// ReadHandshake reads and decodes one handshake from r.
func ReadHandshake(r io.Reader) (Handshake, error) {
	var buf [HandshakeSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Handshake{}, &ProtocolError{
			Kind: ProtocolErrorShortHandshake,
			Msg:  fmt.Sprintf("failed to read %d-byte handshake", HandshakeSize),
			Err:  err,
		}
	}
	return Handshake{
		Identity: DecodeField(buf[:FieldWidth]),
		Command:  DecodeField(buf[FieldWidth:]),
	}, nil
}
