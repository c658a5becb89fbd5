package wire

import (
	"errors"
	"fmt"
)

// ProtocolErrorKind classifies protocol violations.
type ProtocolErrorKind int

const (
	// ProtocolErrorMissingAck indicates the stream closed before an
	// acknowledgement byte arrived.
	ProtocolErrorMissingAck ProtocolErrorKind = iota
	// ProtocolErrorInvalidAck indicates an acknowledgement byte other than '0' or '1'.
	ProtocolErrorInvalidAck
	// ProtocolErrorShortHandshake indicates fewer than HandshakeSize bytes were read.
	ProtocolErrorShortHandshake
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case ProtocolErrorMissingAck:
		return "missing_ack"
	case ProtocolErrorInvalidAck:
		return "invalid_ack"
	case ProtocolErrorShortHandshake:
		return "short_handshake"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ProtocolError represents a malformed or absent protocol element.
// Protocol errors are always fatal to the session.
type ProtocolError struct {
	Kind ProtocolErrorKind
	Msg  string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Msg, e.Err)
	}
	return "protocol error: " + e.Msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError returns true if err is or wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr)
}
