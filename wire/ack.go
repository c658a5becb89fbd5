package wire

import (
	"errors"
	"fmt"
	"io"
)

// Ack is a single-byte acknowledgement read from the control channel.
type Ack byte

// Acknowledgement values. The server sends ASCII digits.
const (
	AckAccepted Ack = '1'
	AckRejected Ack = '0'
)

// Accepted reports whether the server accepted.
func (a Ack) Accepted() bool {
	return a == AckAccepted
}

func (a Ack) String() string {
	switch a {
	case AckAccepted:
		return "accepted"
	case AckRejected:
		return "rejected"
	default:
		return fmt.Sprintf("invalid(0x%02x)", byte(a))
	}
}

// ParseAck validates an acknowledgement byte.
func ParseAck(b byte) (Ack, error) {
	switch Ack(b) {
	case AckAccepted, AckRejected:
		return Ack(b), nil
	default:
		return 0, &ProtocolError{
			Kind: ProtocolErrorInvalidAck,
			Msg:  fmt.Sprintf("acknowledgement byte 0x%02x is neither '0' nor '1'", b),
		}
	}
}

// ReadAck reads exactly one acknowledgement byte from r.
func ReadAck(r io.Reader) (Ack, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, &ProtocolError{
				Kind: ProtocolErrorMissingAck,
				Msg:  "connection closed before acknowledgement",
				Err:  err,
			}
		}
		return 0, fmt.Errorf("read acknowledgement: %w", err)
	}
	return ParseAck(buf[0])
}

// WriteAck writes one acknowledgement byte to w.
func WriteAck(w io.Writer, a Ack) error {
	_, err := w.Write([]byte{byte(a)})
	return err
}
