// Package transport owns the two sockets of a session.
//
// The control channel is dialed out (Dialer capability). The data channel is
// inverted: the client listens and the server connects back (ListenConfig
// capability). The two are kept as separate types because their blocking
// contracts differ.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/pithecene-io/ftclient/iox"
	"github.com/pithecene-io/ftclient/wire"
)

// Dialer establishes outbound connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// aLongTimeAgo is a deadline in the past, used to unblock pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// ControlChannel is the client-initiated connection carrying the handshake
// and acknowledgements.
type ControlChannel struct {
	conn    net.Conn
	closer  *iox.OnceCloser
	addr    string
	timeout time.Duration
}

// Connect dials host:port. A zero timeout means blocking operations wait
// indefinitely, matching the reference peer.
func Connect(ctx context.Context, d Dialer, host string, port int, timeout time.Duration) (*ControlChannel, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, &NetError{Kind: ErrConnect, Op: "dial", Addr: addr, Err: err}
	}

	return &ControlChannel{
		conn:    conn,
		closer:  iox.NewOnceCloser(conn),
		addr:    addr,
		timeout: timeout,
	}, nil
}

// Addr returns the server address.
func (c *ControlChannel) Addr() string {
	return c.addr
}

// SendHandshake writes the identity field followed by the operation field,
// each exactly wire.FieldWidth bytes.
func (c *ControlChannel) SendHandshake(ctx context.Context, identity, operation string) error {
	payload, err := wire.Handshake{Identity: identity, Command: operation}.MarshalBinary()
	if err != nil {
		return err
	}

	stop := c.arm(ctx)
	defer stop()

	if _, err := c.conn.Write(payload); err != nil {
		return c.ioErr(ctx, "send handshake", err)
	}
	return nil
}

// AwaitAcknowledgement blocks until one acknowledgement byte arrives.
// A connection closed before the byte is a *wire.ProtocolError.
func (c *ControlChannel) AwaitAcknowledgement(ctx context.Context) (wire.Ack, error) {
	stop := c.arm(ctx)
	defer stop()

	ack, err := wire.ReadAck(c.conn)
	if err != nil {
		if wire.IsProtocolError(err) {
			return 0, err
		}
		return 0, c.ioErr(ctx, "await acknowledgement", err)
	}
	return ack, nil
}

// Close releases the connection. Safe to call more than once.
func (c *ControlChannel) Close() error {
	return c.closer.Close()
}

// arm applies the per-operation deadline and unblocks I/O when ctx ends.
// The returned func must be called once the operation finishes.
func (c *ControlChannel) arm(ctx context.Context) func() {
	return armDeadline(ctx, c.conn, c.timeout)
}

func (c *ControlChannel) ioErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return fmt.Errorf("%s on %s: %w", op, c.addr, err)
}

// armDeadline sets conn's deadline from timeout (zero clears it) and installs
// a context hook that forces pending I/O to fail when ctx is done.
func armDeadline(ctx context.Context, conn net.Conn, timeout time.Duration) func() {
	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	} else {
		_ = conn.SetDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(aLongTimeAgo)
	})
	return func() { stop() }
}

// IsTimeout reports whether err is a network timeout.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
