package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/pithecene-io/ftclient/iox"
)

// ListenConfig opens listening sockets. *net.ListenConfig satisfies it.
type ListenConfig interface {
	Listen(ctx context.Context, network, address string) (net.Listener, error)
}

// DataListener accepts exactly one inbound data connection.
// It is single-use: a second AcceptOne fails with ErrListenerSpent.
type DataListener struct {
	raw      net.Listener
	ln       net.Listener
	closer   *iox.OnceCloser
	port     int
	timeout  time.Duration
	accepted atomic.Bool
}

// ListenOn binds the data port on all interfaces.
func ListenOn(ctx context.Context, lc ListenConfig, port int, timeout time.Duration) (*DataListener, error) {
	addr := net.JoinHostPort("", strconv.Itoa(port))

	raw, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, &NetError{Kind: ErrBind, Op: "listen", Addr: addr, Err: err}
	}

	bound := port
	if tcpAddr, ok := raw.Addr().(*net.TCPAddr); ok {
		bound = tcpAddr.Port
	}

	return &DataListener{
		raw:     raw,
		ln:      netutil.LimitListener(raw, 1),
		closer:  iox.NewOnceCloser(raw),
		port:    bound,
		timeout: timeout,
	}, nil
}

// Port returns the bound port. Differs from the requested port only when
// port 0 was requested.
func (l *DataListener) Port() int {
	return l.port
}

// AcceptOne blocks until one peer connects and returns that connection.
// The connection stays bound to ctx: cancelling ctx unblocks its reads.
func (l *DataListener) AcceptOne(ctx context.Context) (*DataConn, error) {
	if !l.accepted.CompareAndSwap(false, true) {
		return nil, ErrListenerSpent
	}

	if dl, ok := l.raw.(interface{ SetDeadline(time.Time) error }); ok && l.timeout > 0 {
		_ = dl.SetDeadline(time.Now().Add(l.timeout))
	}
	stop := context.AfterFunc(ctx, func() {
		_ = l.closer.Close()
	})
	defer stop()

	conn, err := l.ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("accept data connection: %w", ctxErr)
		}
		return nil, &NetError{Kind: ErrAccept, Op: "accept", Addr: l.raw.Addr().String(), Err: err}
	}

	return newDataConn(ctx, conn, l.timeout), nil
}

// Close releases the listening socket. Safe to call more than once.
func (l *DataListener) Close() error {
	return l.closer.Close()
}

// DataConn is the accepted data connection. It is a chunk source:
// each Next call yields one frame of payload bytes.
type DataConn struct {
	conn    net.Conn
	closer  *iox.OnceCloser
	timeout time.Duration
	stop    func() bool
	buf     []byte
}

func newDataConn(ctx context.Context, conn net.Conn, timeout time.Duration) *DataConn {
	d := &DataConn{
		conn:    conn,
		closer:  iox.NewOnceCloser(conn),
		timeout: timeout,
	}
	d.stop = context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(aLongTimeAgo)
	})
	return d
}

// RemoteAddr returns the peer address.
func (d *DataConn) RemoteAddr() net.Addr {
	return d.conn.RemoteAddr()
}

// Next performs one receive of at most size bytes and returns what arrived.
// Frames are never merged: two short writes from the peer come back as two
// chunks. Once the peer has closed, Next returns a zero-length chunk and a
// nil error: that empty receive is the end-of-transfer signal.
//
// The returned slice is only valid until the next call.
func (d *DataConn) Next(size int) ([]byte, error) {
	if cap(d.buf) < size {
		d.buf = make([]byte, size)
	}
	buf := d.buf[:size]

	if d.timeout > 0 {
		_ = d.conn.SetReadDeadline(time.Now().Add(d.timeout))
	}

	for {
		n, err := d.conn.Read(buf)
		switch {
		case n > 0:
			// Data that arrived with EOF is still a chunk; the next call
			// reports the close.
			return buf[:n], nil
		case errors.Is(err, io.EOF):
			return buf[:0], nil
		case err != nil:
			return nil, fmt.Errorf("read data frame: %w", err)
		}
	}
}

// Close releases the connection. Safe to call more than once.
func (d *DataConn) Close() error {
	d.stop()
	return d.closer.Close()
}
