// Package wiretest provides a scripted server peer for exercising the client
// over loopback sockets.
package wiretest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pithecene-io/ftclient/wire"
)

// dialRetryWindow bounds how long the peer keeps trying to reach the
// client's data listener.
const dialRetryWindow = 5 * time.Second

// Script describes how the peer answers one session.
type Script struct {
	// RejectCommand answers the handshake with '0'.
	RejectCommand bool
	// FileMissing answers the existence check with '0'.
	FileMissing bool
	// HangUpBeforeAck closes the control connection after the handshake.
	HangUpBeforeAck bool
	// Listing is the listing text sent for list commands.
	Listing string
	// Frames are written verbatim on the data connection for get commands.
	// Use FileFrames to split a payload the way the reference server does.
	Frames [][]byte
	// RawFrames, when set, replace the padded listing frame or Frames. Each
	// one is written as it is, in its own write.
	RawFrames [][]byte
	// FrameGap pauses between frame writes so the client sees them as
	// separate receives.
	FrameGap time.Duration
	// HoldData keeps the data connection open after the frames are written,
	// until the client closes it.
	HoldData bool
	// DataPort overrides the port parsed from the command.
	DataPort int
}

// Server accepts a single control connection and plays its Script.
type Server struct {
	ln     net.Listener
	script Script
	done   chan struct{}

	mu        sync.Mutex
	handshake wire.Handshake
	err       error
}

// NewServer starts a peer on a loopback port. It is closed on test cleanup.
func NewServer(t testing.TB, script Script) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("wiretest: listen: %v", err)
	}
	s := &Server{ln: ln, script: script, done: make(chan struct{})}
	t.Cleanup(func() {
		_ = ln.Close()
		<-s.done
	})

	go s.serve()
	return s
}

// Host returns the peer's host.
func (s *Server) Host() string { return "127.0.0.1" }

// Port returns the peer's control port.
func (s *Server) Port() int { return s.ln.Addr().(*net.TCPAddr).Port }

// Wait blocks until the session is over and returns the handshake the peer
// received along with any peer-side error.
func (s *Server) Wait() (wire.Handshake, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshake, s.err
}

func (s *Server) serve() {
	defer close(s.done)

	conn, err := s.ln.Accept()
	if err != nil {
		s.fail(err)
		return
	}
	defer func() { _ = conn.Close() }()

	hs, err := wire.ReadHandshake(conn)
	if err != nil {
		s.fail(err)
		return
	}
	s.mu.Lock()
	s.handshake = hs
	s.mu.Unlock()

	if s.script.HangUpBeforeAck {
		return
	}
	if s.script.RejectCommand {
		s.fail(wire.WriteAck(conn, wire.AckRejected))
		return
	}
	if err := wire.WriteAck(conn, wire.AckAccepted); err != nil {
		s.fail(err)
		return
	}

	fields := strings.Fields(hs.Command)
	if len(fields) == 0 {
		s.fail(errors.New("wiretest: empty command"))
		return
	}

	var frames [][]byte
	switch fields[0] {
	case "-l", "list":
		frames = [][]byte{wire.EncodeField(s.script.Listing, wire.ListingFrameSize)}
	case "-g", "get":
		if s.script.FileMissing {
			s.fail(wire.WriteAck(conn, wire.AckRejected))
			return
		}
		if err := wire.WriteAck(conn, wire.AckAccepted); err != nil {
			s.fail(err)
			return
		}
		frames = s.script.Frames
	default:
		s.fail(fmt.Errorf("wiretest: unknown command %q", hs.Command))
		return
	}

	if s.script.RawFrames != nil {
		frames = s.script.RawFrames
	}

	port := s.script.DataPort
	if port == 0 {
		port, err = strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			s.fail(fmt.Errorf("wiretest: no data port in %q", hs.Command))
			return
		}
	}
	s.fail(s.sendFrames(net.JoinHostPort(s.Host(), strconv.Itoa(port)), frames))
}

// sendFrames connects back to the client and writes frames, then closes.
// The close is the end-of-transfer signal.
func (s *Server) sendFrames(addr string, frames [][]byte) error {
	deadline := time.Now().Add(dialRetryWindow)
	var (
		data net.Conn
		err  error
	)
	for {
		data, err = net.Dial("tcp", addr)
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("wiretest: dial data: %w", err)
	}
	defer func() { _ = data.Close() }()

	for i, f := range frames {
		if i > 0 && s.script.FrameGap > 0 {
			time.Sleep(s.script.FrameGap)
		}
		if _, err := data.Write(f); err != nil {
			return fmt.Errorf("wiretest: write frame: %w", err)
		}
	}
	if s.script.HoldData {
		// Returns once the client closes its end.
		_, _ = io.Copy(io.Discard, data)
	}
	return nil
}

func (s *Server) fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// FileFrames splits data into zero-padded wire.FileChunkSize frames.
func FileFrames(data []byte) [][]byte {
	var frames [][]byte
	for len(data) > 0 {
		n := min(len(data), wire.FileChunkSize)
		frame := make([]byte, wire.FileChunkSize)
		copy(frame, data[:n])
		frames = append(frames, frame)
		data = data[n:]
	}
	return frames
}

// FreePort returns a loopback port that was free at the time of the call.
func FreePort(t testing.TB) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("wiretest: free port: %v", err)
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}
