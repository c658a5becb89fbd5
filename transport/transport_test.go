package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/pithecene-io/ftclient/iox"
	"github.com/pithecene-io/ftclient/wire"
)

// serveOnce accepts one control connection on a loopback listener and hands
// it to fn in a goroutine. Returns the listener port.
func serveOnce(t *testing.T, fn func(conn net.Conn)) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(iox.CloseFunc(ln))

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer iox.DiscardClose(conn)
		fn(conn)
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestControlChannel_HandshakeAndAck(t *testing.T) {
	got := make(chan []byte, 1)
	port := serveOnce(t, func(conn net.Conn) {
		buf := make([]byte, wire.HandshakeSize)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		got <- buf
		_ = wire.WriteAck(conn, wire.AckAccepted)
	})

	cc, err := Connect(t.Context(), &net.Dialer{}, "127.0.0.1", port, 5*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer iox.DiscardClose(cc)

	if err := cc.SendHandshake(t.Context(), "host1", "list"); err != nil {
		t.Fatalf("SendHandshake: %v", err)
	}
	ack, err := cc.AwaitAcknowledgement(t.Context())
	if err != nil {
		t.Fatalf("AwaitAcknowledgement: %v", err)
	}
	if !ack.Accepted() {
		t.Errorf("ack = %v, want accepted", ack)
	}

	raw := <-got
	want := append(wire.EncodeHandshakeField("host1"), wire.EncodeHandshakeField("list")...)
	if !bytes.Equal(raw, want) {
		t.Errorf("handshake bytes = %q, want %q", raw, want)
	}
}

func TestControlChannel_AckMissing(t *testing.T) {
	port := serveOnce(t, func(conn net.Conn) {
		_, _ = io.ReadFull(conn, make([]byte, wire.HandshakeSize))
		// close without acknowledging
	})

	cc, err := Connect(t.Context(), &net.Dialer{}, "127.0.0.1", port, 5*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer iox.DiscardClose(cc)

	if err := cc.SendHandshake(t.Context(), "host1", "-l 1"); err != nil {
		t.Fatalf("SendHandshake: %v", err)
	}
	_, err = cc.AwaitAcknowledgement(t.Context())
	if !wire.IsProtocolError(err) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestControlChannel_CloseIdempotent(t *testing.T) {
	port := serveOnce(t, func(net.Conn) {})

	cc, err := Connect(t.Context(), &net.Dialer{}, "127.0.0.1", port, 0)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	first := cc.Close()
	second := cc.Close()
	if first != nil {
		t.Errorf("first Close: %v", first)
	}
	if second != first {
		t.Errorf("second Close = %v, want same as first", second)
	}
}

func TestConnect_Refused(t *testing.T) {
	// Bind and release a port so nothing is listening on it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	_, err = Connect(t.Context(), &net.Dialer{}, "127.0.0.1", port, time.Second)
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}

	var netErr *NetError
	if !errors.As(err, &netErr) {
		t.Fatal("expected *NetError")
	}
	if netErr.Op != "dial" || netErr.Addr != "127.0.0.1:"+strconv.Itoa(port) {
		t.Errorf("NetError = %+v", netErr)
	}
}

func TestListenOn_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(iox.CloseFunc(ln))
	port := ln.Addr().(*net.TCPAddr).Port

	_, err = ListenOn(t.Context(), &net.ListenConfig{}, port, 0)
	if !errors.Is(err, ErrBind) {
		t.Fatalf("expected ErrBind, got %v", err)
	}
}

func TestDataListener_AcceptOneAndChunks(t *testing.T) {
	dl, err := ListenOn(t.Context(), &net.ListenConfig{}, 0, 5*time.Second)
	if err != nil {
		t.Fatalf("ListenOn: %v", err)
	}
	defer iox.DiscardClose(dl)

	go func() {
		conn, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(dl.Port()))
		if err != nil {
			return
		}
		defer iox.DiscardClose(conn)
		chunk := make([]byte, wire.FileChunkSize)
		copy(chunk, "hello")
		_, _ = conn.Write(chunk)
		_, _ = conn.Write([]byte("tail"))
	}()

	dc, err := dl.AcceptOne(t.Context())
	if err != nil {
		t.Fatalf("AcceptOne: %v", err)
	}
	defer iox.DiscardClose(dc)

	first, err := dc.Next(wire.FileChunkSize)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(wire.TrimAtSentinel(first)) != "hello" {
		t.Errorf("first chunk = %d bytes, %q", len(first), wire.TrimAtSentinel(first))
	}

	short, err := dc.Next(wire.FileChunkSize)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(short) != "tail" {
		t.Errorf("short chunk = %q, want tail", short)
	}

	end, err := dc.Next(wire.FileChunkSize)
	if err != nil {
		t.Fatalf("Next at end: %v", err)
	}
	if len(end) != 0 {
		t.Errorf("end chunk has %d bytes, want 0", len(end))
	}

	if _, err := dl.AcceptOne(t.Context()); !errors.Is(err, ErrListenerSpent) {
		t.Errorf("second AcceptOne = %v, want ErrListenerSpent", err)
	}
}

// dataPeer connects to dl and runs fn on the data connection.
func dataPeer(t *testing.T, dl *DataListener, fn func(conn net.Conn)) {
	t.Helper()
	go func() {
		conn, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(dl.Port()))
		if err != nil {
			return
		}
		defer iox.DiscardClose(conn)
		fn(conn)
	}()
}

func TestDataConn_ShortWritesStaySeparate(t *testing.T) {
	dl, err := ListenOn(t.Context(), &net.ListenConfig{}, 0, 5*time.Second)
	if err != nil {
		t.Fatalf("ListenOn: %v", err)
	}
	defer iox.DiscardClose(dl)

	dataPeer(t, dl, func(conn net.Conn) {
		_, _ = conn.Write([]byte("hello\x00"))
		time.Sleep(100 * time.Millisecond)
		_, _ = conn.Write([]byte("world\x00"))
	})

	dc, err := dl.AcceptOne(t.Context())
	if err != nil {
		t.Fatalf("AcceptOne: %v", err)
	}
	defer iox.DiscardClose(dc)

	for _, want := range []string{"hello\x00", "world\x00", ""} {
		got, err := dc.Next(wire.FileChunkSize)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if string(got) != want {
			t.Errorf("chunk = %q, want %q", got, want)
		}
	}
}

func TestDataConn_ShortFrameFromOpenPeer(t *testing.T) {
	dl, err := ListenOn(t.Context(), &net.ListenConfig{}, 0, 0)
	if err != nil {
		t.Fatalf("ListenOn: %v", err)
	}
	defer iox.DiscardClose(dl)

	release := make(chan struct{})
	defer close(release)
	dataPeer(t, dl, func(conn net.Conn) {
		_, _ = conn.Write([]byte("a.txt\nb.txt\x00"))
		<-release
	})

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	dc, err := dl.AcceptOne(ctx)
	if err != nil {
		t.Fatalf("AcceptOne: %v", err)
	}
	defer iox.DiscardClose(dc)

	got, err := dc.Next(wire.ListingFrameSize)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(got) != "a.txt\nb.txt\x00" {
		t.Errorf("frame = %q", got)
	}
}

func TestDataListener_AcceptCancelled(t *testing.T) {
	dl, err := ListenOn(t.Context(), &net.ListenConfig{}, 0, 0)
	if err != nil {
		t.Fatalf("ListenOn: %v", err)
	}
	defer iox.DiscardClose(dl)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err = dl.AcceptOne(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDataListener_AcceptTimeout(t *testing.T) {
	dl, err := ListenOn(t.Context(), &net.ListenConfig{}, 0, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("ListenOn: %v", err)
	}
	defer iox.DiscardClose(dl)

	_, err = dl.AcceptOne(t.Context())
	if !errors.Is(err, ErrAccept) {
		t.Fatalf("expected ErrAccept, got %v", err)
	}
	if !IsTimeout(err) {
		t.Errorf("expected timeout, got %v", err)
	}
}
