package transport

import (
	"errors"
	"fmt"
)

// Sentinel errors for transport setup failures.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrConnect indicates the control channel could not reach the server.
	ErrConnect = errors.New("connect failed")

	// ErrBind indicates the data port could not be bound.
	ErrBind = errors.New("bind failed")

	// ErrAccept indicates the data listener failed while waiting for the peer.
	ErrAccept = errors.New("accept failed")

	// ErrListenerSpent indicates AcceptOne was called on a listener that
	// already produced its connection.
	ErrListenerSpent = errors.New("data listener already accepted a connection")
)

// NetError wraps an underlying network error with its classification.
type NetError struct {
	// Kind is the sentinel error for classification (e.g., ErrConnect).
	Kind error
	// Op is the operation that failed ("dial", "listen", "accept").
	Op string
	// Addr is the address involved.
	Addr string
	// Err is the underlying error.
	Err error
}

func (e *NetError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Addr, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *NetError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *NetError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}
