package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionState is a state of the session state machine.
type SessionState string

const (
	StateInit                 SessionState = "init"
	StateHandshakeSent        SessionState = "handshake_sent"
	StateCommandRejected      SessionState = "command_rejected"
	StateCommandAccepted      SessionState = "command_accepted"
	StateListingDataConnected SessionState = "listing_data_connected"
	StateListingReceived      SessionState = "listing_received"
	StateExistenceChecked     SessionState = "existence_checked"
	StateFileNotFound         SessionState = "file_not_found"
	StateFileDataConnected    SessionState = "file_data_connected"
	StateFileTransferComplete SessionState = "file_transfer_complete"
	// StateFailed is reached on a transport or protocol fault from any state.
	StateFailed SessionState = "failed"
)

// IsTerminal reports whether no further transition leaves s.
func (s SessionState) IsTerminal() bool {
	switch s {
	case StateCommandRejected, StateListingReceived, StateFileNotFound,
		StateFileTransferComplete, StateFailed:
		return true
	default:
		return false
	}
}

// Outcome summarizes how a session ended.
type Outcome string

const (
	// OutcomeListed indicates a listing was received.
	OutcomeListed Outcome = "listed"
	// OutcomeReceived indicates a file was received.
	OutcomeReceived Outcome = "received"
	// OutcomeRejected indicates the server rejected the command.
	OutcomeRejected Outcome = "rejected"
	// OutcomeNotFound indicates the server does not have the requested file.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeFailed indicates a transport or protocol fault.
	OutcomeFailed Outcome = "failed"
)

// OutcomeFor maps a terminal state to its outcome.
func OutcomeFor(s SessionState) Outcome {
	switch s {
	case StateListingReceived:
		return OutcomeListed
	case StateFileTransferComplete:
		return OutcomeReceived
	case StateCommandRejected:
		return OutcomeRejected
	case StateFileNotFound:
		return OutcomeNotFound
	default:
		return OutcomeFailed
	}
}

// SessionMeta identifies one session in logs, archive paths and notifications.
type SessionMeta struct {
	// SessionID is unique per invocation.
	SessionID string
	// Identity is the client identity sent in the handshake.
	Identity string
	// Server is the control channel address.
	Server string
}

// NewSessionMeta creates session metadata with a fresh random session id.
func NewSessionMeta(identity, server string) *SessionMeta {
	return &SessionMeta{
		SessionID: uuid.NewString(),
		Identity:  identity,
		Server:    server,
	}
}

// Validate checks required fields.
func (m *SessionMeta) Validate() error {
	if m.SessionID == "" {
		return errors.New("session_id must be non-empty")
	}
	if _, err := uuid.Parse(m.SessionID); err != nil {
		return errors.New("session_id must be a UUID")
	}
	if m.Server == "" {
		return errors.New("server must be non-empty")
	}
	return nil
}

// TransferRecord summarizes one finished session.
// Written as the archive manifest and carried by notifications.
type TransferRecord struct {
	Version    string       `msgpack:"version" json:"version"`
	SessionID  string       `msgpack:"session_id" json:"session_id"`
	Identity   string       `msgpack:"identity" json:"identity"`
	Server     string       `msgpack:"server" json:"server"`
	Operation  Operation    `msgpack:"operation" json:"operation"`
	RemoteName string       `msgpack:"remote_name,omitempty" json:"remote_name,omitempty"`
	LocalName  string       `msgpack:"local_name,omitempty" json:"local_name,omitempty"`
	Collisions []string     `msgpack:"collisions,omitempty" json:"collisions,omitempty"`
	Bytes      int64        `msgpack:"bytes" json:"bytes"`
	Chunks     int64        `msgpack:"chunks" json:"chunks"`
	State      SessionState `msgpack:"state" json:"state"`
	Outcome    Outcome      `msgpack:"outcome" json:"outcome"`
	StartedAt  time.Time    `msgpack:"started_at" json:"started_at"`
	DurationMs int64        `msgpack:"duration_ms" json:"duration_ms"`
}
