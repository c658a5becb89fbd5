// Package adapter defines the notification boundary.
//
// Adapters publish transfer completion notifications to downstream systems.
// The session owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/ftclient/types"
)

// EventTypeTransferCompleted is the event type of every published event.
const EventTypeTransferCompleted = "transfer_completed"

// TransferCompletedEvent is the payload published when a session finishes.
type TransferCompletedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "transfer_completed"
	SessionID       string `json:"session_id"`
	Identity        string `json:"identity"`
	Server          string `json:"server"`
	Operation       string `json:"operation"`
	Outcome         string `json:"outcome"` // listed, received
	RemoteName      string `json:"remote_name,omitempty"`
	LocalName       string `json:"local_name,omitempty"`
	ArchivePath     string `json:"archive_path,omitempty"`
	Timestamp       string `json:"timestamp"` // RFC 3339
	Bytes           int64  `json:"bytes"`
	Chunks          int64  `json:"chunks"`
	DurationMs      int64  `json:"duration_ms"`
}

// NewTransferCompletedEvent builds an event from a transfer record.
func NewTransferCompletedEvent(record *types.TransferRecord, archivePath string, now time.Time) *TransferCompletedEvent {
	return &TransferCompletedEvent{
		ContractVersion: types.Version,
		EventType:       EventTypeTransferCompleted,
		SessionID:       record.SessionID,
		Identity:        record.Identity,
		Server:          record.Server,
		Operation:       string(record.Operation),
		Outcome:         string(record.Outcome),
		RemoteName:      record.RemoteName,
		LocalName:       record.LocalName,
		ArchivePath:     archivePath,
		Timestamp:       now.UTC().Format(time.RFC3339),
		Bytes:           record.Bytes,
		Chunks:          record.Chunks,
		DurationMs:      record.DurationMs,
	}
}

// Adapter publishes transfer completion events to a downstream system.
type Adapter interface {
	// Publish sends a transfer completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *TransferCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Backoff returns the delay before retry attempt i (i >= 1).
func Backoff(i int) time.Duration {
	return time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
}
