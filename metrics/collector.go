// Package metrics provides per-session counters.
//
// The Collector accumulates counters during a single session. It is a leaf
// package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64 `json:"sessions_started"`
	SessionsCompleted int64 `json:"sessions_completed"`
	CommandsRejected  int64 `json:"commands_rejected"`
	FilesNotFound     int64 `json:"files_not_found"`
	SessionsFailed    int64 `json:"sessions_failed"`

	// Payload
	ListingsReceived int64 `json:"listings_received"`
	FilesReceived    int64 `json:"files_received"`
	ChunksReceived   int64 `json:"chunks_received"`
	BytesReceived    int64 `json:"bytes_received"`
	NameCollisions   int64 `json:"name_collisions"`

	// Side channels
	ArchiveWriteSuccess int64 `json:"archive_write_success"`
	ArchiveWriteFailure int64 `json:"archive_write_failure"`
	NotifySuccess       int64 `json:"notify_success"`
	NotifyFailure       int64 `json:"notify_failure"`

	// Dimensions (informational, set at construction)
	Server    string `json:"server"`
	Operation string `json:"operation"`
	SessionID string `json:"session_id"`
}

// Collector accumulates counters during a single session.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(server, operation, sessionID string) *Collector {
	return &Collector{s: Snapshot{
		Server:    server,
		Operation: operation,
		SessionID: sessionID,
	}}
}

func (c *Collector) add(fn func(s *Snapshot)) {
	if c == nil {
		return
	}
	c.mu.Lock()
	fn(&c.s)
	c.mu.Unlock()
}

// --- Session lifecycle ---

// IncSessionStarted records a session start.
func (c *Collector) IncSessionStarted() { c.add(func(s *Snapshot) { s.SessionsStarted++ }) }

// IncSessionCompleted records a session that received its payload.
func (c *Collector) IncSessionCompleted() { c.add(func(s *Snapshot) { s.SessionsCompleted++ }) }

// IncCommandRejected records a server-side command rejection.
func (c *Collector) IncCommandRejected() { c.add(func(s *Snapshot) { s.CommandsRejected++ }) }

// IncFileNotFound records a server-side file absence.
func (c *Collector) IncFileNotFound() { c.add(func(s *Snapshot) { s.FilesNotFound++ }) }

// IncSessionFailed records a transport or protocol fault.
func (c *Collector) IncSessionFailed() { c.add(func(s *Snapshot) { s.SessionsFailed++ }) }

// --- Payload ---

// IncListingReceived records a received listing frame.
func (c *Collector) IncListingReceived() { c.add(func(s *Snapshot) { s.ListingsReceived++ }) }

// IncFileReceived records a completed file transfer.
func (c *Collector) IncFileReceived() { c.add(func(s *Snapshot) { s.FilesReceived++ }) }

// AddChunk records one file chunk of n payload bytes.
func (c *Collector) AddChunk(n int64) {
	c.add(func(s *Snapshot) {
		s.ChunksReceived++
		s.BytesReceived += n
	})
}

// AddBytes records payload bytes outside of chunked file transfer.
func (c *Collector) AddBytes(n int64) { c.add(func(s *Snapshot) { s.BytesReceived += n }) }

// AddNameCollisions records destination names that were already taken.
func (c *Collector) AddNameCollisions(n int) {
	c.add(func(s *Snapshot) { s.NameCollisions += int64(n) })
}

// --- Side channels ---
// Archive counters are per-put, not per-session. A file plus its manifest
// counts as 2.

// IncArchiveWriteSuccess records a successful archive put.
func (c *Collector) IncArchiveWriteSuccess() { c.add(func(s *Snapshot) { s.ArchiveWriteSuccess++ }) }

// IncArchiveWriteFailure records a failed archive put.
func (c *Collector) IncArchiveWriteFailure() { c.add(func(s *Snapshot) { s.ArchiveWriteFailure++ }) }

// IncNotifySuccess records a delivered notification.
func (c *Collector) IncNotifySuccess() { c.add(func(s *Snapshot) { s.NotifySuccess++ }) }

// IncNotifyFailure records a notification that failed after retries.
func (c *Collector) IncNotifyFailure() { c.add(func(s *Snapshot) { s.NotifyFailure++ }) }

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
