package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("localhost:30020", "get", "sess-001")

	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncCommandRejected()
	c.IncFileNotFound()
	c.IncFileNotFound()
	c.IncSessionFailed()
	c.IncListingReceived()
	c.IncFileReceived()
	c.AddChunk(512)
	c.AddChunk(100)
	c.AddBytes(11)
	c.AddNameCollisions(2)
	c.IncArchiveWriteSuccess()
	c.IncArchiveWriteSuccess()
	c.IncArchiveWriteFailure()
	c.IncNotifySuccess()
	c.IncNotifyFailure()

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"SessionsStarted", s.SessionsStarted, 1},
		{"SessionsCompleted", s.SessionsCompleted, 1},
		{"CommandsRejected", s.CommandsRejected, 1},
		{"FilesNotFound", s.FilesNotFound, 2},
		{"SessionsFailed", s.SessionsFailed, 1},
		{"ListingsReceived", s.ListingsReceived, 1},
		{"FilesReceived", s.FilesReceived, 1},
		{"ChunksReceived", s.ChunksReceived, 2},
		{"BytesReceived", s.BytesReceived, 623},
		{"NameCollisions", s.NameCollisions, 2},
		{"ArchiveWriteSuccess", s.ArchiveWriteSuccess, 2},
		{"ArchiveWriteFailure", s.ArchiveWriteFailure, 1},
		{"NotifySuccess", s.NotifySuccess, 1},
		{"NotifyFailure", s.NotifyFailure, 1},
	}
	for _, ch := range checks {
		if ch.got != ch.want {
			t.Errorf("%s = %d, want %d", ch.name, ch.got, ch.want)
		}
	}
}

func TestCollector_Dimensions(t *testing.T) {
	s := NewCollector("localhost:30020", "list", "sess-001").Snapshot()

	if s.Server != "localhost:30020" {
		t.Errorf("Server = %q", s.Server)
	}
	if s.Operation != "list" {
		t.Errorf("Operation = %q", s.Operation)
	}
	if s.SessionID != "sess-001" {
		t.Errorf("SessionID = %q", s.SessionID)
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("s", "get", "id")
	c.AddChunk(10)

	before := c.Snapshot()
	c.AddChunk(10)

	if before.ChunksReceived != 1 {
		t.Errorf("snapshot mutated: ChunksReceived = %d", before.ChunksReceived)
	}
	if c.Snapshot().ChunksReceived != 2 {
		t.Error("collector should continue counting")
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic
	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncCommandRejected()
	c.IncFileNotFound()
	c.IncSessionFailed()
	c.IncListingReceived()
	c.IncFileReceived()
	c.AddChunk(1)
	c.AddBytes(1)
	c.AddNameCollisions(1)
	c.IncArchiveWriteSuccess()
	c.IncArchiveWriteFailure()
	c.IncNotifySuccess()
	c.IncNotifyFailure()

	if s := c.Snapshot(); s != (Snapshot{}) {
		t.Errorf("nil collector snapshot = %+v, want zero", s)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("s", "get", "id")

	const goroutines = 10
	const iterations = 100

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				c.AddChunk(1)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.ChunksReceived != goroutines*iterations {
		t.Errorf("ChunksReceived = %d, want %d", s.ChunksReceived, goroutines*iterations)
	}
	if s.BytesReceived != goroutines*iterations {
		t.Errorf("BytesReceived = %d, want %d", s.BytesReceived, goroutines*iterations)
	}
}
