// Package transfer drains payloads from the data channel.
//
// Listing and file reception strip the sentinel differently:
//   - listing: one frame of at most wire.ListingFrameSize bytes, truncated at
//     its first null byte
//   - file: frames of at most wire.FileChunkSize bytes, each truncated at its
//     first null byte and appended in order, until a frame with zero raw
//     length arrives
package transfer

import (
	"fmt"
	"io"

	"github.com/pithecene-io/ftclient/wire"
)

// ChunkSource yields raw frames from the data channel.
// A zero-length frame with a nil error signals end of stream.
type ChunkSource interface {
	Next(size int) ([]byte, error)
}

// Progress is called after each file chunk is written.
// bytes is the running total of payload bytes written.
type Progress func(chunks, bytes int64)

// FileStats summarizes one file reception.
type FileStats struct {
	// Chunks is the number of non-empty raw frames received.
	Chunks int64
	// Bytes is the number of payload bytes written after sentinel stripping.
	Bytes int64
	// RawBytes is the number of bytes received before stripping.
	RawBytes int64
}

// ReceiveListing reads exactly one listing frame and returns its text.
func ReceiveListing(src ChunkSource) (string, error) {
	frame, err := src.Next(wire.ListingFrameSize)
	if err != nil {
		return "", fmt.Errorf("receive listing: %w", err)
	}
	return wire.DecodeField(frame), nil
}

// ReceiveFile copies chunks from src to dst until a zero-length chunk.
// progress may be nil.
func ReceiveFile(src ChunkSource, dst io.Writer, progress Progress) (FileStats, error) {
	var stats FileStats
	for {
		raw, err := src.Next(wire.FileChunkSize)
		if err != nil {
			return stats, fmt.Errorf("receive chunk %d: %w", stats.Chunks+1, err)
		}
		if len(raw) == 0 {
			return stats, nil
		}

		stats.Chunks++
		stats.RawBytes += int64(len(raw))

		payload := wire.TrimAtSentinel(raw)
		if len(payload) > 0 {
			n, err := dst.Write(payload)
			stats.Bytes += int64(n)
			if err != nil {
				return stats, fmt.Errorf("write chunk %d: %w", stats.Chunks, err)
			}
		}

		if progress != nil {
			progress(stats.Chunks, stats.Bytes)
		}
	}
}

// SliceSource replays a fixed chunk sequence. Chunks longer than the
// requested size are returned whole. After the sequence is exhausted it
// yields zero-length chunks.
type SliceSource struct {
	Chunks [][]byte
	// Calls counts Next invocations.
	Calls int
}

// Next returns the next recorded chunk.
func (s *SliceSource) Next(int) ([]byte, error) {
	s.Calls++
	if len(s.Chunks) == 0 {
		return nil, nil
	}
	c := s.Chunks[0]
	s.Chunks = s.Chunks[1:]
	return c, nil
}

// Verify SliceSource implements ChunkSource.
var _ ChunkSource = (*SliceSource)(nil)
