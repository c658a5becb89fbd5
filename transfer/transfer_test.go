package transfer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pithecene-io/ftclient/wire"
)

func TestReceiveListing(t *testing.T) {
	frame := make([]byte, wire.ListingFrameSize)
	copy(frame, "a.txt\nb.txt")

	src := &SliceSource{Chunks: [][]byte{frame, []byte("ignored")}}
	got, err := ReceiveListing(src)
	if err != nil {
		t.Fatalf("ReceiveListing: %v", err)
	}
	if got != "a.txt\nb.txt" {
		t.Errorf("listing = %q, want %q", got, "a.txt\nb.txt")
	}
	if src.Calls != 1 {
		t.Errorf("Next called %d times, want exactly 1", src.Calls)
	}
}

func TestReceiveListing_EmptyFrame(t *testing.T) {
	got, err := ReceiveListing(&SliceSource{})
	if err != nil {
		t.Fatalf("ReceiveListing: %v", err)
	}
	if got != "" {
		t.Errorf("listing = %q, want empty", got)
	}
}

func TestReceiveFile_SingleChunk(t *testing.T) {
	var out bytes.Buffer
	src := &SliceSource{Chunks: [][]byte{[]byte("hello\x00"), {}}}

	stats, err := ReceiveFile(src, &out, nil)
	if err != nil {
		t.Fatalf("ReceiveFile: %v", err)
	}
	if out.String() != "hello" {
		t.Errorf("file = %q, want hello", out.String())
	}
	if stats.Chunks != 1 || stats.Bytes != 5 || stats.RawBytes != 6 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReceiveFile_ChunksConcatenatedUntilEmpty(t *testing.T) {
	full := bytes.Repeat([]byte("x"), wire.FileChunkSize)
	last := make([]byte, wire.FileChunkSize)
	copy(last, "end")

	src := &SliceSource{Chunks: [][]byte{full, full, last, {}, []byte("after end")}}

	var progressCalls int
	var out bytes.Buffer
	stats, err := ReceiveFile(src, &out, func(chunks, written int64) {
		progressCalls++
		if chunks != int64(progressCalls) {
			t.Errorf("progress chunks = %d, want %d", chunks, progressCalls)
		}
	})
	if err != nil {
		t.Fatalf("ReceiveFile: %v", err)
	}

	want := append(append(bytes.Clone(full), full...), "end"...)
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("output length = %d, want %d", out.Len(), len(want))
	}
	if stats.Chunks != 3 {
		t.Errorf("Chunks = %d, want 3", stats.Chunks)
	}
	if progressCalls != 3 {
		t.Errorf("progress called %d times, want 3", progressCalls)
	}
	if len(src.Chunks) != 1 {
		t.Error("reception must stop at the first zero-length chunk")
	}
}

func TestReceiveFile_ChunkStrippedAtFirstNull(t *testing.T) {
	var out bytes.Buffer
	src := &SliceSource{Chunks: [][]byte{[]byte("ab\x00cd"), []byte("ef"), {}}}

	if _, err := ReceiveFile(src, &out, nil); err != nil {
		t.Fatalf("ReceiveFile: %v", err)
	}
	if out.String() != "abef" {
		t.Errorf("file = %q, want abef", out.String())
	}
}

type errSource struct{}

func (errSource) Next(int) ([]byte, error) { return nil, errors.New("connection reset") }

func TestReceiveFile_SourceError(t *testing.T) {
	_, err := ReceiveFile(errSource{}, &bytes.Buffer{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestInsertSuffix(t *testing.T) {
	tests := map[string]string{
		"report.txt":     "report_new.txt",
		"report_new.txt": "report_new_new.txt",
		"archive.tar.gz": "archive_new.tar.gz",
		"README":         "README_new",
		".bashrc":        "_new.bashrc",
	}
	for in, want := range tests {
		if got := InsertSuffix(in); got != want {
			t.Errorf("InsertSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

type setExister map[string]bool

func (s setExister) Exists(name string) (bool, error) { return s[name], nil }

func TestResolveName(t *testing.T) {
	tests := []struct {
		name           string
		existing       setExister
		requested      string
		want           string
		wantCollisions int
	}{
		{"free", setExister{}, "report.txt", "report.txt", 0},
		{"one collision", setExister{"report.txt": true}, "report.txt", "report_new.txt", 1},
		{
			"two collisions",
			setExister{"report.txt": true, "report_new.txt": true},
			"report.txt", "report_new_new.txt", 2,
		},
		{"no extension", setExister{"notes": true}, "notes", "notes_new", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, collisions, err := ResolveName(tt.existing, tt.requested)
			if err != nil {
				t.Fatalf("ResolveName: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveName = %q, want %q", got, tt.want)
			}
			if len(collisions) != tt.wantCollisions {
				t.Errorf("collisions = %v, want %d", collisions, tt.wantCollisions)
			}
		})
	}
}

func TestOpenDestination_OnDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "report.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	dest, err := OpenDestination(Dir(dir), "report.txt")
	if err != nil {
		t.Fatalf("OpenDestination: %v", err)
	}
	if dest.Name != "report_new.txt" {
		t.Errorf("Name = %q, want report_new.txt", dest.Name)
	}

	src := &SliceSource{Chunks: [][]byte{[]byte("hello\x00"), {}}}
	if _, err := ReceiveFile(src, dest, nil); err != nil {
		t.Fatalf("ReceiveFile: %v", err)
	}
	if err := dest.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := dest.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "report_new.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("file contents = %q, want hello", data)
	}

	old, _ := os.ReadFile(filepath.Join(dir, "report.txt"))
	if string(old) != "old" {
		t.Error("existing file must not be touched")
	}
}
