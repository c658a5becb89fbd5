package transfer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pithecene-io/ftclient/iox"
)

// CollisionSuffix is inserted into a destination name that already exists.
const CollisionSuffix = "_new"

// maxCollisions bounds the rename loop.
const maxCollisions = 1000

// Exister reports whether a name is taken in the destination directory.
type Exister interface {
	Exists(name string) (bool, error)
}

// Dir is a destination directory on the local filesystem.
type Dir string

// Exists reports whether name exists in d.
func (d Dir) Exists(name string) (bool, error) {
	_, err := os.Lstat(d.path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Create creates name in d for writing. It fails if name already exists.
func (d Dir) Create(name string) (*os.File, error) {
	return os.OpenFile(d.path(name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
}

func (d Dir) path(name string) string {
	if d == "" {
		return name
	}
	return filepath.Join(string(d), name)
}

// InsertSuffix inserts CollisionSuffix before the first '.' in name, or at
// the end when name has no '.'. "report.txt" becomes "report_new.txt" and
// "archive.tar.gz" becomes "archive_new.tar.gz".
func InsertSuffix(name string) string {
	idx := strings.IndexByte(name, '.')
	if idx == -1 {
		idx = len(name)
	}
	return name[:idx] + CollisionSuffix + name[idx:]
}

// ResolveName returns the first name, starting from requested, that does not
// exist in ex. Every colliding candidate is returned in order.
func ResolveName(ex Exister, requested string) (string, []string, error) {
	name := requested
	var collisions []string
	for range maxCollisions {
		exists, err := ex.Exists(name)
		if err != nil {
			return "", collisions, fmt.Errorf("check destination %q: %w", name, err)
		}
		if !exists {
			return name, collisions, nil
		}
		collisions = append(collisions, name)
		name = InsertSuffix(name)
	}
	return "", collisions, fmt.Errorf("no free destination name for %q after %d attempts", requested, maxCollisions)
}

// Destination is a created destination file.
type Destination struct {
	// Name is the final file name, relative to the destination directory.
	Name string
	// Path is the file path as opened.
	Path string
	// Collisions lists names that were taken.
	Collisions []string

	file   io.Writer
	closer *iox.OnceCloser
}

// OpenDestination resolves a free name for requested in dir and creates it.
func OpenDestination(dir Dir, requested string) (*Destination, error) {
	name, collisions, err := ResolveName(dir, requested)
	if err != nil {
		return nil, err
	}
	f, err := dir.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create destination %q: %w", name, err)
	}
	return &Destination{
		Name:       name,
		Path:       dir.path(name),
		Collisions: collisions,
		file:       f,
		closer:     iox.NewOnceCloser(f),
	}, nil
}

// Write appends p to the destination file.
func (d *Destination) Write(p []byte) (int, error) {
	return d.file.Write(p)
}

// Close closes the destination file. Safe to call more than once.
func (d *Destination) Close() error {
	return d.closer.Close()
}
