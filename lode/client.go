// Package lode archives received payloads to a Lode store.
//
// Files land at Hive-partitioned paths:
//
//	datasets/<dataset>/partitions/server=<s>/day=<d>/session_id=<id>/files/<name>
//
// Each archived session also gets a msgpack manifest (manifest.msgpack) next
// to its files describing the transfer.
package lode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/ftclient/types"
)

// DefaultDataset is the dataset used when none is configured.
const DefaultDataset = "ftclient"

// DeriveDay derives the day partition from the session start time.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// Config holds the partition keys of one archived session.
type Config struct {
	// Dataset is the top-level dataset (default "ftclient").
	Dataset string
	// Server is the control channel address.
	Server string
	// Day is the UTC day partition (YYYY-MM-DD).
	Day string
	// SessionID is the session identifier.
	SessionID string
}

// Validate checks that all partition keys are present.
func (c *Config) Validate() error {
	if c.Server == "" {
		return errors.New("archive server partition is required")
	}
	if c.Day == "" {
		return errors.New("archive day partition is required")
	}
	if c.SessionID == "" {
		return errors.New("archive session_id partition is required")
	}
	return nil
}

// Archiver stores received payloads.
type Archiver interface {
	// PutFile writes a payload file into the session's files/ prefix.
	// The name must not contain path separators or "..".
	PutFile(ctx context.Context, name string, r io.Reader) error
	// PutManifest writes the session's transfer record.
	PutManifest(ctx context.Context, record *types.TransferRecord) error
}

// Client is a Lode-backed Archiver.
type Client struct {
	config       Config
	storeFactory lode.StoreFactory

	storeOnce sync.Once
	store     lode.Store
	storeErr  error
}

// NewClient creates an archive client with filesystem storage under root.
func NewClient(cfg Config, root string) (*Client, error) {
	return NewClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewClientWithFactory creates an archive client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewClientWithFactory(cfg Config, factory lode.StoreFactory) (*Client, error) {
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{config: cfg, storeFactory: factory}, nil
}

// PutFile writes r to the session's files/ prefix.
func (c *Client) PutFile(ctx context.Context, name string, r io.Reader) error {
	if err := validateName(name); err != nil {
		return err
	}
	store, err := c.getOrCreateStore()
	if err != nil {
		return err
	}

	path := c.FilePath(name)
	return WrapPutError(store.Put(ctx, path, r), path)
}

// PutManifest encodes record with msgpack and writes it next to the files.
func (c *Client) PutManifest(ctx context.Context, record *types.TransferRecord) error {
	data, err := EncodeManifest(record)
	if err != nil {
		return err
	}
	store, err := c.getOrCreateStore()
	if err != nil {
		return err
	}

	path := c.ManifestPath()
	return WrapPutError(store.Put(ctx, path, bytes.NewReader(data)), path)
}

// Close releases client resources.
func (c *Client) Close() error {
	// Stores don't require explicit close in the current Lode API
	return nil
}

// FilePath computes the Hive-partitioned path of a payload file.
func (c *Client) FilePath(name string) string {
	return c.sessionPrefix() + "/files/" + name
}

// ManifestPath computes the path of the session manifest.
func (c *Client) ManifestPath() string {
	return c.sessionPrefix() + "/" + ManifestName
}

func (c *Client) sessionPrefix() string {
	return fmt.Sprintf("datasets/%s/partitions/server=%s/day=%s/session_id=%s",
		c.config.Dataset,
		partitionValue(c.config.Server),
		c.config.Day,
		c.config.SessionID,
	)
}

// getOrCreateStore lazily initializes the Store from the factory.
func (c *Client) getOrCreateStore() (lode.Store, error) {
	c.storeOnce.Do(func() {
		c.store, c.storeErr = c.storeFactory()
		c.storeErr = WrapInitError(c.storeErr, c.config.Dataset)
	})
	return c.store, c.storeErr
}

// partitionValue makes a server address safe as a path segment.
func partitionValue(s string) string {
	return strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(s)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid archive file name %q", name)
	}
	return nil
}

// Verify Client implements Archiver.
var _ Archiver = (*Client)(nil)

// StubArchiver records archive calls for testing.
type StubArchiver struct {
	mu        sync.Mutex
	Files     []StubFile
	Manifests []*types.TransferRecord
	// Err, when set, is returned from every call.
	Err error
}

// StubFile is a recorded PutFile call.
type StubFile struct {
	Name string
	Data []byte
}

// NewStubArchiver creates a new stub archiver.
func NewStubArchiver() *StubArchiver {
	return &StubArchiver{}
}

// PutFile implements Archiver by recording the call.
func (s *StubArchiver) PutFile(_ context.Context, name string, r io.Reader) error {
	if s.Err != nil {
		return s.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Files = append(s.Files, StubFile{Name: name, Data: data})
	return nil
}

// PutManifest implements Archiver by recording the call.
func (s *StubArchiver) PutManifest(_ context.Context, record *types.TransferRecord) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Manifests = append(s.Manifests, record)
	return nil
}

// Verify StubArchiver implements Archiver.
var _ Archiver = (*StubArchiver)(nil)
