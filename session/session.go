// Package session drives one client session over the control and data
// channels.
//
// Execution flow:
//  1. Connect the control channel and send the handshake
//  2. Read the command acknowledgement
//  3. list: listen, accept one data connection, read one listing frame
//  4. get: read the existence acknowledgement, then listen, accept, resolve
//     a free destination name and copy chunks until the peer closes
//  5. Optionally archive the payload and publish a notification
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pithecene-io/ftclient/adapter"
	"github.com/pithecene-io/ftclient/iox"
	"github.com/pithecene-io/ftclient/lode"
	"github.com/pithecene-io/ftclient/log"
	"github.com/pithecene-io/ftclient/metrics"
	"github.com/pithecene-io/ftclient/transfer"
	"github.com/pithecene-io/ftclient/transport"
	"github.com/pithecene-io/ftclient/types"
	"github.com/pithecene-io/ftclient/wire"
)

var (
	// ErrCommandRejected reports that the server answered the handshake with '0'.
	ErrCommandRejected = errors.New("command rejected by server")
	// ErrFileNotFound reports that the server does not have the requested file.
	ErrFileNotFound = errors.New("file not found on server")
)

// ListingArchiveName is the archive file name used for listings.
const ListingArchiveName = "listing.txt"

// sideChannelTimeout bounds archive and notify work after the transfer.
const sideChannelTimeout = 30 * time.Second

// Config configures a single session.
type Config struct {
	// Request is the validated invocation input.
	Request types.Request
	// Meta identifies the session. If nil, a new one is generated.
	Meta *types.SessionMeta
	// Dialer opens the control channel (default *net.Dialer).
	Dialer transport.Dialer
	// ListenConfig opens the data listener (default *net.ListenConfig).
	ListenConfig transport.ListenConfig
	// Dir is the destination directory for received files (default ".").
	Dir string
	// Timeout bounds each blocking network operation. Zero waits indefinitely.
	Timeout time.Duration
	// Logger receives state transitions. If nil, a stderr logger is created.
	Logger *log.Logger
	// Collector records counters. If nil, nothing is recorded.
	Collector *metrics.Collector
	// Archiver optionally stores the received payload and a manifest.
	Archiver lode.Archiver
	// Notifier optionally publishes a transfer completion event.
	Notifier adapter.Adapter
	// Progress is called after every file chunk. May be nil.
	Progress transfer.Progress
	// Now overrides the clock (for testing).
	Now func() time.Time
}

// Result is the terminal outcome of a session.
type Result struct {
	// Meta identifies the session.
	Meta *types.SessionMeta
	// State is the terminal state.
	State types.SessionState
	// Outcome summarizes State.
	Outcome types.Outcome
	// Transitions lists every state entered, in order, starting with init.
	Transitions []types.SessionState
	// Listing is the received listing text (list only).
	Listing string
	// LocalName is the destination file name (get only).
	LocalName string
	// LocalPath is the destination path as opened (get only).
	LocalPath string
	// Collisions lists destination names that were already taken.
	Collisions []string
	// Stats counts received file data.
	Stats transfer.FileStats
	// Duration is the total session duration.
	Duration time.Duration
	// Record is the transfer summary used for the manifest and notification.
	Record *types.TransferRecord
}

// Err maps non-success terminal states to sentinel errors.
func (r *Result) Err() error {
	switch r.State {
	case types.StateCommandRejected:
		return ErrCommandRejected
	case types.StateFileNotFound:
		return ErrFileNotFound
	default:
		return nil
	}
}

// Orchestrator runs one session. It is single-use.
type Orchestrator struct {
	cfg    Config
	req    *types.Request
	logger *log.Logger
	now    func() time.Time

	state  types.SessionState
	result *Result
}

// New validates cfg and returns an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.Request.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if cfg.Meta == nil {
		cfg.Meta = types.NewSessionMeta(cfg.Request.Identity, cfg.Request.Addr())
	}
	if err := cfg.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session metadata: %w", err)
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &net.Dialer{}
	}
	if cfg.ListenConfig == nil {
		cfg.ListenConfig = &net.ListenConfig{}
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewLogger(cfg.Meta)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	o := &Orchestrator{cfg: cfg, logger: cfg.Logger, now: cfg.Now}
	o.req = &o.cfg.Request
	return o, nil
}

// Execute runs the session to a terminal state. Rejection and not-found are
// reported through the Result with a nil error; transport and protocol faults
// return an error together with a Result in state failed.
func (o *Orchestrator) Execute(ctx context.Context) (*Result, error) {
	if o.result != nil {
		return nil, errors.New("session already executed")
	}
	start := o.now()
	o.result = &Result{Meta: o.cfg.Meta}
	o.transition(types.StateInit, nil)
	o.cfg.Collector.IncSessionStarted()

	o.logger.Info("starting session", map[string]any{
		"operation": string(o.req.Operation),
		"file":      o.req.FileName,
		"data_port": o.req.DataPort,
		"dialect":   string(o.req.Dialect),
	})

	err := o.run(ctx)
	o.result.Duration = o.now().Sub(start)

	if err != nil {
		o.transition(types.StateFailed, map[string]any{"error": err.Error()})
		o.cfg.Collector.IncSessionFailed()
	} else {
		o.cfg.Collector.IncSessionCompleted()
	}

	o.result.State = o.state
	o.result.Outcome = types.OutcomeFor(o.state)
	o.result.Record = o.record(start)

	if err == nil && (o.state == types.StateListingReceived || o.state == types.StateFileTransferComplete) {
		o.publish(ctx)
	}

	o.logger.Info("session finished", map[string]any{
		"state":       string(o.result.State),
		"outcome":     string(o.result.Outcome),
		"duration_ms": o.result.Duration.Milliseconds(),
	})
	return o.result, err
}

func (o *Orchestrator) run(ctx context.Context) error {
	// A zero data port must be bound before the command is sent, since the
	// command carries the port the server connects back to.
	var early *transport.DataListener
	if o.req.DataPort == 0 {
		ln, err := o.listen(ctx)
		if err != nil {
			return err
		}
		defer iox.DiscardClose(ln)
		o.req.DataPort = ln.Port()
		early = ln
	}

	control, err := transport.Connect(ctx, o.cfg.Dialer, o.req.Host, o.req.Port, o.cfg.Timeout)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(control)

	command := o.req.Command()
	o.warnTruncated("identity", o.req.Identity)
	o.warnTruncated("command", command)

	if err := control.SendHandshake(ctx, o.req.Identity, command); err != nil {
		return err
	}
	o.transition(types.StateHandshakeSent, map[string]any{"command": command})

	ack, err := control.AwaitAcknowledgement(ctx)
	if err != nil {
		return err
	}
	if !ack.Accepted() {
		o.cfg.Collector.IncCommandRejected()
		o.transition(types.StateCommandRejected, nil)
		return nil
	}
	o.transition(types.StateCommandAccepted, nil)

	switch o.req.Operation {
	case types.OpList:
		return o.receiveListing(ctx, early)
	case types.OpGet:
		return o.receiveFile(ctx, control, early)
	default:
		return fmt.Errorf("unsupported operation %q", o.req.Operation)
	}
}

func (o *Orchestrator) receiveListing(ctx context.Context, ln *transport.DataListener) error {
	data, err := o.acceptData(ctx, ln)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(data)
	o.transition(types.StateListingDataConnected, map[string]any{"peer": data.RemoteAddr().String()})

	listing, err := transfer.ReceiveListing(data)
	if err != nil {
		return err
	}
	o.result.Listing = listing
	o.cfg.Collector.IncListingReceived()
	o.cfg.Collector.AddBytes(int64(len(listing)))
	o.transition(types.StateListingReceived, map[string]any{"bytes": len(listing)})
	return nil
}

func (o *Orchestrator) receiveFile(ctx context.Context, control *transport.ControlChannel, ln *transport.DataListener) error {
	exists, err := control.AwaitAcknowledgement(ctx)
	if err != nil {
		return err
	}
	o.transition(types.StateExistenceChecked, map[string]any{"exists": exists.Accepted()})
	if !exists.Accepted() {
		o.cfg.Collector.IncFileNotFound()
		o.transition(types.StateFileNotFound, map[string]any{"file": o.req.FileName})
		return nil
	}

	data, err := o.acceptData(ctx, ln)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(data)
	o.transition(types.StateFileDataConnected, map[string]any{"peer": data.RemoteAddr().String()})

	dst, err := transfer.OpenDestination(transfer.Dir(o.cfg.Dir), o.req.FileName)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(dst)

	o.result.LocalName = dst.Name
	o.result.LocalPath = dst.Path
	o.result.Collisions = dst.Collisions
	if len(dst.Collisions) > 0 {
		o.cfg.Collector.AddNameCollisions(len(dst.Collisions))
		o.logger.Info("destination exists, writing under new name", map[string]any{
			"taken": dst.Collisions,
			"name":  dst.Name,
		})
	}

	stats, err := transfer.ReceiveFile(&countingSource{src: data, collector: o.cfg.Collector}, dst, o.cfg.Progress)
	o.result.Stats = stats
	if err != nil {
		return err
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close destination %q: %w", dst.Name, err)
	}

	o.cfg.Collector.IncFileReceived()
	o.transition(types.StateFileTransferComplete, map[string]any{
		"name":   dst.Name,
		"bytes":  stats.Bytes,
		"chunks": stats.Chunks,
	})
	return nil
}

// acceptData listens on the data port (unless ln is already bound) and
// accepts the single data connection.
func (o *Orchestrator) acceptData(ctx context.Context, ln *transport.DataListener) (*transport.DataConn, error) {
	if ln == nil {
		var err error
		ln, err = o.listen(ctx)
		if err != nil {
			return nil, err
		}
	}
	defer iox.DiscardClose(ln)

	return ln.AcceptOne(ctx)
}

func (o *Orchestrator) listen(ctx context.Context) (*transport.DataListener, error) {
	ln, err := transport.ListenOn(ctx, o.cfg.ListenConfig, o.req.DataPort, o.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("data listener bound", map[string]any{"port": ln.Port()})
	return ln, nil
}

func (o *Orchestrator) transition(to types.SessionState, fields map[string]any) {
	from := o.state
	o.state = to
	o.result.Transitions = append(o.result.Transitions, to)
	if from == "" {
		return
	}

	f := map[string]any{"from": string(from), "to": string(to)}
	for k, v := range fields {
		f[k] = v
	}
	o.logger.Debug("state transition", f)
}

func (o *Orchestrator) warnTruncated(field, value string) {
	if wire.Truncated(value) {
		o.logger.Warn("handshake field truncated", map[string]any{
			"field": field,
			"value": value,
			"width": wire.FieldWidth,
		})
	}
}

func (o *Orchestrator) record(start time.Time) *types.TransferRecord {
	r := o.result
	rec := &types.TransferRecord{
		Version:    types.Version,
		SessionID:  o.cfg.Meta.SessionID,
		Identity:   o.req.Identity,
		Server:     o.req.Addr(),
		Operation:  o.req.Operation,
		RemoteName: o.req.FileName,
		LocalName:  r.LocalName,
		Collisions: r.Collisions,
		Bytes:      r.Stats.Bytes,
		Chunks:     r.Stats.Chunks,
		State:      r.State,
		Outcome:    r.Outcome,
		StartedAt:  start.UTC(),
		DurationMs: r.Duration.Milliseconds(),
	}
	if o.req.Operation == types.OpList {
		rec.Bytes = int64(len(r.Listing))
	}
	return rec
}

// publish archives and notifies. Failures are logged and counted only.
func (o *Orchestrator) publish(ctx context.Context) {
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideChannelTimeout)
	defer cancel()

	archivePath := ""
	if o.cfg.Archiver != nil {
		archivePath = o.archive(sideCtx)
	}
	if o.cfg.Notifier != nil {
		event := adapter.NewTransferCompletedEvent(o.result.Record, archivePath, o.now())
		if err := o.cfg.Notifier.Publish(sideCtx, event); err != nil {
			o.cfg.Collector.IncNotifyFailure()
			o.logger.Warn("notification failed", map[string]any{"error": err.Error()})
		} else {
			o.cfg.Collector.IncNotifySuccess()
		}
	}
}

func (o *Orchestrator) archive(ctx context.Context) string {
	name := ListingArchiveName
	var payload io.ReadCloser
	if o.req.Operation == types.OpGet {
		name = o.result.LocalName
		f, err := os.Open(o.result.LocalPath)
		if err != nil {
			o.archiveFailed("open received file", err)
			return ""
		}
		payload = f
	} else {
		payload = io.NopCloser(strings.NewReader(o.result.Listing))
	}
	defer iox.DiscardClose(payload)

	if err := o.cfg.Archiver.PutFile(ctx, name, payload); err != nil {
		o.archiveFailed("archive payload", err)
		return ""
	}
	o.cfg.Collector.IncArchiveWriteSuccess()

	if err := o.cfg.Archiver.PutManifest(ctx, o.result.Record); err != nil {
		o.archiveFailed("archive manifest", err)
	} else {
		o.cfg.Collector.IncArchiveWriteSuccess()
	}

	if p, ok := o.cfg.Archiver.(interface{ FilePath(string) string }); ok {
		return p.FilePath(name)
	}
	return name
}

func (o *Orchestrator) archiveFailed(op string, err error) {
	o.cfg.Collector.IncArchiveWriteFailure()
	o.logger.Warn("archive failed", map[string]any{"op": op, "error": err.Error()})
}

// countingSource records every non-empty raw chunk in the collector.
type countingSource struct {
	src       transfer.ChunkSource
	collector *metrics.Collector
}

func (c *countingSource) Next(size int) ([]byte, error) {
	chunk, err := c.src.Next(size)
	if err == nil && len(chunk) > 0 {
		c.collector.AddChunk(int64(len(chunk)))
	}
	return chunk, err
}
