package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/ftclient/adapter"
	"github.com/pithecene-io/ftclient/adapter/redis"
	"github.com/pithecene-io/ftclient/adapter/webhook"
	"github.com/pithecene-io/ftclient/cli/config"
	"github.com/pithecene-io/ftclient/cli/render"
	"github.com/pithecene-io/ftclient/iox"
	"github.com/pithecene-io/ftclient/lode"
	"github.com/pithecene-io/ftclient/log"
	"github.com/pithecene-io/ftclient/metrics"
	"github.com/pithecene-io/ftclient/session"
	"github.com/pithecene-io/ftclient/types"
)

// Exit codes for list and get.
const (
	exitSuccess      = 0
	exitFailure      = 1 // transport or protocol failure
	exitInvalidInput = 2
	exitRejected     = 3
	exitNotFound     = 4
)

// invocation is one prepared session plus the resources it owns.
type invocation struct {
	file      *config.Config
	request   types.Request
	meta      *types.SessionMeta
	logger    *log.Logger
	collector *metrics.Collector
	session   session.Config
	closers   []io.Closer
}

// prepare merges flags over the config file, validates the request and
// builds the session's collaborators. Errors are cli.Exit values.
func prepare(c *cli.Context, op types.Operation, fileName string) (*invocation, error) {
	file, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("config: %v", err), exitInvalidInput)
	}

	req, err := buildRequest(c, file, op, fileName)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid input: %v", err), exitInvalidInput)
	}

	inv := &invocation{
		file:    file,
		request: req,
		meta:    types.NewSessionMeta(req.Identity, req.Addr()),
	}
	inv.logger = log.New(inv.meta, log.Options{
		Output: c.App.ErrWriter,
		Level:  logLevel(c),
	})
	inv.collector = metrics.NewCollector(inv.meta.Server, string(op), inv.meta.SessionID)

	inv.session = session.Config{
		Request:   req,
		Meta:      inv.meta,
		Dir:       stringOpt(c, "dir", file.Dir, "."),
		Timeout:   durationOpt(c, "timeout", file.Timeout.Duration),
		Logger:    inv.logger,
		Collector: inv.collector,
	}
	if c.Bool("verbose") {
		sugar := inv.logger.Sugar()
		inv.session.Progress = func(chunks, bytes int64) {
			sugar.Debugf("received chunk %d (%d bytes total)", chunks, bytes)
		}
	}

	if err := inv.buildArchiver(c); err != nil {
		inv.Close()
		return nil, cli.Exit(fmt.Sprintf("archive: %v", err), exitInvalidInput)
	}
	if err := inv.buildNotifier(c); err != nil {
		inv.Close()
		return nil, cli.Exit(fmt.Sprintf("notify: %v", err), exitInvalidInput)
	}
	return inv, nil
}

func buildRequest(c *cli.Context, file *config.Config, op types.Operation, fileName string) (types.Request, error) {
	dialect, err := types.ParseDialect(stringOpt(c, "dialect", file.Dialect, ""))
	if err != nil {
		return types.Request{}, err
	}
	identity := stringOpt(c, "identity", file.Identity, "")
	if identity == "" {
		// The server connects back to the identity.
		identity, _ = os.Hostname()
	}
	req := types.Request{
		Host:      stringOpt(c, "host", file.Server, ""),
		Port:      intOpt(c, "port", file.Port),
		Operation: op,
		FileName:  fileName,
		DataPort:  intOpt(c, "data-port", file.DataPort),
		Identity:  identity,
		Dialect:   dialect,
	}
	return req, req.Validate()
}

func (inv *invocation) buildArchiver(c *cli.Context) error {
	a := inv.file.Archive
	backend := stringOpt(c, "archive-backend", a.Backend, "")
	if backend == "" {
		return nil
	}

	cfg := lode.Config{
		Dataset:   stringOpt(c, "archive-dataset", a.Dataset, lode.DefaultDataset),
		Server:    inv.meta.Server,
		Day:       lode.DeriveDay(time.Now()),
		SessionID: inv.meta.SessionID,
	}
	path := stringOpt(c, "archive-path", a.Path, "")
	if path == "" {
		return errors.New("archive path is required")
	}

	var client *lode.Client
	var err error
	switch backend {
	case "fs":
		client, err = lode.NewClient(cfg, path)
	case "s3":
		bucket, prefix := lode.ParseS3Path(path)
		client, err = lode.NewS3Client(c.Context, cfg, lode.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       stringOpt(c, "archive-region", a.Region, ""),
			Endpoint:     stringOpt(c, "archive-endpoint", a.Endpoint, ""),
			UsePathStyle: boolOpt(c, "archive-s3-path-style", a.S3PathStyle),
		})
	default:
		return fmt.Errorf("unknown backend %q (must be fs or s3)", backend)
	}
	if err != nil {
		return err
	}

	inv.session.Archiver = client
	inv.closers = append(inv.closers, client)
	return nil
}

func (inv *invocation) buildNotifier(c *cli.Context) error {
	n := inv.file.Notify
	kind := stringOpt(c, "notify-type", n.Type, "")
	if kind == "" {
		return nil
	}

	url := stringOpt(c, "notify-url", n.URL, "")
	timeout := durationOpt(c, "notify-timeout", n.Timeout.Duration)

	var a adapter.Adapter
	var err error
	switch kind {
	case "webhook":
		headers, herr := mergeHeaders(n.Headers, c.StringSlice("notify-header"))
		if herr != nil {
			return herr
		}
		a, err = webhook.New(webhook.Config{
			URL:     url,
			Headers: headers,
			Timeout: timeout,
			Retries: retriesOpt(c, n.Retries, webhook.DefaultRetries),
		})
	case "redis":
		a, err = redis.New(redis.Config{
			URL:     url,
			Channel: stringOpt(c, "notify-channel", n.Channel, ""),
			Timeout: timeout,
			Retries: retriesOpt(c, n.Retries, redis.DefaultRetries),
		})
	default:
		return fmt.Errorf("unknown type %q (must be webhook or redis)", kind)
	}
	if err != nil {
		return err
	}

	inv.session.Notifier = a
	inv.closers = append(inv.closers, a)
	return nil
}

// execute runs the session and maps its terminal state to an exit error.
// The result is returned for rendering whenever the session ran.
func (inv *invocation) execute(c *cli.Context) (*session.Result, error) {
	orch, err := session.New(inv.session)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitInvalidInput)
	}
	res, err := orch.Execute(c.Context)
	if c.Bool("stats") {
		inv.renderStats(c)
	}
	if err != nil {
		return res, cli.Exit(fmt.Sprintf("%s: %v", inv.request.Addr(), err), exitFailure)
	}

	switch {
	case errors.Is(res.Err(), session.ErrCommandRejected):
		return res, cli.Exit(fmt.Sprintf("%s received incorrect command", inv.request.Addr()), exitRejected)
	case errors.Is(res.Err(), session.ErrFileNotFound):
		return res, cli.Exit(fmt.Sprintf("'%s' not found in directory", inv.request.FileName), exitNotFound)
	}
	return res, nil
}

func (inv *invocation) renderStats(c *cli.Context) {
	w := c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	r := render.NewRendererWithWriter(render.FormatTable, true, w)
	if err := r.Render(inv.collector.Snapshot()); err != nil {
		inv.logger.Warn("render stats failed", map[string]any{"error": err.Error()})
	}
}

// Close releases the archiver and notifier and flushes the logger.
func (inv *invocation) Close() {
	for _, c := range inv.closers {
		if err := c.Close(); err != nil {
			inv.logger.Warn("close failed", map[string]any{"error": err.Error()})
		}
	}
	iox.DiscardErr(inv.logger.Sync)
}

func logLevel(c *cli.Context) zapcore.Level {
	switch {
	case c.Bool("verbose"):
		return zapcore.DebugLevel
	case c.Bool("quiet"):
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func mergeHeaders(base map[string]string, pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(base)+len(pairs))
	for k, v := range base {
		headers[k] = v
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q (want KEY=VALUE)", p)
		}
		headers[k] = v
	}
	return headers, nil
}

func stringOpt(c *cli.Context, flag, fromConfig, def string) string {
	if c.IsSet(flag) {
		return c.String(flag)
	}
	if fromConfig != "" {
		return fromConfig
	}
	return def
}

func intOpt(c *cli.Context, flag string, fromConfig int) int {
	if c.IsSet(flag) {
		return c.Int(flag)
	}
	return fromConfig
}

func boolOpt(c *cli.Context, flag string, fromConfig bool) bool {
	if c.IsSet(flag) {
		return c.Bool(flag)
	}
	return fromConfig
}

func durationOpt(c *cli.Context, flag string, fromConfig time.Duration) time.Duration {
	if c.IsSet(flag) {
		return c.Duration(flag)
	}
	return fromConfig
}

func retriesOpt(c *cli.Context, fromConfig *int, def int) int {
	if c.IsSet("notify-retries") {
		return c.Int("notify-retries")
	}
	if fromConfig != nil {
		return *fromConfig
	}
	return def
}
