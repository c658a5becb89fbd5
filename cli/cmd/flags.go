// Package cmd provides CLI commands for the ftclient binary.
package cmd

import "github.com/urfave/cli/v2"

// Output flags shared by all commands.
var (
	// FormatFlag selects output format: text, json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for list and get.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (list, get only)",
	}
)

// OutputFlags returns the shared output flags.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// SessionFlags returns the flags accepted by commands that open a session.
// Unset flags fall back to the config file, then to built-in defaults.
func SessionFlags() []cli.Flag {
	flags := []cli.Flag{
		// Connection flags
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"H"},
			Usage:   "Server host",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Server control port",
		},
		&cli.IntFlag{
			Name:    "data-port",
			Aliases: []string{"d"},
			Usage:   "Local data port the server connects back to (0 picks a free port, flags dialect only)",
		},
		&cli.StringFlag{
			Name:  "identity",
			Usage: "Client identity sent in the handshake (default: hostname)",
		},
		&cli.StringFlag{
			Name:  "dialect",
			Usage: "Command spelling: flags (-l/-g) or verb (list/get)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Bound each blocking network step (0 waits indefinitely)",
		},

		// Archive flags
		&cli.StringFlag{
			Name:  "archive-backend",
			Usage: "Archive backend: fs or s3 (empty disables archiving)",
		},
		&cli.StringFlag{
			Name:  "archive-path",
			Usage: "Archive root directory (fs) or bucket[/prefix] (s3)",
		},
		&cli.StringFlag{
			Name:  "archive-dataset",
			Usage: "Archive dataset name",
		},
		&cli.StringFlag{
			Name:  "archive-region",
			Usage: "AWS region for the s3 backend",
		},
		&cli.StringFlag{
			Name:  "archive-endpoint",
			Usage: "Custom S3 endpoint (MinIO, R2, LocalStack)",
		},
		&cli.BoolFlag{
			Name:  "archive-s3-path-style",
			Usage: "Use path-style S3 addressing",
		},

		// Notify flags
		&cli.StringFlag{
			Name:  "notify-type",
			Usage: "Notification adapter: webhook or redis (empty disables notifications)",
		},
		&cli.StringFlag{
			Name:  "notify-url",
			Usage: "Webhook endpoint or redis://[:password@]host:port[/db]",
		},
		&cli.StringFlag{
			Name:  "notify-channel",
			Usage: "Redis pub/sub channel",
		},
		&cli.StringSliceFlag{
			Name:  "notify-header",
			Usage: "Webhook header as KEY=VALUE (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "notify-timeout",
			Usage: "Per-attempt notification timeout",
		},
		&cli.IntFlag{
			Name:  "notify-retries",
			Usage: "Notification retry attempts",
		},

		// Diagnostics
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log warnings and errors",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log debug messages, including per-chunk progress",
		},
		&cli.BoolFlag{
			Name:  "stats",
			Usage: "Print session counters to stderr when done",
		},
	}
	return append(flags, OutputFlags()...)
}
