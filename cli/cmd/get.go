package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ftclient/cli/render"
	"github.com/pithecene-io/ftclient/cli/tui"
	"github.com/pithecene-io/ftclient/session"
	"github.com/pithecene-io/ftclient/types"
)

// GetCommand returns the get command.
// It downloads one file into --dir, never overwriting an existing file.
func GetCommand() *cli.Command {
	flags := append(SessionFlags(), &cli.StringFlag{
		Name:  "dir",
		Usage: "Destination directory (default: current directory)",
	})
	return &cli.Command{
		Name:      "get",
		Usage:     "Download a file from the server",
		ArgsUsage: "FILE",
		Flags:     flags,
		Action:    getAction,
	}
}

func getAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("get requires exactly one FILE argument", exitInvalidInput)
	}

	inv, err := prepare(c, types.OpGet, c.Args().First())
	if err != nil {
		return err
	}
	defer inv.Close()

	r, err := render.NewRenderer(c, inv.file.Format)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}

	res, err := inv.execute(c)
	if err != nil {
		return err
	}

	switch {
	case c.Bool("tui"):
		return r.RenderTUI(tui.ViewSummary, res.Record)
	case r.Format() == render.FormatText:
		return printGetResult(r, res)
	default:
		return r.Render(res.Record)
	}
}

func printGetResult(r *render.Renderer, res *session.Result) error {
	w := r.Writer()
	for _, name := range res.Collisions {
		if _, err := fmt.Fprintf(w, "'%s' already exists in your directory.\n", name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "received '%s' as '%s' (%d bytes, %d chunks, %s)\n",
		res.Record.RemoteName,
		res.LocalName,
		res.Stats.Bytes,
		res.Stats.Chunks,
		res.Duration.Round(time.Millisecond),
	)
	return err
}
