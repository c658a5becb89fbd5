package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ftclient/cli/render"
	"github.com/pithecene-io/ftclient/cli/tui"
	"github.com/pithecene-io/ftclient/types"
)

// ListCommand returns the list command.
// It requests the server's directory listing and prints it to stdout.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "Print the server's directory listing",
		Flags:  SessionFlags(),
		Action: listAction,
	}
}

func listAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.Exit("list does not take arguments", exitInvalidInput)
	}

	inv, err := prepare(c, types.OpList, "")
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

	listing := types.NewListing(res.Meta.Server, res.Meta.SessionID, res.Listing)
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewListing, listing)
	}
	return r.Render(listing)
}
