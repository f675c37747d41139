// Package exportcmd implements the `cart export` command.
package exportcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/service"
)

// Command implements `cart export`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	show  bool
	width int
}

// New creates the export command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "export",
		Short: "Write a markdown receipt of the cart",
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.show, "show", false, "Print the receipt instead of writing a file")
	c.cmd.Flags().IntVar(&c.width, "width", 80, "Wrap width for --show")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(cmd.Context(), c.ctx.CartHome)
	if err != nil {
		return err
	}
	defer svc.Close()

	if c.show {
		out, err := svc.Preview(c.width)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}

	path, err := svc.Export()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Receipt: %s\n", path)
	return nil
}
