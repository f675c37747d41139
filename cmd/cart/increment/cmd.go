// Package incrementcmd implements the `cart increment` command.
package incrementcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/service"
)

// Command implements `cart increment`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the increment command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "increment <product-id>",
		Short: "Add one unit of a product already in the cart",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := service.New(cmd.Context(), c.ctx.CartHome)
	if err != nil {
		return err
	}
	defer svc.Close()

	p, found, err := svc.Increment(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(cmd.OutOrStdout(), "No product %s in cart\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Incremented: %s (qty: %d)\n", shared.Label(&p), p.Quantity)
	return nil
}
