// Package clearcmd implements the `cart clear` command.
package clearcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/service"
)

// Command implements `cart clear`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	forget bool
}

// New creates the clear command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.forget, "forget", false, "Also delete the saved cart from storage")
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

	n := len(svc.Products())
	out := cmd.OutOrStdout()
	if c.forget {
		if err := svc.Forget(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Cleared %d item(s) and removed the saved cart\n", n)
		return nil
	}
	if err := svc.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cleared %d item(s) from cart\n", n)
	return nil
}
