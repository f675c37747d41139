// Package statuscmd implements the `cart status` command.
package statuscmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/service"
)

// Command implements `cart status`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the status command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "status",
		Short: "Show where the cart is stored and when it was last saved",
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := service.New(ctx, c.ctx.CartHome)
	if err != nil {
		return err
	}
	defer svc.Close()

	keys, err := svc.StorageKeys(ctx)
	if err != nil {
		return err
	}
	saved, ok, err := svc.LastSaved(ctx)
	if err != nil {
		return err
	}

	lastSaved := "never"
	if ok {
		lastSaved = saved.Local().Format(time.DateTime)
	}
	if len(keys) == 0 {
		keys = []string{"(none)"}
	}
	sum := svc.Summary()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cart home:  %s (%s)\n", svc.CartHome, svc.HomeSource)
	fmt.Fprintf(out, "Driver:     %s\n", svc.Config.Storage.Driver)
	fmt.Fprintf(out, "Key:        %s\n", svc.Cart().Key())
	fmt.Fprintf(out, "Keys:       %s\n", strings.Join(keys, ", "))
	fmt.Fprintf(out, "Last saved: %s\n", lastSaved)
	fmt.Fprintf(out, "Contents:   %d items, %d units, total %.2f\n", sum.Lines, sum.Units, sum.Total)
	return nil
}
