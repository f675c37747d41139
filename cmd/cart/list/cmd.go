// Package listcmd implements the `cart list` command.
package listcmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/models"
	"github.com/go-ports/gomarket/internal/service"
)

// Command implements `cart list`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	asJSON bool
}

// New creates the list command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the products in the cart",
		RunE:    c.run,
	}
	c.cmd.Flags().BoolVar(&c.asJSON, "json", false, "Print the cart as JSON")
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

	products := svc.Products()
	summary := svc.Summary()
	out := cmd.OutOrStdout()

	if c.asJSON {
		b, err := json.MarshalIndent(struct {
			Products []models.Product `json:"products"`
			Summary  models.Summary   `json:"summary"`
		}{products, summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}

	if len(products) == 0 {
		fmt.Fprintln(out, "Cart is empty.")
		return nil
	}

	fmt.Fprintln(out, shared.RenderTable(out, products))
	fmt.Fprintf(out, "%d items, %d units, total %.2f\n", summary.Lines, summary.Units, summary.Total)
	return nil
}
