// Package addcmd implements the `cart add` command.
package addcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/models"
	"github.com/go-ports/gomarket/internal/service"
)

// Command implements `cart add`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	id       string
	title    string
	imageURL string
	price    float64
}

// New creates the add command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "add",
		Short: "Add one unit of a product to the cart",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.id, "id", "", "Product identifier (required)")
	f.StringVar(&c.title, "title", "", "Product display name")
	f.StringVar(&c.imageURL, "image-url", "", "Product image URL")
	f.Float64Var(&c.price, "price", 0, "Unit price")

	_ = c.cmd.MarkFlagRequired("id")

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

	p, err := svc.AddToCart(cmd.Context(), models.ProductInput{
		ID:       c.id,
		Title:    c.title,
		ImageURL: c.imageURL,
		Price:    c.price,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added: %s (qty: %d)\n", shared.Label(&p), p.Quantity)
	return nil
}
