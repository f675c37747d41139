// Package watchcmd implements the `cart watch` command.
package watchcmd

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/models"
	"github.com/go-ports/gomarket/internal/service"
	"github.com/go-ports/gomarket/internal/watch"
)

// Command implements `cart watch`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	debounce time.Duration
}

// New creates the watch command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "watch",
		Short: "Print the cart whenever another process changes it",
		Long: "Keeps the cart open and re-prints it each time its storage is written,\n" +
			"for example by `cart add` in another terminal or by the MCP server.\n" +
			"Stop with Ctrl-C.",
		RunE: c.run,
	}
	c.cmd.Flags().DurationVar(&c.debounce, "debounce", watch.DefaultDebounce, "Quiet period before reloading")
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

	out := cmd.OutOrStdout()
	var (
		last    []models.Product
		printed bool
	)
	show := func(products []models.Product) {
		if printed && slices.Equal(last, products) {
			return
		}
		last, printed = products, true

		sum := models.Summarize(products)
		fmt.Fprintf(out, "[%s] %d items, %d units, total %.2f\n",
			time.Now().Format(time.TimeOnly), sum.Lines, sum.Units, sum.Total)
		if len(products) > 0 {
			fmt.Fprintln(out, shared.RenderTable(out, products))
		}
	}

	show(svc.Products())
	unsubscribe := svc.Cart().Subscribe(show)
	defer unsubscribe()

	fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", svc.CartHome)
	return watch.Run(ctx, svc.CartHome, watch.Options{
		Files:    svc.StorageFiles(),
		Debounce: c.debounce,
	}, func() {
		if err := svc.Reload(ctx); err != nil {
			slog.Warn("watch: reload failed", "err", err)
		}
	})
}
