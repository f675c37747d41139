// Package rootcmd wires the root cobra.Command for the cart CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	addcmd "github.com/go-ports/gomarket/cmd/cart/add"
	agentscmd "github.com/go-ports/gomarket/cmd/cart/agents"
	clearcmd "github.com/go-ports/gomarket/cmd/cart/clear"
	configcmd "github.com/go-ports/gomarket/cmd/cart/config"
	decrementcmd "github.com/go-ports/gomarket/cmd/cart/decrement"
	exportcmd "github.com/go-ports/gomarket/cmd/cart/export"
	incrementcmd "github.com/go-ports/gomarket/cmd/cart/increment"
	initcmd "github.com/go-ports/gomarket/cmd/cart/init"
	listcmd "github.com/go-ports/gomarket/cmd/cart/list"
	mcpcmd "github.com/go-ports/gomarket/cmd/cart/mcp"
	removecmd "github.com/go-ports/gomarket/cmd/cart/remove"
	"github.com/go-ports/gomarket/cmd/cart/shared"
	statuscmd "github.com/go-ports/gomarket/cmd/cart/status"
	versioncmd "github.com/go-ports/gomarket/cmd/cart/version"
	watchcmd "github.com/go-ports/gomarket/cmd/cart/watch"
)

// New creates and returns the root cobra.Command for the cart CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "cart",
		Short:         "GoMarket — local shopping cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.CartHome, "cart-home", "",
		"Override cart home directory (default: $CART_HOME env → persisted config → ~/.gomarket)",
	)

	root.AddCommand(
		initcmd.New(ctx).Cmd(),
		addcmd.New(ctx).Cmd(),
		incrementcmd.New(ctx).Cmd(),
		decrementcmd.New(ctx).Cmd(),
		removecmd.New(ctx).Cmd(),
		listcmd.New(ctx).Cmd(),
		clearcmd.New(ctx).Cmd(),
		exportcmd.New(ctx).Cmd(),
		statuscmd.New(ctx).Cmd(),
		watchcmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
		agentscmd.New(ctx).Cmd(),
		versioncmd.New(ctx).Cmd(),
	)

	return root
}
