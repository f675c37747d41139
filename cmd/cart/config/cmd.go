// Package configcmd implements the `cart config` command group.
package configcmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/config"
)

const configTemplate = `# GoMarket cart configuration

storage:
  key: "@GoMarket:products"     # slot the cart list is saved under
  driver: sqlite3               # sqlite3 (cgo) or sqlite (pure Go)
  clear_on_start: false         # wipe all stored keys every time the cart loads

cart:
  remove_at_zero: false         # drop a product when decrement reaches zero
`

// report is the effective configuration of one cart home, as printed by
// `cart config`.
type report struct {
	CartHome     string        `yaml:"cart_home"`
	HomeSource   config.Source `yaml:"cart_home_source"`
	ConfigFile   string        `yaml:"config_file"`
	ConfigExists bool          `yaml:"config_file_exists"`
	Storage      struct {
		Path         string `yaml:"path"`
		Driver       string `yaml:"driver"`
		Key          string `yaml:"key"`
		ClearOnStart bool   `yaml:"clear_on_start"`
	} `yaml:"storage"`
	Cart struct {
		RemoveAtZero bool `yaml:"remove_at_zero"`
	} `yaml:"cart"`
	Receipts string `yaml:"receipts"`
}

func newReport(home config.Home, cfg *config.CartHomeConfig) report {
	r := report{
		CartHome:   home.Dir,
		HomeSource: home.Source,
		ConfigFile: home.ConfigPath(),
		Receipts:   home.ReceiptsPath(),
	}
	_, err := os.Stat(home.ConfigPath())
	r.ConfigExists = err == nil
	r.Storage.Path = home.StoragePath()
	r.Storage.Driver = cfg.Storage.Driver
	r.Storage.Key = cfg.Storage.Key
	r.Storage.ClearOnStart = cfg.Storage.ClearOnStart
	r.Cart.RemoveAtZero = cfg.Cart.RemoveAtZero
	return r
}

// Command implements `cart config`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the config command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Show the effective cart configuration or manage it",
		Long: "Without a subcommand, prints where the cart lives and the settings\n" +
			"it is loaded with, after defaults and config.yaml are combined.",
		RunE: c.runShow,
	}
	c.cmd.AddCommand(
		c.newInit(),
		newSetHome(),
		newClearHome(),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	home := config.ResolveHome(c.ctx.CartHome)
	cfg, err := config.Load(home.ConfigPath())
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(newReport(home, cfg))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

// ---------------------------------------------------------------------------
// config init
// ---------------------------------------------------------------------------

func (c *Command) newInit() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config.yaml into the cart home",
		RunE: func(cmd *cobra.Command, _ []string) error {
			home := config.ResolveHome(c.ctx.CartHome)
			out := cmd.OutOrStdout()

			_, err := os.Stat(home.ConfigPath())
			exists := err == nil
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if exists && !force {
				fmt.Fprintf(out, "Config already exists at %s\n", home.ConfigPath())
				fmt.Fprintln(out, "Use --force to overwrite.")
				return describe(out, home)
			}

			if err := os.MkdirAll(home.Dir, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(home.ConfigPath(), []byte(configTemplate), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", home.ConfigPath())
			return describe(out, home)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}

// describe prints where the cart in home is stored, as its config says.
func describe(out io.Writer, home config.Home) error {
	cfg, err := config.Load(home.ConfigPath())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Cart is stored in %s (%s driver) under key %s\n",
		home.StoragePath(), cfg.Storage.Driver, cfg.Storage.Key)
	return nil
}

// ---------------------------------------------------------------------------
// config set-home / clear-home
// ---------------------------------------------------------------------------

func newSetHome() *cobra.Command {
	return &cobra.Command{
		Use:   "set-home <path>",
		Short: "Remember a cart home for when --cart-home and " + config.HomeEnv + " are unset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.RememberHome(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cart home set to %s (%s still takes precedence)\n", dir, config.HomeEnv)
			return nil
		},
	}
}

func newClearHome() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-home",
		Short: "Forget the remembered cart home",
		RunE: func(cmd *cobra.Command, _ []string) error {
			forgot, err := config.ForgetHome()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !forgot {
				fmt.Fprintln(out, "No cart home was remembered.")
				return nil
			}
			fmt.Fprintf(out, "Forgot the remembered cart home; now using %s\n", config.ResolveHome("").Dir)
			return nil
		},
	}
}
