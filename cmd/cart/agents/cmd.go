// Package agentscmd implements the `cart agents` command group.
package agentscmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/go-ports/gomarket/cmd/cart/shared"
	"github.com/go-ports/gomarket/internal/agents"
)

var supported = []string{"claude-code", "cursor", "codex", "opencode"}

// Command implements `cart agents`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the agents command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "agents",
		Short: "Register the cart MCP server with a coding agent",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	c.cmd.AddCommand(newRegister(), newUnregister())
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

type flags struct {
	configDir string
	project   bool
}

func (f *flags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configDir, "config-dir", "", "Path to the agent's config directory (e.g. ~/.claude)")
	cmd.Flags().BoolVar(&f.project, "project", false, "Write to the current project instead of globally")
}

func newRegister() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:       "register <agent>",
		Short:     "Add the cart MCP server to an agent's config",
		Long:      "Supported agents: claude-code, cursor, codex, opencode.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: supported,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res agents.Result
				err error
			)
			switch args[0] {
			case "claude-code":
				res, err = agents.RegisterClaudeCode(resolveConfigDir(".claude", f), f.project)
			case "cursor":
				res, err = agents.RegisterCursor(resolveConfigDir(".cursor", f))
			case "codex":
				res, err = agents.RegisterCodex(resolveConfigDir(".codex", f))
			case "opencode":
				res, err = agents.RegisterOpencode(f.project)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newUnregister() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:       "unregister <agent>",
		Short:     "Remove the cart MCP server from an agent's config",
		Long:      "Supported agents: claude-code, cursor, codex, opencode.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: supported,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res agents.Result
				err error
			)
			switch args[0] {
			case "claude-code":
				res, err = agents.UnregisterClaudeCode(resolveConfigDir(".claude", f), f.project)
			case "cursor":
				res, err = agents.UnregisterCursor(resolveConfigDir(".cursor", f))
			case "codex":
				res, err = agents.UnregisterCodex(resolveConfigDir(".codex", f))
			case "opencode":
				res, err = agents.UnregisterOpencode(f.project)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func resolveConfigDir(dotDir string, f flags) string {
	if f.configDir != "" {
		return f.configDir
	}
	if f.project {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, dotDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dotDir)
}
