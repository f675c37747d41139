// Package agents registers and unregisters the cart MCP server with
// supported coding agents (Claude Code, Cursor, Codex, OpenCode).
package agents

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ServerName is the key the cart server is registered under in agent configs.
const ServerName = "gomarket"

// Result is the return value from all Register/Unregister functions.
type Result struct {
	Changed bool
	Message string
}

func changed(f string, a ...any) Result { return Result{Changed: true, Message: fmt.Sprintf(f, a...)} }
func unchanged(msg string) Result        { return Result{Message: msg} }

var mcpEntry = map[string]any{
	"command": "cart",
	"args":    []any{"mcp"},
	"type":    "stdio",
}

var opencodeEntry = map[string]any{
	"type":    "local",
	"command": []any{"cart", "mcp"},
}

// ---------------------------------------------------------------------------
// Default path helpers
// ---------------------------------------------------------------------------

// DefaultClaudeHome returns the default ~/.claude directory.
func DefaultClaudeHome() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// DefaultCursorHome returns the default ~/.cursor directory.
func DefaultCursorHome() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cursor")
}

// DefaultCodexHome returns the default ~/.codex directory.
func DefaultCodexHome() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codex")
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func writeJSON(path string, data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644) // #nosec G306 -- agent config files do not contain secrets
}

// addEntry sets data[section][ServerName] = entry unless already present.
func addEntry(path, section string, entry map[string]any) (bool, error) {
	data, err := readJSON(path)
	if err != nil {
		return false, err
	}
	servers, _ := data[section].(map[string]any)
	if servers == nil {
		servers = make(map[string]any)
		data[section] = servers
	}
	if _, exists := servers[ServerName]; exists {
		return false, nil
	}
	servers[ServerName] = entry
	return true, writeJSON(path, data)
}

// removeEntry deletes data[section][ServerName], pruning empty containers.
// The file itself is removed when nothing else is left in it.
func removeEntry(path, section string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	data, err := readJSON(path)
	if err != nil {
		return false, err
	}
	servers, _ := data[section].(map[string]any)
	if _, exists := servers[ServerName]; !exists {
		return false, nil
	}
	delete(servers, ServerName)
	if len(servers) == 0 {
		delete(data, section)
	}
	if len(data) == 0 {
		return true, os.Remove(path)
	}
	return true, writeJSON(path, data)
}

// ---------------------------------------------------------------------------
// TOML helpers
//
// Edits are text-based so comments and layout in the user's file survive;
// the parser is only used to detect an existing entry.
// ---------------------------------------------------------------------------

const tomlHeader = "[mcp_servers." + ServerName + "]"

const tomlSection = "\n" + tomlHeader + "\ncommand = \"cart\"\nargs = [\"mcp\"]\n"

func hasTOMLServer(path string, data []byte) (bool, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return md.IsDefined("mcp_servers", ServerName), nil
}

func appendTOMLSection(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	has, err := hasTOMLServer(path, data)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := f.WriteString(tomlSection); err != nil {
		return false, err
	}
	return true, nil
}

func removeTOMLSection(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	has, err := hasTOMLServer(path, data)
	if err != nil || !has {
		return false, err
	}
	// Drop the header and its key-value pairs up to the next table or EOF.
	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	inSection, found := false, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == tomlHeader {
			inSection, found = true, true
			continue
		}
		if inSection && strings.HasPrefix(trimmed, "[") {
			inSection = false
		}
		if !inSection {
			kept = append(kept, line)
		}
	}
	if !found {
		// Defined inline rather than as its own table; leave it alone.
		return false, nil
	}
	cleaned := strings.TrimRight(strings.Join(kept, "\n"), "\n") + "\n"
	return true, os.WriteFile(path, []byte(cleaned), 0o644) // #nosec G306 -- agent TOML config is not a credential file
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

//revive:disable:flag-parameter
func claudeMCPPath(claudeHome string, project bool) string {
	if project {
		return filepath.Join(filepath.Dir(claudeHome), ".mcp.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude.json")
}

func opencodeMCPPath(project bool) string {
	if project {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, "opencode.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "opencode", "opencode.json")
}

//revive:enable:flag-parameter

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

// RegisterClaudeCode adds the cart server to Claude Code's MCP config.
// claudeHome defaults to ~/.claude when empty. With project set, the
// entry goes to .mcp.json next to claudeHome instead of ~/.claude.json.
//
//revive:disable:flag-parameter
func RegisterClaudeCode(claudeHome string, project bool) (Result, error) {
	if claudeHome == "" {
		claudeHome = DefaultClaudeHome()
	}
	path := claudeMCPPath(claudeHome, project)
	added, err := addEntry(path, "mcpServers", mcpEntry)
	if err != nil {
		return Result{}, fmt.Errorf("agents.RegisterClaudeCode: %w", err)
	}
	if !added {
		return unchanged("Already registered"), nil
	}
	return changed("Registered mcpServers.%s in %s", ServerName, path), nil
}

//revive:enable:flag-parameter

// RegisterCursor adds the cart server to Cursor's mcp.json.
func RegisterCursor(cursorHome string) (Result, error) {
	if cursorHome == "" {
		cursorHome = DefaultCursorHome()
	}
	path := filepath.Join(cursorHome, "mcp.json")
	added, err := addEntry(path, "mcpServers", mcpEntry)
	if err != nil {
		return Result{}, fmt.Errorf("agents.RegisterCursor: %w", err)
	}
	if !added {
		return unchanged("Already registered"), nil
	}
	return changed("Registered mcpServers.%s in %s", ServerName, path), nil
}

// RegisterCodex appends the cart server table to Codex's config.toml.
func RegisterCodex(codexHome string) (Result, error) {
	if codexHome == "" {
		codexHome = DefaultCodexHome()
	}
	path := filepath.Join(codexHome, "config.toml")
	added, err := appendTOMLSection(path)
	if err != nil {
		return Result{}, fmt.Errorf("agents.RegisterCodex: %w", err)
	}
	if !added {
		return unchanged("Already registered"), nil
	}
	return changed("Registered %s in %s", tomlHeader, path), nil
}

// RegisterOpencode adds the cart server to OpenCode's opencode.json.
//
//revive:disable:flag-parameter
func RegisterOpencode(project bool) (Result, error) {
	path := opencodeMCPPath(project)
	added, err := addEntry(path, "mcp", opencodeEntry)
	if err != nil {
		return Result{}, fmt.Errorf("agents.RegisterOpencode: %w", err)
	}
	if !added {
		return unchanged("Already registered"), nil
	}
	return changed("Registered mcp.%s in %s", ServerName, path), nil
}

//revive:enable:flag-parameter

// ---------------------------------------------------------------------------
// Unregister
// ---------------------------------------------------------------------------

// UnregisterClaudeCode removes the cart server from Claude Code.
//
//revive:disable:flag-parameter
func UnregisterClaudeCode(claudeHome string, project bool) (Result, error) {
	if claudeHome == "" {
		claudeHome = DefaultClaudeHome()
	}
	path := claudeMCPPath(claudeHome, project)
	done, err := removeEntry(path, "mcpServers")
	if err != nil {
		return Result{}, fmt.Errorf("agents.UnregisterClaudeCode: %w", err)
	}
	if !done {
		return unchanged("Nothing to remove"), nil
	}
	return changed("Removed mcpServers.%s from %s", ServerName, path), nil
}

//revive:enable:flag-parameter

// UnregisterCursor removes the cart server from Cursor.
func UnregisterCursor(cursorHome string) (Result, error) {
	if cursorHome == "" {
		cursorHome = DefaultCursorHome()
	}
	path := filepath.Join(cursorHome, "mcp.json")
	done, err := removeEntry(path, "mcpServers")
	if err != nil {
		return Result{}, fmt.Errorf("agents.UnregisterCursor: %w", err)
	}
	if !done {
		return unchanged("Nothing to remove"), nil
	}
	return changed("Removed mcpServers.%s from %s", ServerName, path), nil
}

// UnregisterCodex removes the cart server table from Codex's config.toml.
func UnregisterCodex(codexHome string) (Result, error) {
	if codexHome == "" {
		codexHome = DefaultCodexHome()
	}
	path := filepath.Join(codexHome, "config.toml")
	done, err := removeTOMLSection(path)
	if err != nil {
		return Result{}, fmt.Errorf("agents.UnregisterCodex: %w", err)
	}
	if !done {
		return unchanged("Nothing to remove"), nil
	}
	return changed("Removed %s from %s", tomlHeader, path), nil
}

// UnregisterOpencode removes the cart server from OpenCode.
//
//revive:disable:flag-parameter
func UnregisterOpencode(project bool) (Result, error) {
	path := opencodeMCPPath(project)
	done, err := removeEntry(path, "mcp")
	if err != nil {
		return Result{}, fmt.Errorf("agents.UnregisterOpencode: %w", err)
	}
	if !done {
		return unchanged("Nothing to remove"), nil
	}
	return changed("Removed mcp.%s from %s", ServerName, path), nil
}

//revive:enable:flag-parameter
