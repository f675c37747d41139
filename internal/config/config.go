// Package config locates the cart home directory and loads its config.yaml.
//
// A cart home holds everything one cart needs:
//
//	<home>/config.yaml   per-cart settings (optional)
//	<home>/storage.db    the key-value store holding the cart slot
//	<home>/receipts/     exported markdown receipts
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-ports/gomarket/internal/storage"
)

// File and directory names inside a cart home.
const (
	ConfigFile  = "config.yaml"
	StorageFile = "storage.db"
	ReceiptsDir = "receipts"
)

// HomeEnv names the environment variable that selects the cart home.
const HomeEnv = "CART_HOME"

// DefaultStorageKey is the slot the cart list is persisted under.
const DefaultStorageKey = "@GoMarket:products"

// DefaultStorageDriver is the database/sql driver used for storage.db.
const DefaultStorageDriver = storage.DriverCGO

// ---------------------------------------------------------------------------
// Per-home config
// ---------------------------------------------------------------------------

// StorageConfig controls how the cart is persisted.
type StorageConfig struct {
	Key          string `yaml:"key"`
	Driver       string `yaml:"driver"`         // storage.DriverCGO or storage.DriverPure
	ClearOnStart bool   `yaml:"clear_on_start"` // wipe all stored keys before loading
}

// CartConfig controls cart mutation behaviour.
type CartConfig struct {
	RemoveAtZero bool `yaml:"remove_at_zero"` // drop a line when decrement reaches zero
}

// CartHomeConfig is the root per-home configuration.
type CartHomeConfig struct {
	Storage StorageConfig `yaml:"storage"`
	Cart    CartConfig    `yaml:"cart"`
}

// Default returns the configuration used when config.yaml is absent.
func Default() *CartHomeConfig {
	return &CartHomeConfig{
		Storage: StorageConfig{
			Key:    DefaultStorageKey,
			Driver: DefaultStorageDriver,
		},
	}
}

// Validate reports settings the storage layer cannot honour.
func (c *CartHomeConfig) Validate() error {
	switch c.Storage.Driver {
	case storage.DriverCGO, storage.DriverPure:
	default:
		return fmt.Errorf("storage.driver: %w %q (want %q or %q)",
			storage.ErrUnknownDriver, c.Storage.Driver, storage.DriverCGO, storage.DriverPure)
	}
	return nil
}

// overlay mirrors config.yaml with pointer fields so that only keys present
// in the file replace defaults.
type overlay struct {
	Storage struct {
		Key          *string `yaml:"key"`
		Driver       *string `yaml:"driver"`
		ClearOnStart *bool   `yaml:"clear_on_start"`
	} `yaml:"storage"`
	Cart struct {
		RemoveAtZero *bool `yaml:"remove_at_zero"`
	} `yaml:"cart"`
}

func (o *overlay) applyTo(cfg *CartHomeConfig) {
	if v := o.Storage.Key; v != nil && strings.TrimSpace(*v) != "" {
		cfg.Storage.Key = *v
	}
	if v := o.Storage.Driver; v != nil && strings.TrimSpace(*v) != "" {
		cfg.Storage.Driver = strings.TrimSpace(*v)
	}
	if v := o.Storage.ClearOnStart; v != nil {
		cfg.Storage.ClearOnStart = *v
	}
	if v := o.Cart.RemoveAtZero; v != nil {
		cfg.Cart.RemoveAtZero = *v
	}
}

// Load reads a per-home config.yaml. A missing file yields Default(); blank
// strings keep their defaults. Values of the wrong type and unknown storage
// drivers are errors.
func Load(path string) (*CartHomeConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("config.Load: %s: %w", path, err)
	}
	o.applyTo(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// Cart home
// ---------------------------------------------------------------------------

// Source records which setting chose a cart home.
type Source string

// Cart home sources, in priority order.
const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceSaved   Source = "config"
	SourceDefault Source = "default"
)

// Home is a resolved cart home directory.
type Home struct {
	Dir    string
	Source Source
}

// ConfigPath returns <home>/config.yaml.
func (h Home) ConfigPath() string { return filepath.Join(h.Dir, ConfigFile) }

// StoragePath returns <home>/storage.db.
func (h Home) StoragePath() string { return filepath.Join(h.Dir, StorageFile) }

// ReceiptsPath returns <home>/receipts.
func (h Home) ReceiptsPath() string { return filepath.Join(h.Dir, ReceiptsDir) }

// ResolveHome picks the cart home: override (the --cart-home flag) when set,
// then $CART_HOME, then the directory saved with RememberHome, then
// ~/.gomarket.
func ResolveHome(override string) Home {
	explicit := []struct {
		dir    string
		source Source
	}{
		{override, SourceFlag},
		{os.Getenv(HomeEnv), SourceEnv},
	}
	for _, e := range explicit {
		if strings.TrimSpace(e.dir) == "" {
			continue
		}
		if dir, err := expandDir(e.dir); err == nil {
			return Home{Dir: dir, Source: e.source}
		}
	}

	prefs, err := LoadPreferences()
	if err != nil {
		slog.Warn("config: ignoring unreadable preferences", "err", err)
	} else if prefs.CartHome != "" {
		if dir, err := expandDir(prefs.CartHome); err == nil {
			return Home{Dir: dir, Source: SourceSaved}
		}
	}

	userHome, _ := os.UserHomeDir()
	return Home{Dir: filepath.Join(userHome, ".gomarket"), Source: SourceDefault}
}

// expandDir resolves a leading ~/ and environment variables, then makes the
// result absolute.
func expandDir(dir string) (string, error) {
	dir = os.ExpandEnv(strings.TrimSpace(dir))
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(userHome, rest)
	}
	return filepath.Abs(dir)
}

// ---------------------------------------------------------------------------
// User preferences
// ---------------------------------------------------------------------------

// Preferences is the user-wide settings file,
// ~/.config/gomarket/config.yaml. Keys this package does not know are kept
// in Extra and written back untouched.
type Preferences struct {
	CartHome string         `yaml:"cart_home,omitempty"`
	Extra    map[string]any `yaml:",inline"`
}

func (p *Preferences) empty() bool { return p.CartHome == "" && len(p.Extra) == 0 }

func preferencesPath() (string, error) {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userHome, ".config", "gomarket", "config.yaml"), nil
}

// LoadPreferences reads the user-wide settings. A missing file yields zero
// Preferences.
func LoadPreferences() (Preferences, error) {
	var p Preferences
	path, err := preferencesPath()
	if err != nil {
		return p, fmt.Errorf("config.LoadPreferences: %w", err)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("config.LoadPreferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("config.LoadPreferences: %s: %w", path, err)
	}
	p.CartHome = strings.TrimSpace(p.CartHome)
	return p, nil
}

// savePreferences writes p, deleting the file instead when p is empty.
func savePreferences(p *Preferences) error {
	path, err := preferencesPath()
	if err != nil {
		return err
	}
	if p.empty() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// RememberHome saves dir as the cart home used when neither --cart-home nor
// $CART_HOME is set, and returns it in absolute form.
func RememberHome(dir string) (string, error) {
	abs, err := expandDir(dir)
	if err != nil {
		return "", fmt.Errorf("config.RememberHome: %w", err)
	}
	prefs, err := LoadPreferences()
	if err != nil {
		return "", err
	}
	prefs.CartHome = abs
	if err := savePreferences(&prefs); err != nil {
		return "", fmt.Errorf("config.RememberHome: %w", err)
	}
	return abs, nil
}

// ForgetHome drops the saved cart home. It reports whether one was set.
func ForgetHome() (bool, error) {
	prefs, err := LoadPreferences()
	if err != nil {
		return false, err
	}
	if prefs.CartHome == "" {
		return false, nil
	}
	prefs.CartHome = ""
	if err := savePreferences(&prefs); err != nil {
		return false, fmt.Errorf("config.ForgetHome: %w", err)
	}
	return true, nil
}
