// Package service implements the CartService orchestrator that wires together
// configuration, storage, the cart state container, and receipts.
package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-ports/gomarket/internal/cart"
	"github.com/go-ports/gomarket/internal/config"
	"github.com/go-ports/gomarket/internal/markdown"
	"github.com/go-ports/gomarket/internal/models"
	"github.com/go-ports/gomarket/internal/storage"
)

// Service owns the storage handle and the cart loaded from it.
type Service struct {
	CartHome    string
	HomeSource  config.Source
	ReceiptsDir string
	Config      *config.CartHomeConfig

	store *storage.Store
	cart  *cart.Cart
	now   func() time.Time
}

// New initialises a Service rooted at cartHome and loads the persisted cart.
// An empty cartHome is resolved with config.ResolveHome.
func New(ctx context.Context, cartHome string) (*Service, error) {
	home := config.ResolveHome(cartHome)

	if err := os.MkdirAll(home.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("service.New: create cart home: %w", err)
	}

	cfg, err := config.Load(home.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("service.New: load config: %w", err)
	}

	store, err := storage.OpenDriver(cfg.Storage.Driver, home.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("service.New: open storage: %w", err)
	}

	c := cart.New(store, cart.Options{
		Key:          cfg.Storage.Key,
		RemoveAtZero: cfg.Cart.RemoveAtZero,
	})
	if err := c.Load(ctx, cfg.Storage.ClearOnStart); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("service.New: %w", err)
	}

	return &Service{
		CartHome:    home.Dir,
		HomeSource:  home.Source,
		ReceiptsDir: home.ReceiptsPath(),
		Config:      cfg,
		store:       store,
		cart:        c,
		now:         time.Now,
	}, nil
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	return s.store.Close()
}

// Cart returns the shared cart, e.g. for cart.NewContext.
func (s *Service) Cart() *cart.Cart { return s.cart }

// ---------------------------------------------------------------------------
// Cart operations
// ---------------------------------------------------------------------------

// Products returns the current cart contents.
func (s *Service) Products() []models.Product { return s.cart.Products() }

// Summary returns line, unit, and total counts for the cart.
func (s *Service) Summary() models.Summary { return s.cart.Summary() }

// AddToCart adds one unit of the product.
func (s *Service) AddToCart(ctx context.Context, in models.ProductInput) (models.Product, error) {
	return s.cart.AddToCart(ctx, in)
}

// Increment adds one unit of an existing product.
func (s *Service) Increment(ctx context.Context, id string) (models.Product, bool, error) {
	return s.cart.Increment(ctx, id)
}

// Decrement removes one unit of an existing product.
func (s *Service) Decrement(ctx context.Context, id string) (models.Product, bool, error) {
	return s.cart.Decrement(ctx, id)
}

// Remove drops a product line entirely.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	return s.cart.Remove(ctx, id)
}

// Reload re-reads the persisted cart, picking up writes made by other
// processes. Subscribers are notified.
func (s *Service) Reload(ctx context.Context) error {
	if err := s.cart.Load(ctx, false); err != nil {
		return fmt.Errorf("Reload: %w", err)
	}
	return nil
}

// StorageFiles lists the base names of the files a write to the cart touches.
func (s *Service) StorageFiles() []string {
	return []string{config.StorageFile, config.StorageFile + "-wal"}
}

// Reset empties the cart.
func (s *Service) Reset(ctx context.Context) error {
	return s.cart.Reset(ctx)
}

// Forget empties the cart and deletes its storage slot, so the next load
// finds no saved cart at all. Other keys in the store are left alone.
func (s *Service) Forget(ctx context.Context) error {
	if err := s.cart.Reset(ctx); err != nil {
		return fmt.Errorf("Forget: %w", err)
	}
	if _, err := s.store.RemoveItem(ctx, s.cart.Key()); err != nil {
		return fmt.Errorf("Forget: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// Export writes a markdown receipt of the current cart into ReceiptsDir and
// returns its path.
func (s *Service) Export() (string, error) {
	path, err := markdown.WriteReceipt(s.ReceiptsDir, s.cart.Products(), markdown.NewReceipt(s.now()))
	if err != nil {
		return "", fmt.Errorf("Export: %w", err)
	}
	return path, nil
}

// Preview renders the receipt for a terminal of the given width without
// writing anything.
func (s *Service) Preview(width int) (string, error) {
	out, err := markdown.RenderTerminal(s.cart.Products(), markdown.Receipt{Created: s.now()}, width)
	if err != nil {
		return "", fmt.Errorf("Preview: %w", err)
	}
	return out, nil
}

// StorageKeys lists every key in the underlying store.
func (s *Service) StorageKeys(ctx context.Context) ([]string, error) {
	return s.store.Keys(ctx)
}

// LastSaved reports when the cart slot was last written.
func (s *Service) LastSaved(ctx context.Context) (time.Time, bool, error) {
	return s.store.UpdatedAt(ctx, s.cart.Key())
}
