// Package cart implements the shopping-cart state container: an ordered list
// of products keyed by id, persisted as a whole to a key-value slot after
// every mutation.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ports/gomarket/internal/models"
)

// DefaultKey is the storage slot used when Options.Key is empty.
const DefaultKey = "@GoMarket:products"

// Store is the key-value persistence the cart writes through to.
type Store interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}

// Options configures a Cart.
type Options struct {
	Key          string
	RemoveAtZero bool
}

// Cart holds the in-memory product list. It is safe for concurrent use.
type Cart struct {
	store Store
	opts  Options

	mu        sync.Mutex
	products  []models.Product
	listeners map[int]func([]models.Product)
	nextID    int
}

// New creates an empty cart backed by store. Call Load to restore state.
func New(store Store, opts Options) *Cart {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	return &Cart{
		store:     store,
		opts:      opts,
		products:  make([]models.Product, 0),
		listeners: make(map[int]func([]models.Product)),
	}
}

// Key returns the storage slot the cart persists to.
func (c *Cart) Key() string { return c.opts.Key }

// Load replaces the in-memory list with the persisted one. When clearFirst
// is set the whole store is wiped before reading, so the cart starts empty.
// A payload that cannot be decoded is logged and ignored.
//
//revive:disable:flag-parameter
func (c *Cart) Load(ctx context.Context, clearFirst bool) error {
	c.mu.Lock()
	if clearFirst {
		if err := c.store.Clear(ctx); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("cart: clear: %w", err)
		}
	}

	raw, ok, err := c.store.GetItem(ctx, c.opts.Key)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("cart: load: %w", err)
	}

	loaded := make([]models.Product, 0)
	if ok && raw != "" {
		var decoded []models.Product
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			slog.Warn("cart: ignoring unreadable stored cart", "key", c.opts.Key, "err", err)
		} else {
			loaded = append(loaded, decoded...)
		}
	}

	c.products = loaded
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

//revive:enable:flag-parameter

// Products returns a copy of the current list, in cart order.
func (c *Cart) Products() []models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Summary aggregates the current list.
func (c *Cart) Summary() models.Summary {
	return models.Summarize(c.Products())
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// AddToCart puts a product in the cart. A product already present has its
// quantity raised by one, its details refreshed from in, and is moved to the
// end of the list. Otherwise it is appended with quantity one.
func (c *Cart) AddToCart(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if err := in.Validate(); err != nil {
		return models.Product{}, err
	}

	var added models.Product
	err := c.mutate(ctx, func(list []models.Product) ([]models.Product, bool) {
		idx := indexOf(list, in.ID)
		if idx < 0 {
			added = in.WithQuantity(1)
			return append(list, added), true
		}
		added = in.WithQuantity(list[idx].Quantity + 1)
		list = append(list[:idx], list[idx+1:]...)
		return append(list, added), true
	})
	if err != nil {
		return models.Product{}, err
	}
	return added, nil
}

// Increment raises the quantity of id by one. Returns false if id is not in
// the cart, in which case nothing is persisted.
func (c *Cart) Increment(ctx context.Context, id string) (models.Product, bool, error) {
	var out models.Product
	var found bool
	err := c.mutate(ctx, func(list []models.Product) ([]models.Product, bool) {
		idx := indexOf(list, id)
		if idx < 0 {
			return list, false
		}
		found = true
		list[idx].Quantity++
		out = list[idx]
		return list, true
	})
	return out, found, err
}

// Decrement lowers the quantity of id by one, never below zero. With
// RemoveAtZero a line reaching zero is dropped; the returned product then
// carries quantity zero. Returns false if id is not in the cart.
func (c *Cart) Decrement(ctx context.Context, id string) (models.Product, bool, error) {
	var out models.Product
	var found bool
	err := c.mutate(ctx, func(list []models.Product) ([]models.Product, bool) {
		idx := indexOf(list, id)
		if idx < 0 {
			return list, false
		}
		found = true
		if list[idx].Quantity > 0 {
			list[idx].Quantity--
		}
		out = list[idx]
		if out.Quantity == 0 && c.opts.RemoveAtZero {
			list = append(list[:idx], list[idx+1:]...)
		}
		return list, true
	})
	return out, found, err
}

// Remove drops id from the cart. Returns false if it was not present.
func (c *Cart) Remove(ctx context.Context, id string) (bool, error) {
	var found bool
	err := c.mutate(ctx, func(list []models.Product) ([]models.Product, bool) {
		idx := indexOf(list, id)
		if idx < 0 {
			return list, false
		}
		found = true
		return append(list[:idx], list[idx+1:]...), true
	})
	return found, err
}

// Reset empties the cart and persists the empty list.
func (c *Cart) Reset(ctx context.Context) error {
	return c.mutate(ctx, func([]models.Product) ([]models.Product, bool) {
		return make([]models.Product, 0), true
	})
}

// mutate applies fn to a working copy of the list. When fn reports a change
// the new list is persisted and only then committed; a failed write leaves
// the cart as it was.
func (c *Cart) mutate(ctx context.Context, fn func([]models.Product) ([]models.Product, bool)) error {
	c.mu.Lock()
	next, changed := fn(c.snapshotLocked())
	if !changed {
		c.mu.Unlock()
		return nil
	}

	payload, err := json.Marshal(next)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := c.store.SetItem(ctx, c.opts.Key, string(payload)); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("cart: persist: %w", err)
	}
	c.products = next
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

// Subscribe registers fn to receive a snapshot of the list after every
// committed change, including Load. The returned func unregisters it.
func (c *Cart) Subscribe(fn func([]models.Product)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Cart) notify(snap []models.Product) {
	c.mu.Lock()
	fns := make([]func([]models.Product), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		out := make([]models.Product, len(snap))
		copy(out, snap)
		fn(out)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (c *Cart) snapshotLocked() []models.Product {
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

func indexOf(list []models.Product, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
