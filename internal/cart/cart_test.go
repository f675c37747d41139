package cart_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/go-ports/gomarket/internal/cart"
	"github.com/go-ports/gomarket/internal/models"
	"github.com/go-ports/gomarket/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var errWrite = errors.New("disk full")

// memStore is an in-memory cart.Store that records writes and can be told
// to fail them.
type memStore struct {
	mu        sync.Mutex
	data      map[string]string
	writes    int
	clears    int
	failSet   bool
	failGet   bool
	failClear bool
}

func newMemStore() *memStore { return &memStore{data: make(map[string]string)} }

func (m *memStore) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", false, errors.New("read failed")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errWrite
	}
	m.writes++
	m.data[key] = value
	return nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClear {
		return errors.New("clear failed")
	}
	m.clears++
	m.data = make(map[string]string)
	return nil
}

// stored decodes the list persisted under key.
func (m *memStore) stored(c *qt.C, key string) []models.Product {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	c.Assert(ok, qt.IsTrue)
	var out []models.Product
	c.Assert(json.Unmarshal([]byte(raw), &out), qt.IsNil)
	return out
}

// pausingStore runs a one-shot hook after the next GetItem has read its
// value, so a test can interleave work between a load's read and commit.
type pausingStore struct {
	*memStore

	hookMu sync.Mutex
	hook   func()
}

func (p *pausingStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := p.memStore.GetItem(ctx, key)
	p.hookMu.Lock()
	h := p.hook
	p.hook = nil
	p.hookMu.Unlock()
	if h != nil {
		h()
	}
	return v, ok, err
}

func (p *pausingStore) pauseNextRead() (entered, release chan struct{}) {
	entered, release = make(chan struct{}), make(chan struct{})
	p.hookMu.Lock()
	p.hook = func() {
		close(entered)
		<-release
	}
	p.hookMu.Unlock()
	return entered, release
}

func input(id string, price float64) models.ProductInput {
	return models.ProductInput{ID: id, Title: "Product " + id, ImageURL: "https://img/" + id, Price: price}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// ---------------------------------------------------------------------------
// New / Load
// ---------------------------------------------------------------------------

func TestNew_DefaultKey(t *testing.T) {
	c := qt.New(t)
	ct := cart.New(newMemStore(), cart.Options{})
	c.Assert(ct.Key(), qt.Equals, "@GoMarket:products")
	c.Assert(ct.Products(), qt.HasLen, 0)
}

func TestLoad_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("absent slot leaves cart empty", func(c *qt.C) {
		ct := cart.New(newMemStore(), cart.Options{})
		c.Assert(ct.Load(ctx, false), qt.IsNil)
		c.Assert(ct.Products(), qt.HasLen, 0)
	})

	c.Run("stored list is restored in order", func(c *qt.C) {
		st := newMemStore()
		st.data[cart.DefaultKey] = `[{"id":"b","title":"B","image_url":"","price":2,"quantity":3},` +
			`{"id":"a","title":"A","image_url":"","price":1,"quantity":1}]`
		ct := cart.New(st, cart.Options{})
		c.Assert(ct.Load(ctx, false), qt.IsNil)
		c.Assert(ids(ct.Products()), qt.DeepEquals, []string{"b", "a"})
		c.Assert(ct.Products()[0].Quantity, qt.Equals, 3)
	})

	c.Run("clearFirst wipes the store before reading", func(c *qt.C) {
		st := newMemStore()
		st.data[cart.DefaultKey] = `[{"id":"a","quantity":1}]`
		st.data["other"] = "x"
		ct := cart.New(st, cart.Options{})
		c.Assert(ct.Load(ctx, true), qt.IsNil)
		c.Assert(ct.Products(), qt.HasLen, 0)
		c.Assert(st.clears, qt.Equals, 1)
		c.Assert(st.data, qt.HasLen, 0)
	})

	c.Run("unreadable payload starts empty without error", func(c *qt.C) {
		st := newMemStore()
		st.data[cart.DefaultKey] = `{not json`
		ct := cart.New(st, cart.Options{})
		c.Assert(ct.Load(ctx, false), qt.IsNil)
		c.Assert(ct.Products(), qt.HasLen, 0)
	})

	c.Run("custom key is honoured", func(c *qt.C) {
		st := newMemStore()
		st.data["@Shop:cart"] = `[{"id":"z","quantity":2}]`
		ct := cart.New(st, cart.Options{Key: "@Shop:cart"})
		c.Assert(ct.Load(ctx, false), qt.IsNil)
		c.Assert(ids(ct.Products()), qt.DeepEquals, []string{"z"})
	})
}

func TestLoad_FailurePath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("read error is returned", func(c *qt.C) {
		st := newMemStore()
		st.failGet = true
		err := cart.New(st, cart.Options{}).Load(ctx, false)
		c.Assert(err, qt.ErrorMatches, "cart: load: .*")
	})

	c.Run("clear error is returned", func(c *qt.C) {
		st := newMemStore()
		st.failClear = true
		err := cart.New(st, cart.Options{}).Load(ctx, true)
		c.Assert(err, qt.ErrorMatches, "cart: clear: .*")
	})
}

// ---------------------------------------------------------------------------
// AddToCart
// ---------------------------------------------------------------------------

func TestAddToCart_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("new product is appended with quantity one", func(c *qt.C) {
		st := newMemStore()
		ct := cart.New(st, cart.Options{})

		got, err := ct.AddToCart(ctx, input("1", 10))
		c.Assert(err, qt.IsNil)
		c.Assert(got.Quantity, qt.Equals, 1)
		c.Assert(got.Title, qt.Equals, "Product 1")

		c.Assert(ct.Products(), qt.DeepEquals, []models.Product{
			{ID: "1", Title: "Product 1", ImageURL: "https://img/1", Price: 10, Quantity: 1},
		})
		c.Assert(st.stored(c, cart.DefaultKey), qt.DeepEquals, ct.Products())
	})

	c.Run("existing product is incremented and moved to the end", func(c *qt.C) {
		st := newMemStore()
		ct := cart.New(st, cart.Options{})
		for _, id := range []string{"1", "2", "3"} {
			_, err := ct.AddToCart(ctx, input(id, 1))
			c.Assert(err, qt.IsNil)
		}

		got, err := ct.AddToCart(ctx, input("1", 1))
		c.Assert(err, qt.IsNil)
		c.Assert(got.Quantity, qt.Equals, 2)
		c.Assert(ids(ct.Products()), qt.DeepEquals, []string{"2", "3", "1"})
		c.Assert(ids(st.stored(c, cart.DefaultKey)), qt.DeepEquals, []string{"2", "3", "1"})
	})

	c.Run("re-adding refreshes product details", func(c *qt.C) {
		ct := cart.New(newMemStore(), cart.Options{})
		_, err := ct.AddToCart(ctx, input("1", 10))
		c.Assert(err, qt.IsNil)

		got, err := ct.AddToCart(ctx, models.ProductInput{ID: "1", Title: "Renamed", Price: 12.5})
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, models.Product{ID: "1", Title: "Renamed", Price: 12.5, Quantity: 2})
	})

	c.Run("every mutation writes the full list", func(c *qt.C) {
		st := newMemStore()
		ct := cart.New(st, cart.Options{})
		_, _ = ct.AddToCart(ctx, input("a", 1))
		_, _ = ct.AddToCart(ctx, input("b", 1))
		c.Assert(st.writes, qt.Equals, 2)
		c.Assert(st.stored(c, cart.DefaultKey), qt.HasLen, 2)
	})
}

func TestAddToCart_FailurePath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("invalid input is rejected without a write", func(c *qt.C) {
		st := newMemStore()
		ct := cart.New(st, cart.Options{})
		_, err := ct.AddToCart(ctx, models.ProductInput{Price: 1})
		c.Assert(err, qt.ErrorIs, models.ErrInvalidProduct)
		c.Assert(st.writes, qt.Equals, 0)
		c.Assert(ct.Products(), qt.HasLen, 0)
	})

	c.Run("failed write rolls back the change", func(c *qt.C) {
		st := newMemStore()
		ct := cart.New(st, cart.Options{})
		_, err := ct.AddToCart(ctx, input("1", 1))
		c.Assert(err, qt.IsNil)

		st.failSet = true
		_, err = ct.AddToCart(ctx, input("1", 1))
		c.Assert(err, qt.ErrorIs, errWrite)
		c.Assert(err, qt.ErrorMatches, "cart: persist: .*")
		c.Assert(ct.Products()[0].Quantity, qt.Equals, 1)

		_, err = ct.AddToCart(ctx, input("2", 1))
		c.Assert(err, qt.IsNotNil)
		c.Assert(ct.Products(), qt.HasLen, 1)
	})
}

// ---------------------------------------------------------------------------
// Increment / Decrement
// ---------------------------------------------------------------------------

func TestIncrement_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	st := newMemStore()
	ct := cart.New(st, cart.Options{})
	_, _ = ct.AddToCart(ctx, input("1", 1))
	_, _ = ct.AddToCart(ctx, input("2", 1))

	got, found, err := ct.Increment(ctx, "1")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsTrue)
	c.Assert(got.Quantity, qt.Equals, 2)
	// Increment keeps position.
	c.Assert(ids(ct.Products()), qt.DeepEquals, []string{"1", "2"})
	c.Assert(st.stored(c, cart.DefaultKey)[0].Quantity, qt.Equals, 2)
}

func TestIncrement_UnknownID(t *testing.T) {
	c := qt.New(t)
	st := newMemStore()
	ct := cart.New(st, cart.Options{})

	_, found, err := ct.Increment(context.Background(), "missing")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsFalse)
	c.Assert(st.writes, qt.Equals, 0)
}

func TestIncrement_FailurePath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	st := newMemStore()
	ct := cart.New(st, cart.Options{})
	_, _ = ct.AddToCart(ctx, input("1", 1))

	st.failSet = true
	_, found, err := ct.Increment(ctx, "1")
	c.Assert(found, qt.IsTrue)
	c.Assert(err, qt.ErrorIs, errWrite)
	c.Assert(ct.Products()[0].Quantity, qt.Equals, 1)
}

func TestDecrement_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	cases := []struct {
		name         string
		removeAtZero bool
		startQty     int
		decrements   int
		wantQty      int
		wantLines    int
	}{
		{"lowers quantity by one", false, 3, 1, 2, 1},
		{"reaching zero keeps the line by default", false, 1, 1, 0, 1},
		{"never goes below zero", false, 1, 3, 0, 1},
		{"reaching zero removes the line when configured", true, 2, 2, 0, 0},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			st := newMemStore()
			ct := cart.New(st, cart.Options{RemoveAtZero: tc.removeAtZero})
			for range tc.startQty {
				_, err := ct.AddToCart(ctx, input("1", 2))
				c.Assert(err, qt.IsNil)
			}

			var got models.Product
			for range tc.decrements {
				var found bool
				var err error
				got, found, err = ct.Decrement(ctx, "1")
				if !found {
					break
				}
				c.Assert(err, qt.IsNil)
			}
			c.Assert(got.Quantity, qt.Equals, tc.wantQty)
			c.Assert(ct.Products(), qt.HasLen, tc.wantLines)
			c.Assert(st.stored(c, cart.DefaultKey), qt.HasLen, tc.wantLines)
		})
	}
}

func TestDecrement_UnknownID(t *testing.T) {
	c := qt.New(t)
	st := newMemStore()
	ct := cart.New(st, cart.Options{})

	_, found, err := ct.Decrement(context.Background(), "missing")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsFalse)
	c.Assert(st.writes, qt.Equals, 0)
}

// ---------------------------------------------------------------------------
// Remove / Reset / Summary
// ---------------------------------------------------------------------------

func TestRemoveAndReset_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	st := newMemStore()
	ct := cart.New(st, cart.Options{})
	for _, id := range []string{"a", "b", "c"} {
		_, _ = ct.AddToCart(ctx, input(id, 1))
	}

	removed, err := ct.Remove(ctx, "b")
	c.Assert(err, qt.IsNil)
	c.Assert(removed, qt.IsTrue)
	c.Assert(ids(ct.Products()), qt.DeepEquals, []string{"a", "c"})

	removed, err = ct.Remove(ctx, "b")
	c.Assert(err, qt.IsNil)
	c.Assert(removed, qt.IsFalse)

	c.Assert(ct.Reset(ctx), qt.IsNil)
	c.Assert(ct.Products(), qt.HasLen, 0)
	c.Assert(st.data[cart.DefaultKey], qt.Equals, "[]")
}

func TestSummary_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	ct := cart.New(newMemStore(), cart.Options{})
	_, _ = ct.AddToCart(ctx, input("a", 1.5))
	_, _ = ct.AddToCart(ctx, input("a", 1.5))
	_, _ = ct.AddToCart(ctx, input("b", 10))

	c.Assert(ct.Summary(), qt.Equals, models.Summary{Lines: 2, Units: 3, Total: 13})
}

// ---------------------------------------------------------------------------
// Snapshots and subscriptions
// ---------------------------------------------------------------------------

func TestProducts_ReturnsCopy(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	ct := cart.New(newMemStore(), cart.Options{})
	_, _ = ct.AddToCart(ctx, input("a", 1))

	snap := ct.Products()
	snap[0].Quantity = 99
	c.Assert(ct.Products()[0].Quantity, qt.Equals, 1)
}

func TestSubscribe_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	st := newMemStore()
	ct := cart.New(st, cart.Options{})

	var seen [][]models.Product
	unsubscribe := ct.Subscribe(func(p []models.Product) { seen = append(seen, p) })

	_, _ = ct.AddToCart(ctx, input("a", 1))
	_, _, _ = ct.Increment(ctx, "a")
	_, _, _ = ct.Increment(ctx, "missing")
	c.Assert(seen, qt.HasLen, 2)
	c.Assert(seen[1][0].Quantity, qt.Equals, 2)

	st.failSet = true
	_, _, _ = ct.Increment(ctx, "a")
	c.Assert(seen, qt.HasLen, 2)

	unsubscribe()
	unsubscribe()
	st.failSet = false
	_, _ = ct.AddToCart(ctx, input("b", 1))
	c.Assert(seen, qt.HasLen, 2)
}

func TestConcurrentMutations(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	st := newMemStore()
	ct := cart.New(st, cart.Options{})
	_, err := ct.AddToCart(ctx, input("a", 1))
	c.Assert(err, qt.IsNil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = ct.Increment(ctx, "a")
		}()
	}
	wg.Wait()

	c.Assert(ct.Products()[0].Quantity, qt.Equals, 51)
	c.Assert(st.stored(c, cart.DefaultKey)[0].Quantity, qt.Equals, 51)
}

func TestLoad_ConcurrentMutationIsNotLost(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	st := &pausingStore{memStore: newMemStore()}
	ct := cart.New(st, cart.Options{})
	_, err := ct.AddToCart(ctx, input("a", 1))
	c.Assert(err, qt.IsNil)

	entered, release := st.pauseNextRead()
	loadDone := make(chan error, 1)
	go func() { loadDone <- ct.Load(ctx, false) }()
	<-entered

	incDone := make(chan error, 1)
	go func() {
		_, _, err := ct.Increment(ctx, "a")
		incDone <- err
	}()
	// Give the increment a chance to run while the load is between its
	// read and its commit.
	time.Sleep(20 * time.Millisecond)
	close(release)

	c.Assert(<-loadDone, qt.IsNil)
	c.Assert(<-incDone, qt.IsNil)

	want := []models.Product{{ID: "a", Quantity: 2}}
	ignoreDetails := qt.CmpEquals(cmpopts.IgnoreFields(models.Product{}, "Title", "ImageURL", "Price"))
	c.Assert(ct.Products(), ignoreDetails, want)
	c.Assert(st.stored(c, cart.DefaultKey), ignoreDetails, want)
}

// ---------------------------------------------------------------------------
// SQLite-backed round trip
// ---------------------------------------------------------------------------

func TestCart_PersistsAcrossReload(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	st, err := storage.Open(filepath.Join(t.TempDir(), "storage.db"))
	c.Assert(err, qt.IsNil)
	defer st.Close()

	first := cart.New(st, cart.Options{})
	c.Assert(first.Load(ctx, false), qt.IsNil)
	_, err = first.AddToCart(ctx, input("1", 4.25))
	c.Assert(err, qt.IsNil)
	_, _, err = first.Increment(ctx, "1")
	c.Assert(err, qt.IsNil)

	second := cart.New(st, cart.Options{})
	c.Assert(second.Load(ctx, false), qt.IsNil)
	c.Assert(second.Products(), qt.DeepEquals, first.Products())

	third := cart.New(st, cart.Options{})
	c.Assert(third.Load(ctx, true), qt.IsNil)
	c.Assert(third.Products(), qt.HasLen, 0)
}
