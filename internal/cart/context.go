package cart

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when a cart is requested from a context that
// does not carry one.
var ErrNoProvider = errors.New("cart: must be used within a cart provider")

type ctxKey struct{}

// NewContext returns a copy of ctx carrying c, so that everything handed
// the context shares the same cart.
func NewContext(ctx context.Context, c *Cart) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the cart attached by NewContext.
func FromContext(ctx context.Context) (*Cart, error) {
	c, ok := ctx.Value(ctxKey{}).(*Cart)
	if !ok || c == nil {
		return nil, ErrNoProvider
	}
	return c, nil
}

// MustFromContext is like FromContext but panics with ErrNoProvider.
func MustFromContext(ctx context.Context) *Cart {
	c, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return c
}
