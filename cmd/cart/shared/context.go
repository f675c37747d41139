// Package shared holds the context passed to all CLI commands.
package shared

import "github.com/go-ports/gomarket/internal/models"

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// CartHome overrides the cart home directory.
	// When empty, resolution falls through to CART_HOME env var → persisted config → ~/.gomarket.
	CartHome string
}

// Label returns the product title, or its id when the title is empty.
func Label(p *models.Product) string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}
