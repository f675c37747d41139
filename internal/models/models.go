// Package models defines the core data types for the cart.
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidProduct is returned when a product fails validation.
var ErrInvalidProduct = errors.New("invalid product")

// ProductInput is the caller-supplied product data for an add, before a
// quantity is assigned.
type ProductInput struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

// Validate checks that the input can be placed in a cart.
func (in *ProductInput) Validate() error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return fmt.Errorf("%w: price must be a finite number", ErrInvalidProduct)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative (got %v)", ErrInvalidProduct, in.Price)
	}
	return nil
}

// WithQuantity builds a Product carrying the given quantity.
func (in *ProductInput) WithQuantity(n int) Product {
	return Product{
		ID:       in.ID,
		Title:    in.Title,
		ImageURL: in.ImageURL,
		Price:    in.Price,
		Quantity: n,
	}
}

// Product is a single cart line. The JSON field names are the persisted
// wire format and must not change.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns price × quantity rounded to cents.
func (p *Product) Subtotal() float64 {
	return RoundCents(p.Price * float64(p.Quantity))
}

// Summary aggregates a cart.
type Summary struct {
	Lines int     `json:"lines"`
	Units int     `json:"units"`
	Total float64 `json:"total"`
}

// Summarize computes the Summary of products. Total is the sum of the
// already rounded line subtotals, so it always matches a printed receipt.
func Summarize(products []Product) Summary {
	var s Summary
	var total float64
	for i := range products {
		s.Lines++
		s.Units += products[i].Quantity
		total += products[i].Subtotal()
	}
	s.Total = RoundCents(total)
	return s
}

// RoundCents rounds f to 2 decimal places.
func RoundCents(f float64) float64 {
	return math.Round(f*100) / 100
}
