// Package mcp provides the stdio MCP server exposing cart tools to agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/gomarket/internal/buildinfo"
	"github.com/go-ports/gomarket/internal/models"
	"github.com/go-ports/gomarket/internal/service"
)

const listDescription = `List the products currently in the shopping cart, in cart order, with a summary (distinct lines, total units, total price).`

const addDescription = `Add one unit of a product to the cart. If the product id is already in the cart its quantity goes up by one and it moves to the end of the list; otherwise it is appended with quantity 1.` //nolint:lll

const decrementDescription = `Remove one unit of a product already in the cart. Quantity never goes below zero.`

// NewServer creates and registers all cart tools on a new MCP server.
// It is separate from Serve so that tests can obtain a fully configured
// server without committing to the stdio transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("gomarket-cart", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve starts the stdio MCP server rooted at cartHome, blocking until stdin closes.
func Serve(ctx context.Context, cartHome string) error {
	svc, err := service.New(ctx, cartHome)
	if err != nil {
		return fmt.Errorf("mcp: init service: %w", err)
	}
	defer svc.Close()

	return mcpserver.ServeStdio(NewServer(svc))
}

// registerTools wires all cart tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("cart_list",
		mcp.WithDescription(listDescription),
	), func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return cartResult(svc)
	})

	s.AddTool(mcp.NewTool("cart_add",
		mcp.WithDescription(addDescription),
		mcp.WithString("id",
			mcp.Description("Product identifier."),
			mcp.Required(),
		),
		mcp.WithString("title",
			mcp.Description("Display name."),
		),
		mcp.WithString("image_url",
			mcp.Description("Product image URL."),
		),
		mcp.WithNumber("price",
			mcp.Description("Unit price, must not be negative."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAdd(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("cart_increment",
		mcp.WithDescription("Add one unit of a product already in the cart."),
		mcp.WithString("id",
			mcp.Description("Product identifier."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAdjust(ctx, req, svc.Increment)
	})

	s.AddTool(mcp.NewTool("cart_decrement",
		mcp.WithDescription(decrementDescription),
		mcp.WithString("id",
			mcp.Description("Product identifier."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAdjust(ctx, req, svc.Decrement)
	})

	s.AddTool(mcp.NewTool("cart_remove",
		mcp.WithDescription("Remove a product line from the cart regardless of quantity."),
		mcp.WithString("id",
			mcp.Description("Product identifier."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRemove(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("cart_clear",
		mcp.WithDescription("Empty the cart."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := svc.Reset(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return cartResult(svc)
	})

	s.AddTool(mcp.NewTool("cart_export",
		mcp.WithDescription("Write a markdown receipt of the cart to the receipts directory and return its path."),
	), func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := svc.Export()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"path": path})
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleAdd(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := models.ProductInput{
		ID:       req.GetString("id", ""),
		Title:    req.GetString("title", ""),
		ImageURL: req.GetString("image_url", ""),
		Price:    req.GetFloat("price", 0),
	}

	p, err := svc.AddToCart(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"product": productMap(&p),
		"summary": svc.Summary(),
	})
}

type adjustFn func(ctx context.Context, id string) (models.Product, bool, error)

func handleAdjust(ctx context.Context, req mcp.CallToolRequest, fn adjustFn) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	p, found, err := fn(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := map[string]any{"found": found}
	if found {
		out["product"] = productMap(&p)
	}
	return jsonResult(out)
}

func handleRemove(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	removed, err := svc.Remove(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"removed": removed})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func cartResult(svc *service.Service) (*mcp.CallToolResult, error) {
	products := svc.Products()
	list := make([]map[string]any, 0, len(products))
	for i := range products {
		list = append(list, productMap(&products[i]))
	}
	return jsonResult(map[string]any{
		"products": list,
		"summary":  svc.Summary(),
	})
}

func productMap(p *models.Product) map[string]any {
	return map[string]any{
		"id":        p.ID,
		"title":     p.Title,
		"image_url": p.ImageURL,
		"price":     p.Price,
		"quantity":  p.Quantity,
		"subtotal":  p.Subtotal(),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
