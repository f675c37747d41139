// Package markdown renders cart receipts as markdown documents with YAML
// front matter.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"github.com/go-ports/gomarket/internal/models"
)

// Receipt identifies one rendered receipt.
type Receipt struct {
	ID      string
	Created time.Time
}

// NewReceipt returns a Receipt with a fresh random id.
func NewReceipt(created time.Time) Receipt {
	return Receipt{ID: uuid.NewString(), Created: created}
}

// RenderLine produces a single table row for a product.
func RenderLine(p *models.Product) string {
	title := p.Title
	if title == "" {
		title = p.ID
	}
	var sb strings.Builder
	sb.WriteString("| ")
	sb.WriteString(escapeCell(title))
	sb.WriteString(" | ")
	sb.WriteString(formatPrice(p.Price))
	sb.WriteString(" | ")
	sb.WriteString(strconv.Itoa(p.Quantity))
	sb.WriteString(" | ")
	sb.WriteString(formatPrice(p.Subtotal()))
	sb.WriteString(" |")
	return sb.String()
}

// RenderCart produces the full receipt document: front matter, heading,
// one table row per product in cart order, and the total.
func RenderCart(products []models.Product, r Receipt) string {
	sum := models.Summarize(products)

	var sb strings.Builder
	sb.WriteString("---\n")
	if r.ID != "" {
		sb.WriteString("receipt: ")
		sb.WriteString(r.ID)
		sb.WriteString("\n")
	}
	sb.WriteString("lines: ")
	sb.WriteString(strconv.Itoa(sum.Lines))
	sb.WriteString("\nunits: ")
	sb.WriteString(strconv.Itoa(sum.Units))
	sb.WriteString("\ntotal: ")
	sb.WriteString(formatPrice(sum.Total))
	sb.WriteString("\ncreated: ")
	sb.WriteString(r.Created.UTC().Format(time.RFC3339))
	sb.WriteString("\n---\n\n")
	writeBody(&sb, products, r.Created, sum)
	return sb.String()
}

// RenderTerminal renders the receipt body (no front matter) for a terminal
// of the given width. Output is plain styled text without color codes.
func RenderTerminal(products []models.Product, r Receipt, width int) (string, error) {
	var sb strings.Builder
	writeBody(&sb, products, r.Created, models.Summarize(products))

	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown.RenderTerminal: %w", err)
	}
	out, err := tr.Render(sb.String())
	if err != nil {
		return "", fmt.Errorf("markdown.RenderTerminal: %w", err)
	}
	return out, nil
}

func writeBody(sb *strings.Builder, products []models.Product, created time.Time, sum models.Summary) {
	sb.WriteString("# Cart ")
	sb.WriteString(created.UTC().Format("2006-01-02"))
	sb.WriteString("\n\n")

	if len(products) == 0 {
		sb.WriteString("_Cart is empty._\n")
		return
	}

	sb.WriteString("| Product | Price | Qty | Subtotal |\n")
	sb.WriteString("|---|---:|---:|---:|\n")
	for i := range products {
		sb.WriteString(RenderLine(&products[i]))
		sb.WriteString("\n")
	}
	sb.WriteString("\n**Total:** ")
	sb.WriteString(formatPrice(sum.Total))
	sb.WriteString("\n")
}

// WriteReceipt writes <date>-cart.md inside dir, replacing any receipt from
// the same day. The directory is created if needed.
func WriteReceipt(dir string, products []models.Product, r Receipt) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, r.Created.UTC().Format("2006-01-02")+"-cart.md")
	content := RenderCart(products, r)
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil { // #nosec G306 -- receipts do not contain secrets
		return "", err
	}
	return filePath, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// formatPrice rounds like models.RoundCents so printed prices and
// subtotals agree on half cents.
func formatPrice(f float64) string {
	return strconv.FormatFloat(models.RoundCents(f), 'f', 2, 64)
}

// escapeCell keeps a value from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
