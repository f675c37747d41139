package shared

import (
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/go-ports/gomarket/internal/models"
)

// RenderTable lays the products out as a bordered table. Styling follows the
// color profile of w, so plain writers get plain text.
func RenderTable(w io.Writer, products []models.Product) string {
	r := lipgloss.NewRenderer(w)
	cell := r.NewStyle().Padding(0, 1)
	header := cell.Bold(true)
	number := cell.Align(lipgloss.Right)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle()).
		Headers("ID", "PRODUCT", "QTY", "PRICE", "SUBTOTAL").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col >= 2:
				return number
			default:
				return cell
			}
		})

	for i := range products {
		p := &products[i]
		t.Row(
			p.ID,
			Label(p),
			strconv.Itoa(p.Quantity),
			strconv.FormatFloat(models.RoundCents(p.Price), 'f', 2, 64),
			strconv.FormatFloat(p.Subtotal(), 'f', 2, 64),
		)
	}
	return t.String()
}
