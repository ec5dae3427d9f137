// Package invoice renders order invoices as PDF and keeps archive copies.
package invoice

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/yashrajoria/storefront-service/models"
)

const ContentType = "application/pdf"

// Renderer draws a one-page invoice per order.
type Renderer struct {
	compress bool
}

func NewRenderer(compress bool) *Renderer {
	return &Renderer{compress: compress}
}

// Lines returns the body lines of the invoice, one per product. The total is
// rendered separately by TotalLine.
func Lines(order models.Order) []string {
	out := make([]string, 0, len(order.Lines))
	for _, l := range order.Lines {
		out = append(out, fmt.Sprintf("%s - %d x %s", l.Product.Title, l.Quantity, l.Product.Price.StringFixed(2)))
	}
	return out
}

func TotalLine(order models.Order) string {
	return "Total: " + order.TotalPrice().StringFixed(2)
}

// Render writes the PDF for order to w. Nothing is written if layout fails.
func (r *Renderer) Render(order models.Order, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(order.CreatedAt)
	pdf.SetModificationDate(order.CreatedAt)
	pdf.SetTitle("Invoice "+order.ID.String(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "BU", 26)
	pdf.CellFormat(0, 14, "Invoice", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Order: "+order.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+order.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "-----------------------", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	for _, line := range Lines(order) {
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}

	pdf.CellFormat(0, 6, "---", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, TotalLine(order), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout invoice %s: %w", order.ID, err)
	}
	return pdf.Output(w)
}
