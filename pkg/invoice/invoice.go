package invoice

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Invoice holds display-ready values; amounts are already formatted.
type Invoice struct {
	Number        string
	IssuedAt      time.Time
	Issuer        string
	CustomerEmail string
	CustomerName  string
	ProjectRef    string
	WebsiteType   string
	Features      []string
	Lines         []Line
	Total         string
	Paid          bool
	PaidAt        *time.Time
	Notes         string
}

type Line struct {
	Description string
	Amount      string
}

type Renderer struct {
	pageSize string
}

func NewRenderer() *Renderer {
	return &Renderer{pageSize: "A4"}
}

// Render writes the invoice as a PDF document.
func (r *Renderer) Render(inv *Invoice, w io.Writer) error {
	pdf := fpdf.New("P", "mm", r.pageSize, "")
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetAuthor(inv.Issuer, true)
	pdf.SetCreationDate(inv.IssuedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr(inv.Issuer), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr("Invoice "+inv.Number), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issued "+inv.IssuedAt.Format("2 January 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if inv.CustomerName != "" {
		pdf.CellFormat(0, 6, tr(inv.CustomerName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr(inv.CustomerEmail), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Project", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s (%s)", inv.WebsiteType, inv.ProjectRef)), "", 1, "L", false, 0, "")
	if len(inv.Features) > 0 {
		pdf.MultiCell(0, 6, tr("Features: "+strings.Join(inv.Features, ", ")), "", "L", false)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(130, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(0, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range inv.Lines {
		pdf.CellFormat(130, 8, tr(line.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, tr(line.Amount), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 9, "Total due", "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, tr(inv.Total), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	if inv.Paid {
		pdf.SetTextColor(0, 128, 0)
		status := "PAID"
		if inv.PaidAt != nil {
			status += " on " + inv.PaidAt.Format("2 January 2006")
		}
		pdf.CellFormat(0, 8, status, "", 1, "L", false, 0, "")
	} else {
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(0, 8, "PAYMENT DUE", "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)

	if inv.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render invoice: %w", err)
	}
	return nil
}

// RenderBytes renders into memory.
func (r *Renderer) RenderBytes(inv *Invoice) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(inv, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
