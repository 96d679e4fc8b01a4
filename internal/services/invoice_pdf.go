package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"payfastBack/internal/config"
	"payfastBack/internal/models"
	"payfastBack/internal/pricing"
)

// InvoiceDateLayout is how invoice dates are written into records.
const InvoiceDateLayout = "2006/01/02, 15:04:05"

const (
	pageMargin   = 50.0
	contentWidth = 495.0 // A4 width (595.28pt) minus both margins, rounded down
	rowHeight    = 18.0
	lineHeight   = 13.0
)

type rgb struct{ r, g, b int }

var (
	colorText    = rgb{0x11, 0x11, 0x11}
	colorMuted   = rgb{0x44, 0x44, 0x44}
	colorFooter  = rgb{0x77, 0x77, 0x77}
	colorAccent  = rgb{0x2F, 0x76, 0xFF}
	colorRowRule = rgb{0xE0, 0xE7, 0xFF}
)

type column struct {
	offset float64
	width  float64
	align  string
}

var itemColumns = [5]column{
	{0, 180, "L"},  // description
	{185, 95, "L"}, // sku
	{285, 40, "R"},  // qty
	{330, 80, "R"},  // unit
	{410, 85, "R"},  // total
}

// fallbackStamp is used as the PDF creation date when the record date does
// not parse, so output stays reproducible.
var fallbackStamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// InvoiceRenderer turns invoice records into single-page PDF documents.
type InvoiceRenderer struct {
	company  config.Company
	currency string
}

// NewInvoiceRenderer builds a renderer for company. currency is the prefix
// printed before every amount.
func NewInvoiceRenderer(company config.Company, currency string) *InvoiceRenderer {
	return &InvoiceRenderer{company: company, currency: currency}
}

// Render produces the PDF for inv. The same record always yields the same bytes.
func (r *InvoiceRenderer) Render(inv models.Invoice) ([]byte, error) {
	if inv.InvoiceNo == "" {
		return nil, fmt.Errorf("render invoice: empty invoice number")
	}

	stamp, err := time.ParseInLocation(InvoiceDateLayout, inv.Date, time.UTC)
	if err != nil {
		stamp = fallbackStamp
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetTitle("Invoice "+inv.InvoiceNo, true)
	pdf.SetCreator(r.company.Name, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	// Header
	setText(pdf, colorText)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(contentWidth, 24, tr(r.company.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorMuted)
	writeLine(pdf, tr(r.company.Address))
	writeLine(pdf, tr("Tel: "+r.company.Tel))
	writeLine(pdf, tr("Email: "+r.company.Email))

	pdf.Ln(12)
	setFill(pdf, colorAccent)
	pdf.Rect(pageMargin, pdf.GetY(), contentWidth, 1, "F")
	pdf.Ln(10)

	// Invoice meta
	setText(pdf, colorText)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 20, "TAX INVOICE", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorMuted)
	writeLine(pdf, tr("Invoice No: "+inv.InvoiceNo))
	writeLine(pdf, tr("Date: "+inv.Date))
	writeLine(pdf, tr("PayFast ID: "+inv.PFPaymentID))
	writeLine(pdf, tr("Order ID: "+inv.MPaymentID))

	// Bill To
	pdf.Ln(10)
	setText(pdf, colorText)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 16, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorMuted)
	writeLine(pdf, tr(inv.CustomerName))
	writeLine(pdf, tr(inv.CustomerEmail))
	writeLine(pdf, tr(inv.CustomerPhone))

	// Items table
	pdf.Ln(14)
	top := pdf.GetY()
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorAccent)
	tableRow(pdf, top, [5]string{"Description", "SKU", "Qty", "Unit", "Total"})
	setFill(pdf, colorRowRule)
	pdf.Rect(pageMargin, top+14, contentWidth, 1, "F")

	amount := pricing.Format(r.currency, inv.Amount)
	setText(pdf, colorText)
	tableRow(pdf, top+rowHeight, [5]string{tr(inv.Description()), tr(inv.SKU), "1", amount, amount})

	// Totals
	totals := top + rowHeight*3
	setText(pdf, colorMuted)
	pdf.SetXY(pageMargin, totals)
	pdf.CellFormat(itemColumns[3].offset-10, 14, tr(r.company.VATNote), "", 0, "L", false, 0, "")
	setText(pdf, colorText)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(pageMargin+itemColumns[3].offset, totals)
	pdf.CellFormat(itemColumns[3].width, 14, "Total Due:", "", 0, "R", false, 0, "")
	pdf.SetXY(pageMargin+itemColumns[4].offset, totals)
	pdf.CellFormat(itemColumns[4].width, 14, amount, "", 0, "R", false, 0, "")

	// Footer
	pdf.SetXY(pageMargin, totals+60)
	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, colorFooter)
	pdf.CellFormat(contentWidth, 12, "Thank you for your purchase!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNo, err)
	}
	return buf.Bytes(), nil
}

func tableRow(pdf *fpdf.Fpdf, y float64, cells [5]string) {
	for i, c := range itemColumns {
		pdf.SetXY(pageMargin+c.offset, y)
		pdf.CellFormat(c.width, 14, cells[i], "", 0, c.align, false, 0, "")
	}
}

func writeLine(pdf *fpdf.Fpdf, s string) {
	pdf.CellFormat(contentWidth, lineHeight, s, "", 1, "L", false, 0, "")
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
