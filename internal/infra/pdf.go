package infra

// pdf.go: internal PDF receipt generation using go-pdf/fpdf. Generates
// A7-size thermal-style receipts: company header, invoice number and
// timestamp, item table, discount line when present, bold total and the
// payment method. The output file is saved to storagePath/receipt_{invoice}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/novus0x/nexolocal/internal/model"
)

// GenerateReceiptPDF generates an internal PDF receipt for a completed Sale.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GenerateReceiptPDF(sale *model.Sale, companyName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("receipt_%s.pdf", strings.ReplaceAll(sale.InvoiceNumber, "-", "_"))
	filePath := filepath.Join(storagePath, fileName)

	// A7 ≈ 74mm × 105mm, close to thermal receipt paper (custom size,
	// "A7" is not in fpdf's named list)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	// Header
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, companyName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sale Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// Invoice info
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, sale.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.Date.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// Items header
	col1 := contentW * 0.52 // product name
	col2 := contentW * 0.16 // qty
	col3 := contentW * 0.32 // line total

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		name := item.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		pdf.CellFormat(col1, 4.5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 4.5, fmt.Sprintf("%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 4.5, "$"+item.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(1)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	if sale.DiscountAmount.IsPositive() {
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(contentW*0.6, 5, "Discount", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 5, "-$"+sale.DiscountAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if sale.TaxAmount.IsPositive() {
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(contentW*0.6, 5, "Tax", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 5, "$"+sale.TaxAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW*0.6, 7, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.4, 7, "$"+sale.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 5, "Paid by "+string(sale.PaymentMethod), "", 1, "L", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 6)
	pdf.CellFormat(contentW, 4, "Thank you for your purchase", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
