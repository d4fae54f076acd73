// Package receipt renders submitted bills as thermal-format PDFs. The file
// is handed to the platform print spooler by the UI shell; the agent only
// produces it and remembers where it went for reprints.
package receipt

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"posagent/internal/model"
	"posagent/internal/settings"
)

// Render writes a PDF for bill into dir and returns the file path. Paper
// width comes from printer settings; height grows with the line count so
// long bills do not spill onto a second page.
func Render(bill *model.Bill, dir string, ps settings.PrinterSettings) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("receipt: create storage dir: %w", err)
	}

	width := float64(ps.PaperWidth)
	if width < 57 {
		width = 80
	}
	height := 60 + float64(len(bill.ProductsFlow))*5

	fileName := fmt.Sprintf("bill_%d.pdf", bill.ID)
	filePath := filepath.Join(dir, fileName)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Bill #%d", bill.ID), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, bill.Time.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	if bill.PartyName != "" {
		pdf.CellFormat(contentW, 4, bill.PartyName, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	nameW := contentW * 0.5
	qtyW := contentW * 0.15
	totalW := contentW * 0.35

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(nameW, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(qtyW, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(totalW, 5, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, line := range bill.ProductsFlow {
		name := line.Name
		if len(name) > 24 {
			name = name[:23] + "…"
		}
		amount := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		pdf.CellFormat(nameW, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(qtyW, 5, fmt.Sprintf("x%d", line.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(totalW, 5, amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	if !bill.Discount.IsZero() {
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(nameW+qtyW, 5, "Discount:", "", 0, "L", false, 0, "")
		pdf.CellFormat(totalW, 5, "-"+bill.Discount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(nameW+qtyW, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(totalW, 6, bill.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if ps.FooterText != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(contentW, 4, ps.FooterText, "", 1, "C", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("receipt: write file: %w", err)
	}
	return filePath, nil
}
