package infra

// pdf.go renders the commission statement handed to an agent once a contract
// is paid. Customer contact data is deliberately left out of the document.

import (
	"fmt"
	"os"
	"path/filepath"

	"brokerdesk/internal/model"

	"github.com/go-pdf/fpdf"
)

// StatementFileName is the file name used for a contract's statement.
func StatementFileName(c *model.Contract) string {
	return fmt.Sprintf("commission_%s.pdf", c.ID)
}

// GenerateCommissionStatement writes an A4 statement for a paid contract to
// storagePath and returns the file path.
func GenerateCommissionStatement(c *model.Contract, company, storagePath string) (string, error) {
	if c.Status != model.ContractPaid || c.CommissionAmount == nil {
		return "", fmt.Errorf("pdf: contract %s is not paid", c.ID)
	}
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, StatementFileName(c))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, company, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, "Commission statement", "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(4)

	// ── Summary ──────────────────────────────────────────────────────────────
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentW-55, 7, value, "", 1, "L", false, 0, "")
	}
	row("Contract", c.ID.String())
	row("Agent", c.AgentName)
	if c.PropertyTitle != "" {
		row("Property", c.PropertyTitle)
	}
	row("Contract date", c.ContractDate.Format("2006-01-02"))
	row("Final price", c.FinalPrice.StringFixed(2))
	row("Commission", c.CommissionAmount.StringFixed(2))
	if c.CommissionNotes != "" {
		row("Commission notes", c.CommissionNotes)
	}
	row("Entered by", c.CommissionEnteredByName)
	if c.PaidAt != nil {
		row("Paid at", c.PaidAt.Format("2006-01-02 15:04"))
	}
	if c.PaymentReference != "" {
		row("Payment reference", c.PaymentReference)
	}
	pdf.Ln(6)

	// ── Status history ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(35, 7, "Status", "B", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, "Changed by", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(contentW-120, 7, "Notes", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, h := range c.StatusHistory {
		notes := h.Notes
		if len(notes) > 48 {
			notes = notes[:47] + "..."
		}
		pdf.CellFormat(35, 6, string(h.Status), "", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, h.ChangedByName, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, h.ChangedAt.Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW-120, 6, notes, "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
