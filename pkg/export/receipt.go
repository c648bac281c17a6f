package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt holds the values rendered onto a fee receipt.
type Receipt struct {
	ReceiptNo   string
	StudentName string
	RollNumber  string
	Class       string
	FeeType     string
	DueMonth    string
	Amount      float64
	PaidAmount  float64
	Remaining   float64
	Arrears     float64
	Status      string
	PaymentDate *time.Time
	IssuedAt    time.Time
}

// ReceiptExporter renders fee receipts as PDF documents.
type ReceiptExporter struct {
	schoolName string
}

// NewReceiptExporter constructs a receipt exporter.
func NewReceiptExporter(schoolName string) *ReceiptExporter {
	if schoolName == "" {
		schoolName = "Campus"
	}
	return &ReceiptExporter{schoolName: schoolName}
}

// Render creates a single-page PDF receipt.
func (e *ReceiptExporter) Render(r Receipt) ([]byte, error) {
	if r.ReceiptNo == "" {
		return nil, fmt.Errorf("receipt number required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, strings.ToUpper(e.schoolName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Fee Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	writeLine := func(label, value string) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 7, label, "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(130, 7, value, "1", 1, "", false, 0, "")
	}

	writeLine("Receipt No", r.ReceiptNo)
	writeLine("Student", r.StudentName)
	writeLine("Roll Number", r.RollNumber)
	writeLine("Class", r.Class)
	writeLine("Fee Type", r.FeeType)
	writeLine("Period", r.DueMonth)
	writeLine("Amount", fmt.Sprintf("%.2f", r.Amount))
	writeLine("Paid", fmt.Sprintf("%.2f", r.PaidAmount))
	writeLine("Remaining", fmt.Sprintf("%.2f", r.Remaining))
	writeLine("Arrears", fmt.Sprintf("%.2f", r.Arrears))
	writeLine("Status", strings.ToUpper(r.Status))
	if r.PaymentDate != nil {
		writeLine("Payment Date", r.PaymentDate.Format("2006-01-02"))
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued %s", r.IssuedAt.Format("2006-01-02 15:04")), "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
