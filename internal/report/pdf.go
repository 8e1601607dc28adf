package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/crimson-sun/pumpverify/internal/model"
)

// Generate renders the verification result document into the run's result
// folder and returns its path. The document carries the title, a large
// colored PASS/FAIL indicator, and a fixed-order table of serial, model,
// software/firmware versions and the verification timestamp; absent metadata
// renders as "N/A". Folder and render failures are fatal to the report step.
func (b *Builder) Generate(serialNo string, verdict *model.Verdict, meta map[string]string, ts time.Time) (string, error) {
	folder, err := b.ResultFolder(serialNo, verdict.Pass)
	if err != nil {
		return "", err
	}
	path := filepath.Join(folder, fmt.Sprintf("%s_%s.pdf", b.Prefix(serialNo, ts), resultString(verdict.Pass)))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(19, 19, 19)
	pdf.AddPage()

	// Title.
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(0xc6, 0x22, 0x29)
	pdf.CellFormat(0, 12, "Pump Configuration Verification Report", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	// Result indicator.
	if verdict.Pass {
		pdf.SetTextColor(0x00, 0xaa, 0x00)
	} else {
		pdf.SetTextColor(0xcc, 0x00, 0x00)
	}
	pdf.SetFont("Helvetica", "B", 48)
	pdf.CellFormat(0, 24, resultString(verdict.Pass), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	// Software information table.
	pdf.SetTextColor(0x33, 0x33, 0x33)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Software Information", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	zone, _ := ts.In(b.loc).Zone()
	rows := [][2]string{
		{"Serial Number", serialNo},
		{"Model", orNA(meta[model.MetaModel])},
		{"Software Version", orNA(meta[model.MetaSoftwareVersion])},
		{"Firmware Version", orNA(meta[model.MetaFirmwareVersion])},
		{"Verification Date", ts.In(b.loc).Format("2006-01-02 15:04:05") + " " + zone},
	}
	pdf.SetFillColor(0xf0, 0xf0, 0xf0)
	pdf.SetDrawColor(0x80, 0x80, 0x80)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(55, 9, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(110, 9, row[1], "1", 1, "L", false, 0, "")
	}

	if msg, ok := verdict.Detail["error"]; ok && msg != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(0x66, 0x66, 0x66)
		pdf.MultiCell(0, 6, msg, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("report: render %s: %w", path, err)
	}
	return path, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
