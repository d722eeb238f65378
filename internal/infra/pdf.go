package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateSlipPermintaanPDF renders the decision slip of a processed request
// to storagePath/permintaan_{nomor}.pdf and returns the file path.
func GenerateSlipPermintaanPDF(p *model.Permintaan, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("permintaan_%s.pdf", p.Nomor))

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Bukti Permintaan Barang", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "No. "+p.Nomor, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Diajukan: "+p.CreatedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	if p.DiprosesPada != nil {
		pdf.CellFormat(contentW, 5, "Diproses: "+p.DiprosesPada.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, "Status: "+p.Status, "", 1, "L", false, 0, "")
	if p.Keterangan != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentW, 5, "Keterangan: "+p.Keterangan, "", "L", false)
	}
	pdf.Ln(2)

	// ── Lines ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.16
	col3 := contentW * 0.17
	col4 := contentW * 0.17

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, "Barang", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Satuan", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Diminta", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Disetujui", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, d := range p.Details {
		nama, satuan := d.BarangID.String()[:8], ""
		if d.Barang != nil {
			nama, satuan = d.Barang.Nama, d.Barang.Satuan
		}
		if len(nama) > 40 {
			nama = nama[:39] + "…"
		}
		pdf.CellFormat(col1, 5, pdf.UnicodeTranslatorFromDescriptor("")(nama), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, satuan, "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, fmt.Sprintf("%d", d.JumlahDiminta), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 5, fmt.Sprintf("%d", d.JumlahDisetujui), "", 1, "R", false, 0, "")
	}

	if p.Status == model.StatusRejected && p.CatatanPenolakan != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 5, "Alasan penolakan: "+p.CatatanPenolakan, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
