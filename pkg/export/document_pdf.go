package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// Signatory is one of the people named in the approval block.
type Signatory struct {
	Name     string
	Position string
	At       *time.Time
}

// ItemLine is a priced row inside a section table.
type ItemLine struct {
	Name               string
	Volume             decimal.Decimal
	Unit               string
	TotalMaterialPrice decimal.Decimal
	TotalFeePrice      decimal.Decimal
}

// SectionSheet groups item rows under a job section heading.
type SectionSheet struct {
	Name               string
	Items              []ItemLine
	TotalMaterialPrice decimal.Decimal
	TotalFeePrice      decimal.Decimal
}

// DocumentSheet is the fully aggregated snapshot the renderer prints.
type DocumentSheet struct {
	Name                       string
	Slug                       string
	Job                        string
	Location                   string
	Base                       string
	RecapitulationLocation     string
	PercentageBenefitsAndRisks int
	Sections                   []SectionSheet
	TotalMaterialPrice         decimal.Decimal
	TotalFeePrice              decimal.Decimal
	TotalMaterialAndFee        decimal.Decimal
	TotalBenefitsAndRisks      decimal.Decimal
	TotalPrice                 decimal.Decimal
	CreatedAt                  time.Time
	CreatedBy                  Signatory
	CheckedBy                  Signatory
	ConfirmedBy                Signatory
	// QRCode is a PNG placed at the bottom right of the last page.
	QRCode []byte
}

const (
	pageMargin = 15.0
	qrSize     = 35.0
	qrImage    = "verification-qr"
)

var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 70, "L"},
	{"Volume", 20, "R"},
	{"Satuan", 20, "C"},
	{"Harga Material", 35, "R"},
	{"Harga Upah", 35, "R"},
}

// DocumentRenderer prints cost-estimate documents with gofpdf.
type DocumentRenderer struct{}

// NewDocumentRenderer constructs a renderer.
func NewDocumentRenderer() *DocumentRenderer {
	return &DocumentRenderer{}
}

// Render lays out the sheet on A4 pages and returns the PDF bytes.
func (r *DocumentRenderer) Render(sheet DocumentSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(sheet.Name, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(sheet.Name), "", "C", false)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		"Pekerjaan: " + sheet.Job,
		"Lokasi: " + sheet.Location,
		"Dasar: " + sheet.Base,
	} {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "BU", 12)
	pdf.CellFormat(0, 7, "Rincian Dokumen", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, section := range sheet.Sections {
		r.section(pdf, tr, section)
	}

	r.totals(pdf, sheet)
	r.approvals(pdf, tr, sheet)

	if len(sheet.QRCode) > 0 {
		r.qr(pdf, sheet.QRCode)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *DocumentRenderer) section(pdf *gofpdf.Fpdf, tr func(string) string, section SectionSheet) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, tr(section.Name), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range itemColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range section.Items {
		values := []string{
			fit(pdf, tr(item.Name), itemColumns[0].width-2),
			item.Volume.String(),
			tr(item.Unit),
			FormatRupiah(item.TotalMaterialPrice),
			FormatRupiah(item.TotalFeePrice),
		}
		for i, col := range itemColumns {
			pdf.CellFormat(col.width, 6, values[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(110, 6, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, FormatRupiah(section.TotalMaterialPrice), "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, FormatRupiah(section.TotalFeePrice), "1", 1, "R", false, 0, "")
	pdf.Ln(4)
}

func (r *DocumentRenderer) totals(pdf *gofpdf.Fpdf, sheet DocumentSheet) {
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Total Material", sheet.TotalMaterialPrice},
		{"Total Upah", sheet.TotalFeePrice},
		{"Total Material dan Upah", sheet.TotalMaterialAndFee},
		{fmt.Sprintf("Keuntungan dan Risiko (%d%%)", sheet.PercentageBenefitsAndRisks), sheet.TotalBenefitsAndRisks},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(130, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, FormatRupiah(row.value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 8, "Total Harga", "", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, FormatRupiah(sheet.TotalPrice), "", 1, "R", false, 0, "")
	pdf.Ln(4)
}

func (r *DocumentRenderer) approvals(pdf *gofpdf.Fpdf, tr func(string) string, sheet DocumentSheet) {
	pdf.SetFont("Helvetica", "BU", 10)
	pdf.CellFormat(0, 7, "Informasi Persetujuan", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	createdAt := sheet.CreatedAt
	blocks := []struct {
		role, when string
		who        Signatory
		at         *time.Time
	}{
		{"Dibuat oleh", "Tanggal dibuat", sheet.CreatedBy, &createdAt},
		{"Diperiksa oleh", "Tanggal diperiksa", sheet.CheckedBy, sheet.CheckedBy.At},
		{"Dikonfirmasi oleh", "Tanggal dikonfirmasi", sheet.ConfirmedBy, sheet.ConfirmedBy.At},
	}
	for _, b := range blocks {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s: %s (%s)", b.role, b.who.Name, b.who.Position)), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%s: %s", b.when, formatDate(b.at)), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
}

func (r *DocumentRenderer) qr(pdf *gofpdf.Fpdf, png []byte) {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrImage, opts, bytes.NewReader(png))

	pageW, pageH := pdf.GetPageSize()
	x := pageW - qrSize - pageMargin
	y := pageH - qrSize - pageMargin
	if pdf.GetY() > y {
		pdf.AddPage()
	}
	pdf.ImageOptions(qrImage, x, y, qrSize, qrSize, false, opts, 0, "")
}

// FormatRupiah renders an amount as "Rp 1.234.567" with up to two decimals.
func FormatRupiah(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	whole := rounded.Truncate(0)
	digits := whole.String()
	var grouped strings.Builder
	for i, ch := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(ch)
	}

	out := sign + "Rp " + grouped.String()
	if frac := rounded.Sub(whole); !frac.IsZero() {
		out += fmt.Sprintf(",%02d", frac.Shift(2).IntPart())
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 January 2006 15:04")
}

func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
