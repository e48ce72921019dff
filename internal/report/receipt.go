package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/cansubmit/internal/common"
	"example.com/cansubmit/internal/session"
	"example.com/cansubmit/internal/store"
)

// Receipt describes one accepted submission for rendering.
type Receipt struct {
	ID        int64
	CreatedAt time.Time
	Digest    string
	Payload   session.Payload
}

// FromRecord builds a receipt from a stored submission, fingerprinting the
// payload so the receipt can be matched against the store later.
func FromRecord(rec store.Record) (Receipt, error) {
	digest, err := common.DigestJSON(rec.Payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("digest payload: %w", err)
	}
	return Receipt{
		ID:        rec.ID,
		CreatedAt: rec.Ts,
		Digest:    digest,
		Payload:   rec.Payload,
	}, nil
}

// SaveReceiptPDF renders the given receipt into a PDF document.
func SaveReceiptPDF(rc Receipt, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Submission Receipt", false)
	pdf.SetAuthor("cansubmit", false)
	pdf.SetCreator("cansubmit", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Submission Receipt")
	addSummarySection(pdf, rc)
	addSignalsSection(pdf, rc.Payload.Items)
	addDigestSection(pdf, rc.Digest)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rc Receipt) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Submission", value: strconv.FormatInt(rc.ID, 10)},
		{label: "Created", value: rc.CreatedAt.Format(time.RFC3339)},
		{label: "Vehicle", value: vehicleLine(rc.Payload)},
		{label: "Signals", value: strconv.Itoa(len(rc.Payload.Items))},
	}
	for _, item := range items {
		pdf.CellFormat(40, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addSignalsSection(pdf *gofpdf.Fpdf, items []session.Item) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Signals")
	pdf.Ln(9)

	if len(items) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No signals recorded.", "", "L", false)
		return
	}

	headers := []string{"#", "Parameter", "CAN ID", "Endian", "Offset", "Length", "Bytes"}
	widths := []float64{10, 62, 26, 20, 18, 18, 26}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for i, item := range items {
		values := []string{
			strconv.Itoa(i + 1),
			parameterLabel(item),
			item.CanID,
			string(item.Endian),
			nullableInt(item.OffsetBits),
			nullableInt(item.LengthBits),
			byteList(item.SelectedBytes),
		}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(4)
}

func addDigestSection(pdf *gofpdf.Fpdf, digest string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Payload Digest")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, strings.ToUpper(digest), "", "L", false)
	pdf.Ln(2)

	png, err := DigestQR(digest, 256)
	if err != nil {
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, "QR unavailable: "+err.Error(), "", "L", false)
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("digest-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("digest-qr", pdf.GetX(), pdf.GetY(), 40, 40, false, opts, 0, "")
	pdf.Ln(44)
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func vehicleLine(p session.Payload) string {
	parts := make([]string, 0, 4)
	if v := stringOr(p.Make, p.MakeCustom); v != "" {
		parts = append(parts, v)
	}
	if v := stringOr(p.Model, p.ModelCustom); v != "" {
		parts = append(parts, v)
	}
	if v := stringOr(p.GenerationLabel, p.GenerationCustom); v != "" {
		parts = append(parts, v)
	}
	if p.VehicleID != nil {
		parts = append(parts, fmt.Sprintf("[id %d]", *p.VehicleID))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func parameterLabel(item session.Item) string {
	if item.ParameterName != "" {
		return item.ParameterName
	}
	if item.ParameterID != nil {
		return fmt.Sprintf("catalog #%d", *item.ParameterID)
	}
	return "-"
}

func stringOr(primary, fallback *string) string {
	if primary != nil && *primary != "" {
		return *primary
	}
	if fallback != nil {
		return *fallback
	}
	return ""
}

func nullableInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func byteList(selected []int) string {
	if len(selected) == 0 {
		return "-"
	}
	parts := make([]string, len(selected))
	for i, b := range selected {
		parts[i] = strconv.Itoa(b)
	}
	return strings.Join(parts, ",")
}
