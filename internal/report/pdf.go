package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/fitgate/internal/semantic"
)

// SaveSummaryPDF renders the decode summary into a PDF document. The
// fingerprint is embedded both as text and as a QR code so a printout
// can be matched back to the exact input file.
func SaveSummaryPDF(sum FileSummary, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Decode Summary", false)
	pdf.SetAuthor("fitctl", false)
	pdf.SetCreator("fitctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Decode Summary")
	addFileSection(pdf, sum)
	if sum.Activity != nil {
		addActivitySection(pdf, sum.Activity)
		addLapsSection(pdf, sum.Activity.Laps)
	}
	if len(sum.MonitoringDays) > 0 {
		addMonitoringSection(pdf, sum.MonitoringDays)
	}
	addFingerprintQR(pdf, sum.Fingerprint)

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

func addFileSection(pdf *gofpdf.Fpdf, sum FileSummary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "File")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Path", value: emptyFallback(sum.Path, "-")},
		{label: "Size", value: fmt.Sprintf("%d bytes", sum.SizeBytes)},
		{label: "Classification", value: string(sum.Classification)},
		{label: "Messages", value: strconv.Itoa(sum.Messages)},
		{label: "Skipped Records", value: strconv.Itoa(sum.SkippedRecords)},
		{label: "Fingerprint", value: shortFingerprint(sum.Fingerprint)},
	}
	if sum.Device != nil {
		items = append(items, struct {
			label string
			value string
		}{label: "Device", value: deviceLabel(*sum.Device)})
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addActivitySection(pdf *gofpdf.Fpdf, act *semantic.Activity) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Activity")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Sport", value: emptyFallback(act.Sport, "-")},
		{label: "Start", value: timeLabel(act.StartTime)},
		{label: "Elapsed", value: durationLabel(act.TotalElapsedSeconds)},
		{label: "Distance", value: fmt.Sprintf("%.2f km", act.TotalDistanceMeters/1000)},
		{label: "Calories", value: strconv.Itoa(act.TotalCalories)},
		{label: "Avg/Max HR", value: fmt.Sprintf("%d / %d bpm", act.AvgHeartRate, act.MaxHeartRate)},
		{label: "Avg Speed", value: fmt.Sprintf("%.2f m/s", act.AvgSpeedMPS)},
		{label: "Samples", value: strconv.Itoa(len(act.Records))},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addLapsSection(pdf *gofpdf.Fpdf, laps []semantic.Lap) {
	if len(laps) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Laps")
	pdf.Ln(9)

	headers := []string{"Lap", "Start", "Time", "Distance", "Avg HR", "Avg Speed"}
	widths := []float64{14, 46, 30, 34, 26, 30}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for i, lap := range laps {
		values := []string{
			strconv.Itoa(i + 1),
			timeLabel(lap.StartTime),
			durationLabel(lap.TotalElapsedSeconds),
			fmt.Sprintf("%.2f km", lap.TotalDistanceMeters/1000),
			strconv.Itoa(lap.AvgHeartRate),
			fmt.Sprintf("%.2f m/s", lap.AvgSpeedMPS),
		}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(4)
}

func addMonitoringSection(pdf *gofpdf.Fpdf, days []semantic.MonitoringDay) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Daily Monitoring")
	pdf.Ln(9)

	headers := []string{"Date", "Steps", "Distance", "Calories", "HR Min/Max", "Stress"}
	widths := []float64{30, 24, 32, 26, 38, 22}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for _, day := range days {
		values := []string{
			day.Date,
			strconv.Itoa(day.Steps),
			fmt.Sprintf("%.2f km", day.DistanceMeters/1000),
			strconv.Itoa(day.Calories),
			fmt.Sprintf("%d / %d", day.HeartRateMin, day.HeartRateMax),
			strconv.Itoa(day.StressAvg),
		}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(4)
}

func addFingerprintQR(pdf *gofpdf.Fpdf, fingerprint string) {
	png, err := FingerprintToQR(fingerprint, 192)
	if err != nil {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("fingerprint-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("fingerprint-qr", 15, pdf.GetY()+2, 30, 30, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + 34)
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

func deviceLabel(id semantic.DeviceIdentity) string {
	parts := make([]string, 0, 3)
	if id.Manufacturer != "" {
		parts = append(parts, id.Manufacturer)
	}
	if id.Product != "" {
		parts = append(parts, id.Product)
	}
	if id.SerialNumber != 0 {
		parts = append(parts, fmt.Sprintf("#%d", id.SerialNumber))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func timeLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func durationLabel(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}

func shortFingerprint(fingerprint string) string {
	fingerprint = strings.TrimSpace(fingerprint)
	if len(fingerprint) > 16 {
		return fingerprint[:16] + "..."
	}
	return emptyFallback(fingerprint, "-")
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
