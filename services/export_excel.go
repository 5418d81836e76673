package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// excelColumns are the budget table columns, in sheet order.
var excelColumns = []struct {
	Letter string
	Header string
	Width  float64
}{
	{"A", "Match", 8},
	{"B", "PČ", 8},
	{"C", "Description", 42},
	{"D", "Supplier", 14},
	{"E", "Rabat %", 9},
	{"F", "Unit", 7},
	{"G", "Qty", 8},
	{"H", "Del. Unit", 13},
	{"I", "Del. Total", 14},
	{"J", "Assm. Unit", 13},
	{"K", "Assm. Total", 14},
	{"L", "Final Unit", 13},
	{"M", "Total", 15},
}

// crownsFormat renders whole crowns with grouped thousands.
const crownsFormat = `#,##0 "Kč"`

// GenerateExcel creates an Excel file from the given ExportData and returns
// the file contents as a byte slice.
func GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Determine sheet name (max 31 chars).
	sheetName := excelSheetName(data.Title)

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	lastCol := excelColumns[len(excelColumns)-1].Letter
	for _, c := range excelColumns {
		if err := f.SetColWidth(sheetName, c.Letter, c.Letter, c.Width); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", c.Letter, err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	// Column header style: bold, white text, charcoal background, centered.
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	// Section header rows: bold on a light grey band.
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#F3F4F6"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create section style: %w", err)
	}

	itemStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create item style: %w", err)
	}

	numFmt := crownsFormat
	moneyStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	percentFmt := "0%"
	matchStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &percentFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create match style: %w", err)
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}

	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// ── Header Rows (1-3) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	// Row 2: order code and customer (if present).
	if line := orderLine(data); line != "" {
		if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
			return nil, fmt.Errorf("merge order: %w", err)
		}
		f.SetCellValue(sheetName, "A2", sanitizeExcelCell(line))
		f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)
	}

	// Row 3: source file and date.
	if err := f.MergeCell(sheetName, "A3", lastCol+"3"); err != nil {
		return nil, fmt.Errorf("merge date: %w", err)
	}
	f.SetCellValue(sheetName, "A3", sanitizeExcelCell(fileLine(data)))
	f.SetCellStyle(sheetName, "A3", lastCol+"3", subtitleStyle)

	// ── Row 5: Column Headers ───────────────────────────────────────────

	for _, c := range excelColumns {
		f.SetCellValue(sheetName, c.Letter+"5", c.Header)
	}
	f.SetCellStyle(sheetName, "A5", lastCol+"5", headerStyle)

	// ── Data Rows (starting row 6) ──────────────────────────────────────

	row := 6
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)

		if r.Header {
			if err := f.MergeCell(sheetName, "A"+rowStr, lastCol+rowStr); err != nil {
				return nil, fmt.Errorf("merge section %d: %w", row, err)
			}
			f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(r.Description))
			f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, sectionStyle)
			row++
			continue
		}

		if r.MatchProbability > 0 {
			f.SetCellValue(sheetName, "A"+rowStr, r.MatchProbability)
		}
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.Index))
		f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(r.Description))
		f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(r.Supplier))
		f.SetCellValue(sheetName, "E"+rowStr, r.Discount.InexactFloat64())
		f.SetCellValue(sheetName, "F"+rowStr, sanitizeExcelCell(r.Unit))
		f.SetCellValue(sheetName, "G"+rowStr, r.Quantity.InexactFloat64())
		f.SetCellValue(sheetName, "H"+rowStr, r.DeliveryPrice.InexactFloat64())
		f.SetCellValue(sheetName, "I"+rowStr, r.DeliveryTotal.InexactFloat64())
		f.SetCellValue(sheetName, "J"+rowStr, r.AssemblyPrice.InexactFloat64())
		f.SetCellValue(sheetName, "K"+rowStr, r.AssemblyTotal.InexactFloat64())
		f.SetCellValue(sheetName, "L"+rowStr, r.FinalPriceUnit.InexactFloat64())
		f.SetCellValue(sheetName, "M"+rowStr, r.LineTotal.InexactFloat64())

		f.SetCellStyle(sheetName, "A"+rowStr, "A"+rowStr, matchStyle)
		f.SetCellStyle(sheetName, "B"+rowStr, "G"+rowStr, itemStyle)
		f.SetCellStyle(sheetName, "H"+rowStr, lastCol+rowStr, moneyStyle)
		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++
	summary := []struct {
		label string
		col   string
		value float64
	}{
		{"Delivery Total:", "I", data.DeliveryTotal.InexactFloat64()},
		{"Assembly Total:", "K", data.AssemblyTotal.InexactFloat64()},
		{"Grand Total:", "M", data.GrandTotal.InexactFloat64()},
	}
	for _, s := range summary {
		summaryRow := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "C"+summaryRow, s.label)
		f.SetCellStyle(sheetName, "C"+summaryRow, "C"+summaryRow, summaryLabelStyle)
		f.SetCellValue(sheetName, s.col+summaryRow, s.value)
		f.SetCellStyle(sheetName, s.col+summaryRow, s.col+summaryRow, summaryValueStyle)
		row++
	}

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// excelSheetName trims a title to a valid sheet name.
func excelSheetName(title string) string {
	name := []rune(title)
	if len(name) > 31 {
		name = name[:31]
	}
	for i, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			name[i] = '-'
		}
	}
	if len(name) == 0 {
		return "Budget"
	}
	return string(name)
}

func orderLine(data ExportData) string {
	switch {
	case data.OrderCode != "" && data.Customer != "":
		return "Order: " + data.OrderCode + " | Customer: " + data.Customer
	case data.OrderCode != "":
		return "Order: " + data.OrderCode
	case data.Customer != "":
		return "Customer: " + data.Customer
	}
	return ""
}

func fileLine(data ExportData) string {
	if data.FileName == "" {
		return "Date: " + data.CreatedDate
	}
	return "File: " + data.FileName + " | Date: " + data.CreatedDate
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
