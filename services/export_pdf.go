package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

// pdfColumn is one column of the budget table on the 12-unit maroto grid.
type pdfColumn struct {
	header string
	size   int
	align  align.Type
	value  func(r ExportRow) string
}

var pdfColumns = []pdfColumn{
	{"PČ", 1, align.Center, func(r ExportRow) string { return r.Index }},
	{"Description", 3, align.Left, func(r ExportRow) string { return r.Description }},
	{"Supplier", 1, align.Left, func(r ExportRow) string { return r.Supplier }},
	{"Qty", 1, align.Right, func(r ExportRow) string { return FormatAmount(r.Quantity) + " " + r.Unit }},
	{"Rabat", 1, align.Right, func(r ExportRow) string { return FormatPercent(r.Discount) }},
	{"Del. Unit", 1, align.Right, func(r ExportRow) string { return FormatCZK(r.DeliveryPrice) }},
	{"Assm. Unit", 1, align.Right, func(r ExportRow) string { return FormatCZK(r.AssemblyPrice) }},
	{"Final Unit", 1, align.Right, func(r ExportRow) string { return FormatCZK(r.FinalPriceUnit) }},
	{"Total", 2, align.Right, func(r ExportRow) string { return FormatCZK(r.LineTotal) }},
}

// GeneratePDF creates a PDF document of the priced budget using maroto/v2.
// It returns the raw PDF bytes or an error.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m)
	for _, r := range data.Rows {
		if r.Header {
			addSectionRow(m, r)
			continue
		}
		addTableRow(m, r)
	}
	addSummary(m, data)
	addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the title, order line and date to the PDF.
func addHeader(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(orderLine(data), props.Text{Size: 9, Align: align.Left, Color: grey}),
			),
			col.New(6).Add(
				text.New(fileLine(data), props.Text{Size: 9, Align: align.Right, Color: grey}),
			),
		),
	)

	m.AddRows(row.New(4))
}

func addTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerCell := props.Cell{BackgroundColor: headerBg}

	cols := make([]core.Col, 0, len(pdfColumns))
	for _, c := range pdfColumns {
		cols = append(cols, col.New(c.size).Add(
			text.New(c.header, props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Align: c.align,
				Color: &props.Color{Red: 255, Green: 255, Blue: 255},
			}),
		).WithStyle(&headerCell))
	}
	m.AddRows(row.New(8).Add(cols...))
}

// addSectionRow renders a budget section label across the full width.
func addSectionRow(m core.Maroto, r ExportRow) {
	bg := &props.Cell{BackgroundColor: &props.Color{Red: 243, Green: 244, Blue: 246}}
	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(
				text.New(r.Description, props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left}),
			).WithStyle(bg),
		),
	)
}

func addTableRow(m core.Maroto, r ExportRow) {
	cols := make([]core.Col, 0, len(pdfColumns))
	for _, c := range pdfColumns {
		cols = append(cols, col.New(c.size).Add(
			text.New(c.value(r), props.Text{Size: 7, Align: c.align}),
		))
	}
	m.AddRows(row.New(7).Add(cols...))
}

// addSummary adds the delivery, assembly and grand totals at the bottom of the PDF.
func addSummary(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	labelStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	valueStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	lines := []struct {
		label string
		value decimal.Decimal
	}{
		{"Delivery Total", data.DeliveryTotal},
		{"Assembly Total", data.AssemblyTotal},
		{"Grand Total", data.GrandTotal},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(l.label, labelStyle)).WithStyle(summaryCell),
				col.New(4).Add(text.New(FormatCZK(l.value), valueStyle)).WithStyle(summaryCell),
			),
		)
	}
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s, %d items", data.CreatedDate, data.Items),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
