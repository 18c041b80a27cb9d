// Package xlsx exports the line table and totals of a document as a spreadsheet.
package xlsx

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/pdf"
	"github.com/xuri/excelize/v2"
)

// ErrExport marks every spreadsheet generation failure.
var ErrExport = errors.New("xlsx generation failed")

// headerRow is the row of the column titles; lines start right below.
const headerRow = 6

var columns = []struct {
	title string
	width float64
}{
	{"Désignation", 30},
	{"Description", 45},
	{"Quantité", 10},
	{"Unité", 10},
	{"Prix unitaire HT", 16},
	{"TVA (%)", 9},
	{"Total HT", 14},
}

const euroFormat = `#,##0.00\ "€"`

// Export renders doc as an XLSX workbook with a single sheet named after the document type.
func Export(ctx context.Context, doc models.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := doc.Title()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, mark(err, "rename sheet")
	}

	w := &writer{f: f, sheet: sheet}
	w.styles()

	w.set("A1", doc.Title()+" "+doc.Reference(), w.bold)
	w.set("A2", "Date", 0)
	w.set("B2", pdf.FormatDate(doc.Date), 0)
	if target := doc.TargetDate(); target != "" {
		label := "Date d'échéance"
		if doc.IsQuote() {
			label = "Date d'expiration"
		}
		w.set("A3", label, 0)
		w.set("B3", pdf.FormatDate(target), 0)
	}
	w.set("A4", "Client", 0)
	w.set("B4", doc.Client.Name, 0)

	for i, c := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w.set(cell(col, headerRow), c.title, w.header)
		if w.err == nil {
			w.err = f.SetColWidth(sheet, col, col, c.width)
		}
	}

	row := headerRow + 1
	for _, l := range doc.Lines {
		w.set(cell("A", row), l.Title, 0)
		w.set(cell("B", row), l.Description, w.wrap)
		w.set(cell("C", row), l.Quantity, 0)
		w.set(cell("D", row), l.Unit, 0)
		w.set(cell("E", row), l.UnitPrice, w.euro)
		w.set(cell("F", row), doc.VatRate, 0)
		w.set(cell("G", row), l.Total, w.euro)
		row++
	}

	row++
	for _, t := range []struct {
		label string
		value float64
	}{
		{"Total HT", doc.Subtotal},
		{"Total TVA", doc.VatAmount},
		{"Total TTC", doc.Total},
	} {
		w.set(cell("F", row), t.label, w.bold)
		w.set(cell("G", row), t.value, w.euro)
		row++
	}
	if doc.VatRate == 0 {
		w.set(cell("A", row+1), "TVA non applicable, art.293 B du CGI.", 0)
	}

	if w.err != nil {
		return nil, mark(w.err, "write cells")
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, mark(err, "write workbook")
	}
	return buf.Bytes(), nil
}

// writer records the first error so cell writes read as a flat sequence.
type writer struct {
	f     *excelize.File
	sheet string
	err   error

	bold, header, euro, wrap int
}

func (w *writer) styles() {
	w.bold = w.style(&excelize.Style{Font: &excelize.Font{Bold: true}})
	w.header = w.style(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F5F5F5"}},
		Border: []excelize.Border{{Type: "bottom", Color: "DDDDDD", Style: 1}},
	})
	format := euroFormat
	w.euro = w.style(&excelize.Style{CustomNumFmt: &format})
	w.wrap = w.style(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
}

func (w *writer) style(s *excelize.Style) int {
	if w.err != nil {
		return 0
	}
	id, err := w.f.NewStyle(s)
	w.err = err
	return id
}

func (w *writer) set(ref string, v any, style int) {
	if w.err != nil {
		return
	}
	if w.err = w.f.SetCellValue(w.sheet, ref, v); w.err != nil {
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, ref, ref, style)
	}
}

func cell(col string, row int) string {
	ref, _ := excelize.JoinCellName(col, row)
	return ref
}

func mark(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrExport)
}
