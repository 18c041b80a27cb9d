// Package pdf renders quotes and invoices as A4 PDF documents.
package pdf

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/phpdave11/gofpdf"
)

// Generator renders a document to PDF bytes.
type Generator interface {
	Render(ctx context.Context, doc models.Document) ([]byte, error)
}

// ErrRender wraps every failure reported by the PDF engine.
var ErrRender = errors.New("pdf generation failed")

const (
	marginX      = 15.0
	marginTop    = 15.0
	footerHeight = 30.0
	lineHeight   = 5.0
	aliasPages   = "{nb}"
)

// table columns: description, quantity, unit price, VAT, total
var colWidths = [5]float64{80, 25, 30, 20, 25}

type rgb struct{ r, g, b int }

var (
	colorText   = rgb{33, 33, 33}
	colorMuted  = rgb{102, 102, 102}
	colorBorder = rgb{221, 221, 221}
	colorHeader = rgb{245, 245, 245}
)

// FPDF renders documents with gofpdf using the core Helvetica font.
type FPDF struct {
	now      func() time.Time
	compress bool
}

// Option configures an FPDF generator.
type Option func(*FPDF)

// WithClock fixes the creation date written in the PDF metadata.
func WithClock(now func() time.Time) Option {
	return func(g *FPDF) { g.now = now }
}

// WithCompression toggles stream compression; tests disable it to inspect the output.
func WithCompression(enabled bool) Option {
	return func(g *FPDF) { g.compress = enabled }
}

// NewGenerator returns a gofpdf backed generator.
func NewGenerator(opts ...Option) *FPDF {
	g := &FPDF{now: time.Now, compress: true}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render lays out doc on as many A4 pages as needed.
func (g *FPDF) Render(ctx context.Context, doc models.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := gofpdf.New("P", "mm", "A4", "")
	r := &renderer{f: f, tr: f.UnicodeTranslatorFromDescriptor(""), doc: doc}

	title := doc.Title() + " " + doc.Reference()
	f.SetTitle(title, true)
	f.SetCreator("go-devis", true)
	if doc.Company.Name != "" {
		f.SetAuthor(doc.Company.Name, true)
	}
	f.SetCreationDate(g.now())
	f.SetCompression(g.compress)
	f.SetMargins(marginX, marginTop, marginX)
	f.SetAutoPageBreak(true, footerHeight)
	f.AliasNbPages(aliasPages)
	f.SetFooterFunc(r.footer)

	f.AddPage()
	r.header()
	r.parties()
	if err := r.lines(ctx); err != nil {
		return nil, err
	}
	r.totals()
	if doc.IsQuote() {
		r.quoteConditions()
	}
	if doc.Notes != "" {
		r.notes()
	}

	if err := f.Error(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "layout"), ErrRender)
	}
	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "output"), ErrRender)
	}
	return buf.Bytes(), nil
}

type renderer struct {
	f   *gofpdf.Fpdf
	tr  func(string) string
	doc models.Document
}

func (r *renderer) color(c rgb) { r.f.SetTextColor(c.r, c.g, c.b) }

func (r *renderer) contentWidth() float64 {
	w, _ := r.f.GetPageSize()
	return w - 2*marginX
}

func (r *renderer) text(w float64, s, align string) {
	r.f.CellFormat(w, lineHeight, r.tr(s), "", 1, align, false, 0, "")
}

func (r *renderer) header() {
	f, doc := r.f, r.doc
	r.color(colorText)
	f.SetFont("Helvetica", "B", 22)
	f.CellFormat(0, 10, r.tr(doc.Title()), "", 1, "L", false, 0, "")
	f.Ln(2)

	f.SetFont("Helvetica", "", 10)
	r.color(colorMuted)
	r.text(0, "Date : "+FormatDate(doc.Date), "L")
	r.text(0, "Référence : "+doc.Reference(), "L")
	switch {
	case doc.IsQuote() && doc.ExpirationDate != "":
		r.text(0, "Date d'expiration : "+FormatDate(doc.ExpirationDate), "L")
	case doc.IsInvoice() && doc.DueDate != "":
		r.text(0, "Date d'échéance : "+FormatDate(doc.DueDate), "L")
	}
	f.Ln(8)
}

// parties prints the company on the left and the client on the right.
func (r *renderer) parties() {
	f := r.f
	half := r.contentWidth() / 2
	top := f.GetY()

	r.party(r.doc.Company.Party(), marginX, half-5)
	leftBottom := f.GetY()
	f.SetY(top)
	r.party(r.doc.Client.Party(), marginX+half+5, half-5)

	f.SetY(max(leftBottom, f.GetY()) + 10)
}

func (r *renderer) party(p models.Party, x, w float64) {
	f := r.f
	f.SetX(x)
	r.color(colorText)
	f.SetFont("Helvetica", "B", 12)
	f.MultiCell(w, 6, r.tr(p.Name), "", "L", false)

	f.SetFont("Helvetica", "", 10)
	r.color(colorMuted)
	rows := []string{p.Address, p.CityLine()}
	if p.Siret != "" {
		rows = append(rows, "N° Siret : "+p.Siret)
	}
	if p.VatNumber != "" {
		rows = append(rows, "N° TVA intra. : "+p.VatNumber)
	}
	for _, row := range rows {
		if strings.TrimSpace(row) == "" {
			continue
		}
		f.SetX(x)
		f.MultiCell(w, lineHeight, r.tr(row), "", "L", false)
	}
}

func (r *renderer) tableHeader() {
	f := r.f
	f.SetFont("Helvetica", "B", 10)
	r.color(colorText)
	f.SetFillColor(colorHeader.r, colorHeader.g, colorHeader.b)
	f.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	labels := [5]string{"Description", "Qté", "Prix unitaire", "TVA (%)", "Total HT"}
	aligns := [5]string{"L", "R", "R", "R", "R"}
	for i, label := range labels {
		f.CellFormat(colWidths[i], 8, r.tr(label), "B", 0, aligns[i], true, 0, "")
	}
	f.Ln(-1)
}

// lines prints one row per line. Rows are never split across pages: a row that does not
// fit starts a new page with a repeated table header.
func (r *renderer) lines(ctx context.Context) error {
	f, doc := r.f, r.doc
	_, pageH := f.GetPageSize()
	r.tableHeader()

	for _, line := range doc.Lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.SetFont("Helvetica", "", 10)
		desc := r.descriptionLines(line)
		rowH := float64(max(len(desc), 1))*lineHeight + 4

		if f.GetY()+rowH > pageH-footerHeight {
			f.AddPage()
			r.tableHeader()
			f.SetFont("Helvetica", "", 10)
		}

		x, y := f.GetX(), f.GetY()
		for i, dl := range desc {
			f.SetXY(x, y+2+float64(i)*lineHeight)
			if dl.title {
				f.SetFont("Helvetica", "B", 10)
				r.color(colorText)
			} else {
				f.SetFont("Helvetica", "", 9)
				r.color(colorMuted)
			}
			f.CellFormat(colWidths[0], lineHeight, dl.text, "", 0, "L", false, 0, "")
		}

		f.SetFont("Helvetica", "", 10)
		r.color(colorText)
		cells := []string{
			strings.TrimSpace(FormatQuantity(line.Quantity) + " " + line.Unit),
			FormatCurrency(line.UnitPrice),
			FormatRate(doc.VatRate) + "%",
			FormatCurrency(line.Total),
		}
		cx := x + colWidths[0]
		for i, c := range cells {
			f.SetXY(cx, y+2)
			f.CellFormat(colWidths[i+1], lineHeight, r.tr(c), "", 0, "R", false, 0, "")
			cx += colWidths[i+1]
		}

		f.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
		f.Line(marginX, y+rowH, marginX+r.contentWidth(), y+rowH)
		f.SetXY(x, y+rowH)
	}
	f.Ln(6)
	return nil
}

type descLine struct {
	text  string
	title bool
}

// descriptionLines wraps the title and every description line to the first column,
// already translated to the PDF code page.
func (r *renderer) descriptionLines(line models.Line) []descLine {
	f := r.f
	w := colWidths[0] - 2
	var out []descLine
	if line.Title != "" {
		f.SetFont("Helvetica", "B", 10)
		for _, t := range r.split(line.Title, w) {
			out = append(out, descLine{text: t, title: true})
		}
	}
	if line.Description != "" {
		f.SetFont("Helvetica", "", 9)
		for _, d := range strings.Split(line.Description, "\n") {
			if d == "" {
				out = append(out, descLine{})
				continue
			}
			for _, t := range r.split(d, w) {
				out = append(out, descLine{text: t})
			}
		}
	}
	return out
}

// split wraps s to width w in the current font. Widths are measured on the
// translated bytes since the core fonts are single-byte.
func (r *renderer) split(s string, w float64) []string {
	var out []string
	for _, b := range r.f.SplitLines([]byte(r.tr(s)), w) {
		out = append(out, string(b))
	}
	return out
}

func (r *renderer) totals() {
	f, doc := r.f, r.doc
	_, pageH := f.GetPageSize()
	if f.GetY()+30 > pageH-footerHeight {
		f.AddPage()
	}

	labelW, valueW := 40.0, 35.0
	x := marginX + r.contentWidth() - labelW - valueW

	if doc.VatRate == 0 {
		f.SetFont("Helvetica", "I", 9)
		r.color(colorMuted)
		f.SetX(x)
		f.CellFormat(labelW+valueW, lineHeight, r.tr("TVA non applicable, art.293 B du CGI."), "", 1, "R", false, 0, "")
		f.Ln(1)
	}

	rows := []struct {
		label string
		value float64
		bold  bool
	}{
		{"Total HT", doc.Subtotal, false},
		{"Total TVA", doc.VatAmount, false},
		{"Total TTC", doc.Total, true},
	}
	for _, row := range rows {
		style, border := "", ""
		if row.bold {
			style, border = "B", "T"
		}
		f.SetFont("Helvetica", style, 11)
		r.color(colorText)
		f.SetX(x)
		f.CellFormat(labelW, 7, r.tr(row.label), border, 0, "L", false, 0, "")
		f.CellFormat(valueW, 7, r.tr(FormatCurrency(row.value)), border, 1, "R", false, 0, "")
	}
	f.Ln(8)
}

// quoteConditions prints payment terms next to the "Bon pour accord" box, then the CGV notice.
func (r *renderer) quoteConditions() {
	f, doc := r.f, r.doc
	_, pageH := f.GetPageSize()
	const blockH = 55.0
	if f.GetY()+blockH > pageH-footerHeight {
		f.AddPage()
	}

	half := r.contentWidth() / 2
	top := f.GetY()

	if doc.PaymentTerms != "" {
		f.SetFont("Helvetica", "B", 11)
		r.color(colorText)
		f.CellFormat(half-5, 7, r.tr("Conditions de règlement"), "", 1, "L", false, 0, "")
		f.SetFont("Helvetica", "", 9)
		r.color(colorMuted)
		f.MultiCell(half-5, lineHeight, r.tr(doc.PaymentTerms), "", "L", false)
	}

	boxX := marginX + half + 5
	f.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	f.Rect(boxX, top, half-5, blockH-10, "D")
	f.SetXY(boxX+3, top+3)
	f.SetFont("Helvetica", "B", 11)
	r.color(colorText)
	f.CellFormat(half-11, 7, r.tr("Bon pour accord"), "", 2, "L", false, 0, "")
	f.SetFont("Helvetica", "", 9)
	r.color(colorMuted)
	for _, s := range []string{"A ____________, le ___/___/_____", "", "Signature et cachet"} {
		f.SetX(boxX + 3)
		f.CellFormat(half-11, lineHeight, r.tr(s), "", 2, "L", false, 0, "")
	}
	f.SetXY(boxX+3, top+blockH-10-lineHeight-3)
	f.CellFormat(half-11, lineHeight, r.tr("Qualité de signataire"), "", 0, "L", false, 0, "")

	f.SetXY(marginX, top+blockH)
	f.SetFont("Helvetica", "I", 8)
	f.MultiCell(0, 4, r.tr("La signature du présent devis vaut acceptation sans réserve des Conditions Générales de Vente en vigueur."), "", "L", false)
}

func (r *renderer) notes() {
	f := r.f
	f.Ln(4)
	f.SetFont("Helvetica", "B", 10)
	r.color(colorText)
	r.text(0, "Notes", "L")
	f.SetFont("Helvetica", "", 9)
	r.color(colorMuted)
	f.MultiCell(0, lineHeight, r.tr(r.doc.Notes), "", "L", false)
}

// footer prints the bank details and the page number on every page.
func (r *renderer) footer() {
	f, doc := r.f, r.doc
	_, pageH := f.GetPageSize()
	top := pageH - footerHeight + 8

	f.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	f.Line(marginX, top-2, marginX+r.contentWidth(), top-2)

	f.SetFont("Helvetica", "", 8)
	r.color(colorMuted)
	f.SetXY(marginX, top)
	if doc.BankName != "" {
		r.text(0, "Banque : "+doc.BankName, "C")
	}
	if doc.IBAN != "" {
		r.text(0, "IBAN : "+doc.IBAN, "C")
	}
	if doc.BIC != "" {
		r.text(0, "SWIFT/BIC : "+doc.BIC, "C")
	}

	f.SetXY(marginX, pageH-10)
	f.SetFont("Helvetica", "", 10)
	f.CellFormat(0, lineHeight, fmtPageNumber(f.PageNo()), "", 0, "R", false, 0, "")
}

func fmtPageNumber(n int) string {
	return strconv.Itoa(n) + " / " + aliasPages
}
