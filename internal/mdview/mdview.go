// Package mdview renders a document as Markdown for terminal display.
package mdview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/pdf"
	md "github.com/nao1215/markdown"
)

// Markdown returns the document as a Markdown page: heading, parties, line table and totals.
func Markdown(doc models.Document) string {
	var buf bytes.Buffer
	m := md.NewMarkdown(&buf)

	m.H1(fmt.Sprintf("%s %s", doc.Title(), doc.Reference()))
	m.PlainText(fmt.Sprintf("Date : %s", pdf.FormatDate(doc.Date))).LF()
	if target := doc.TargetDate(); target != "" {
		label := "Date d'échéance"
		if doc.IsQuote() {
			label = "Date d'expiration"
		}
		m.PlainText(fmt.Sprintf("%s : %s", label, pdf.FormatDate(target))).LF()
	}

	m.H2("Émetteur")
	m.BulletList(partyRows(doc.Company.Party())...)
	m.H2("Client")
	m.BulletList(partyRows(doc.Client.Party())...)

	m.H2("Lignes")
	rows := make([][]string, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		var parts []string
		if l.Title != "" {
			parts = append(parts, md.Bold(cell(l.Title)))
		}
		if l.Description != "" {
			parts = append(parts, cell(l.Description))
		}
		label := strings.Join(parts, "<br>")
		rows = append(rows, []string{
			label,
			strings.TrimSpace(pdf.FormatQuantity(l.Quantity) + " " + l.Unit),
			pdf.FormatCurrency(l.UnitPrice),
			pdf.FormatRate(doc.VatRate) + "%",
			pdf.FormatCurrency(l.Total),
		})
	}
	m.Table(md.TableSet{
		Header:    []string{"Description", "Qté", "Prix unitaire", "TVA (%)", "Total HT"},
		Rows:      rows,
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
	})

	m.H2("Totaux")
	m.Table(md.TableSet{
		Header: []string{"", "Montant"},
		Rows: [][]string{
			{"Total HT", pdf.FormatCurrency(doc.Subtotal)},
			{"Total TVA", pdf.FormatCurrency(doc.VatAmount)},
			{md.Bold("Total TTC"), md.Bold(pdf.FormatCurrency(doc.Total))},
		},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
	})
	if doc.VatRate == 0 {
		m.PlainText(md.Italic("TVA non applicable, art.293 B du CGI.")).LF()
	}

	if doc.IsQuote() && doc.PaymentTerms != "" {
		m.H2("Conditions de règlement")
		m.PlainText(doc.PaymentTerms).LF()
	}
	if doc.Notes != "" {
		m.H2("Notes")
		m.PlainText(doc.Notes).LF()
	}
	if doc.HasBankDetails() {
		m.H2("Coordonnées bancaires")
		var bank []string
		for _, kv := range [][2]string{{"Banque", doc.BankName}, {"IBAN", doc.IBAN}, {"SWIFT/BIC", doc.BIC}} {
			if kv[1] != "" {
				bank = append(bank, kv[0]+" : "+kv[1])
			}
		}
		m.BulletList(bank...)
	}

	return m.String()
}

func partyRows(p models.Party) []string {
	rows := []string{md.Bold(orUnnamed(p.Name))}
	for _, s := range []string{p.Address, p.CityLine()} {
		if strings.TrimSpace(s) != "" {
			rows = append(rows, s)
		}
	}
	if p.Siret != "" {
		rows = append(rows, "N° Siret : "+p.Siret)
	}
	if p.VatNumber != "" {
		rows = append(rows, "N° TVA intra. : "+p.VatNumber)
	}
	return rows
}

// cell keeps multi-line text inside a single table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", "<br>")
}

func orUnnamed(s string) string {
	if s == "" {
		return "(sans nom)"
	}
	return s
}
