package services

import (
	"github.com/diewo77/go-devis/internal/models"
	"github.com/shopspring/decimal"
)

// Totals holds the derived amounts of a document: HT, TVA and TTC.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	VatAmount float64 `json:"vatAmount"`
	Total     float64 `json:"total"`
}

// Round2 rounds to two decimals, half away from zero. See models.Round2.
func Round2(v float64) float64 { return models.Round2(v) }

// LineTotal returns round2(quantity * unitPrice).
func LineTotal(quantity, unitPrice float64) float64 { return models.LineTotal(quantity, unitPrice) }

// ComputeTotals calculates HT, TVA and TTC from the cached line totals.
// Line totals are trusted as-is; non-finite values count as 0.
func ComputeTotals(lines []models.Line, vatRate float64) Totals {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(models.Finite(l.Total)))
	}
	subtotal := sum.Round(2)
	vat := subtotal.Mul(decimal.NewFromFloat(models.Finite(vatRate))).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(vat).Round(2)
	return Totals{
		Subtotal:  subtotal.InexactFloat64(),
		VatAmount: vat.InexactFloat64(),
		Total:     total.InexactFloat64(),
	}
}

// TotalsOf returns the totals currently stored on d.
func TotalsOf(d models.Document) Totals {
	return Totals{Subtotal: d.Subtotal, VatAmount: d.VatAmount, Total: d.Total}
}

// WithTotals returns d with its derived amounts recomputed.
func WithTotals(d models.Document) models.Document {
	t := ComputeTotals(d.Lines, d.VatRate)
	d.Subtotal, d.VatAmount, d.Total = t.Subtotal, t.VatAmount, t.Total
	return d
}
