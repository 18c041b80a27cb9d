package pdf

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/shopspring/decimal"
)

// eur formats minor units the fr-FR way: "1 234,56 €".
var eur = money.NewFormatter(2, ",", " ", "€", "1 $")

// FormatCurrency formats an amount in euros, rounded to the cent.
func FormatCurrency(amount float64) string {
	cents := decimal.NewFromFloat(models.Round2(amount)).Shift(2).IntPart()
	return eur.Format(money.New(cents, money.EUR).Amount())
}

// FormatDate turns an ISO date into dd/mm/yyyy. Unparseable input is returned unchanged.
func FormatDate(iso string) string {
	t, err := time.Parse(models.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

// FormatQuantity prints a quantity without trailing zeros, with a decimal comma.
func FormatQuantity(q float64) string {
	return strings.Replace(decimal.NewFromFloat(models.Finite(q)).String(), ".", ",", 1)
}

// FormatRate prints a VAT rate as "20" or "5,5".
func FormatRate(rate float64) string {
	return FormatQuantity(rate)
}
