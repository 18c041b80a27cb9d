package services

import (
	"time"

	"github.com/diewo77/go-devis/internal/models"
	"github.com/google/uuid"
)

// DefaultVatRate is the VAT rate of a fresh document, in percent.
const DefaultVatRate = 20

// newID generates document and line identifiers.
var newID = uuid.NewString

// NewDefaultDocument returns the hard-coded document shown on first launch.
func NewDefaultDocument(now time.Time) models.Document {
	return NewBlankDocument(models.TypeQuote, now)
}

// NewBlankDocument returns an empty document of the given type dated today,
// with its conditional date pair set 30 days ahead and a single blank line.
func NewBlankDocument(t models.DocType, now time.Time) models.Document {
	d := models.Document{
		ID:      newID(),
		Type:    t,
		Date:    Today(now),
		Lines:   []models.Line{models.BlankLine(newID())},
		VatRate: DefaultVatRate,
	}
	return setConditionalDates(d, models.DefaultDays)
}

// setConditionalDates populates the pair matching d.Type from d.Date + days and clears the other.
func setConditionalDates(d models.Document, days int) models.Document {
	target := targetDate(d.Date, days)
	if d.IsInvoice() {
		d.DueDays, d.DueDate = days, target
		d.ExpirationDays, d.ExpirationDate = 0, ""
	} else {
		d.ExpirationDays, d.ExpirationDate = days, target
		d.DueDays, d.DueDate = 0, ""
	}
	return d
}
