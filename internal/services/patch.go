package services

import "github.com/diewo77/go-devis/internal/models"

// Patch is a partial document update. Nil fields are left untouched; nested values
// (Company, Client, Lines) replace the current ones wholesale.
type Patch struct {
	ID             *string         `json:"id,omitempty"`
	Type           *models.DocType `json:"type,omitempty"`
	Number         *int            `json:"number,omitempty"`
	Date           *string         `json:"date,omitempty"`
	DueDate        *string         `json:"dueDate,omitempty"`
	DueDays        *int            `json:"dueDays,omitempty"`
	ExpirationDate *string         `json:"expirationDate,omitempty"`
	ExpirationDays *int            `json:"expirationDays,omitempty"`
	Company        *models.Company `json:"company,omitempty"`
	Client         *models.Client  `json:"client,omitempty"`
	Lines          []models.Line   `json:"lines,omitempty"`
	VatRate        *float64        `json:"vatRate,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	PaymentTerms   *string         `json:"paymentTerms,omitempty"`
	BankName       *string         `json:"bankName,omitempty"`
	IBAN           *string         `json:"iban,omitempty"`
	BIC            *string         `json:"bic,omitempty"`
}

// Apply returns d with p merged in.
//
// Date offsets stay consistent with the document date: a new date moves the target date of
// the current type when an offset is set, a new offset recomputes its target date, and an
// offset of 0 clears the pair. An explicit target date in the same patch wins.
// Changing the type behaves like a toggle: new id and the new type's pair set 30 days
// after the document date. The pair that does not match the type is always cleared.
//
// An empty Lines slice is ignored so a document always keeps at least one line. Line
// totals are derived from quantity and unit price, never taken from the patch.
func (p Patch) Apply(d models.Document) models.Document {
	d = d.Clone()
	setIf(&d.ID, p.ID)
	setIf(&d.Number, p.Number)
	setIf(&d.Date, p.Date)
	if p.Type != nil && p.Type.Valid() && *p.Type != d.Type {
		d.Type = *p.Type
		if p.ID == nil {
			d.ID = newID()
		}
		d = setConditionalDates(d, models.DefaultDays)
	}
	setIf(&d.DueDate, p.DueDate)
	setIf(&d.DueDays, p.DueDays)
	setIf(&d.ExpirationDate, p.ExpirationDate)
	setIf(&d.ExpirationDays, p.ExpirationDays)
	setIf(&d.Company, p.Company)
	setIf(&d.Client, p.Client)
	if len(p.Lines) > 0 {
		d.Lines = models.CloneLines(p.Lines)
		for i := range d.Lines {
			if d.Lines[i].ID == "" {
				d.Lines[i].ID = newID()
			}
			d.Lines[i].Total = models.LineTotal(d.Lines[i].Quantity, d.Lines[i].UnitPrice)
		}
	}
	setIf(&d.VatRate, p.VatRate)
	setIf(&d.Notes, p.Notes)
	setIf(&d.PaymentTerms, p.PaymentTerms)
	setIf(&d.BankName, p.BankName)
	setIf(&d.IBAN, p.IBAN)
	setIf(&d.BIC, p.BIC)

	if p.Date != nil {
		if d.IsQuote() && d.ExpirationDays > 0 && p.ExpirationDate == nil {
			d.ExpirationDate = targetDate(d.Date, d.ExpirationDays)
		}
		if d.IsInvoice() && d.DueDays > 0 && p.DueDate == nil {
			d.DueDate = targetDate(d.Date, d.DueDays)
		}
	}
	if p.DueDays != nil && p.DueDate == nil {
		if d.DueDays > 0 {
			d.DueDate = targetDate(d.Date, d.DueDays)
		} else {
			d.DueDays, d.DueDate = 0, ""
		}
	}
	if p.ExpirationDays != nil && p.ExpirationDate == nil {
		if d.ExpirationDays > 0 {
			d.ExpirationDate = targetDate(d.Date, d.ExpirationDays)
		} else {
			d.ExpirationDays, d.ExpirationDate = 0, ""
		}
	}

	if d.IsInvoice() {
		d.ExpirationDays, d.ExpirationDate = 0, ""
	} else {
		d.DueDays, d.DueDate = 0, ""
	}
	return d
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
