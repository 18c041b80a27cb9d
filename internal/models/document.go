package models

import (
	"fmt"
	"slices"
	"time"
)

// DocType distinguishes quotes from invoices.
type DocType string

const (
	TypeQuote   DocType = "quote"
	TypeInvoice DocType = "invoice"
)

// Valid reports whether t is a known document type.
func (t DocType) Valid() bool {
	return t == TypeQuote || t == TypeInvoice
}

// Toggle returns the other document type.
func (t DocType) Toggle() DocType {
	if t == TypeQuote {
		return TypeInvoice
	}
	return TypeQuote
}

// DateLayout is the ISO calendar date layout used for every date field.
const DateLayout = "2006-01-02"

// DefaultDays is the offset used when a document has no valid due or expiration offset.
const DefaultDays = 30

// ValidExpirationDays lists the expiration offsets a quote may use.
var ValidExpirationDays = []int{15, 30, 45}

// IsValidExpirationDays reports whether days is one of ValidExpirationDays.
func IsValidExpirationDays(days int) bool {
	return slices.Contains(ValidExpirationDays, days)
}

// Document is the quote or invoice being edited.
//
// Exactly one of the due-date pair (invoice) or the expiration-date pair (quote) is
// populated. Subtotal, VatAmount and Total are derived from Lines and VatRate.
type Document struct {
	ID     string  `json:"id"`
	Type   DocType `json:"type"`
	Number int     `json:"number"`
	Date   string  `json:"date"`

	DueDate        string `json:"dueDate,omitempty"`
	DueDays        int    `json:"dueDays,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty"`
	ExpirationDays int    `json:"expirationDays,omitempty"`

	Company Company `json:"company"`
	Client  Client  `json:"client"`
	Lines   []Line  `json:"lines"`

	VatRate   float64 `json:"vatRate"`
	Subtotal  float64 `json:"subtotal"`
	VatAmount float64 `json:"vatAmount"`
	Total     float64 `json:"total"`

	Notes        string `json:"notes,omitempty"`
	PaymentTerms string `json:"paymentTerms,omitempty"`
	BankName     string `json:"bankName,omitempty"`
	IBAN         string `json:"iban,omitempty"`
	BIC          string `json:"bic,omitempty"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	d.Lines = CloneLines(d.Lines)
	return d
}

// IsQuote reports whether the document is a quote.
func (d Document) IsQuote() bool { return d.Type == TypeQuote }

// IsInvoice reports whether the document is an invoice.
func (d Document) IsInvoice() bool { return d.Type == TypeInvoice }

// Title returns the French label of the document type.
func (d Document) Title() string {
	if d.IsQuote() {
		return "Devis"
	}
	return "Facture"
}

// Reference returns the printed document number, e.g. D-2024-007 or F-2024-012.
// The year is taken from the document date, falling back to the current year.
func (d Document) Reference() string {
	prefix := "F"
	if d.IsQuote() {
		prefix = "D"
	}
	year := time.Now().Year()
	if t, err := time.Parse(DateLayout, d.Date); err == nil {
		year = t.Year()
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, year, d.Number)
}

// TargetDate returns the expiration date of a quote or the due date of an invoice.
func (d Document) TargetDate() string {
	if d.IsQuote() {
		return d.ExpirationDate
	}
	return d.DueDate
}

// HasBankDetails reports whether any bank field is set.
func (d Document) HasBankDetails() bool {
	return d.BankName != "" || d.IBAN != "" || d.BIC != ""
}
