package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-devis/internal/models"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0,00 €"},
		{19.99, "19,99 €"},
		{1234.56, "1 234,56 €"},
		{1234567.8, "1 234 567,80 €"},
		{143.925, "143,93 €"},
		{-42.5, "-42,50 €"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2024-03-01"); got != "01/03/2024" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDate("bientôt"); got != "bientôt" {
		t.Errorf("FormatDate of invalid input = %q", got)
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := map[float64]string{1: "1", 2.5: "2,5", 0.25: "0,25", 20: "20"}
	for in, want := range tests {
		if got := FormatQuantity(in); got != want {
			t.Errorf("FormatQuantity(%v) = %q, want %q", in, got, want)
		}
	}
}

func sampleDocument(lines int) models.Document {
	doc := models.Document{
		ID:             "doc-1",
		Type:           models.TypeQuote,
		Number:         7,
		Date:           "2024-03-01",
		ExpirationDate: "2024-03-31",
		ExpirationDays: 30,
		Company: models.Company{
			Name: "Atelier Dupont", Address: "12 rue des Lilas", PostalCode: "69001", City: "Lyon",
			Siret: "123 456 789 00012", VatNumber: "FR12345678901",
		},
		Client:       models.Client{Name: "Café de la Gare", City: "Paris"},
		VatRate:      20,
		PaymentTerms: "30% à la commande\nSolde à la livraison",
		BankName:     "Banque Populaire",
		IBAN:         "FR76 3000 6000 0112 3456 7890 189",
		BIC:          "AGRIFRPP",
	}
	for i := 0; i < lines; i++ {
		doc.Lines = append(doc.Lines, models.Line{
			ID:          fmt.Sprintf("l%d", i),
			Title:       fmt.Sprintf("Prestation n°%d", i+1),
			Description: "Analyse des besoins\nMaquettes et intégration, livrées en deux itérations avec un compte rendu détaillé",
			Unit:        "jour",
			Quantity:    1.5,
			UnitPrice:   450,
			Total:       675,
		})
	}
	doc.Subtotal = 675 * float64(lines)
	doc.VatAmount = models.Round2(doc.Subtotal * 0.2)
	doc.Total = doc.Subtotal + doc.VatAmount
	return doc
}

func newTestGenerator() *FPDF {
	return NewGenerator(
		WithCompression(false),
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }),
	)
}

func TestRender_Quote(t *testing.T) {
	data, err := newTestGenerator().Render(context.Background(), sampleDocument(1))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
	for _, want := range []string{"Devis", "D-2024-007", "Total TTC", "Bon pour accord", "AGRIFRPP", "1 / 1"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("output does not contain %q", want)
		}
	}
	if !bytes.Contains(data, []byte("/Count 1\n")) {
		t.Errorf("expected a single page")
	}
}

func TestRender_InvoiceWithoutVat(t *testing.T) {
	doc := sampleDocument(1)
	doc.Type = models.TypeInvoice
	doc.ExpirationDate, doc.ExpirationDays = "", 0
	doc.DueDate, doc.DueDays = "2024-03-31", 30
	doc.VatRate, doc.VatAmount, doc.Total = 0, 0, doc.Subtotal

	data, err := newTestGenerator().Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "Facture") || !strings.Contains(s, "F-2024-007") {
		t.Errorf("missing invoice heading")
	}
	if !strings.Contains(s, "art.293 B du CGI") {
		t.Errorf("missing VAT exemption notice")
	}
	if strings.Contains(s, "Bon pour accord") {
		t.Errorf("invoice must not carry the quote acceptance box")
	}
}

func TestRender_PaginatesLongTables(t *testing.T) {
	data, err := newTestGenerator().Render(context.Background(), sampleDocument(40))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if bytes.Contains(data, []byte("/Count 1\n")) {
		t.Fatalf("expected several pages")
	}
	if !bytes.Contains(data, []byte("1 / ")) || bytes.Contains(data, []byte(aliasPages)) {
		t.Errorf("page numbers were not resolved")
	}
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestGenerator().Render(ctx, sampleDocument(1)); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
