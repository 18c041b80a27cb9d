package mdview

import (
	"strings"
	"testing"

	"github.com/diewo77/go-devis/internal/models"
)

func TestMarkdown(t *testing.T) {
	doc := models.Document{
		Type:    models.TypeInvoice,
		Number:  12,
		Date:    "2024-03-01",
		DueDate: "2024-03-31",
		DueDays: 30,
		Company: models.Company{Name: "Atelier Dupont", PostalCode: "69001", City: "Lyon", Siret: "123"},
		Client:  models.Client{Name: "ACME"},
		Lines: []models.Line{
			{ID: "a", Title: "Audit", Description: "Phase 1\nPhase 2", Unit: "jour", Quantity: 2, UnitPrice: 500, Total: 1000},
			{ID: "b", Description: "Frais | déplacement", Unit: "Forfait", Quantity: 1, UnitPrice: 80, Total: 80},
		},
		VatRate:   0,
		Subtotal:  1080,
		Total:     1080,
		IBAN:      "FR76 1234",
		Notes:     "Merci pour votre confiance",
		BankName:  "",
		VatAmount: 0,
	}

	out := Markdown(doc)

	for _, want := range []string{
		"# Facture F-2024-012",
		"Date d'échéance : 31/03/2024",
		"- **Atelier Dupont**",
		"- 69001 Lyon",
		"- N° Siret : 123",
		"| **Audit**<br>Phase 1<br>Phase 2 | 2 jour | 500,00 € | 0% | 1 000,00 € |",
		`| Frais \| déplacement | 1 Forfait | 80,00 € | 0% | 80,00 € |`,
		"| **Total TTC** | **1 080,00 €** |",
		"*TVA non applicable, art.293 B du CGI.*",
		"## Notes",
		"- IBAN : FR76 1234",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown does not contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Banque :") {
		t.Errorf("empty bank name must not be printed")
	}
	if strings.Contains(out, "Conditions de règlement") {
		t.Errorf("payment terms are only printed on quotes")
	}
}
