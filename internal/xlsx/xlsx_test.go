package xlsx

import (
	"bytes"
	"context"
	"testing"

	"github.com/diewo77/go-devis/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExport(t *testing.T) {
	doc := models.Document{
		Type:           models.TypeQuote,
		Number:         3,
		Date:           "2024-03-01",
		ExpirationDate: "2024-03-31",
		ExpirationDays: 30,
		Client:         models.Client{Name: "ACME"},
		Lines: []models.Line{
			{ID: "a", Title: "Audit", Description: "Phase 1", Unit: "jour", Quantity: 2, UnitPrice: 500, Total: 1000},
			{ID: "b", Title: "Rapport", Unit: "Forfait", Quantity: 1, UnitPrice: 250.5, Total: 250.5},
		},
		VatRate:   20,
		Subtotal:  1250.5,
		VatAmount: 250.1,
		Total:     1500.6,
	}

	data, err := Export(context.Background(), doc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Devis"}, f.GetSheetList())
	get := func(ref string) string {
		v, err := f.GetCellValue("Devis", ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Devis D-2024-003", get("A1"))
	assert.Equal(t, "01/03/2024", get("B2"))
	assert.Equal(t, "Date d'expiration", get("A3"))
	assert.Equal(t, "31/03/2024", get("B3"))
	assert.Equal(t, "ACME", get("B4"))
	assert.Equal(t, "Désignation", get("A6"))

	assert.Equal(t, "Audit", get("A7"))
	assert.Equal(t, "2", get("C7"))
	assert.Equal(t, "1000", get("G7"))
	assert.Equal(t, "Rapport", get("A8"))
	assert.Equal(t, "250.5", get("E8"))

	assert.Equal(t, "Total HT", get("F10"))
	assert.Equal(t, "1250.5", get("G10"))
	assert.Equal(t, "Total TTC", get("F12"))
	assert.Equal(t, "1500.6", get("G12"))
}

func TestExport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Export(ctx, models.Document{Type: models.TypeInvoice})
	assert.Error(t, err)
}
