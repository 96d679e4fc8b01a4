package services

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payfastBack/internal/config"
	"payfastBack/internal/models"
)

func testCompany() config.Company {
	return config.Company{
		Name:    "Acme Workshops",
		Address: "1 Long Street, Cape Town",
		Tel:     "+27 21 000 0000",
		Email:   "billing@acme.test",
		VATNote: "All prices VAT-inclusive.",
	}
}

func testInvoice() models.Invoice {
	return models.Invoice{
		InvoiceNo:       "INV-202503-456789",
		Date:            "2025/03/15, 10:30:00",
		PFPaymentID:     "PF123456789",
		MPaymentID:      "order-7",
		SKU:             "WA-01",
		ItemName:        "WA-01",
		ItemDescription: "WA-01 purchase",
		Amount:          decimal.RequireFromString("1499.00"),
		CustomerName:    "Thandi Mokoena",
		CustomerEmail:   "thandi@example.test",
		CustomerPhone:   "0820000000",
	}
}

func TestInvoiceRendererRender(t *testing.T) {
	r := NewInvoiceRenderer(testCompany(), "R")

	first, err := r.Render(testInvoice())
	require.NoError(t, err)
	second, err := r.Render(testInvoice())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
	assert.Equal(t, first, second, "same record must render to identical bytes")
	assert.Contains(t, string(first), "INV-202503-456789")
	assert.Contains(t, string(first), "R 1499.00")
	assert.Contains(t, string(first), "Total Due:")
	assert.Contains(t, string(first), "Thank you for your purchase!")
}

func TestInvoiceRendererDiffersPerRecord(t *testing.T) {
	r := NewInvoiceRenderer(testCompany(), "R")
	inv := testInvoice()
	a, err := r.Render(inv)
	require.NoError(t, err)

	inv.Amount = decimal.RequireFromString("2499.00")
	b, err := r.Render(inv)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Contains(t, string(b), "R 2499.00")
}

func TestInvoiceRendererRejectsEmptyNumber(t *testing.T) {
	r := NewInvoiceRenderer(testCompany(), "R")
	inv := testInvoice()
	inv.InvoiceNo = ""
	out, err := r.Render(inv)
	require.Error(t, err)
	assert.Nil(t, out)
}
