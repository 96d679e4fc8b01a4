package models

import "github.com/shopspring/decimal"

// Invoice is the persisted invoice record. JSON keys match the files the
// service has always written so older invoices still load.
type Invoice struct {
	InvoiceNo       string          `json:"invoiceNo"`
	Date            string          `json:"date"`
	PFPaymentID     string          `json:"pf_payment_id"`
	MPaymentID      string          `json:"m_payment_id"`
	SKU             string          `json:"sku"`
	ItemName        string          `json:"item_name"`
	ItemDescription string          `json:"item_description"`
	Amount          decimal.Decimal `json:"amount"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
}

// Description is the line-item text shown on the document.
func (i Invoice) Description() string {
	if i.ItemDescription != "" {
		return i.ItemDescription
	}
	return i.ItemName
}

// InvoiceLocations tells callers where the two artifacts of an invoice ended up.
type InvoiceLocations struct {
	RecordPath   string `json:"recordPath"`
	DocumentPath string `json:"documentPath"`
	FileURL      string `json:"fileUrl"`
}
