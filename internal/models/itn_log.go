package models

import "time"

// ITNLogEntry is one audited notification delivery.
type ITNLogEntry struct {
	ID            string    `json:"id"`
	PFPaymentID   string    `json:"pf_payment_id"`
	MPaymentID    string    `json:"m_payment_id"`
	PaymentStatus string    `json:"payment_status"`
	SignatureOK   bool      `json:"signature_ok"`
	AmountOK      bool      `json:"amount_ok"`
	StatusOK      bool      `json:"status_ok"`
	Outcome       string    `json:"outcome"`
	InvoiceNo     string    `json:"invoice_no,omitempty"`
	Payload       string    `json:"payload"`
	ReceivedAt    time.Time `json:"received_at"`
}
