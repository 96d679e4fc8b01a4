package services

import (
	"fmt"
	"time"
)

// MissingPaymentIDPlaceholder stands in for an absent pf_payment_id. Every such
// notification in the same month maps to the same invoice number.
const MissingPaymentIDPlaceholder = "000000"

// InvoiceNumberFor derives INV-<YYYY><MM>-<last 6 chars of pfPaymentID> from
// the processing date.
func InvoiceNumberFor(pfPaymentID string, now time.Time) string {
	id := []rune(pfPaymentID)
	if len(id) == 0 {
		id = []rune(MissingPaymentIDPlaceholder)
	}
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return fmt.Sprintf("INV-%04d%02d-%s", now.Year(), int(now.Month()), string(id))
}
