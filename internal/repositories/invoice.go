package repositories

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrInvalidInvoiceNo = errors.New("invalid invoice number")
)

var invoiceNoPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateInvoiceNo rejects anything that could escape the storage namespace.
func ValidateInvoiceNo(invoiceNo string) error {
	if !invoiceNoPattern.MatchString(invoiceNo) {
		return fmt.Errorf("%w: %q", ErrInvalidInvoiceNo, invoiceNo)
	}
	return nil
}

func documentName(invoiceNo string) string { return invoiceNo + ".pdf" }
func recordName(invoiceNo string) string   { return invoiceNo + ".json" }
