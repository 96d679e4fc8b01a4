package services

import (
	"context"
	"fmt"
	"log/slog"

	"payfastBack/internal/config"
	"payfastBack/internal/metrics"
	"payfastBack/internal/models"
)

// InvoiceStore persists invoice records and documents keyed by invoice number.
type InvoiceStore interface {
	Save(ctx context.Context, inv models.Invoice, document []byte) (models.InvoiceLocations, error)
	Load(ctx context.Context, invoiceNo string) (models.Invoice, error)
	LoadDocument(ctx context.Context, invoiceNo string) ([]byte, error)
}

// DocumentRenderer turns a record into its PDF.
type DocumentRenderer interface {
	Render(inv models.Invoice) ([]byte, error)
}

// IssueResult is what Issue produced. Email is best-effort and may have failed.
type IssueResult struct {
	Locations models.InvoiceLocations
	Email     models.DeliveryResult
}

type InvoiceService struct {
	Store    InvoiceStore
	Renderer DocumentRenderer
	Mailer   Mailer
	SMTP     config.SMTP
	Company  config.Company
	Currency string
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func (s *InvoiceService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Issue renders and stores inv, then emails it. Only rendering and storage
// errors are returned.
func (s *InvoiceService) Issue(ctx context.Context, inv models.Invoice) (IssueResult, error) {
	doc, err := s.Renderer.Render(inv)
	if err != nil {
		return IssueResult{}, err
	}
	loc, err := s.Store.Save(ctx, inv, doc)
	if err != nil {
		return IssueResult{}, fmt.Errorf("save invoice %s: %w", inv.InvoiceNo, err)
	}
	s.Metrics.InvoiceIssued()

	email := s.send(ctx, inv, doc)
	return IssueResult{Locations: loc, Email: email}, nil
}

// Resend emails a stored invoice again. Unlike Issue, a delivery failure is
// returned to the caller.
func (s *InvoiceService) Resend(ctx context.Context, invoiceNo string) error {
	inv, err := s.Store.Load(ctx, invoiceNo)
	if err != nil {
		return err
	}
	doc, err := s.Store.LoadDocument(ctx, invoiceNo)
	if err != nil {
		return err
	}
	if res := s.send(ctx, inv, doc); res.Failed() {
		return res.Err
	}
	return nil
}

// Repair re-renders the document from the stored record and overwrites both files.
func (s *InvoiceService) Repair(ctx context.Context, invoiceNo string) (models.InvoiceLocations, error) {
	inv, err := s.Store.Load(ctx, invoiceNo)
	if err != nil {
		return models.InvoiceLocations{}, err
	}
	doc, err := s.Renderer.Render(inv)
	if err != nil {
		return models.InvoiceLocations{}, err
	}
	loc, err := s.Store.Save(ctx, inv, doc)
	if err != nil {
		return models.InvoiceLocations{}, fmt.Errorf("save invoice %s: %w", invoiceNo, err)
	}
	s.logger().Info("invoice repaired", "invoice_no", invoiceNo, "file_url", loc.FileURL)
	return loc, nil
}

// Lookup returns the stored record for invoiceNo.
func (s *InvoiceService) Lookup(ctx context.Context, invoiceNo string) (models.Invoice, error) {
	return s.Store.Load(ctx, invoiceNo)
}

func (s *InvoiceService) send(ctx context.Context, inv models.Invoice, doc []byte) models.DeliveryResult {
	res := s.Mailer.Send(ctx, BuildInvoiceEmail(s.SMTP, s.Company, s.Currency, inv, doc))
	s.Metrics.Delivery(res.Channel, !res.Failed())
	if res.Failed() {
		s.logger().Error("invoice email failed", "invoice_no", inv.InvoiceNo, "error", res.Err)
	} else {
		s.logger().Info("invoice emailed", "invoice_no", inv.InvoiceNo, "to", res.Detail)
	}
	return res
}
