package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payfastBack/internal/config"
	"payfastBack/internal/metrics"
	"payfastBack/internal/models"
	"payfastBack/internal/payfast"
	"payfastBack/internal/pricing"
	"payfastBack/internal/timeutil"
)

// StatusComplete is the only payment_status that yields an invoice.
const StatusComplete = "COMPLETE"

const guardKeyPrefix = "itn:"

// Postbacker re-posts a notification to the gateway validate endpoint.
type Postbacker interface {
	Postback(ctx context.Context, fields map[string]string) models.DeliveryResult
}

// DuplicateGuard serialises pipelines for the same payment. Acquire returns
// false when another pipeline already holds key.
type DuplicateGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// AuditLog keeps a trail of processed notifications.
type AuditLog interface {
	Record(ctx context.Context, entry models.ITNLogEntry) error
}

// ITNDeps groups what the notification pipeline needs. Guard and Audit are optional.
type ITNDeps struct {
	Gateway         config.Gateway
	Prices          *pricing.Table
	Invoices        *InvoiceService
	Postback        Postbacker
	Guard           DuplicateGuard
	GuardTTL        time.Duration
	Audit           AuditLog
	Clock           timeutil.Clock
	PostbackTimeout time.Duration
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

// Validate ensures required dependencies are provided.
func (d *ITNDeps) Validate() error {
	if d.Prices == nil {
		return errors.New("itn deps: Prices is required")
	}
	if d.Invoices == nil {
		return errors.New("itn deps: Invoices is required")
	}
	if d.Postback == nil {
		return errors.New("itn deps: Postback is required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.GuardTTL <= 0 {
		d.GuardTTL = 5 * time.Minute
	}
	if d.PostbackTimeout <= 0 {
		d.PostbackTimeout = 10 * time.Second
	}
	return nil
}

type ITNService struct {
	deps ITNDeps
}

func NewITNService(deps ITNDeps) (*ITNService, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &ITNService{deps: deps}, nil
}

// Validation is the result of the three independent checks.
type Validation struct {
	SignatureOK bool
	AmountOK    bool
	StatusOK    bool
	Expected    decimal.Decimal
}

func (v Validation) Passed() bool { return v.SignatureOK && v.AmountOK && v.StatusOK }

// ProcessResult summarises one pipeline run.
type ProcessResult struct {
	Outcome    string
	Validation Validation
	InvoiceNo  string
	Locations  models.InvoiceLocations
	Email      models.DeliveryResult
	Postback   models.DeliveryResult
}

// Validate checks signature, amount and status. An unknown product fails
// the amount check.
func (s *ITNService) Validate(n models.Notification) Validation {
	var v Validation
	v.SignatureOK = payfast.Verify(n.Fields(), n.Signature(), s.deps.Gateway.Passphrase)
	if expected, ok := s.deps.Prices.PriceOf(n.SKU()); ok {
		v.Expected = expected
		v.AmountOK = pricing.Matches(n.ClaimedAmount(), expected)
	}
	v.StatusOK = n.Status() == StatusComplete
	return v
}

// Process runs the whole pipeline for an acknowledged notification. It
// never returns an error; everything is logged and reflected in the result.
func (s *ITNService) Process(ctx context.Context, n models.Notification) ProcessResult {
	log := s.deps.Logger.With("pf_payment_id", n.PFPaymentID(), "m_payment_id", n.MPaymentID())
	res := ProcessResult{Validation: s.Validate(n)}

	if res.Validation.Passed() {
		s.issue(ctx, log, n, &res)
	} else {
		res.Outcome = metrics.OutcomeRejected
		log.Warn("ITN validation failed",
			"signature_ok", res.Validation.SignatureOK,
			"amount_ok", res.Validation.AmountOK,
			"status_ok", res.Validation.StatusOK,
			"payment_status", n.Status(),
			"sku", n.SKU(),
		)
	}

	res.Postback = s.postback(ctx, n)
	s.deps.Metrics.Delivery(res.Postback.Channel, !res.Postback.Failed())
	if res.Postback.Failed() {
		log.Warn("validate postback failed", "error", res.Postback.Err)
	} else {
		log.Info("validate postback done", "response", res.Postback.Detail)
	}

	s.audit(ctx, log, n, res)
	s.deps.Metrics.Notification(res.Outcome)
	return res
}

func (s *ITNService) issue(ctx context.Context, log *slog.Logger, n models.Notification, res *ProcessResult) {
	pfID := n.PFPaymentID()

	if s.deps.Guard != nil && pfID != "" {
		key := guardKeyPrefix + pfID
		acquired, err := s.deps.Guard.Acquire(ctx, key, s.deps.GuardTTL)
		switch {
		case err != nil:
			log.Warn("duplicate guard unavailable, continuing", "error", err)
		case !acquired:
			res.Outcome = metrics.OutcomeDuplicate
			log.Info("ITN already being processed, skipping")
			return
		default:
			defer func() {
				if err := s.deps.Guard.Release(context.WithoutCancel(ctx), key); err != nil {
					log.Warn("release duplicate guard", "error", err)
				}
			}()
		}
	}

	now := s.deps.Clock.Now()
	res.InvoiceNo = InvoiceNumberFor(pfID, now)
	if pfID == "" {
		log.Warn("notification has no pf_payment_id, using placeholder invoice number", "invoice_no", res.InvoiceNo)
	} else if existing, err := s.deps.Invoices.Lookup(ctx, res.InvoiceNo); err == nil && existing.PFPaymentID == pfID {
		res.Outcome = metrics.OutcomeDuplicate
		log.Info("invoice already issued for payment", "invoice_no", res.InvoiceNo)
		return
	}

	inv := buildInvoice(n, res.InvoiceNo, now, res.Validation.Expected)
	issued, err := s.deps.Invoices.Issue(ctx, inv)
	if err != nil {
		res.Outcome = metrics.OutcomeFailed
		log.Error("invoice issue failed", "invoice_no", res.InvoiceNo, "error", err)
		return
	}
	res.Outcome = metrics.OutcomeIssued
	res.Locations = issued.Locations
	res.Email = issued.Email
	log.Info("invoice generated", "invoice_no", res.InvoiceNo, "file_url", issued.Locations.FileURL)
}

func buildInvoice(n models.Notification, invoiceNo string, now time.Time, amount decimal.Decimal) models.Invoice {
	sku := n.SKU()
	inv := models.Invoice{
		InvoiceNo:       invoiceNo,
		Date:            now.Format(InvoiceDateLayout),
		PFPaymentID:     n.PFPaymentID(),
		MPaymentID:      n.MPaymentID(),
		SKU:             sku,
		ItemName:        n["item_name"],
		ItemDescription: n["item_description"],
		Amount:          amount,
		CustomerName:    n.CustomerName(),
		CustomerEmail:   n["email_address"],
		CustomerPhone:   n["cell_number"],
	}
	if inv.ItemName == "" {
		inv.ItemName = sku
	}
	if inv.ItemDescription == "" {
		inv.ItemDescription = sku + " purchase"
	}
	return inv
}

func (s *ITNService) postback(ctx context.Context, n models.Notification) models.DeliveryResult {
	ctx, cancel := context.WithTimeout(ctx, s.deps.PostbackTimeout)
	defer cancel()
	return s.deps.Postback.Postback(ctx, n.Fields())
}

func (s *ITNService) audit(ctx context.Context, log *slog.Logger, n models.Notification, res ProcessResult) {
	if s.deps.Audit == nil {
		return
	}
	form := url.Values{}
	for k, v := range n {
		form.Set(k, v)
	}
	entry := models.ITNLogEntry{
		ID:            uuid.NewString(),
		PFPaymentID:   n.PFPaymentID(),
		MPaymentID:    n.MPaymentID(),
		PaymentStatus: n.Status(),
		SignatureOK:   res.Validation.SignatureOK,
		AmountOK:      res.Validation.AmountOK,
		StatusOK:      res.Validation.StatusOK,
		Outcome:       res.Outcome,
		InvoiceNo:     res.InvoiceNo,
		Payload:       form.Encode(),
		ReceivedAt:    s.deps.Clock.Now().UTC(),
	}
	if err := s.deps.Audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn("ITN audit log write failed", "error", err)
	}
}
