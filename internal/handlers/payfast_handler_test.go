package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"payfastBack/internal/config"
	"payfastBack/internal/models"
	"payfastBack/internal/payfast"
	"payfastBack/internal/pricing"
	"payfastBack/internal/repositories"
	"payfastBack/internal/services"
	"payfastBack/internal/tasks"
	"payfastBack/internal/timeutil"
)

const passphrase = "jt7NOE43FZPn"

type stubMailer struct {
	mu   sync.Mutex
	sent int
	err  error
}

func (m *stubMailer) Send(context.Context, services.Email) models.DeliveryResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	return models.DeliveryResult{Channel: models.ChannelEmail, Err: m.err}
}

type stubPostback struct{}

func (stubPostback) Postback(context.Context, map[string]string) models.DeliveryResult {
	return models.DeliveryResult{Channel: models.ChannelPostback, Detail: "VALID"}
}

type stubLog struct {
	entries []models.ITNLogEntry
	err     error
}

func (s stubLog) ListByPaymentID(_ context.Context, id string) ([]models.ITNLogEntry, error) {
	var out []models.ITNLogEntry
	for _, e := range s.entries {
		if e.PFPaymentID == id {
			out = append(out, e)
		}
	}
	return out, s.err
}

type fixture struct {
	payfast  *PayfastHandler
	invoices *InvoiceHandler
	store    *repositories.FileInvoiceStore
	mailer   *stubMailer
	tracker  *tasks.Tracker
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := repositories.NewFileInvoiceStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	gateway := config.Gateway{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  passphrase,
		NotifyURL:   "https://api.shop.test/payfast/itn",
		Endpoints:   payfast.EndpointsFor(payfast.ModeSandbox),
	}
	company := config.Company{Name: "Acme Workshops", VATNote: "All prices VAT-inclusive."}
	mailer := &stubMailer{}
	invoices := &services.InvoiceService{
		Store:    store,
		Renderer: services.NewInvoiceRenderer(company, "R"),
		Mailer:   mailer,
		SMTP:     config.SMTP{FromEmail: "noreply@acme.test", AdminEmail: "admin@acme.test"},
		Company:  company,
		Currency: "R",
		Logger:   logger,
	}
	itn, err := services.NewITNService(services.ITNDeps{
		Gateway:  gateway,
		Prices:   pricing.Default(),
		Invoices: invoices,
		Postback: stubPostback{},
		Guard:    repositories.NewMemoryGuard(),
		Clock:    timeutil.FixedClock(time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)),
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("itn service: %v", err)
	}
	tracker := tasks.NewTracker(logger)
	return fixture{
		payfast: &PayfastHandler{
			Service: services.NewPayfastService(gateway, pricing.Default()),
			ITN:     itn,
			Tasks:   tracker,
			Logger:  logger,
		},
		invoices: &InvoiceHandler{Service: invoices, Logger: logger},
		store:    store,
		mailer:   mailer,
		tracker:  tracker,
	}
}

func itnForm(status string) url.Values {
	fields := map[string]string{
		"pf_payment_id":  "PF123456789",
		"m_payment_id":   "order-7",
		"payment_status": status,
		"amount_gross":   "1499.00",
		"custom_str1":    "WA-01",
		"name_first":     "Thandi",
		"email_address":  "thandi@example.test",
	}
	fields["signature"] = payfast.Sign(fields, passphrase)
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	return form
}

func postForm(h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payfast/itn", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func drain(t *testing.T, tr *tasks.Tracker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tr.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestSign(t *testing.T) {
	f := newFixture(t)

	t.Run("known sku", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.payfast.Sign(rec, httptest.NewRequest(http.MethodPost, "/payfast/sign", strings.NewReader(`{"sku":"WA-01","name_first":"Thandi"}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body models.SignResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body.OK || body.ProcessURL != "https://sandbox.payfast.co.za/eng/process" {
			t.Fatalf("unexpected body %+v", body)
		}
		if body.Fields["amount"] != "1499.00" {
			t.Fatalf("expected amount 1499.00, got %s", body.Fields["amount"])
		}
		if !payfast.Verify(body.Fields, body.Fields["signature"], passphrase) {
			t.Fatal("returned fields do not verify")
		}
	})

	for name, payload := range map[string]string{
		"unknown sku": `{"sku":"NOPE"}`,
		"missing sku": `{}`,
		"bad json":    `{`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.payfast.Sign(rec, httptest.NewRequest(http.MethodPost, "/payfast/sign", strings.NewReader(payload)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"error":"Unknown SKU"`) {
				t.Fatalf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestNotifyCompleteThenResendAndRepair(t *testing.T) {
	f := newFixture(t)

	rec := postForm(f.payfast.Notify, itnForm("COMPLETE"))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", rec.Code, rec.Body.String())
	}
	drain(t, f.tracker)

	if _, err := f.store.Load(context.Background(), "INV-202503-456789"); err != nil {
		t.Fatalf("invoice not stored: %v", err)
	}

	rec = httptest.NewRecorder()
	f.invoices.Resend(rec, httptest.NewRequest(http.MethodGet, "/invoices/resend?invoiceNo=INV-202503-456789", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("resend: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	f.invoices.Repair(rec, httptest.NewRequest(http.MethodGet, "/invoices/repair?invoiceNo=INV-202503-456789", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("repair: %d %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["fileUrl"] != "/invoices/INV-202503-456789.pdf" {
		t.Fatalf("unexpected repair body %v", body)
	}
	if f.mailer.sent != 2 {
		t.Fatalf("expected 2 emails, got %d", f.mailer.sent)
	}
}

func TestNotifyPendingAcknowledgesWithoutInvoice(t *testing.T) {
	f := newFixture(t)
	rec := postForm(f.payfast.Notify, itnForm("PENDING"))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", rec.Code, rec.Body.String())
	}
	drain(t, f.tracker)

	_, err := f.store.Load(context.Background(), "INV-202503-456789")
	if !errors.Is(err, repositories.ErrInvoiceNotFound) {
		t.Fatalf("expected no invoice, got %v", err)
	}
}

func TestNotifyAfterShutdownStillAcknowledges(t *testing.T) {
	f := newFixture(t)
	drain(t, f.tracker)
	rec := postForm(f.payfast.Notify, itnForm("COMPLETE"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestResendRepairErrors(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		h    http.HandlerFunc
		url  string
		code int
		msg  string
	}{
		{"resend unknown", f.invoices.Resend, "/invoices/resend?invoiceNo=INV-209901-000001", http.StatusNotFound, "Not found"},
		{"resend traversal", f.invoices.Resend, "/invoices/resend?invoiceNo=../../etc/passwd", http.StatusNotFound, "Not found"},
		{"repair unknown", f.invoices.Repair, "/invoices/repair?invoiceNo=INV-209901-000001", http.StatusNotFound, "Not found"},
		{"repair missing param", f.invoices.Repair, "/invoices/repair", http.StatusNotFound, "Not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.h(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.msg) {
				t.Fatalf("expected %q in %s", tc.msg, rec.Body.String())
			}
		})
	}
}

func TestResendEmailFailure(t *testing.T) {
	f := newFixture(t)
	postForm(f.payfast.Notify, itnForm("COMPLETE"))
	drain(t, f.tracker)

	f.mailer.err = errors.New("smtp down")
	rec := httptest.NewRecorder()
	f.invoices.Resend(rec, httptest.NewRequest(http.MethodGet, "/invoices/resend?invoiceNo=INV-202503-456789", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Resend failed") {
		t.Fatalf("expected 500 Resend failed, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.payfast.Notifications(rec, httptest.NewRequest(http.MethodGet, "/payfast/itn/PF1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without audit log, got %d", rec.Code)
	}

	f.payfast.Log = stubLog{entries: []models.ITNLogEntry{{ID: "a", PFPaymentID: "PF1", Outcome: "issued"}}}
	rec = httptest.NewRecorder()
	f.payfast.Notifications(rec, httptest.NewRequest(http.MethodGet, "/payfast/itn/PF1?:pf_payment_id=PF1", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"outcome":"issued"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	f.payfast.Log = stubLog{err: errors.New("db down")}
	rec = httptest.NewRecorder()
	f.payfast.Notifications(rec, httptest.NewRequest(http.MethodGet, "/payfast/itn/PF1?:pf_payment_id=PF1", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}
