package services

import (
	"errors"
	"testing"

	"payfastBack/internal/config"
	"payfastBack/internal/models"
	"payfastBack/internal/payfast"
	"payfastBack/internal/pricing"
)

func testGateway() config.Gateway {
	return config.Gateway{
		Mode:        payfast.ModeSandbox,
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "jt7NOE43FZPn",
		ReturnURL:   "https://shop.test/thanks",
		CancelURL:   "https://shop.test/cancel",
		NotifyURL:   "https://api.shop.test/payfast/itn",
		Endpoints:   payfast.EndpointsFor(payfast.ModeSandbox),
	}
}

func TestSignCheckout(t *testing.T) {
	svc := NewPayfastService(testGateway(), pricing.Default())

	resp, err := svc.SignCheckout(models.SignRequest{SKU: "WA-02", NameFirst: "Thandi", EmailAddress: "thandi@example.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK || resp.ProcessURL != "https://sandbox.payfast.co.za/eng/process" {
		t.Fatalf("unexpected response %+v", resp)
	}

	want := map[string]string{
		"amount":           "2499.00",
		"item_name":        "WA-02",
		"item_description": "WA-02 purchase",
		"custom_str1":      "WA-02",
		"merchant_id":      "10000100",
		"notify_url":       "https://api.shop.test/payfast/itn",
		"name_last":        "",
	}
	for k, v := range want {
		if got := resp.Fields[k]; got != v {
			t.Fatalf("field %s: expected %q got %q", k, v, got)
		}
	}

	if !payfast.Verify(resp.Fields, resp.Fields["signature"], "jt7NOE43FZPn") {
		t.Fatal("signed fields do not verify")
	}
	if payfast.Verify(resp.Fields, resp.Fields["signature"], "") {
		t.Fatal("signature must depend on the passphrase")
	}
}

func TestSignCheckoutUnknownSKU(t *testing.T) {
	svc := NewPayfastService(testGateway(), pricing.Default())
	for _, sku := range []string{"", "WA-99"} {
		if _, err := svc.SignCheckout(models.SignRequest{SKU: sku}); !errors.Is(err, ErrUnknownProduct) {
			t.Fatalf("sku %q: expected ErrUnknownProduct, got %v", sku, err)
		}
	}
}
