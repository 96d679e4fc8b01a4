package payfast

import "testing"

func sampleFields() map[string]string {
	return map[string]string{
		"merchant_id":   "10000100",
		"amount":        "1499.00",
		"item_name":     "WA-01",
		"name_first":    "Jane O'Neil",
		"email_address": "jane+test@example.com",
		"name_last":     "",
		"signature":     "ignored",
	}
}

func TestCanonical(t *testing.T) {
	got := Canonical(sampleFields(), "")
	want := "amount=1499.00&email_address=jane%2Btest%40example.com&item_name=WA-01&merchant_id=10000100&name_first=Jane+O'Neil"
	if got != want {
		t.Fatalf("canonical mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestSignKnownVectors(t *testing.T) {
	cases := []struct {
		name       string
		fields     map[string]string
		passphrase string
		want       string
	}{
		{"no passphrase", sampleFields(), "", "2dda03891af1d86350c42bda5c94fc45"},
		{"with passphrase", sampleFields(), "jt7NOE43FZPn", "9fa94eb4786b5f70a139e6c740cdd295"},
		{"utf8 and reserved", map[string]string{"item_description": "WA-01 purchase (ünï) 100%"}, "a b&c", "447665c0a085fa6816d43640da6295a7"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sign(tc.fields, tc.passphrase); got != tc.want {
				t.Fatalf("expected %s got %s", tc.want, got)
			}
		})
	}
}

func TestSignIsOrderIndependent(t *testing.T) {
	keys := []string{"merchant_id", "amount", "item_name", "name_first", "email_address"}
	base := sampleFields()
	want := Sign(base, "secret")

	// Rebuild the map with every rotation of insertion order.
	for shift := range keys {
		m := make(map[string]string, len(keys))
		for i := range keys {
			k := keys[(i+shift)%len(keys)]
			m[k] = base[k]
		}
		if got := Sign(m, "secret"); got != want {
			t.Fatalf("rotation %d: expected %s got %s", shift, want, got)
		}
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	fields := sampleFields()
	fields["signature"] = Sign(fields, "pass")
	if !Verify(fields, fields["signature"], "pass") {
		t.Fatal("expected signature to verify")
	}
	if Verify(fields, fields["signature"], "other") {
		t.Fatal("unexpected verify with wrong passphrase")
	}
	if Verify(fields, "", "pass") {
		t.Fatal("empty signature must not verify")
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	for _, key := range []string{"amount_gross", "payment_status", "custom_str1"} {
		t.Run(key, func(t *testing.T) {
			fields := map[string]string{
				"amount_gross":   "1499.00",
				"payment_status": "COMPLETE",
				"custom_str1":    "WA-01",
				"pf_payment_id":  "PF123456789",
			}
			sig := Sign(fields, "pass")
			fields[key] = fields[key] + "x"
			if Verify(fields, sig, "pass") {
				t.Fatalf("tampered %s still verifies", key)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	cases := map[string]string{
		"a b":       "a+b",
		"a+b":       "a%2Bb",
		"!~*'()-_.": "!~*'()-_.",
		"/?#":       "%2F%3F%23",
		"é":         "%C3%A9",
	}
	for in, want := range cases {
		if got := Encode(in); got != want {
			t.Errorf("Encode(%q) = %q, want %q", in, got, want)
		}
	}
}
