package models

import (
	"net/url"
	"strings"
)

// Notification is an ITN field set as received from the gateway. Nothing in
// it is trusted until the pipeline has validated it.
type Notification map[string]string

// NotificationFromForm flattens form values, keeping the first value per key.
func NotificationFromForm(form url.Values) Notification {
	n := make(Notification, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			n[k] = vs[0]
		}
	}
	return n
}

func (n Notification) Signature() string   { return n["signature"] }
func (n Notification) SKU() string         { return n["custom_str1"] }
func (n Notification) Status() string      { return n["payment_status"] }
func (n Notification) PFPaymentID() string { return n["pf_payment_id"] }
func (n Notification) MPaymentID() string  { return n["m_payment_id"] }

// ClaimedAmount returns amount_gross, or amount when amount_gross is empty.
func (n Notification) ClaimedAmount() string {
	if v := n["amount_gross"]; v != "" {
		return v
	}
	return n["amount"]
}

// CustomerName joins the buyer's first and last name.
func (n Notification) CustomerName() string {
	return strings.TrimSpace(n["name_first"] + " " + n["name_last"])
}

// Fields returns a copy of the raw field map.
func (n Notification) Fields() map[string]string {
	out := make(map[string]string, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}
