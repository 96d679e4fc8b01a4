package models

// SignRequest is what the storefront posts to obtain a signed checkout form.
type SignRequest struct {
	SKU          string `json:"sku"`
	NameFirst    string `json:"name_first"`
	NameLast     string `json:"name_last"`
	EmailAddress string `json:"email_address"`
	MPaymentID   string `json:"m_payment_id"`
}

// SignResponse carries the gateway process URL and the signed field set.
type SignResponse struct {
	OK         bool              `json:"ok"`
	ProcessURL string            `json:"processUrl"`
	Fields     map[string]string `json:"fields"`
}
