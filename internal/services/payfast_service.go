package services

import (
	"errors"
	"strings"

	"payfastBack/internal/config"
	"payfastBack/internal/models"
	"payfastBack/internal/payfast"
	"payfastBack/internal/pricing"
)

// ErrUnknownProduct is returned for a product code missing from the price table.
var ErrUnknownProduct = errors.New("unknown product code")

// PayfastService builds signed checkout forms.
type PayfastService struct {
	gateway config.Gateway
	prices  *pricing.Table
}

func NewPayfastService(gateway config.Gateway, prices *pricing.Table) *PayfastService {
	return &PayfastService{gateway: gateway, prices: prices}
}

// SignCheckout prices req.SKU from the table and returns the field set the
// storefront must post to the gateway, including its signature.
func (s *PayfastService) SignCheckout(req models.SignRequest) (models.SignResponse, error) {
	sku := strings.TrimSpace(req.SKU)
	price, ok := s.prices.PriceOf(sku)
	if sku == "" || !ok {
		return models.SignResponse{}, ErrUnknownProduct
	}

	fields := map[string]string{
		"merchant_id":      s.gateway.MerchantID,
		"merchant_key":     s.gateway.MerchantKey,
		"return_url":       s.gateway.ReturnURL,
		"cancel_url":       s.gateway.CancelURL,
		"notify_url":       s.gateway.NotifyURL,
		"name_first":       req.NameFirst,
		"name_last":        req.NameLast,
		"email_address":    req.EmailAddress,
		"m_payment_id":     req.MPaymentID,
		"amount":           price.StringFixed(2),
		"item_name":        sku,
		"item_description": sku + " purchase",
		"custom_str1":      sku,
	}
	fields[payfast.SignatureField] = payfast.Sign(fields, s.gateway.Passphrase)

	return models.SignResponse{
		OK:         true,
		ProcessURL: s.gateway.Endpoints.Process,
		Fields:     fields,
	}, nil
}
