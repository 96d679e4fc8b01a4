package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"payfastBack/internal/repositories"
	"payfastBack/internal/services"
)

type InvoiceHandler struct {
	Service *services.InvoiceService
	Logger  *slog.Logger
}

func (h *InvoiceHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrInvoiceNotFound) || errors.Is(err, repositories.ErrInvalidInvoiceNo)
}

// GET /invoices/resend?invoiceNo=INV-...
func (h *InvoiceHandler) Resend(w http.ResponseWriter, r *http.Request) {
	invoiceNo := getParam(r, "invoiceNo")
	err := h.Service.Resend(r.Context(), invoiceNo)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		h.logger().Error("resend invoice", "invoice_no", invoiceNo, "error", err)
		writeError(w, http.StatusInternalServerError, "Resend failed")
	}
}

// GET /invoices/repair?invoiceNo=INV-...
func (h *InvoiceHandler) Repair(w http.ResponseWriter, r *http.Request) {
	invoiceNo := getParam(r, "invoiceNo")
	loc, err := h.Service.Repair(r.Context(), invoiceNo)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "fileUrl": loc.FileURL})
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		h.logger().Error("repair invoice", "invoice_no", invoiceNo, "error", err)
		writeError(w, http.StatusInternalServerError, "Repair failed")
	}
}

// GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
