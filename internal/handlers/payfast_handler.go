package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"payfastBack/internal/models"
	"payfastBack/internal/services"
	"payfastBack/internal/tasks"
)

const maxSignBody = 64 << 10

// ITNLogReader lists audited notifications for one payment.
type ITNLogReader interface {
	ListByPaymentID(ctx context.Context, pfPaymentID string) ([]models.ITNLogEntry, error)
}

type PayfastHandler struct {
	Service *services.PayfastService
	ITN     *services.ITNService
	Tasks   *tasks.Tracker
	Log     ITNLogReader
	Logger  *slog.Logger
}

func (h *PayfastHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// POST /payfast/sign
// { "sku": "WA-01", "name_first": "...", "name_last": "...", "email_address": "...", "m_payment_id": "..." }
func (h *PayfastHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var req models.SignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSignBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown SKU")
		return
	}

	resp, err := h.Service.SignCheckout(req)
	switch {
	case errors.Is(err, services.ErrUnknownProduct):
		writeError(w, http.StatusBadRequest, "Unknown SKU")
		return
	case err != nil:
		h.logger().Error("sign checkout", "sku", req.SKU, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /payfast/itn  (application/x-www-form-urlencoded)
// The gateway only needs a quick 200; validation and invoicing run afterwards.
func (h *PayfastHandler) Notify(w http.ResponseWriter, r *http.Request) {
	parseErr := r.ParseForm()
	Acknowledge(w)

	if parseErr != nil {
		h.logger().Warn("ITN body could not be parsed", "error", parseErr)
		return
	}
	n := models.NotificationFromForm(r.PostForm)
	if !h.Tasks.Go("payfast-itn", func(ctx context.Context) {
		h.ITN.Process(ctx, n)
	}) {
		h.logger().Error("ITN dropped during shutdown", "pf_payment_id", n.PFPaymentID())
	}
}

// Acknowledge writes the transport response the gateway expects and flushes it.
func Acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// GET /payfast/itn/:pf_payment_id
func (h *PayfastHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	if h.Log == nil {
		writeError(w, http.StatusNotFound, "Audit log disabled")
		return
	}
	id := getParam(r, "pf_payment_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "pf_payment_id is required")
		return
	}
	entries, err := h.Log.ListByPaymentID(r.Context(), id)
	if err != nil {
		h.logger().Error("list ITN log", "pf_payment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if entries == nil {
		entries = []models.ITNLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notifications": entries})
}
