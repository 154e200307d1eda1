package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/transvepo/evidencias-stack/common/httputil"
	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

// EmptyTwiML is the acknowledgement the messaging provider expects.
const EmptyTwiML = "<Response></Response>"

// Webhook handles POST /whatsapp. The sender always gets an empty TwiML
// acknowledgement: ingestion results, including failures, are not visible
// to it. The only other answer is 429 from the rate limiter.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msg := h.readWebhook(w, r)

	key := msg.From
	if key == "" {
		key = httputil.GetClientIP(r)
	}
	allowed, err := h.limiter.Allow(ctx, key)
	if err != nil {
		// Fail open.
		h.logger.WarnContext(ctx, "rate limiter unavailable", logging.Error(err))
		allowed = true
	}
	if !allowed {
		h.logger.WarnContext(ctx, "webhook rate limited", logging.IP(httputil.GetClientIP(r)))
		httputil.WriteXML(w, http.StatusTooManyRequests, EmptyTwiML)
		return
	}

	if _, err := h.ingest.Ingest(ctx, msg.Body); err != nil {
		h.logger.ErrorContext(ctx, "webhook ingestion failed", logging.Error(err))
	}

	httputil.WriteXML(w, http.StatusOK, EmptyTwiML)
}

// readWebhook extracts Body and From from a form or JSON delivery. Anything
// unreadable yields empty values.
func (h *Handler) readWebhook(w http.ResponseWriter, r *http.Request) models.WebhookMessage {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var msg models.WebhookMessage
	if httputil.IsJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil && !errors.Is(err, io.EOF) {
			h.logger.DebugContext(r.Context(), "unreadable JSON webhook body", logging.Error(err))
			return models.WebhookMessage{}
		}
		return msg
	}

	if err := r.ParseForm(); err != nil {
		h.logger.DebugContext(r.Context(), "unreadable form webhook body", logging.Error(err))
		return models.WebhookMessage{}
	}
	msg.Body = r.PostFormValue("Body")
	msg.From = r.PostFormValue("From")
	return msg
}
