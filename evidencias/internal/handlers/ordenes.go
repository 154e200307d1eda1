package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/transvepo/evidencias-stack/common/httputil"
	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
	"github.com/transvepo/evidencias-stack/evidencias/internal/service"
)

// Error messages shown by the operator dashboard.
const (
	MsgInvalidStatus = "Status inválido"
	MsgNotFound      = "Evidencia no encontrada"
	MsgUpdateFailed  = "Error actualizando evidencia"
	MsgListFailed    = "Error obteniendo ordenes"
	MsgGetFailed     = "Error obteniendo evidencia"
)

// ListOrders handles GET /api/ordenes?status=
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	req := models.ListOrdersRequest{Status: r.URL.Query().Get("status")}

	ordenes, err := h.orders.ListOrders(r.Context(), req.Status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			httputil.WriteError(w, http.StatusBadRequest, MsgInvalidStatus)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to list orders", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, MsgListFailed)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ordenes)
}

// GetOrder handles GET /api/ordenes/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, MsgNotFound)
		return
	}

	orden, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, MsgNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to get order", logging.EvidenciaID(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, MsgGetFailed)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, orden)
}

// UpdateStatus handles PATCH /api/ordenes/{id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	// A malformed body leaves the status empty, which the service rejects.
	var req models.UpdateStatusRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	// Non-numeric ids map to 0, which no record has.
	id, _ := httputil.ParseID(chi.URLParam(r, "id"))

	err := h.orders.UpdateStatus(r.Context(), id, req.EvidenciaStatus)
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, service.ErrInvalidStatus):
		httputil.WriteError(w, http.StatusBadRequest, MsgInvalidStatus)
	case errors.Is(err, service.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, MsgNotFound)
	default:
		h.logger.ErrorContext(r.Context(), "failed to update evidencia status",
			logging.EvidenciaID(id),
			logging.EvidenciaStatus(req.EvidenciaStatus),
			logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, MsgUpdateFailed)
	}
}
