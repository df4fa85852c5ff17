package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/familycart/internal/model"
	"github.com/dukerupert/familycart/internal/store"
	"github.com/dukerupert/familycart/internal/websocket"
)

type HistoryHandler struct {
	history *store.HistoryStore
	hub     Broadcaster
	logger  *slog.Logger
}

func NewHistoryHandler(hs *store.HistoryStore, hub Broadcaster, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{history: hs, hub: orNop(hub), logger: logger}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.history.List()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if recs == nil {
		recs = []model.PurchaseHistory{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	rec, err := h.history.Get(id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.history.Delete(id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityHistory, websocket.ActionDeleted, id, 0))
	deleted(w)
}

// Items lists every archived item with the name and date of its trip.
func (h *HistoryHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.history.Items()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if items == nil {
		items = []model.HistoryItemEntry{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HistoryHandler) ByItem(w http.ResponseWriter, r *http.Request) {
	groups, err := h.history.ByItem()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if groups == nil {
		groups = []model.ItemHistory{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// LatestMissing returns what was not found on the most recent trip.
func (h *HistoryHandler) LatestMissing(w http.ResponseWriter, r *http.Request) {
	rec, err := h.history.LatestMissing()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
