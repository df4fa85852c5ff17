package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/familycart/internal/metrics"
	"github.com/dukerupert/familycart/internal/model"
	"github.com/dukerupert/familycart/internal/shopping"
	"github.com/dukerupert/familycart/internal/store"
	"github.com/dukerupert/familycart/internal/websocket"
)

type ListHandler struct {
	lists   *store.ListStore
	hub     Broadcaster
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewListHandler serves shopping lists, their items and completion. hub and
// m may be nil.
func NewListHandler(ls *store.ListStore, hub Broadcaster, m *metrics.Metrics, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: ls, hub: orNop(hub), metrics: m, logger: logger}
}

type listRequest struct {
	Name *string `json:"name"`
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.ListActive()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if lists == nil {
		lists = []model.ListSummary{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var name string
	if req.Name != nil {
		name = *req.Name
	}
	l, err := h.lists.CreateList(name)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, websocket.ActionCreated, l.ID, 0))
	writeJSON(w, http.StatusCreated, l)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	detail, err := h.lists.GetListDetail(id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	l, err := h.lists.UpdateList(id, req.Name)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, websocket.ActionUpdated, l.ID, 0))
	writeJSON(w, http.StatusOK, l)
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.lists.DeleteList(id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, websocket.ActionDeleted, id, 0))
	deleted(w)
}

func (h *ListHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	p, err := h.lists.Progress(id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Complete archives the list into history.
func (h *ListHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	rec, err := h.lists.Complete(id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.metrics.ObserveCompletion(len(rec.Items))
	h.logger.Info("list completed", "list_id", id, "history_id", rec.ID, "items", len(rec.Items))
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, websocket.ActionCompleted, id, 0))
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityHistory, websocket.ActionCreated, rec.ID, id))
	writeJSON(w, http.StatusOK, rec)
}

func (h *ListHandler) pathIDs(w http.ResponseWriter, r *http.Request) (listID, itemID int64, ok bool) {
	listID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return 0, 0, false
	}
	itemID, err = parseIDParam(r, "itemId")
	if err != nil {
		writeError(w, h.logger, r, err)
		return 0, 0, false
	}
	return listID, itemID, true
}

func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in model.NewItem
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	item, err := h.lists.AddItem(listID, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, websocket.ActionCreated, item.ID, listID))
	writeJSON(w, http.StatusCreated, item)
}

type bulkItemsRequest struct {
	Items []model.NewItem `json:"items"`
}

// AddItems adds every item or none.
func (h *ListHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var req bulkItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	items, err := h.lists.AddItems(listID, req.Items)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	for _, item := range items {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, websocket.ActionCreated, item.ID, listID))
	}
	writeJSON(w, http.StatusCreated, items)
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	var patch model.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	item, err := h.lists.UpdateItem(listID, itemID, patch)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if patch.Checked != nil {
		h.metrics.ObserveState(item.Checked.String())
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, websocket.ActionUpdated, item.ID, listID))
	writeJSON(w, http.StatusOK, item)
}

type toggleRequest struct {
	State *shopping.State `json:"state"`
}

// ToggleItem applies a shop-mode button press; pressing the state an item
// already has clears it.
func (h *ListHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if req.State == nil {
		writeError(w, h.logger, r, &store.ValidationError{Field: "state", Message: "must be 1 or 2"})
		return
	}
	item, err := h.lists.ToggleItem(listID, itemID, *req.State)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.metrics.ObserveState(item.Checked.String())
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, websocket.ActionToggled, item.ID, listID))
	writeJSON(w, http.StatusOK, item)
}

func (h *ListHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	if err := h.lists.RemoveItem(listID, itemID); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, websocket.ActionDeleted, itemID, listID))
	deleted(w)
}
