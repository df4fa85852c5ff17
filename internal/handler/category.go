package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/familycart/internal/model"
	"github.com/dukerupert/familycart/internal/store"
)

type CategoryHandler struct {
	catalog *store.CatalogStore
	logger  *slog.Logger
}

func NewCategoryHandler(cs *store.CatalogStore, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: cs, logger: logger}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if cats == nil {
		cats = []model.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	cat, err := h.catalog.CreateCategory(in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in model.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	cat, err := h.catalog.UpdateCategory(id, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.catalog.DeleteCategory(id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	deleted(w)
}
