package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/familycart/internal/grocery"
	"github.com/dukerupert/familycart/internal/images"
	"github.com/dukerupert/familycart/internal/model"
	"github.com/dukerupert/familycart/internal/store"
	"github.com/dukerupert/familycart/internal/websocket"
)

type CatalogHandler struct {
	catalog   *store.CatalogStore
	hub       Broadcaster
	maxUpload int64
	logger    *slog.Logger
}

// NewCatalogHandler serves products. maxUpload caps the image request body;
// zero means images.MaxUploadBytes.
func NewCatalogHandler(cs *store.CatalogStore, hub Broadcaster, maxUpload int64, logger *slog.Logger) *CatalogHandler {
	if maxUpload <= 0 {
		maxUpload = images.MaxUploadBytes
	}
	return &CatalogHandler{catalog: cs, hub: orNop(hub), maxUpload: maxUpload, logger: logger}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	var f model.ProductFilter
	q := r.URL.Query()
	f.Search = strings.TrimSpace(q.Get("search"))
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		f.CategoryID = &id
	}

	products, err := h.catalog.ListProducts(f)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	p, err := h.catalog.GetProduct(id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	// Auto-categorize if no category provided
	if in.CategoryID == nil {
		in.CategoryID = h.guessCategory(in.Name, in.NameHe)
	}

	p, err := h.catalog.CreateProduct(in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityProduct, websocket.ActionCreated, p.ID, 0))
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) guessCategory(names ...*string) *int64 {
	for _, n := range names {
		if n == nil {
			continue
		}
		name := grocery.Categorize(*n)
		if name == "" {
			continue
		}
		cat, err := h.catalog.FindCategoryByName(name)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				h.logger.Warn("auto-categorize", "category", name, "error", err)
			}
			return nil
		}
		return &cat.ID
	}
	return nil
}

func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in model.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	p, err := h.catalog.UpdateProduct(id, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityProduct, websocket.ActionUpdated, p.ID, 0))
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityProduct, websocket.ActionDeleted, id, 0))
	deleted(w)
}

// UploadImage accepts a multipart form with an "image" file part.
func (h *CatalogHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	if r.ContentLength > h.maxUpload {
		writeError(w, h.logger, r, &http.MaxBytesError{Limit: h.maxUpload})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, h.logger, r, err)
			return
		}
		writeMessage(w, http.StatusBadRequest, "expected multipart form with an image file")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "no image file")
		return
	}
	defer file.Close()

	path, err := h.catalog.AttachImage(r.Context(), id, store.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityProduct, websocket.ActionUpdated, id, 0))
	writeJSON(w, http.StatusOK, map[string]string{"image_path": path})
}
