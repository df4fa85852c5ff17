package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/familycart/internal/database"
	"github.com/dukerupert/familycart/internal/images"
	"github.com/dukerupert/familycart/internal/metrics"
	"github.com/dukerupert/familycart/internal/model"
	"github.com/dukerupert/familycart/internal/shopping"
	"github.com/dukerupert/familycart/internal/store"
	"github.com/dukerupert/familycart/internal/websocket"
)

type recordingHub struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (h *recordingHub) Broadcast(msg websocket.Message) {
	h.mu.Lock()
	h.msgs = append(h.msgs, msg)
	h.mu.Unlock()
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, m := range h.msgs {
		out = append(out, m.Type)
	}
	return out
}

type testAPI struct {
	mux *http.ServeMux
	hub *recordingHub
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	imgs, err := images.NewDiskStore(t.TempDir(), "/images")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := &recordingHub{}
	catalog := store.NewCatalogStore(db, imgs, logger)

	cat := NewCategoryHandler(catalog, logger)
	prod := NewCatalogHandler(catalog, hub, 1<<10, logger)
	lists := NewListHandler(store.NewListStore(db), hub, metrics.New(nil), logger)
	hist := NewHistoryHandler(store.NewHistoryStore(db), hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", cat.List)
	mux.HandleFunc("POST /categories", cat.Create)
	mux.HandleFunc("DELETE /categories/{id}", cat.Delete)
	mux.HandleFunc("GET /catalog", prod.List)
	mux.HandleFunc("POST /catalog", prod.Create)
	mux.HandleFunc("GET /catalog/{id}", prod.Get)
	mux.HandleFunc("PUT /catalog/{id}", prod.Update)
	mux.HandleFunc("POST /catalog/{id}/image", prod.UploadImage)
	mux.HandleFunc("GET /lists", lists.List)
	mux.HandleFunc("POST /lists", lists.Create)
	mux.HandleFunc("GET /lists/{id}", lists.Get)
	mux.HandleFunc("POST /lists/{id}/items", lists.AddItem)
	mux.HandleFunc("POST /lists/{id}/items/bulk", lists.AddItems)
	mux.HandleFunc("PUT /lists/{id}/items/{itemId}", lists.UpdateItem)
	mux.HandleFunc("POST /lists/{id}/items/{itemId}/toggle", lists.ToggleItem)
	mux.HandleFunc("DELETE /lists/{id}/items/{itemId}", lists.RemoveItem)
	mux.HandleFunc("GET /lists/{id}/progress", lists.Progress)
	mux.HandleFunc("POST /lists/{id}/complete", lists.Complete)
	mux.HandleFunc("GET /history", hist.List)
	mux.HandleFunc("GET /history/{id}", hist.Get)

	return &testAPI{mux: mux, hub: hub}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestCreateProductAutoCategorizes(t *testing.T) {
	api := setupAPI(t)

	rec := api.do(t, "POST", "/catalog", map[string]any{"name_he": "חלב"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[model.Product](t, rec)

	assert.Equal(t, "חלב", p.Name)
	require.NotNil(t, p.CategoryName)
	assert.Equal(t, "Dairy", *p.CategoryName)
	assert.Equal(t, model.DefaultUnit, p.DefaultUnit)

	rec = api.do(t, "POST", "/catalog", map[string]any{"name": "Widget"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, decode[model.Product](t, rec).CategoryID)

	rec = api.do(t, "POST", "/catalog", map[string]any{"notes": "nameless"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Contains(t, api.hub.types(), "product_created")
}

func TestListItemFlow(t *testing.T) {
	api := setupAPI(t)

	rec := api.do(t, "POST", "/lists", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "POST", "/lists", map[string]any{"name": "Weekly"})
	require.Equal(t, http.StatusCreated, rec.Code)
	list := decode[model.ShoppingList](t, rec)

	rec = api.do(t, "POST", "/lists/999/items", map[string]any{"custom_name": "Bread"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "POST", pathf("/lists/%d/items", list.ID), map[string]any{"custom_name": "Bread", "quantity": 2, "unit": "loaf"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bread := decode[model.ListItem](t, rec)

	rec = api.do(t, "PUT", pathf("/lists/%d/items/%d", list.ID, bread.ID), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty patch")

	rec = api.do(t, "PUT", pathf("/lists/%d/items/%d", list.ID+1, bread.ID), map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "item addressed through wrong list")

	rec = api.do(t, "POST", pathf("/lists/%d/items/%d/toggle", list.ID, bread.ID), map[string]any{"state": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[model.ListItem](t, rec).Checked)

	rec = api.do(t, "POST", pathf("/lists/%d/items/%d/toggle", list.ID, bread.ID), map[string]any{"state": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[model.ListItem](t, rec).Checked, "pressing found twice clears")

	rec = api.do(t, "POST", pathf("/lists/%d/items/bulk", list.ID), map[string]any{
		"items": []map[string]any{{"custom_name": "Eggs"}, {"custom_name": "Jam"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[[]model.ListItem](t, rec), 2)

	rec = api.do(t, "DELETE", pathf("/lists/%d/items/%d", list.ID, bread.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, "DELETE", pathf("/lists/%d/items/%d", list.ID, bread.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "GET", pathf("/lists/%d/progress", list.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prog := decode[shopping.Progress](t, rec)
	assert.Equal(t, 2, prog.Total)
	assert.Equal(t, 2, prog.Pending)

	assert.Contains(t, api.hub.types(), "item_toggled")
	assert.Contains(t, api.hub.types(), "item_deleted")
}

func TestToggleRequiresState(t *testing.T) {
	api := setupAPI(t)

	list := decode[model.ShoppingList](t, api.do(t, "POST", "/lists", map[string]any{"name": "Weekly"}))
	milk := decode[model.ListItem](t, api.do(t, "POST", pathf("/lists/%d/items", list.ID), map[string]any{"custom_name": "Milk"}))
	require.Equal(t, http.StatusOK, api.do(t, "PUT", pathf("/lists/%d/items/%d", list.ID, milk.ID), map[string]any{"checked": 1}).Code)

	toggle := pathf("/lists/%d/items/%d/toggle", list.ID, milk.ID)
	bodies := map[string]any{
		"no body":     nil,
		"empty":       map[string]any{},
		"null state":  map[string]any{"state": nil},
		"clear state": map[string]any{"state": 0},
		"bad state":   map[string]any{"state": 5},
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := api.do(t, "POST", toggle, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], "state")
		})
	}

	rec := api.do(t, "GET", pathf("/lists/%d", list.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[model.ListDetail](t, rec)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, shopping.Found, detail.Items[0].Checked, "rejected toggles leave the item found")
}

func TestWeeklyScenario(t *testing.T) {
	api := setupAPI(t)

	rec := api.do(t, "POST", "/catalog", map[string]any{"name": "Apples", "default_quantity": 3, "default_unit": "kg"})
	require.Equal(t, http.StatusCreated, rec.Code)
	apples := decode[model.Product](t, rec)

	list := decode[model.ShoppingList](t, api.do(t, "POST", "/lists", map[string]any{"name": "Weekly"}))

	rec = api.do(t, "POST", pathf("/lists/%d/items", list.ID), map[string]any{"custom_name": "Bread", "quantity": 2, "unit": "loaf"})
	require.Equal(t, http.StatusCreated, rec.Code)
	bread := decode[model.ListItem](t, rec)

	rec = api.do(t, "POST", pathf("/lists/%d/items", list.ID), map[string]any{"product_id": apples.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	fruit := decode[model.ListItem](t, rec)
	assert.Equal(t, 3.0, fruit.Quantity)
	assert.Equal(t, "kg", fruit.Unit)

	require.Equal(t, http.StatusOK, api.do(t, "PUT", pathf("/lists/%d/items/%d", list.ID, bread.ID), map[string]any{"checked": 1}).Code)
	require.Equal(t, http.StatusOK, api.do(t, "PUT", pathf("/lists/%d/items/%d", list.ID, fruit.ID), map[string]any{"checked": 2}).Code)

	detail := decode[model.ListDetail](t, api.do(t, "GET", pathf("/lists/%d", list.ID), nil))
	assert.Equal(t, shopping.Progress{Total: 2, Found: 1, Missing: 1, Pending: 0, Percent: 50}, detail.Progress)

	rec = api.do(t, "POST", pathf("/lists/%d/complete", list.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hist := decode[model.HistoryDetail](t, rec)
	assert.Equal(t, 2, hist.ItemCount)
	require.Len(t, hist.Items, 2)

	active := decode[[]model.ListSummary](t, api.do(t, "GET", "/lists", nil))
	assert.Empty(t, active)

	records := decode[[]model.PurchaseHistory](t, api.do(t, "GET", "/history", nil))
	require.Len(t, records, 1)
	assert.Equal(t, "Weekly", records[0].ListName)

	rec = api.do(t, "POST", pathf("/lists/%d/complete", list.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = api.do(t, "POST", pathf("/lists/%d/items", list.ID), map[string]any{"custom_name": "Late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = api.do(t, "POST", "/lists/999/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Contains(t, api.hub.types(), "list_completed")
	assert.Contains(t, api.hub.types(), "history_created")
}

func TestDeleteCategoryKeepsProduct(t *testing.T) {
	api := setupAPI(t)

	rec := api.do(t, "POST", "/categories", map[string]any{"name": "Garden"})
	require.Equal(t, http.StatusCreated, rec.Code)
	cat := decode[model.Category](t, rec)

	rec = api.do(t, "POST", "/catalog", map[string]any{"name": "Seeds", "category_id": cat.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	p := decode[model.Product](t, rec)

	require.Equal(t, http.StatusOK, api.do(t, "DELETE", pathf("/categories/%d", cat.ID), nil).Code)

	rec = api.do(t, "GET", pathf("/catalog/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Product](t, rec)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.CategoryName)
}

func uploadRequest(t *testing.T, path, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	api := setupAPI(t)
	p := decode[model.Product](t, api.do(t, "POST", "/catalog", map[string]any{"name_he": "חלב"}))

	rec := httptest.NewRecorder()
	api.mux.ServeHTTP(rec, uploadRequest(t, pathf("/catalog/%d/image", p.ID), "milk.png", "image/png", []byte("png-bytes")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Contains(t, body["image_path"], "/images/product-")

	got := decode[model.Product](t, api.do(t, "GET", pathf("/catalog/%d", p.ID), nil))
	require.NotNil(t, got.ImagePath)
	assert.Equal(t, body["image_path"], *got.ImagePath)

	rec = httptest.NewRecorder()
	api.mux.ServeHTTP(rec, uploadRequest(t, pathf("/catalog/%d/image", p.ID), "notes.txt", "text/plain", []byte("hi")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	api.mux.ServeHTTP(rec, uploadRequest(t, "/catalog/999/image", "a.png", "image/png", []byte("x")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	api.mux.ServeHTTP(rec, uploadRequest(t, pathf("/catalog/%d/image", p.ID), "big.png", "image/png", bytes.Repeat([]byte("x"), 4<<10)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = api.do(t, "POST", pathf("/catalog/%d/image", p.ID), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "not multipart")
}

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
