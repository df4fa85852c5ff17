package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukerupert/familycart/internal/database"
	"github.com/dukerupert/familycart/internal/handler"
	"github.com/dukerupert/familycart/internal/images"
	"github.com/dukerupert/familycart/internal/metrics"
	"github.com/dukerupert/familycart/internal/middleware"
	"github.com/dukerupert/familycart/internal/store"
	ws "github.com/dukerupert/familycart/internal/websocket"
)

// Upload limits per client address.
const (
	uploadLimit  = 20
	uploadWindow = time.Minute
)

// Options carries the non-database parts of the HTTP surface.
type Options struct {
	// MaxUploadBytes caps image uploads; zero uses images.MaxUploadBytes.
	MaxUploadBytes int64
	// DiskImages, when set, is served under its URL prefix.
	DiskImages *images.DiskStore
	// StaticDir is an optional single-page app root. Unknown paths fall
	// back to its index.html.
	StaticDir string
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	metrics     *metrics.Metrics
	categoryH   *handler.CategoryHandler
	catalogH    *handler.CatalogHandler
	listH       *handler.ListHandler
	historyH    *handler.HistoryHandler
	rateLimiter *middleware.RateLimiter
	opts        Options
	logger      *slog.Logger
}

func New(db *sql.DB, imgs images.Store, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New(hub.ClientCount)

	catalogStore := store.NewCatalogStore(db, imgs, logger.With("component", "catalog_store"))
	listStore := store.NewListStore(db)
	historyStore := store.NewHistoryStore(db)

	return &Server{
		db:          db,
		hub:         hub,
		metrics:     m,
		categoryH:   handler.NewCategoryHandler(catalogStore, logger.With("component", "category")),
		catalogH:    handler.NewCatalogHandler(catalogStore, hub, opts.MaxUploadBytes, logger.With("component", "catalog")),
		listH:       handler.NewListHandler(listStore, hub, m, logger.With("component", "list")),
		historyH:    handler.NewHistoryHandler(historyStore, hub, logger.With("component", "history")),
		rateLimiter: middleware.NewRateLimiter(),
		opts:        opts,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))

	s.registerAPIRoutes(mux)

	if s.opts.DiskImages != nil {
		prefix := strings.TrimSuffix(s.opts.DiskImages.URLPrefix(), "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.DiskImages.Dir()))))
	}
	mux.HandleFunc("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})
	if s.opts.StaticDir != "" {
		mux.Handle("GET /", spaHandler(s.opts.StaticDir))
	}

	h := middleware.RequestLogger(s.logger.With("component", "http"))(mux)
	h = s.metrics.Middleware(h)
	return middleware.RequestID(h)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Categories
	mux.HandleFunc("GET /api/categories", s.categoryH.List)
	mux.HandleFunc("POST /api/categories", s.categoryH.Create)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	// Catalog
	mux.HandleFunc("GET /api/catalog", s.catalogH.List)
	mux.HandleFunc("POST /api/catalog", s.catalogH.Create)
	mux.HandleFunc("GET /api/catalog/{id}", s.catalogH.Get)
	mux.HandleFunc("PUT /api/catalog/{id}", s.catalogH.Update)
	mux.HandleFunc("DELETE /api/catalog/{id}", s.catalogH.Delete)
	mux.Handle("POST /api/catalog/{id}/image",
		middleware.RateLimit(s.rateLimiter, middleware.ByRouteAndIP, uploadLimit, uploadWindow)(http.HandlerFunc(s.catalogH.UploadImage)))

	// Lists
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("GET /api/lists/{id}", s.listH.Get)
	mux.HandleFunc("PUT /api/lists/{id}", s.listH.Update)
	mux.HandleFunc("DELETE /api/lists/{id}", s.listH.Delete)
	mux.HandleFunc("GET /api/lists/{id}/progress", s.listH.Progress)
	mux.HandleFunc("POST /api/lists/{id}/complete", s.listH.Complete)

	// List items
	mux.HandleFunc("POST /api/lists/{id}/items", s.listH.AddItem)
	mux.HandleFunc("POST /api/lists/{id}/items/bulk", s.listH.AddItems)
	mux.HandleFunc("PUT /api/lists/{id}/items/{itemId}", s.listH.UpdateItem)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{itemId}", s.listH.RemoveItem)
	mux.HandleFunc("POST /api/lists/{id}/items/{itemId}/toggle", s.listH.ToggleItem)

	// History
	mux.HandleFunc("GET /api/history", s.historyH.List)
	mux.HandleFunc("GET /api/history/items", s.historyH.Items)
	mux.HandleFunc("GET /api/history/by-item", s.historyH.ByItem)
	mux.HandleFunc("GET /api/history/latest/missing", s.historyH.LatestMissing)
	mux.HandleFunc("GET /api/history/{id}", s.historyH.Get)
	mux.HandleFunc("DELETE /api/history/{id}", s.historyH.Delete)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	version, err := database.Version(s.db)
	if err != nil {
		s.logger.Error("health check", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"schema_version": version,
		"ws_clients":     s.hub.ClientCount(),
	})
}

// spaHandler serves files from dir and answers everything else with
// dir/index.html so client-side routes survive a reload.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
