package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/familycart/internal/images"
	"github.com/dukerupert/familycart/internal/store"
	"github.com/dukerupert/familycart/internal/websocket"
)

// Broadcaster receives a message after every successful mutation.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(websocket.Message) {}

func orNop(b Broadcaster) Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps store and storage errors onto status codes. Server-side
// failures are logged and answered with a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	var verr *store.ValidationError
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.As(err, &tooBig):
		writeMessage(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit))
	case errors.Is(err, images.ErrStorage):
		logger.Error("image storage", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "image storage failed")
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &store.ValidationError{Field: name, Message: "invalid id"}
	}
	return id, nil
}

// decodeJSON reads a JSON request body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return err
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &store.ValidationError{Message: "invalid JSON"}
	}
	return &store.ValidationError{Message: err.Error()}
}

// deleted is the body of every successful DELETE.
func deleted(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
