package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"
)

// Handler upgrades GET /ws to a websocket and keeps it subscribed to hub
// until the peer goes away. An optional ?list_id= narrows list and item
// events to one list. Any origin is accepted; the app runs on a household
// LAN without auth.
func Handler(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var listID int64
		if v := r.URL.Query().Get("list_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "list_id: must be a positive integer"})
				return
			}
			listID = id
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("websocket accept", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn, listID).Run(r.Context())
		conn.Close(ws.StatusNormalClosure, "")
	}
}
