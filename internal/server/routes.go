package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// Router exposes the HTTP side of the server: a health probe, the room
// occupancy listing, and the websocket entry point.
func (gs *GameServer) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", gs.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/rooms", gs.handleRooms).Methods(http.MethodGet)
	r.HandleFunc("/ws", gs.handleWebsocket)

	return r
}

func (gs *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (gs *GameServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, gs.Rooms())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[writeJSON] encoding response: %v", err)
	}
}
