package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"crossyarena/server/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 8192,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, protocol.ErrorResponse{Error: msg})
}

// NewGameHandler answers GET /new by allocating a fresh match.
func NewGameHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reg.NewGame()
		writeJSON(w, http.StatusOK, protocol.NewGameResponse{GameId: match.GameId})
	}
}

// JoinHandler answers GET /join?game_id&name by reserving a player slot.
func JoinHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameId := r.URL.Query().Get("game_id")
		name := r.URL.Query().Get("name")
		if gameId == "" {
			writeError(w, http.StatusBadRequest, "missing game_id")
			return
		}

		socketId, match, err := reg.Join(gameId, name)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, protocol.JoinResponse{
			SocketId: socketId,
			ServerDescription: protocol.ServerDescription{
				Seed:    match.Seed,
				Version: protocol.ServerVersion,
			},
			ServerTimeUs: uint32(time.Now().UnixMicro()),
		})
	}
}

// PlayHandler answers GET /play?game_id&socket_id with the same init
// payload the websocket handshake will also deliver, letting a client
// prime its Map/Timeline before the socket is even open.
func PlayHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		socketId := r.URL.Query().Get("socket_id")
		match, playerId, ok := reg.Resolve(socketId)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown socket_id")
			return
		}

		writeJSON(w, http.StatusOK, protocol.InitServerResponse{
			ServerVersion: protocol.ServerVersion,
			PlayerCount:   uint8(match.ListenerCount()),
			Seed:          match.Seed,
			PlayerId:      uint8(playerId),
		})
	}
}

// WebSocketHandler answers WS /ws?game_id&socket_id, upgrading a
// previously-reserved socket to a live connection and starting its
// read/write pumps, mirroring the teacher's HandleWebSocket exactly in
// shape.
func WebSocketHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		socketId := r.URL.Query().Get("socket_id")
		match, playerId, ok := reg.Resolve(socketId)
		if !ok {
			http.Error(w, "unknown socket_id", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}

		client := NewClient(socketId, playerId, conn, match)
		log.Printf("match %s: socket %s connected as player %d", match.GameId, socketId, playerId)

		go client.WritePump()
		go client.ReadPump()
	}
}
