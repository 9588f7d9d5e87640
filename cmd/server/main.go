package main

import (
	"log"
	"net/http"

	"crossyarena/server/internal/server"
)

func main() {
	registry := server.NewRegistry()

	http.HandleFunc("/new", server.NewGameHandler(registry))
	http.HandleFunc("/join", server.JoinHandler(registry))
	http.HandleFunc("/play", server.PlayHandler(registry))
	http.HandleFunc("/ws", server.WebSocketHandler(registry))
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("crossyarena server running"))
	})

	port := ":8080"
	log.Printf("Starting server on %s", port)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws", port)

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server error:", err)
	}
}
