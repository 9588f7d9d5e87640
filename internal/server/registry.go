package server

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"crossyarena/server/internal/playerid"
)

// pendingSocket is a reserved player slot between GET /join and the
// websocket actually upgrading: a socket id and player id are handed out
// immediately so GET /play can answer before any connection exists.
type pendingSocket struct {
	playerId playerid.PlayerId
	name     string
}

// Registry tracks every live match by game id, and every socket a /join
// call has reserved but not yet upgraded. One Registry backs the whole
// HTTP surface; the teacher has no analogous multi-room concept (it runs a
// single implicit World), so this is new, built in the teacher's own
// mutex-guarded-map style (compare World.Players).
type Registry struct {
	mu      sync.Mutex
	matches map[string]*Match
	pending map[string]pendingSocket // socketId -> reservation
	owners  map[string]string        // socketId -> gameId
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		matches: make(map[string]*Match),
		pending: make(map[string]pendingSocket),
		owners:  make(map[string]string),
	}
}

// NewGame allocates a fresh match with a random seed and starts its tick
// loop in its own goroutine.
func (r *Registry) NewGame() *Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	gameId := uuid.NewString()
	seedBytes := uuid.New()
	seed := binary.BigEndian.Uint32(seedBytes[:4])
	match := NewMatch(gameId, seed)
	r.matches[gameId] = match
	go match.Run()
	return match
}

// Join reserves a player id within gameId for name, handing back a fresh
// socket id the client will present to /play and /ws.
func (r *Registry) Join(gameId, name string) (socketId string, match *Match, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	match, ok := r.matches[gameId]
	if !ok {
		return "", nil, fmt.Errorf("unknown game_id %q", gameId)
	}
	id, ok := match.NextFreePlayerId()
	if !ok {
		return "", nil, fmt.Errorf("game %q is full", gameId)
	}

	socketId = uuid.NewString()
	r.pending[socketId] = pendingSocket{playerId: id, name: name}
	r.owners[socketId] = gameId
	return socketId, match, nil
}

// Resolve looks up the match and reserved player id for a socket id that
// has already called /join, for use by /play and /ws.
func (r *Registry) Resolve(socketId string) (*Match, playerid.PlayerId, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gameId, ok := r.owners[socketId]
	if !ok {
		return nil, 0, false
	}
	match, ok := r.matches[gameId]
	if !ok {
		return nil, 0, false
	}
	reservation, ok := r.pending[socketId]
	if !ok {
		return nil, 0, false
	}
	return match, reservation.playerId, true
}
