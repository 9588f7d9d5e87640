// Package timeline holds the client-side prediction buffer: a short
// history of GameStates that lets a late input be spliced in at the point
// it actually occurred and everything downstream replayed, and lets an
// authoritative server snapshot be reconciled against local prediction
// without discarding everything the client has already simulated.
package timeline

import (
	"log"
	"sort"

	"crossyarena/server/internal/arena"
	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/worldmap"
)

// StateBufferSize bounds how far back the history is kept; older states
// are dropped once a new one is pushed past this depth.
const StateBufferSize = 32

// TimedInput is a single input report tagged with the client time it was
// sampled at, as received over the wire from a player.
type TimedInput struct {
	TimeUs   uint32
	Input    arena.Input
	PlayerId playerid.PlayerId
}

// TimedState is an authoritative snapshot broadcast by the server, used to
// reconcile a client's local prediction.
type TimedState struct {
	TimeUs       uint32
	PlayerStates playerid.Map[arena.PlayerState]
}

// Timeline is a bounded history of GameStates, newest first (index 0),
// mirroring the source's VecDeque-with-push-front convention.
type Timeline struct {
	GameId      string
	PlayerCount uint8
	Map         *worldmap.Map

	states []arena.GameState
}

// New starts a timeline with a single fresh GameState at t=0.
func New(gameId string, m *worldmap.Map) *Timeline {
	return &Timeline{
		GameId: gameId,
		Map:    m,
		states: []arena.GameState{arena.NewGameState(gameId)},
	}
}

// FromServerParts seeds a timeline from an authoritative snapshot, used
// when a client first joins a match already in progress.
func FromServerParts(gameId string, m *worldmap.Map, timeUs uint32, playerStates playerid.Map[arena.PlayerState], playerCount uint8) *Timeline {
	s := arena.NewGameState(gameId)
	s.TimeUs = timeUs
	s.PlayerStates = playerStates
	return &Timeline{
		GameId:      gameId,
		PlayerCount: playerCount,
		Map:         m,
		states:      []arena.GameState{s},
	}
}

// Tick simulates dtUs forward from the current top state and pushes the
// result.
func (tl *Timeline) Tick(inputs *arena.PlayerInputs, dtUs uint32) {
	next := tl.states[0].Simulate(inputs, dtUs, tl.Map)
	tl.pushState(next)
}

// TickCurrentTime simulates forward to an absolute timeUs, computing dt
// against the current top state.
func (tl *Timeline) TickCurrentTime(inputs *arena.PlayerInputs, timeUs uint32) {
	dt := timeUs - tl.states[0].TimeUs
	tl.Tick(inputs, dt)
}

// GetLastPlayerInputs returns the most recent tick's recorded inputs.
func (tl *Timeline) GetLastPlayerInputs() arena.PlayerInputs {
	return tl.states[0].PlayerInputs
}

// AddPlayer introduces a new player at DefaultSpawnPos, recorded as its own
// pushed state (matching the source treating a join as a tick-like event).
func (tl *Timeline) AddPlayer(id playerid.PlayerId) {
	log.Printf("timeline %s: adding player %d", tl.GameId, id)
	next := tl.states[0].WithPlayerAdded(id)
	tl.pushState(next)
}

// TopState and CurrentState both return the newest recorded state; two
// names are kept (matching the source's own top_state/current_state split)
// since callers reach for whichever reads more naturally at the call site.
func (tl *Timeline) TopState() arena.GameState     { return tl.states[0] }
func (tl *Timeline) CurrentState() arena.GameState { return tl.states[0] }

// Len reports how many states are currently buffered.
func (tl *Timeline) Len() int { return len(tl.states) }

// StateAt returns the buffered state at the given index (0 = newest), for
// tests and diagnostics.
func (tl *Timeline) StateAt(i int) arena.GameState { return tl.states[i] }

func (tl *Timeline) pushState(s arena.GameState) {
	tl.states = append([]arena.GameState{s}, tl.states...)
	if len(tl.states) > StateBufferSize {
		tl.states = tl.states[:StateBufferSize]
	}
}

// getIndexBeforeUs scans newest-to-oldest and returns the first index whose
// TimeUs is strictly less than timeUs: the most recent state that existed
// strictly before the given time.
func (tl *Timeline) getIndexBeforeUs(timeUs uint32) (int, bool) {
	for i, s := range tl.states {
		if s.TimeUs < timeUs {
			return i, true
		}
	}
	return 0, false
}

// PropagateInputs applies a batch of out-of-order timed inputs, oldest
// first, each splicing in a new state and replaying everything downstream.
func (tl *Timeline) PropagateInputs(inputs []TimedInput) {
	if len(inputs) == 0 {
		return
	}
	sorted := append([]TimedInput(nil), inputs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TimeUs < sorted[j].TimeUs })

	log.Printf("timeline %s: propagating %d inputs", tl.GameId, len(sorted))
	for _, in := range sorted {
		tl.PropagateInput(in)
	}
}

// PropagateInput splits a single timed input into the history and replays
// everything newer than the split point.
func (tl *Timeline) PropagateInput(input TimedInput) {
	index, ok := tl.splitWithInput(input.PlayerId, input.Input, input.TimeUs)
	if ok && index > 0 {
		tl.simulateUpToDate(index)
	}
}

// splitWithInput inserts a new state at time_us, built by simulating
// forward from the nearest older state with the given input applied on top
// of whatever inputs were recorded for the next-newer state. Given states
// s0 (before) and s1 (after) bracketing t, it inserts a fresh split state s
// between them:
//
//	t0  t  t1
//	|   |  |
//	s0  s  s1
//
// Returns the inserted index, or false if t is at or before the oldest
// buffered state (nothing to split against) or later than the newest one
// (nothing newer to sandwich it with).
func (tl *Timeline) splitWithInput(playerId playerid.PlayerId, input arena.Input, timeUs uint32) (int, bool) {
	before, ok := tl.getIndexBeforeUs(timeUs)
	if !ok || before == 0 {
		return 0, false
	}

	stateBefore := tl.states[before]
	dt := timeUs - stateBefore.TimeUs
	after := before - 1

	inputs := arena.CloneInputs(tl.states[after].PlayerInputs)
	inputs.Set(playerId, input)

	split := stateBefore.Simulate(&inputs, dt, tl.Map)
	// Frame ids advance by 2 per ordinary tick (see GameState.Simulate) so
	// the odd slot below stateBefore's frame id is free for a split state.
	split.FrameId = stateBefore.FrameId - 1

	tail := append([]arena.GameState{split}, tl.states[before:]...)
	tl.states = append(tl.states[:before:before], tail...)
	return before, true
}

// simulateUpToDate replays states[0..startIndex) from startIndex forward,
// reusing each state's own previously-recorded inputs, after a split has
// invalidated everything newer than the split point.
func (tl *Timeline) simulateUpToDate(startIndex int) {
	for i := startIndex - 1; i >= 0; i-- {
		inputs := tl.states[i].PlayerInputs
		dt := tl.states[i].TimeUs - tl.states[i+1].TimeUs
		tl.states[i] = tl.states[i+1].Simulate(&inputs, dt, tl.Map)
	}
}

// getSandwich finds the newest state at-or-before timeUs (before) and the
// next-newer state still in the buffer (after), scanning from the oldest
// end forward.
func (tl *Timeline) getSandwich(timeUs uint32) (before, after int, hasBefore, hasAfter bool) {
	for i := len(tl.states) - 1; i >= 0; i-- {
		t := tl.states[i].TimeUs
		if t > timeUs {
			break
		}
		before, hasBefore = i, true
		if i == 0 {
			hasAfter = false
		} else {
			after, hasAfter = i-1, true
		}
	}
	return
}

// PropagateState reconciles an authoritative server snapshot into the
// local history: local states older than the snapshot are discarded, the
// local player's own predicted position is preserved across the splice
// (trusting local prediction over the server's necessarily-stale view of
// it), and every state between the splice point and now is replayed.
func (tl *Timeline) PropagateState(serverState TimedState, localPlayer playerid.PlayerId) {
	before, after, hasBefore, hasAfter := tl.getSandwich(serverState.TimeUs)

	if hasBefore {
		for len(tl.states) > before+1 {
			tl.states = tl.states[:len(tl.states)-1]
		}
	}

	var stateBeforeServer *arena.GameState
	if hasBefore {
		last := len(tl.states) - 1
		s := tl.states[last]
		stateBeforeServer = &s
		tl.states = tl.states[:last]
	}

	var stateAfterServer *arena.GameState
	if hasAfter && after < len(tl.states) {
		s := tl.states[after]
		stateAfterServer = &s
	}

	serverGameState := arena.NewGameState(tl.GameId)
	serverGameState.TimeUs = serverState.TimeUs
	serverGameState.PlayerStates = serverState.PlayerStates

	if stateBeforeServer != nil && stateAfterServer != nil {
		inputs := stateAfterServer.PlayerInputs
		dt := serverGameState.TimeUs - stateBeforeServer.TimeUs
		withLocalPos := stateBeforeServer.Simulate(&inputs, dt, tl.Map)
		if overridden, ok := withLocalPos.PlayerStates.Get(localPlayer); ok {
			if server, ok := serverGameState.PlayerStates.Get(localPlayer); !ok || server.Pos != overridden.Pos {
				log.Printf("timeline %s: overriding server pos with local prediction for player %d", tl.GameId, localPlayer)
			}
			serverGameState.PlayerStates.Set(localPlayer, overridden)
		}
	}

	tl.states = append(tl.states, serverGameState)

	for i := len(tl.states) - 2; i >= 0; i-- {
		inputs := tl.states[i].PlayerInputs
		dt := tl.states[i].TimeUs - tl.states[i+1].TimeUs
		tl.states[i] = tl.states[i+1].Simulate(&inputs, dt, tl.Map)
	}
}
