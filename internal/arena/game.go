package arena

import (
	"crossyarena/server/internal/coords"
	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/worldmap"
)

// PlayerInputs is a fixed-width view of every player's last recorded
// input, keyed densely by PlayerId.
type PlayerInputs = playerid.Map[Input]

// GameState is one simulated tick: the authoritative time, a monotonic
// frame counter, every player's state, the inputs that produced this
// state, and the rules FSM.
type GameState struct {
	TimeUs       uint32
	FrameId      int64 // see timeline package for the *2 split-state convention
	PlayerStates playerid.Map[PlayerState]
	PlayerInputs PlayerInputs
	RulesState   RulesState
}

// NewGameState builds the initial state for a freshly-created match.
func NewGameState(gameId string) GameState {
	return GameState{
		PlayerStates: playerid.New[PlayerState](),
		PlayerInputs: playerid.New[Input](),
		RulesState:   NewRulesState(gameId),
	}
}

// Clone returns a deep-enough copy for use as the basis of a new
// simulated tick or a split state: player maps are value types under the
// hood (slices of slots) and are copied element-wise so mutating the clone
// never aliases the original.
func (s GameState) Clone() GameState {
	next := s
	next.PlayerStates = cloneMap(s.PlayerStates)
	next.PlayerInputs = cloneMap(s.PlayerInputs)
	return next
}

func cloneMap[T any](m playerid.Map[T]) playerid.Map[T] {
	out := playerid.New[T]()
	for _, e := range m.Iter() {
		out.Set(e.Id, e.Value)
	}
	return out
}

// CloneInputs copies a PlayerInputs map, for callers (the timeline package)
// that need to fork a historical tick's recorded inputs without aliasing
// the original.
func CloneInputs(m PlayerInputs) PlayerInputs {
	return cloneMap(m)
}

// DefaultSpawnPos is where a freshly-added player lands before any round
// has reset positions — used by the client-side prediction timeline, which
// adds players independently of the lobby's ready-zone flow.
var DefaultSpawnPos = coords.CoordPos(10, 10)

// WithPlayerAdded returns a clone of s with id newly present, stationary at
// DefaultSpawnPos, with no recorded input yet.
func (s GameState) WithPlayerAdded(id playerid.PlayerId) GameState {
	next := s.Clone()
	next.PlayerStates.Set(id, NewPlayerState(id, DefaultSpawnPos))
	next.PlayerInputs.Set(id, InputNone)
	return next
}

// Simulate produces the next GameState. If inputs is nil, the prior tick's
// recorded inputs are reused unchanged (used when advancing time with no
// new client messages). dtUs is added to TimeUs with 32-bit wraparound,
// matching the wire contract's wrapping microsecond clock.
func (s GameState) Simulate(inputs *PlayerInputs, dtUs uint32, m *worldmap.Map) GameState {
	next := s.Clone()
	if inputs != nil {
		next.PlayerInputs = cloneMap(*inputs)
	}
	next.TimeUs = s.TimeUs + dtUs // wraps naturally via uint32 arithmetic
	next.FrameId = s.FrameId + 2  // +2 keeps the odd slot free for split states

	phase := next.RulesState.Phase()
	roundId := next.RulesState.RoundId()

	// Pass 1: advance every player's pre-existing move/cooldown by dtUs.
	// This must complete for every player before any new move is started
	// this tick, or a push-induced move would be immediately (and
	// incorrectly) decremented again in the same tick it began.
	for _, e := range next.PlayerStates.Iter() {
		p := e.Value
		p.AdvanceMove(dtUs)
		next.PlayerStates.Set(e.Id, p)
	}

	// Pass 2: resolve new moves (self-initiated or as a push target) in
	// ascending player-id order, so two independent runs of the same tick
	// always attempt moves in the same order.
	for _, e := range next.PlayerStates.Iter() {
		id := e.Id
		p, _ := next.PlayerStates.Get(id)
		if !p.CanMove() {
			continue
		}
		input, _ := next.PlayerInputs.Get(id)
		if input == InputNone {
			continue
		}
		TryMovePlayer(&next.PlayerStates, id, input, next.TimeUs, phase, roundId, m)
	}

	next.RulesState = next.RulesState.Tick(dtUs, next.TimeUs, &next.PlayerStates, m)

	return next
}
