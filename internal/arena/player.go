package arena

import (
	"crossyarena/server/internal/coords"
	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/worldmap"
)

// Input/Pos are re-exported from coords so callers working with arena types
// don't need a second import.
type (
	Input = coords.Input
	Pos   = coords.Pos
)

const (
	InputNone  = coords.InputNone
	InputUp    = coords.InputUp
	InputDown  = coords.InputDown
	InputLeft  = coords.InputLeft
	InputRight = coords.InputRight
)

// PushInfo attributes causality for a move entered as part of a push:
// which player (if any) is pushing this one, and which player (if any)
// this one is in turn pushing.
type PushInfo struct {
	PushedBy *playerid.PlayerId
	Pushing  *playerid.PlayerId
}

// MovingState describes an in-flight move: how much longer it has to run,
// the tile or lillipad it's headed toward, and any push attribution.
type MovingState struct {
	RemainingUs uint32
	Target      Pos
	Push        PushInfo
}

// NewMovingState starts an unpushed move toward target with the full move
// duration.
func NewMovingState(target Pos) MovingState {
	return MovingState{RemainingUs: MoveDurUs, Target: target}
}

// NewMovingStateWithPush starts a move carrying push attribution.
func NewMovingStateWithPush(target Pos, push PushInfo) MovingState {
	return MovingState{RemainingUs: MoveDurUs, Target: target, Push: push}
}

// MoveKind discriminates PlayerState.Move.
type MoveKind uint8

const (
	MoveStationary MoveKind = iota
	MoveMoving
)

// MoveState is {Stationary} or {Moving, MovingState}.
type MoveState struct {
	Kind   MoveKind
	Moving MovingState
}

// PlayerState is one player's full simulation state.
type PlayerState struct {
	Id           playerid.PlayerId
	Pos          Pos
	Move         MoveState
	MoveCooldown uint32
}

// NewPlayerState places a freshly-joined player at spawn, stationary, with
// no cooldown.
func NewPlayerState(id playerid.PlayerId, spawn Pos) PlayerState {
	return PlayerState{Id: id, Pos: spawn, Move: MoveState{Kind: MoveStationary}}
}

// ResetToPos snaps a player back to a coordinate, stationary, cooldown
// cleared — used when (re)spawning at the start of a round.
func (p *PlayerState) ResetToPos(pos Pos) {
	p.Pos = pos
	p.Move = MoveState{Kind: MoveStationary}
	p.MoveCooldown = 0
}

// CanMove reports whether this player is eligible to start a new move this
// tick: stationary and off cooldown.
func (p *PlayerState) CanMove() bool {
	return p.Move.Kind == MoveStationary && p.MoveCooldown == 0
}

// IsBeingPushed reports whether this player is currently in a pushed move.
func (p *PlayerState) IsBeingPushed() bool {
	return p.Move.Kind == MoveMoving && p.Move.Moving.Push.PushedBy != nil
}

// IsBeingPushedBy reports whether this player is currently being pushed
// specifically by pusher.
func (p *PlayerState) IsBeingPushedBy(pusher playerid.PlayerId) bool {
	return p.IsBeingPushed() && *p.Move.Moving.Push.PushedBy == pusher
}

// TryMoveResult classifies the outcome of attempting to move a player.
type TryMoveResult uint8

const (
	TryMoveBlocked TryMoveResult = iota
	TryMoveUnimpeded
	TryMoveWithPush
)

// occupantAt returns the id of whichever other player currently occupies
// (or is mid-move into) target, if any. A player more than halfway through
// a move away from target is not considered to still occupy it; a player
// moving toward target is, since two movers can't both land there.
func occupantAt(players *playerid.Map[PlayerState], self playerid.PlayerId, target Pos) (playerid.PlayerId, bool) {
	if target.Kind != coords.PosKindCoord {
		return 0, false
	}
	for _, e := range players.Iter() {
		if e.Id == self {
			continue
		}
		other := e.Value
		switch other.Move.Kind {
		case MoveStationary:
			if other.Pos.Kind == coords.PosKindCoord && other.Pos.X == target.X && other.Pos.Y == target.Y {
				return e.Id, true
			}
		case MoveMoving:
			if other.Move.Moving.Target.Kind == coords.PosKindCoord &&
				other.Move.Moving.Target.X == target.X && other.Move.Moving.Target.Y == target.Y {
				return e.Id, true
			}
			if other.Pos.Kind == coords.PosKindCoord && other.Pos.X == target.X && other.Pos.Y == target.Y &&
				other.Move.Moving.RemainingUs*2 > MoveDurUs {
				return e.Id, true
			}
		}
	}
	return 0, false
}

// canPush reports whether blocker, sitting at blockerPos, can be pushed one
// further cell in direction d. Inferred from spec.md §4.2's prose (the
// upstream definition was never located in the retrieved sources): a
// blocker is pushable only if it is itself stationary (not already mid-move
// either way), and the cell one further step in the same direction is
// unoccupied and unblocked by terrain.
func canPush(players *playerid.Map[PlayerState], blocker playerid.PlayerId, blockerPos Pos, dx, dy int32, phase worldmap.Phase, roundId uint8, m *worldmap.Map) bool {
	if blockerPos.Kind != coords.PosKindCoord {
		return false
	}
	bs, ok := players.Get(blocker)
	if !ok || bs.Move.Kind != MoveStationary {
		return false
	}
	beyond := blockerPos.Add(dx, dy)
	if m.Solid(phase, roundId, beyond.X, beyond.Y) {
		return false
	}
	if _, occupied := occupantAt(players, blocker, beyond); occupied {
		return false
	}
	return true
}

// TryMovePlayer attempts to move player id in direction input, mutating
// players in place on success (starting a Moving state for the mover, and
// for a pushed blocker, one cell away). It never mutates on Blocked.
//
// Swap rejection: if the occupant of target is itself mid-move back toward
// self's current cell, the move is rejected outright rather than letting
// the two players' positions cross in the same tick.
func TryMovePlayer(players *playerid.Map[PlayerState], id playerid.PlayerId, input Input, timeUs uint32, phase worldmap.Phase, roundId uint8, m *worldmap.Map) TryMoveResult {
	self, ok := players.Get(id)
	if !ok || input == InputNone {
		return TryMoveBlocked
	}
	dx, dy := input.Delta()

	target, ok := m.TryApplyInput(timeUs, phase, roundId, self.Pos, input)
	if !ok {
		return TryMoveBlocked
	}

	occupant, occupied := occupantAt(players, id, target)
	if !occupied {
		self.Move = MoveState{Kind: MoveMoving, Moving: NewMovingState(target)}
		players.Set(id, self)
		return TryMoveUnimpeded
	}

	other, _ := players.Get(occupant)
	if self.Pos.Kind == coords.PosKindCoord &&
		other.Move.Kind == MoveMoving &&
		other.Move.Moving.Target.Kind == coords.PosKindCoord &&
		other.Move.Moving.Target.X == self.Pos.X && other.Move.Moving.Target.Y == self.Pos.Y {
		// Occupant is moving back into our current cell: a same-tick swap,
		// explicitly rejected. A mover stepping off a lillipad has no fixed
		// cell of its own to swap out of, so the check doesn't apply.
		return TryMoveBlocked
	}

	if !canPush(players, occupant, other.Pos, dx, dy, phase, roundId, m) {
		return TryMoveBlocked
	}

	blockerTarget := other.Pos.Add(dx, dy)
	moverId := id
	blockerId := occupant

	other.Move = MoveState{Kind: MoveMoving, Moving: MovingState{
		RemainingUs: uint32(float64(MoveDurUs) * PushedMoveDurFactor),
		Target:      blockerTarget,
		Push:        PushInfo{PushedBy: &moverId},
	}}
	players.Set(blockerId, other)

	self.Move = MoveState{Kind: MoveMoving, Moving: MovingState{
		RemainingUs: MoveDurUs,
		Target:      target,
		Push:        PushInfo{Pushing: &blockerId},
	}}
	players.Set(id, self)

	return TryMoveWithPush
}

// AdvanceMove steps a single player's move state forward by dtUs: if the
// move has more than dtUs remaining, it just decrements; otherwise it lands
// on Target, becomes Stationary, and starts the (possibly negative-clamped)
// cooldown on whatever time was left over after the move completed within
// this tick.
func (p *PlayerState) AdvanceMove(dtUs uint32) {
	if p.Move.Kind != MoveMoving {
		if p.MoveCooldown > 0 {
			if p.MoveCooldown > dtUs {
				p.MoveCooldown -= dtUs
			} else {
				p.MoveCooldown = 0
			}
		}
		return
	}

	ms := p.Move.Moving
	if ms.RemainingUs > dtUs {
		ms.RemainingUs -= dtUs
		p.Move.Moving = ms
		return
	}

	leftover := dtUs - ms.RemainingUs
	p.Pos = ms.Target
	p.Move = MoveState{Kind: MoveStationary}
	if MoveCooldownMaxUs > leftover {
		p.MoveCooldown = MoveCooldownMaxUs - leftover
	} else {
		p.MoveCooldown = 0
	}
}
