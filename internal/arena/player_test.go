package arena_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"crossyarena/server/internal/arena"
	"crossyarena/server/internal/coords"
	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/worldmap"
)

func freshMap() *worldmap.Map {
	return worldmap.New(12375972415461437779)
}

// TestMoveCooldown ports scenario S1. PlayerInputs holds the last input a
// client reported, resent every tick while a key is held, rather than a
// separate queue of discrete buffered taps (an explicit policy choice
// where the scenario's own description calls the outcome implementation
// defined). Under that policy, a continuously-held Up produces a third
// move as soon as the second lands, so by t≈300ms the player has landed
// two moves at (10,8) and is mid-flight into a third, toward (10,7).
func TestMoveCooldown(t *testing.T) {
	Convey("Given a single player at (10,10) holding Up", t, func() {
		m := freshMap()
		players := playerid.New[arena.PlayerState]()
		players.Set(1, arena.NewPlayerState(1, coords.CoordPos(10, 10)))

		inputs := playerid.New[arena.Input]()
		inputs.Set(1, arena.InputUp)

		state := arena.NewGameState("test")
		state.PlayerStates = players
		state.PlayerInputs = inputs
		state.RulesState = forceRoundPhase(state.RulesState)

		var elapsed uint32
		for elapsed < 300_000 {
			state = state.Simulate(nil, arena.TickIntervalUs, m)
			elapsed += arena.TickIntervalUs
		}

		Convey("the player has landed two moves at (10,8) and is moving into a third", func() {
			p, ok := state.PlayerStates.Get(1)
			So(ok, ShouldBeTrue)
			So(p.Pos.Kind, ShouldEqual, coords.PosKindCoord)
			So(p.Pos.Y, ShouldEqual, 8)
			So(p.Move.Kind, ShouldEqual, arena.MoveMoving)
			So(p.Move.Moving.Target.Y, ShouldEqual, 7)
		})
	})
}

// TestPush ports scenario S2: A pushes into B; both enter Moving, B with a
// shortened, attributed recovery.
func TestPush(t *testing.T) {
	Convey("Given A at (10,10) and B at (10,9), with A pushing Up into B", t, func() {
		m := freshMap()
		players := playerid.New[arena.PlayerState]()
		players.Set(1, arena.NewPlayerState(1, coords.CoordPos(10, 10)))
		players.Set(2, arena.NewPlayerState(2, coords.CoordPos(10, 9)))

		result := arena.TryMovePlayer(&players, 1, arena.InputUp, 0, worldmap.PhaseRound, 0, m)

		Convey("the result is TryMoveWithPush", func() {
			So(result, ShouldEqual, arena.TryMoveWithPush)
		})

		a, _ := players.Get(1)
		b, _ := players.Get(2)

		Convey("A is Moving toward (10,9) and attributed as pushing B", func() {
			So(a.Move.Kind, ShouldEqual, arena.MoveMoving)
			So(a.Move.Moving.Target.X, ShouldEqual, 10)
			So(a.Move.Moving.Target.Y, ShouldEqual, 9)
			So(a.Move.Moving.Push.Pushing, ShouldNotBeNil)
			So(*a.Move.Moving.Push.Pushing, ShouldEqual, playerid.PlayerId(2))
		})

		Convey("B is Moving toward (10,8), pushed by A, with a shortened recovery", func() {
			So(b.Move.Kind, ShouldEqual, arena.MoveMoving)
			So(b.Move.Moving.Target.X, ShouldEqual, 10)
			So(b.Move.Moving.Target.Y, ShouldEqual, 8)
			So(b.Move.Moving.Push.PushedBy, ShouldNotBeNil)
			So(*b.Move.Moving.Push.PushedBy, ShouldEqual, playerid.PlayerId(1))
			So(b.Move.Moving.RemainingUs, ShouldEqual, uint32(float64(arena.MoveDurUs)*arena.PushedMoveDurFactor))
		})
	})
}

// TestSwapRejected ports scenario S3: two adjacent players trying to swap
// cells in the same tick both stay put.
func TestSwapRejected(t *testing.T) {
	Convey("Given A at (10,10) moving Right and B at (11,10) moving Left", t, func() {
		m := freshMap()
		players := playerid.New[arena.PlayerState]()
		players.Set(1, arena.NewPlayerState(1, coords.CoordPos(10, 10)))
		players.Set(2, arena.NewPlayerState(2, coords.CoordPos(11, 10)))

		resultA := arena.TryMovePlayer(&players, 1, arena.InputRight, 0, worldmap.PhaseRound, 0, m)
		resultB := arena.TryMovePlayer(&players, 2, arena.InputLeft, 0, worldmap.PhaseRound, 0, m)

		Convey("both attempts are blocked", func() {
			So(resultA, ShouldEqual, arena.TryMoveBlocked)
			So(resultB, ShouldEqual, arena.TryMoveBlocked)
		})

		Convey("both players remain stationary at their original cells", func() {
			a, _ := players.Get(1)
			b, _ := players.Get(2)
			So(a.Move.Kind, ShouldEqual, arena.MoveStationary)
			So(a.Pos.X, ShouldEqual, 10)
			So(b.Move.Kind, ShouldEqual, arena.MoveStationary)
			So(b.Pos.X, ShouldEqual, 11)
		})
	})
}

// forceRoundPhase is a small test seam: real clients only reach Round via
// the Lobby/Warmup ready-up sequence, but movement tests care about
// try_move semantics, not the lobby flow, so they jump straight to Round
// with a trivial single-round state.
func forceRoundPhase(s arena.RulesState) arena.RulesState {
	return arena.NewRoundStateForTest(s.GameId, 0, 1)
}
