package arena_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"crossyarena/server/internal/arena"
	"crossyarena/server/internal/coords"
	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/worldmap"
)

// TestRoundTransitionOnDeath ports scenario S5: two alive players, one dies
// by road collision. The round should move to RoundCooldown that same
// tick, and after CooldownTimeUs elapses, to the next RoundWarmup with the
// survivor credited a win and round_id incremented.
func TestRoundTransitionOnDeath(t *testing.T) {
	Convey("Given two players, A on a safe tile and B on a lane with a car under it", t, func() {
		m := freshMap()

		var carRoundId uint8
		var carY int32 = -500 // search for a reachable Road row deterministically
		found := false
		for y := int32(0); y > carY; y-- {
			row := m.GetRow(carRoundId, y)
			if row.RowType == worldmap.RowRoad {
				carY = y
				found = true
				break
			}
		}
		So(found, ShouldBeTrue)

		// Find an x colliding with a car at t=0 on that row.
		var hitX int32 = -1
		for x := int32(0); x < 20; x++ {
			if m.CollidesCar(0, carRoundId, x, carY) {
				hitX = x
				break
			}
		}
		So(hitX, ShouldBeGreaterThanOrEqualTo, int32(0))

		players := playerid.New[arena.PlayerState]()
		players.Set(1, arena.NewPlayerState(1, coords.CoordPos(10, 10)))
		players.Set(2, arena.NewPlayerState(2, coords.CoordPos(hitX, carY)))

		state := arena.NewGameState("test")
		state.PlayerStates = players
		state.RulesState = arena.NewRoundStateForTest(state.RulesState.GameId, carRoundId, 1, 2)

		state = state.Simulate(nil, arena.TickIntervalUs, m)

		Convey("the round immediately transitions to RoundCooldown", func() {
			So(state.RulesState.Kind, ShouldEqual, arena.FstRoundCooldown)
		})

		Convey("after CooldownTimeUs the match advances to the next RoundWarmup", func() {
			var elapsed uint32
			for elapsed < arena.CooldownTimeUs+arena.TickIntervalUs {
				state = state.Simulate(nil, arena.TickIntervalUs, m)
				elapsed += arena.TickIntervalUs
			}
			So(state.RulesState.Kind, ShouldEqual, arena.FstRoundWarmup)
			So(state.RulesState.RoundId(), ShouldEqual, carRoundId+1)
		})
	})
}
