package timeline

import (
	"testing"

	"crossyarena/server/internal/arena"
	"crossyarena/server/internal/coords"
	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/worldmap"
)

func freshMap() *worldmap.Map {
	return worldmap.New(12375972415461437779)
}

func emptyInputs() arena.PlayerInputs {
	return playerid.New[arena.Input]()
}

// TestSplit ports timeline.rs's test_split: splitting a new input into the
// history at a time strictly between two existing states inserts exactly
// one state, bearing the injected input and the move it started.
func TestSplit(t *testing.T) {
	tl := New("test", freshMap())
	tl.AddPlayer(0)
	inputs := emptyInputs()
	tl.TickCurrentTime(&inputs, 50*1000)

	if tl.Len() != 3 {
		t.Fatalf("expected 3 states, got %d", tl.Len())
	}

	index, ok := tl.splitWithInput(0, arena.InputLeft, 10*1000)
	if !ok || index != 1 {
		t.Fatalf("expected split at index 1, got index=%d ok=%v", index, ok)
	}
	if tl.Len() != 4 {
		t.Fatalf("expected 4 states after split, got %d", tl.Len())
	}

	wantMs := []uint32{50, 10, 0, 0}
	for i, want := range wantMs {
		if got := tl.states[i].TimeUs / 1000; got != want {
			t.Fatalf("state %d: time_us/1000 = %d, want %d", i, got, want)
		}
	}

	gotInput, _ := tl.states[1].PlayerInputs.Get(0)
	if gotInput != arena.InputLeft {
		t.Fatalf("split state's recorded input = %v, want Left", gotInput)
	}

	p, _ := tl.states[1].PlayerStates.Get(0)
	if p.Move.Kind != arena.MoveMoving {
		t.Fatalf("split state's player 0 should be Moving, got %v", p.Move.Kind)
	}
	if p.Move.Moving.RemainingUs != arena.MoveDurUs {
		t.Fatalf("split state's move should carry the full duration, got %d", p.Move.Moving.RemainingUs)
	}
	want := coords.CoordPos(9, 10)
	if p.Move.Moving.Target != want {
		t.Fatalf("split state's move target = %+v, want %+v", p.Move.Moving.Target, want)
	}
}

// TestSplitFront ports test_split_front: a split requested after the
// newest state is rejected (there's nothing newer to sandwich it with).
func TestSplitFront(t *testing.T) {
	tl := New("test", freshMap())
	tl.AddPlayer(0)
	inputs := emptyInputs()
	tl.TickCurrentTime(&inputs, 15*1000)

	if tl.Len() != 3 {
		t.Fatalf("expected 3 states, got %d", tl.Len())
	}

	_, ok := tl.splitWithInput(0, arena.InputLeft, 30*1000)
	if ok {
		t.Fatalf("expected split beyond the newest state to be rejected")
	}
	if tl.Len() != 3 {
		t.Fatalf("state count should be unchanged, got %d", tl.Len())
	}
}

// TestSplitOutOfRange ports test_split_out_range: a split requested before
// the oldest buffered state is rejected.
func TestSplitOutOfRange(t *testing.T) {
	tl := FromServerParts("test", freshMap(), 10*1000, playerid.New[arena.PlayerState](), 0)
	tl.AddPlayer(0)
	inputs := emptyInputs()
	tl.TickCurrentTime(&inputs, 15*1000)

	if tl.Len() != 3 {
		t.Fatalf("expected 3 states, got %d", tl.Len())
	}

	_, ok := tl.splitWithInput(0, arena.InputLeft, 5*1000)
	if ok {
		t.Fatalf("expected split before the oldest state to be rejected")
	}
	if tl.Len() != 3 {
		t.Fatalf("state count should be unchanged, got %d", tl.Len())
	}
}

// TestPropagateInput ports test_propagate_input: injecting a late input for
// one player splits and replays the history without disturbing another
// player who never moved.
func TestPropagateInput(t *testing.T) {
	tl := New("test", freshMap())
	tl.AddPlayer(0)
	tl.AddPlayer(1)

	top := tl.TopState()
	p0Initial, _ := top.PlayerStates.Get(0)
	p1Initial, _ := top.PlayerStates.Get(1)
	p0Shifted := coords.CoordPos(p0Initial.Pos.X-1, p0Initial.Pos.Y)

	inputs := emptyInputs()
	tl.TickCurrentTime(&inputs, 50*1000)
	tl.TickCurrentTime(&inputs, 200*1000)
	tl.TickCurrentTime(nil, 250*1000)

	tl.PropagateInput(TimedInput{TimeUs: 65 * 1000, Input: arena.InputLeft, PlayerId: 0})

	if tl.Len() != 7 {
		t.Fatalf("expected 7 states, got %d", tl.Len())
	}

	for i := 0; i < 5; i++ {
		p1, _ := tl.states[i].PlayerStates.Get(1)
		if p1.Pos != p1Initial.Pos {
			t.Fatalf("state %d: player 1 moved unexpectedly to %+v", i, p1.Pos)
		}
		if p1.Move.Kind != arena.MoveStationary {
			t.Fatalf("state %d: player 1 should be stationary", i)
		}
	}

	for i := 0; i < 2; i++ {
		p0, _ := tl.states[i].PlayerStates.Get(0)
		if p0.Pos != p0Shifted {
			t.Fatalf("state %d: player 0 pos = %+v, want shifted %+v", i, p0.Pos, p0Shifted)
		}
		if p0.Move.Kind != arena.MoveStationary {
			t.Fatalf("state %d: player 0 should have landed, got %v", i, p0.Move.Kind)
		}
	}

	p0AtSplit, _ := tl.states[2].PlayerStates.Get(0)
	if p0AtSplit.Move.Kind != arena.MoveMoving || p0AtSplit.Move.Moving.Target != p0Shifted {
		t.Fatalf("state 2: player 0 should be mid-move toward %+v, got %+v", p0Shifted, p0AtSplit.Move)
	}

	for i := 2; i < 5; i++ {
		p0, _ := tl.states[i].PlayerStates.Get(0)
		if p0.Pos != p0Initial.Pos {
			t.Fatalf("state %d: player 0 pos = %+v, want original %+v", i, p0.Pos, p0Initial.Pos)
		}
	}
}
