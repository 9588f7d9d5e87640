package worldmap_test

import (
	"testing"

	"crossyarena/server/internal/worldmap"
)

func TestGetRowIsReproducible(t *testing.T) {
	m1 := worldmap.New(12375972415461437779)
	m2 := worldmap.New(12375972415461437779)

	for y := int32(0); y > -60; y-- {
		r1 := m1.GetRow(1, y)
		r2 := m2.GetRow(1, y)
		if r1.RowType != r2.RowType {
			t.Fatalf("row type mismatch at y=%d: %v vs %v", y, r1.RowType, r2.RowType)
		}
		if r1.WallWidth != r2.WallWidth {
			t.Fatalf("wall width mismatch at y=%d: %v vs %v", y, r1.WallWidth, r2.WallWidth)
		}
	}
}

func TestGetRowStableRegardlessOfQueryOrder(t *testing.T) {
	const seed = 555
	m1 := worldmap.New(seed)
	// Query in canonical top-down order.
	var firstPass []worldmap.RowType
	for y := int32(0); y > -40; y-- {
		firstPass = append(firstPass, m1.GetRow(2, y).RowType)
	}

	m2 := worldmap.New(seed)
	// Force the deepest row first; GetRow must still walk top-down
	// internally and produce identical content.
	_ = m2.GetRow(2, -39)
	for i, y := 0, int32(0); y > -40; i, y = i+1, y-1 {
		if got := m2.GetRow(2, y).RowType; got != firstPass[i] {
			t.Fatalf("row type at y=%d differs by query order: %v vs %v", y, got, firstPass[i])
		}
	}
}

func TestLobbySeedHasNoRoadOrRiver(t *testing.T) {
	m := worldmap.New(0)
	for y := int32(0); y > -200; y-- {
		r := m.GetRow(0, y)
		if r.RowType == worldmap.RowRoad || r.RowType == worldmap.RowRiver {
			t.Fatalf("lobby seed (0) produced a %v row at y=%d, want none", r.RowType, y)
		}
	}
}

func TestStartingLayout(t *testing.T) {
	m := worldmap.New(42)
	for y := int32(worldmap.ScreenSize); y > worldmap.ScreenSize-worldmap.LobbyPathRows; y-- {
		r := m.GetRow(1, y)
		if r.RowType != worldmap.RowPath {
			t.Fatalf("expected Path at y=%d in lobby apron, got %v", y, r.RowType)
		}
	}
}

func TestCollidesCarUsesContractFormula(t *testing.T) {
	row := worldmap.ObstacleRow{
		Obstacles:   []worldmap.Obstacle{{Phase: 0}},
		R0:          0,
		R1:          1,
		TimeScaleUs: worldmap.RoadTimeScaleUs,
		Width:       worldmap.CarWidth,
	}
	// At t=0 the single car sits at screen-x 0, so a player at x=0
	// (|0.5 - 0| = 0.5 < 1.25) must collide, and a player far away must not.
	if !row.CollidesCar(0, 0) {
		t.Fatalf("expected collision at x=0 with a car at screen-x 0")
	}
	if row.CollidesCar(0, 15) {
		t.Fatalf("expected no collision at x=15 with a car at screen-x 0")
	}
}
