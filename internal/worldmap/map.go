// Package worldmap implements the procedural, deterministic map generator:
// rows, obstacle motion, the ice-puzzle generator/verifier, and river spawn
// bookkeeping. Every row is generated on demand, strictly top-down, from
// (seed, round_id, row_id) so any two participants that have walked rows in
// the canonical order see byte-identical content.
package worldmap

import (
	"math"
	"sync"

	"crossyarena/server/internal/coords"
	"crossyarena/server/internal/rng"
)

// RowId converts a screen-relative y (ScreenSize = bottom of the initial
// view, i.e. row id 0; smaller y further up) to the row id used as a
// generation key, matching
// the source's RowId = SCREEN_SIZE - y framing so row ids increase
// monotonically as the cluster scrolls upward.
func RowId(y int32) int32 {
	return ScreenSize - y
}

// YFromRowId is RowId's inverse.
func YFromRowId(rowId int32) int32 {
	return ScreenSize - rowId
}

// mapRound owns one round's lazily-extended list of rows, indexed by
// ascending row id starting at 0.
type mapRound struct {
	seed     uint64
	roundId  uint8
	rows     []Row
	riverIdx int // count of river rows discovered so far, for RiverSpawnTimes indexing
	spawn    RiverSpawnTimes

	// generation running state, carried row to row
	wallWidth int32
	pending   []pendingRow
}

// pendingRow describes one not-yet-emitted row of an in-progress
// road/river cluster, queued up front when the cluster starts so a
// direction-then-reverse road cluster (lanes in one direction, then lanes
// in the opposite) is just two runs pushed back to back.
type pendingRow struct {
	kind RowType
	dir  bool
}

// Map is the shared, lock-guarded generator for a whole match: one set of
// rows per round, generated on demand and cached so repeated lookups are
// free and every observer sees the same content.
type Map struct {
	mu     sync.Mutex
	seed   uint64
	rounds map[uint8]*mapRound
}

// New constructs a Map for a freshly-seeded match.
func New(seed uint64) *Map {
	return &Map{seed: seed, rounds: map[uint8]*mapRound{}}
}

// ExactSeed returns the raw seed backing this map.
func (m *Map) ExactSeed() uint64 {
	return m.seed
}

func (m *Map) round(roundId uint8) *mapRound {
	if r, ok := m.rounds[roundId]; ok {
		return r
	}
	r := newMapRound(m.seed, roundId)
	m.rounds[roundId] = r
	return r
}

func newMapRound(seed uint64, roundId uint8) *mapRound {
	r := &mapRound{seed: seed, roundId: roundId, wallWidth: 3}
	r.initialGenerate()
	return r
}

// initialGenerate lays down the fixed lobby/starting-line layout every
// round begins with: LobbyPathRows of open Path, then StandsHeight rows of
// walled Stands flanking the start line, then a single StartingBarrier row
// directly above them. Procedural generation (generateToRowId) takes over
// from there.
func (r *mapRound) initialGenerate() {
	for i := 0; i < LobbyPathRows; i++ {
		r.rows = append(r.rows, Row{RowId: int32(len(r.rows)), RowType: RowPath, WallWidth: 3})
	}
	for i := 0; i < StandsHeight; i++ {
		r.rows = append(r.rows, Row{RowId: int32(len(r.rows)), RowType: RowStands, StandsWidth: StandsWidth})
	}
	r.rows = append(r.rows, Row{RowId: int32(len(r.rows)), RowType: RowStartingBarrier})
}

// GetRow returns the row at (roundId, y), generating every row from the
// last-generated row id up to and including this one first. Locking the
// whole Map for the duration keeps generation strictly top-down even under
// concurrent callers.
func (m *Map) GetRow(roundId uint8, y int32) Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.round(roundId)
	return r.ensureRow(RowId(y))
}

func (r *mapRound) ensureRow(rowId int32) Row {
	for int32(len(r.rows)) <= rowId {
		r.generateNext()
	}
	return r.rows[rowId]
}

// generateNext appends exactly one newly-generated row, applying the
// row-generation algorithm described in §4.4.1: seed 0 (the lobby) never
// generates obstacle clusters; otherwise a cluster is started with
// probability 0.25 (50/50 Road vs River), queueing the cluster's rows in
// r.pending and emitting them before reverting to Path; outside a cluster, a running
// wall_width performs a clamped biased random walk, with a 0.25 chance to
// upgrade that Path row to Bushes.
func (r *mapRound) generateNext() {
	rowId := int32(len(r.rows))
	rowR := rng.New(r.seed, r.roundId, "row", rowId)

	if len(r.pending) > 0 {
		next := r.pending[0]
		r.pending = r.pending[1:]
		row := Row{RowId: rowId, RowType: next.kind}
		switch next.kind {
		case RowRoad:
			row.Obstacles = newRoad(rowR, next.dir)
		case RowRiver:
			row.Obstacles = newRiver(rowR, next.dir)
			r.riverIdx++
		}
		r.rows = append(r.rows, row)
		return
	}

	if height, ok := r.maybeStartIcy(rowR); ok {
		r.appendIcyCluster(height, rowR)
		return
	}

	isLobbySeed := r.seed == 0

	if !isLobbySeed && rowR.GenUnit("cluster_roll") < 0.25 {
		if rowR.GenUnit("cluster_kind") < 0.5 {
			lanes := int32(rowR.GenRange(1, 6, "road_lanes"))
			dir := rowR.GenUnit("road_dir") < 0.5
			for i := int32(0); i < lanes; i++ {
				r.pending = append(r.pending, pendingRow{kind: RowRoad, dir: dir})
			}
			for i := int32(0); i < lanes; i++ {
				r.pending = append(r.pending, pendingRow{kind: RowRoad, dir: !dir})
			}
		} else {
			riverLanes := rng.Choose(rowR, []int32{2, 2, 3, 4}, "river_lanes")
			dir := rowR.GenUnit("river_dir") < 0.5
			for i := int32(0); i < riverLanes; i++ {
				r.pending = append(r.pending, pendingRow{kind: RowRiver, dir: dir})
			}
		}
		r.generateNext()
		return
	}

	step := rng.Choose(rowR, []int32{-1, -1, 0, 0, 0, 0, 1, 1, 1}, "wall_step")
	r.wallWidth += step
	if r.wallWidth < 1 {
		r.wallWidth = 1
	}
	if r.wallWidth > 6 {
		r.wallWidth = 6
	}

	row := Row{RowId: rowId, RowType: RowPath, WallWidth: r.wallWidth}
	if rowR.GenUnit("bushes_upgrade") < 0.25 {
		row.RowType = RowBushes
		row.BushCols = bushColumns(rowR, r.wallWidth)
	}
	r.rows = append(r.rows, row)
}

// maybeStartIcy is a hook point for icy-row injection (§4.4.3): icy
// clusters are a separate generator pass layered over the base row
// algorithm. This port triggers an icy cluster with a small independent
// probability outside of road/river clusters, choosing a height from
// icyHeights and falling back to a plain Path cluster if the generator
// exhausts every outer seed (per §7's Map generation failure policy).
func (r *mapRound) maybeStartIcy(rowR rng.FroggyRand) (height int32, ok bool) {
	if r.seed == 0 {
		return 0, false
	}
	if rowR.GenUnit("icy_roll") >= 0.08 {
		return 0, false
	}
	return pickIcyHeight(rowR), true
}

// appendIcyCluster generates (or, on total failure, falls back from) a
// full icy cluster of the requested height and appends every row of it to
// r.rows in one shot, so later ensureRow calls for rows within the cluster
// just index straight into the slice.
func (r *mapRound) appendIcyCluster(height int32, rowR rng.FroggyRand) {
	startRowId := int32(len(r.rows))

	grid, ok := genIcySection(rowR, height)
	if !ok {
		// Map generation failure: never block the tick, fall back to a
		// plain Path cluster for this region instead.
		for y := int32(0); y < height; y++ {
			r.rows = append(r.rows, Row{RowId: startRowId + y, RowType: RowPath, WallWidth: r.wallWidth})
		}
		return
	}

	for y := int32(0); y < height; y++ {
		r.rows = append(r.rows, Row{
			RowId:     startRowId + y,
			RowType:   RowIcy,
			IcyBlocks: grid.rows[y],
			IcyHeight: height,
			IcyOffset: y,
		})
	}
}

// GetCars resolves every onscreen car on the row at (roundId, y).
func (m *Map) GetCars(roundId uint8, timeUs uint32, y int32) []ObstaclePublic {
	row := m.GetRow(roundId, y)
	if row.RowType != RowRoad {
		return nil
	}
	return row.Obstacles.GetObstaclesOnscreen(timeUs)
}

// GetLillipads resolves every onscreen lillipad on the row at (roundId, y).
func (m *Map) GetLillipads(roundId uint8, timeUs uint32, y int32) []ObstaclePublic {
	row := m.GetRow(roundId, y)
	if row.RowType != RowRiver {
		return nil
	}
	return row.Obstacles.GetObstaclesOnscreen(timeUs)
}

// CollidesCar reports whether a coordinate collides with any onscreen car.
func (m *Map) CollidesCar(timeUs uint32, roundId uint8, x, y int32) bool {
	row := m.GetRow(roundId, y)
	if row.RowType != RowRoad {
		return false
	}
	return row.Obstacles.CollidesCar(timeUs, x)
}

// Solid reports whether (x, y) blocks movement, taking the match phase
// into account for the starting barrier.
func (m *Map) Solid(phase Phase, roundId uint8, x, y int32) bool {
	row := m.GetRow(roundId, y)
	return row.Solid(x, phase)
}

// LillipadAtPos resolves which lillipad (if any) a player riding the river
// row at y is currently standing on, given their precise x.
func (m *Map) LillipadAtPos(roundId uint8, timeUs uint32, y int32, preciseX float64) (LillipadId, bool) {
	row := m.GetRow(roundId, y)
	if row.RowType != RowRiver {
		return 0, false
	}
	return row.Obstacles.LillipadAtPos(timeUs, preciseX)
}

// GetLillipadScreenX resolves a lillipad's live screen-x on the river row
// at y.
func (m *Map) GetLillipadScreenX(roundId uint8, timeUs uint32, y int32, id LillipadId) (float64, bool) {
	row := m.GetRow(roundId, y)
	if row.RowType != RowRiver {
		return 0, false
	}
	return row.Obstacles.GetLillipadScreenX(timeUs, id)
}

// realisePos resolves pos to a continuous (x, y) in screen-space at timeUs:
// a Coord position realises to its own integer x; a Lillipad position
// realises to the live screen-x of the specific lillipad it names, which
// drifts with the river's current. ok is false if a Lillipad position names
// a lillipad that no longer exists (it has scrolled out of the generated
// range).
func (m *Map) realisePos(timeUs uint32, pos coords.Pos) (x float64, y int32, ok bool) {
	switch pos.Kind {
	case coords.PosKindLillipad:
		screenX, found := m.GetLillipadScreenX(pos.RoundId, timeUs, pos.LillipadY, LillipadId(pos.LillipadId))
		if !found {
			return 0, 0, false
		}
		return screenX, pos.LillipadY, true
	default:
		return float64(pos.X), pos.Y, true
	}
}

// TryApplyInput mirrors the source's try_apply_input: it realises pos to a
// screen-space coordinate at timeUs, applies input's discrete (dx, dy),
// and resolves the landing spot. Landing on a lillipad returns a Lillipad
// position (so the rider thereafter tracks that lillipad's drift instead of
// a fixed tile); landing on solid terrain fails outright; otherwise the
// landing is a plain Coord.
func (m *Map) TryApplyInput(timeUs uint32, phase Phase, roundId uint8, pos coords.Pos, input coords.Input) (coords.Pos, bool) {
	x, y, ok := m.realisePos(timeUs, pos)
	if !ok {
		return coords.Pos{}, false
	}

	dx, dy := input.Delta()
	x += float64(dx)
	y += dy

	if lillipadId, ok := m.LillipadAtPos(roundId, timeUs, y, x); ok {
		return coords.LillipadPos(roundId, y, uint8(lillipadId)), true
	}

	cx := int32(math.Round(x))
	if m.Solid(phase, roundId, cx, y) {
		return coords.Pos{}, false
	}
	return coords.CoordPos(cx, y), true
}

// UpdateRiverSpawnTimes forces generation up to screenY and records the
// first time a not-yet-live river row becomes visible, appending
// monotonically to the round's RiverSpawnTimes (see invariant #6: each
// index is written exactly once).
func (m *Map) UpdateRiverSpawnTimes(roundId uint8, current RiverSpawnTimes, timeUs uint32, screenY int32) RiverSpawnTimes {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.round(roundId)
	r.ensureRow(RowId(screenY))

	out := current.Clone()
	idx := 0
	for _, row := range r.rows {
		if row.RowType != RowRiver {
			continue
		}
		y := YFromRowId(row.RowId)
		if y >= screenY {
			if _, ok := out.Get(idx); !ok {
				out.Set(idx, timeUs)
			}
		}
		idx++
	}
	return out
}
