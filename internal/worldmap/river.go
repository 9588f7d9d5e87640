package worldmap

import "crossyarena/server/internal/rng"

// newRiver builds a river row's lillipad layout: groups of lillipads of
// length in [3, 7) (froggy-distributed around the middle of that range),
// each lillipad LillipadWidthTiles wide, separated within a group by a
// fixed spacing and between groups by a wider randomised gap, repeating
// until the accumulator wraps past a full cycle.
func newRiver(r rng.FroggyRand, inverted bool) ObstacleRow {
	rWidth := r.GenUnit("r_width")*(riverWidthMax-riverWidthMin) + riverWidthMin
	width := 2 * rWidth

	lillipadWidthScreen := width * LillipadWidthTiles / ScreenSize

	var obstacles []Obstacle
	acc := r.GenUnit("start_offset")

	groupIdx := 0
	for acc < 1.0 {
		groupLen := int(r.GenFroggy(3, 7, 3, "group_len", groupIdx))
		if groupLen < 1 {
			groupLen = 1
		}
		for i := 0; i < groupLen && acc < 1.0; i++ {
			obstacles = append(obstacles, Obstacle{Phase: wrapUnit(acc)})
			acc += lillipadWidthScreen
		}

		minSpacing := width * 1.9 / ScreenSize
		maxSpacing := width * 6.8 / ScreenSize
		spacing := minSpacing + r.GenUnit("group_spacing", groupIdx)*(maxSpacing-minSpacing)
		acc += spacing
		groupIdx++
	}

	return ObstacleRow{
		Obstacles:   obstacles,
		R0:          0,
		R1:          1,
		Inverted:    inverted,
		TimeScaleUs: RiverTimeScaleUs,
		Width:       LillipadWidthTiles / 2,
	}
}

func wrapUnit(x float64) float64 {
	for x >= 1 {
		x -= 1
	}
	for x < 0 {
		x += 1
	}
	return x
}

// LillipadId identifies a specific lillipad within a river row by its
// index among the row's obstacles.
type LillipadId uint8

// LillipadAtPos finds the lillipad, if any, close enough to precisePos to
// carry a player riding it. The margin matches the source:
// LillipadWidthTiles / 1.9.
func (row ObstacleRow) LillipadAtPos(timeUs uint32, precisePos float64) (LillipadId, bool) {
	const margin = LillipadWidthTiles / 1.9
	best := -1
	bestDist := margin
	obstacles := row.GetObstaclesPublic(timeUs)
	for i, o := range obstacles {
		d := o.ScreenX - precisePos
		if d < 0 {
			d = -d
		}
		if d <= bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return LillipadId(best), true
}

// GetLillipadScreenX resolves a specific lillipad's current screen-x.
func (row ObstacleRow) GetLillipadScreenX(timeUs uint32, id LillipadId) (float64, bool) {
	o, ok := row.GetObstacle(timeUs, int(id))
	if !ok {
		return 0, false
	}
	return o.ScreenX, ok
}

// RiverSpawnTimes records, per river row (in row-generation order), the
// first time_us at which that row became visible on screen. The obstacle
// queries in this package (GetLillipads, LillipadAtPos,
// GetLillipadScreenX) do not consult it: a river row's lillipads are
// present at every time_us, whether or not a spawn time is recorded.
type RiverSpawnTimes struct {
	spawnTimes []uint32
}

// Get returns the spawn time recorded for river-row index i, if any.
func (s *RiverSpawnTimes) Get(i int) (uint32, bool) {
	if i < 0 || i >= len(s.spawnTimes) {
		return 0, false
	}
	return s.spawnTimes[i], true
}

// Set appends the spawn time for the next river row. Mirrors the source's
// append-only assertion: i must equal the current length, since river rows
// are discovered strictly in top-down order and each is spawned exactly
// once.
func (s *RiverSpawnTimes) Set(i int, t uint32) {
	if i != len(s.spawnTimes) {
		panic("worldmap: RiverSpawnTimes.Set called out of order")
	}
	s.spawnTimes = append(s.spawnTimes, t)
}

// Len reports how many river rows have recorded spawn times so far.
func (s *RiverSpawnTimes) Len() int {
	return len(s.spawnTimes)
}

// Clone returns an independent copy, used when the rules FSM threads a new
// RiverSpawnTimes value through each tick.
func (s RiverSpawnTimes) Clone() RiverSpawnTimes {
	out := RiverSpawnTimes{spawnTimes: make([]uint32, len(s.spawnTimes))}
	copy(out.spawnTimes, s.spawnTimes)
	return out
}
