package worldmap

import "crossyarena/server/internal/rng"

const carCount = 8

// newRoad builds a road row's car layout: carCount cars spread evenly
// around the cycle with a small random jitter per car, moving in the
// direction given by inverted.
func newRoad(r rng.FroggyRand, inverted bool) ObstacleRow {
	obstacles := make([]Obstacle, 0, carCount)
	for i := 0; i < carCount; i++ {
		base := float64(i) / float64(carCount)
		jitter := (r.GenUnit("jitter", i) - 0.5) * (1.0 / float64(carCount)) * 0.5
		obstacles = append(obstacles, Obstacle{Phase: wrapUnit(base + jitter)})
	}

	return ObstacleRow{
		Obstacles:   obstacles,
		R0:          0,
		R1:          1,
		Inverted:    inverted,
		TimeScaleUs: RoadTimeScaleUs,
		Width:       CarWidth,
	}
}

// CollidesCar reports whether a coordinate collides with any car on this
// row at timeUs, using the exact formula the contract specifies:
// |player.x + 0.5 - car.x| < CAR_WIDTH.
func (row ObstacleRow) CollidesCar(timeUs uint32, playerX int32) bool {
	px := float64(playerX) + 0.5
	for _, o := range row.GetObstaclesOnscreen(timeUs) {
		d := px - o.ScreenX
		if d < 0 {
			d = -d
		}
		if d < CarWidth {
			return true
		}
	}
	return false
}
