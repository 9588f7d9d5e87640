package worldmap

import "math"

// Obstacle is a single moving object's phase offset in [0, 1). Its
// normalised position at a given time is a closed-form function of phase
// and time, so no participant ever needs to integrate motion tick by tick.
type Obstacle struct {
	Phase float64
}

// At returns the obstacle's normalised position in [0, 1) at timeUs,
// wrapping the phase around the obstacle's time scale.
func (o Obstacle) At(timeUs uint32, timeScaleUs float64) float64 {
	t := float64(timeUs) / timeScaleUs
	p := o.Phase + t
	_, frac := math.Modf(p)
	if frac < 0 {
		frac += 1
	}
	return frac
}

// ObstaclePublic is a resolved, screen-space obstacle ready for collision
// checks or rendering.
type ObstaclePublic struct {
	ScreenX float64
	Width   float64
}

// ObstacleRow is the shared continuous-time motion model for both Road and
// River rows. Each obstacle's world-x is derived from its phase, the row's
// viewport [R0, R1), and whether the viewport is traversed in reverse.
type ObstacleRow struct {
	Obstacles   []Obstacle
	R0, R1      float64
	Inverted    bool
	TimeScaleUs float64
	Width       float64 // per-obstacle half-width in tiles (CarWidth or lillipad radius-ish term)
}

// realise maps a raw phase position in [0,1) through the row's viewport
// into screen-x tiles.
func (row ObstacleRow) realise(p float64) float64 {
	if row.Inverted {
		p = 1 - p
	}
	span := row.R1 - row.R0
	if span == 0 {
		return 0
	}
	return ((p - row.R0) / span) * ScreenSize
}

// GetObstaclesPublic resolves every obstacle's screen-x at timeUs, without
// filtering to the visible screen.
func (row ObstacleRow) GetObstaclesPublic(timeUs uint32) []ObstaclePublic {
	out := make([]ObstaclePublic, 0, len(row.Obstacles))
	for _, o := range row.Obstacles {
		p := o.At(timeUs, row.TimeScaleUs)
		out = append(out, ObstaclePublic{ScreenX: row.realise(p), Width: row.Width})
	}
	return out
}

// GetObstaclesOnscreen is GetObstaclesPublic filtered to obstacles whose
// footprint overlaps the visible [0, ScreenSize) band.
func (row ObstacleRow) GetObstaclesOnscreen(timeUs uint32) []ObstaclePublic {
	all := row.GetObstaclesPublic(timeUs)
	out := all[:0]
	for _, o := range all {
		if o.ScreenX+o.Width >= 0 && o.ScreenX-o.Width < ScreenSize {
			out = append(out, o)
		}
	}
	return append([]ObstaclePublic{}, out...)
}

// GetObstacle resolves a single obstacle by index.
func (row ObstacleRow) GetObstacle(timeUs uint32, idx int) (ObstaclePublic, bool) {
	if idx < 0 || idx >= len(row.Obstacles) {
		return ObstaclePublic{}, false
	}
	p := row.Obstacles[idx].At(timeUs, row.TimeScaleUs)
	return ObstaclePublic{ScreenX: row.realise(p), Width: row.Width}, true
}
