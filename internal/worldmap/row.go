package worldmap

import "crossyarena/server/internal/bitmap"

// RowType discriminates the closed set of row variants a Row can take. The
// set is fixed and small, so solidity/collision/spawn behaviour is
// expressed as a switch over the kind rather than a capability interface.
type RowType uint8

const (
	RowPath RowType = iota
	RowBushes
	RowRoad
	RowRiver
	RowIcy
	RowLava
	RowStartingBarrier
	RowStands
)

func (t RowType) String() string {
	switch t {
	case RowPath:
		return "Path"
	case RowBushes:
		return "Bushes"
	case RowRoad:
		return "Road"
	case RowRiver:
		return "River"
	case RowIcy:
		return "IcyRow"
	case RowLava:
		return "LavaRow"
	case RowStartingBarrier:
		return "StartingBarrier"
	case RowStands:
		return "Stands"
	default:
		return "Unknown"
	}
}

// IsDangerous reports whether simply standing on this row's open ground
// (without further per-cell checks) should be treated as lethal terrain.
// River tiles are always dangerous unless a lillipad is under the player,
// which is checked separately by the rules FSM, not by this flag.
func (t RowType) IsDangerous() bool {
	return t == RowRiver || t == RowLava
}

// Row is one horizontal strip of the map at a given row id.
type Row struct {
	RowId   int32
	RowType RowType

	// Path / Bushes
	WallWidth int32
	BushCols  []bool // Bushes only: which columns within the walls carry a bush

	// Road / River
	Obstacles ObstacleRow

	// Icy
	IcyBlocks BitMap64
	IcyHeight int32
	IcyOffset int32 // offset of this row within its icy cluster, 0 at the top

	// Stands
	StandsWidth int32
}

// BitMap64 aliases the shared bitset type for icy block layout.
type BitMap64 = bitmap.BitMap

// Solid reports whether (x, y) on this row blocks movement, given the
// current match phase (the starting barrier only blocks before the round
// begins) and the horizontal bounds configured for walled row types.
func (r Row) Solid(x int32, phase Phase) bool {
	switch r.RowType {
	case RowStartingBarrier:
		return phase == PhaseLobby || phase == PhaseWarmup
	case RowStands:
		return outsideWalls(x, r.StandsWidth)
	case RowPath:
		return outsideWalls(x, r.WallWidth)
	case RowBushes:
		return outsideWalls(x, r.WallWidth)
	case RowIcy:
		return x < 0 || x >= ScreenSize
	default:
		return false
	}
}

// outsideWalls reports whether x falls outside the centered walled span of
// the given width, matching the original's outside_walls shape: walls grow
// symmetrically inward from both screen edges.
func outsideWalls(x int32, wallWidth int32) bool {
	return x < wallWidth || x >= ScreenSize-wallWidth
}
