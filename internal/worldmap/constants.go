package worldmap

import "crossyarena/server/internal/coords"

// Phase re-exports coords.Phase so callers elsewhere in this package don't
// need a second import alias.
type Phase = coords.Phase

const (
	PhaseLobby    = coords.PhaseLobby
	PhaseWarmup   = coords.PhaseWarmup
	PhaseRound    = coords.PhaseRound
	PhaseCooldown = coords.PhaseCooldown
	PhaseEnd      = coords.PhaseEnd
)

// ScreenSize is the visible board width in tiles.
const ScreenSize = coords.ScreenSize

const (
	// StandsHeight is the number of Stands rows laid down at the very
	// start of every round, before procedural generation begins.
	StandsHeight = 8
	// StandsWidth bounds the walled spectator area flanking the start
	// line; columns outside [StandsWidth, ScreenSize-StandsWidth) are
	// solid.
	StandsWidth = 6
	// LobbyPathRows is the number of plain, always-open Path rows making
	// up the lobby standing area below the starting barrier.
	LobbyPathRows = 12

	// CarWidth is the half-width tolerance used by the car collision
	// check, expressed in tiles.
	CarWidth = 1.25
	// LillipadWidthTiles is the nominal lillipad footprint in tiles.
	LillipadWidthTiles = 1.0

	// RoadTimeScaleUs is the time, in microseconds, for a road obstacle's
	// phase to complete one full cycle.
	RoadTimeScaleUs = 5_000_000
	// RiverTimeScaleUs is the river equivalent of RoadTimeScaleUs.
	RiverTimeScaleUs = 18_000_000

	// riverWidthMin/riverWidthMax bound the randomised r_width term used
	// by river generation. roadWidthMin/roadWidthMax are not read by road
	// generation, which uses CarWidth for every car.
	riverWidthMin = 0.22
	riverWidthMax = 0.42
	roadWidthMin  = 0.20
	roadWidthMax  = 0.25
)
