// Package arena implements the per-tick simulation: player movement and
// push resolution, GameState.simulate, and the lobby/warmup/round/cooldown/
// end rules FSM. It depends on worldmap for terrain queries and on
// playerid for the dense, order-stable player map every aggregation here
// must traverse in ascending id order to stay deterministic.
package arena

import "crossyarena/server/internal/coords"

const (
	// ScreenSize is the visible board width in tiles.
	ScreenSize = coords.ScreenSize
	// MaxPlayers bounds the PlayerId space.
	MaxPlayers = 8

	// TickIntervalUs is the nominal simulation step, 60 Hz.
	TickIntervalUs uint32 = 16_666

	// MoveDurUs is how long a single tile-to-tile move takes: 7/60s.
	MoveDurUs uint32 = 116_666
	// MoveCooldownMaxUs is the (effectively negligible) cooldown applied
	// after a move completes.
	MoveCooldownMaxUs uint32 = 1

	// MinPlayers is the lobby's minimum headcount to ever start a round.
	MinPlayers = 2
	// CountdownTimeUs is the RoundWarmup duration.
	CountdownTimeUs uint32 = 3_000_000
	// CooldownTimeUs is the RoundCooldown duration.
	CooldownTimeUs uint32 = 4_000_000
	// RequiredWinCount ends the match outright once reached.
	RequiredWinCount uint8 = 25
	// RiverSpawnYOffset extends how far above the current screen top
	// river spawn bookkeeping is forced to evaluate, so rows don't pop
	// lillipads into view right at the boundary.
	RiverSpawnYOffset int32 = 4
	// ScreenYBuffer is how far above the topmost alive player the scroll
	// position is allowed to sit.
	ScreenYBuffer int32 = 6
	// ScreenKillBuffer extends how far below the scroll window a player
	// can fall before being killed for falling behind.
	ScreenKillBuffer int32 = 4
	// KillOffMapThresh bounds how far past either screen edge a lillipad
	// rider's resolved screen-x may drift before being killed.
	KillOffMapThresh float64 = 2.5

	// LobbyReadyTicks is how long all joined players must simultaneously
	// stand in the ready zone before a round starts. The ready-zone
	// geometry itself (unspecified upstream) is defined below.
	LobbyReadyTicks = 120

	// lobbySpawnY is the row reset_positions lines players up on, and the
	// vertical anchor of the ready zone.
	lobbySpawnY int32 = 17
	// lobbySpawnCenterX is the column reset_positions centers the lineup
	// on.
	lobbySpawnCenterX int32 = 9
)

// PushedMoveDurFactor shortens a pushed player's recovery relative to
// their pusher's move duration, letting the pushed player catch up
// instead of the pair locking into a stable stun cycle. It is a float64
// variable rather than a constant so that MoveDurUs scaled by it may be
// truncated to uint32 (116_666 * 0.8 = 93_332.8 becomes 93_332).
var PushedMoveDurFactor = 0.8

// readyZoneXMin/readyZoneXMax/readyZoneYMin/readyZoneYMax bound the lobby's
// ready area: the flat apron around the spawn line, seven columns wide
// (x 6..12, centred on the spawn column) and five rows deep (y 15..19) so
// players milling around don't flicker in and out.
const (
	readyZoneXMin = lobbySpawnCenterX - 3
	readyZoneXMax = lobbySpawnCenterX + 3
	readyZoneYMin = lobbySpawnY - 2
	readyZoneYMax = lobbySpawnY + 2
)

// inReadyZone reports whether a coordinate falls within the lobby's ready
// area.
func inReadyZone(x, y int32) bool {
	return x >= readyZoneXMin && x <= readyZoneXMax && y >= readyZoneYMin && y <= readyZoneYMax
}
