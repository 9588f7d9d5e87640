// Package server hosts one match per connected group of players: the
// authoritative tick loop, the websocket connection lifecycle, and the
// HTTP session-setup surface clients use to find and join a match.
package server

import (
	"time"
)

// DesiredTickTime is the match loop's nominal cadence.
const DesiredTickTime = 14 * time.Millisecond

// StaticLagUs is subtracted from the server's clock when establishing a
// new client's time offset, giving their early inputs a small cushion
// against the first few ticks' worth of network jitter.
const StaticLagUs uint32 = 50_000

// EmptyTicksThreshold is how many consecutive ticks a match tolerates at
// most one listener before giving up and shutting down.
const EmptyTicksThreshold = 60 * 20

// WriteChannelSize bounds the per-connection outbound buffer, mirroring
// the teacher's own WriteChannelSize.
const WriteChannelSize = 256
