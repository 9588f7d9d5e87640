package server

import (
	"log"
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"crossyarena/server/internal/arena"
	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/protocol"
	"crossyarena/server/internal/timeline"
	"crossyarena/server/internal/worldmap"
)

// pendingTick is one client's reported input, with its time already mapped
// through that client's clock offset (by Client.handleTick), waiting for
// the match loop to hand it to the timeline.
type pendingTick struct {
	playerId playerid.PlayerId
	timeUs   uint32
	input    arena.Input
}

// Match owns one game's authoritative Timeline and every connection
// attached to it. One goroutine per Match runs the tick loop; everything
// else (ReadPump goroutines, HTTP handlers) only ever touches Match state
// through its mutex-guarded inbox, mirroring the teacher's own
// mutex-guarded World plus a dedicated game-loop goroutine.
type Match struct {
	GameId string
	Seed   uint32
	Map    *worldmap.Map

	mu       sync.Mutex
	clients  playerid.Map[*Client]
	reserved playerid.Map[bool]
	timeline *timeline.Timeline

	pendingTicks  []pendingTick
	pendingAdds   []playerid.PlayerId
	pendingDrops  []playerid.PlayerId
	pendingProbes []probeRequest

	out  chan protocol.ServerTick
	fans []<-chan protocol.ServerTick
	done chan struct{}

	emptyTicks int
	lastTick   time.Time
}

type probeRequest struct {
	socketId         string
	clientSendTimeUs uint32
	serverReceiveUs  uint32
}

// NewMatch allocates a fresh match with its own deterministically-seeded
// Map and an empty Timeline, fanned out to playerid.MaxPlayers writer
// channels up front — the PlayerId space is fixed-width, so the fan-out
// width never needs to grow after creation.
func NewMatch(gameId string, seed uint32) *Match {
	m := worldmap.New(uint64(seed))
	out := make(chan protocol.ServerTick, 1)
	done := make(chan struct{})
	match := &Match{
		GameId:   gameId,
		Seed:     seed,
		Map:      m,
		clients:  playerid.New[*Client](),
		reserved: playerid.New[bool](),
		timeline: timeline.New(gameId, m),
		out:      out,
		done:     done,
	}
	match.fans = channerics.Broadcast(done, out, playerid.MaxPlayers)
	return match
}

// OutputFor returns the broadcast channel carrying every ServerTick destined
// for the given player's connection.
func (match *Match) OutputFor(id playerid.PlayerId) <-chan protocol.ServerTick {
	return match.fans[id]
}

// AttachClient registers a freshly-upgraded connection under the given
// player id, queuing its timeline join for the next tick.
func (match *Match) AttachClient(id playerid.PlayerId, c *Client) {
	match.mu.Lock()
	defer match.mu.Unlock()
	match.clients.Set(id, c)
	match.reserved.Remove(id)
	match.pendingAdds = append(match.pendingAdds, id)
}

// EnqueueTick records a client's reported input, whose timeUs the caller
// has already mapped through the client's clock offset, to be propagated
// into the timeline on the next tick. Readiness
// in this game is derived from standing in the lobby's ready zone (see
// RulesState.tickLobby), not from a client-reported flag, so the tick's
// LobbyReady bit is accepted on the wire but not threaded any further.
func (match *Match) EnqueueTick(id playerid.PlayerId, timeUs uint32, input arena.Input, ready bool) {
	match.mu.Lock()
	defer match.mu.Unlock()
	match.pendingTicks = append(match.pendingTicks, pendingTick{playerId: id, timeUs: timeUs, input: input})
}

// EnqueueProbe records a latency probe to be echoed back on the next tick.
func (match *Match) EnqueueProbe(socketId string, clientSendTimeUs uint32) {
	match.mu.Lock()
	defer match.mu.Unlock()
	match.pendingProbes = append(match.pendingProbes, probeRequest{
		socketId:         socketId,
		clientSendTimeUs: clientSendTimeUs,
		serverReceiveUs:  uint32(time.Now().UnixMicro()),
	})
}

// EnqueueDrop records a connection going away, to be removed from the
// match on the next tick.
func (match *Match) EnqueueDrop(id playerid.PlayerId) {
	match.mu.Lock()
	defer match.mu.Unlock()
	match.pendingDrops = append(match.pendingDrops, id)
}

// ListenerCount reports how many connections are currently attached,
// independent of the pending add/drop queues.
func (match *Match) ListenerCount() int {
	match.mu.Lock()
	defer match.mu.Unlock()
	return match.clients.CountPopulated()
}

// Run drives the tick loop until the match goes idle or ctx-equivalent
// done channel is closed by shutdown. It owns match.timeline exclusively;
// every other goroutine reaches the match only through the enqueue methods
// above. A panic inside the loop ends only this match's goroutine, with a
// diagnostic log line, never the process.
func (match *Match) Run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("match %s: aborting after invariant violation: %v", match.GameId, r)
		}
	}()

	ticker := channerics.NewTicker(match.done, DesiredTickTime)
	match.lastTick = time.Now()

	for {
		select {
		case <-match.done:
			return
		case <-ticker:
			now := time.Now()
			dt := now.Sub(match.lastTick)
			match.lastTick = now
			if match.step(uint32(dt.Microseconds())) {
				match.shutdown()
				return
			}
		}
	}
}

// step runs one tick's worth of work and reports whether the match should
// now shut down for lack of listeners.
func (match *Match) step(dtUs uint32) bool {
	match.mu.Lock()
	ticks := match.pendingTicks
	adds := match.pendingAdds
	drops := match.pendingDrops
	probes := match.pendingProbes
	match.pendingTicks = nil
	match.pendingAdds = nil
	match.pendingDrops = nil
	match.pendingProbes = nil
	match.mu.Unlock()

	match.timeline.Tick(nil, dtUs)

	batch := make([]timeline.TimedInput, len(ticks))
	for i, t := range ticks {
		batch[i] = timeline.TimedInput{TimeUs: t.timeUs, Input: t.input, PlayerId: t.playerId}
	}
	match.timeline.PropagateInputs(batch)

	for _, id := range adds {
		match.timeline.AddPlayer(id)
	}
	for _, id := range drops {
		match.mu.Lock()
		match.clients.Remove(id)
		match.reserved.Remove(id)
		match.mu.Unlock()
	}

	for _, p := range probes {
		match.forwardProbe(p)
	}

	match.broadcastTick()

	listeners := match.ListenerCount()
	if listeners <= 1 {
		match.emptyTicks++
	} else {
		match.emptyTicks = 0
	}
	return match.emptyTicks >= EmptyTicksThreshold
}

// forwardProbe answers a TimeRequestPacket. The teacher's broadcast-only
// Client.SendMessage has no notion of addressing a single socket, so this
// reaches past it into the client registry directly — the one place the
// match loop talks to a specific connection instead of the broadcast fan.
func (match *Match) forwardProbe(p probeRequest) {
	match.mu.Lock()
	defer match.mu.Unlock()
	for _, e := range match.clients.Iter() {
		if e.Value.SocketId == p.socketId {
			e.Value.SendDirect(protocol.KindTimeRequestIntermediate, protocol.TimeRequestIntermediate{
				ClientSendTimeUs:    p.clientSendTimeUs,
				ServerReceiveTimeUs: p.serverReceiveUs,
				SocketId:            p.socketId,
			})
			return
		}
	}
}

func (match *Match) broadcastTick() {
	top := match.timeline.TopState()
	tick := protocol.ServerTick{
		ExactSendServerTimeUs: uint32(time.Now().UnixMicro()),
		Latest: protocol.PlayerSnapshot{
			TimeUs: top.TimeUs,
			States: statesToWire(top.PlayerStates),
		},
		RuleState: top.RulesState.Snapshot(),
	}
	select {
	case match.out <- tick:
	default:
		log.Printf("match %s: broadcast channel full, dropping a tick", match.GameId)
	}
}

func statesToWire(states playerid.Map[arena.PlayerState]) []arena.PlayerState {
	entries := states.Iter()
	out := make([]arena.PlayerState, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// shutdown closes every per-connection channel this match owns and tells
// any still-attached clients goodbye.
func (match *Match) shutdown() {
	match.mu.Lock()
	clients := match.clients.Iter()
	match.mu.Unlock()

	for _, e := range clients {
		e.Value.SendDirect(protocol.KindGoodBye, protocol.GoodBye{})
		e.Value.Close()
	}
	close(match.done)
	log.Printf("match %s: idle shutdown after %d empty ticks", match.GameId, match.emptyTicks)
}

// NextFreePlayerId reserves the next unused player id for a joining
// client, marking it taken immediately so two overlapping /join calls
// before either one's websocket connects never hand out the same id —
// playerid.Map.NextFree only looks at match.clients, which isn't
// populated until AttachClient runs, so a separate reservation map
// covers the gap between /join and the socket actually upgrading.
func (match *Match) NextFreePlayerId() (playerid.PlayerId, bool) {
	match.mu.Lock()
	defer match.mu.Unlock()
	for i := playerid.PlayerId(1); int(i) < playerid.MaxPlayers; i++ {
		if !match.clients.Contains(i) && !match.reserved.Contains(i) {
			match.reserved.Set(i, true)
			return i, true
		}
	}
	return 0, false
}
