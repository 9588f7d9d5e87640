package arena

import (
	"crossyarena/server/internal/coords"
	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/worldmap"
)

// FstKind discriminates RulesState's active variant.
type FstKind uint8

const (
	FstLobby FstKind = iota
	FstRoundWarmup
	FstRound
	FstRoundCooldown
	FstEndWinner
)

// lobbyState is the Lobby variant's payload: per-player ready flags and how
// long the whole roster has stood in the ready zone continuously.
type lobbyState struct {
	readyStates                playerid.Map[bool]
	timeWithAllPlayersInReady  uint32 // counted in ticks, not microseconds
}

// warmupState is the RoundWarmup variant's payload.
type warmupState struct {
	remainingUs     uint32
	timeFullUs      uint32
	roundId         uint8
	inGame          playerid.Map[bool]
	winCounts       playerid.Map[uint8]
	riverSpawnTimes worldmap.RiverSpawnTimes
}

// roundState is the Round variant's payload.
type roundState struct {
	screenY         int32
	aliveStates     playerid.Map[bool]
	roundId         uint8
	winCounts       playerid.Map[uint8]
	riverSpawnTimes worldmap.RiverSpawnTimes
}

// cooldownState is the RoundCooldown variant's payload: a timer layered on
// top of the Round state it inherits (scroll position, aliveness and win
// counts carry over unmodified into the next warmup/winner decision).
type cooldownState struct {
	remainingUs uint32
	round       roundState
}

// RulesState is the match lifecycle FSM: config, a stable game id, and the
// currently-active variant's payload.
type RulesState struct {
	GameId      string
	Kind        FstKind
	lobby       lobbyState
	warmup      warmupState
	round       roundState
	cooldown    cooldownState
	endWinnerId playerid.PlayerId
}

// NewRoundStateForTest builds a RulesState already inside Round at the
// given round id with the given players marked alive, bypassing the
// Lobby/Warmup ready-up sequence. Movement and collision tests care about
// in-round behavior, not how a match gets there.
func NewRoundStateForTest(gameId string, roundId uint8, aliveIds ...playerid.PlayerId) RulesState {
	alive := playerid.New[bool]()
	for _, id := range aliveIds {
		alive.Set(id, true)
	}
	return RulesState{
		GameId: gameId,
		Kind:   FstRound,
		round: roundState{
			aliveStates: alive,
			roundId:     roundId,
			winCounts:   playerid.New[uint8](),
		},
	}
}

// NewRulesState starts a fresh match in Lobby with nobody ready.
func NewRulesState(gameId string) RulesState {
	return RulesState{
		GameId: gameId,
		Kind:   FstLobby,
		lobby:  lobbyState{readyStates: playerid.New[bool]()},
	}
}

// Phase reports the coarse lifecycle stage this FSM maps onto, for map
// solidity queries (the starting barrier is only solid before Round).
func (s RulesState) Phase() worldmap.Phase {
	switch s.Kind {
	case FstLobby:
		return worldmap.PhaseLobby
	case FstRoundWarmup:
		return worldmap.PhaseWarmup
	case FstRound:
		return worldmap.PhaseRound
	case FstRoundCooldown:
		return worldmap.PhaseCooldown
	default:
		return worldmap.PhaseEnd
	}
}

// RoundId reports the current round's seed component. Lobby and EndWinner
// have no round of their own; 0 is used as a stable placeholder (Lobby's
// map content never depends on round_id — see TestLobbySeedHasNoRoadOrRiver).
func (s RulesState) RoundId() uint8 {
	switch s.Kind {
	case FstRoundWarmup:
		return s.warmup.roundId
	case FstRound:
		return s.round.roundId
	case FstRoundCooldown:
		return s.cooldown.round.roundId
	default:
		return 0
	}
}

// IsAlive is the derived per-player alive query: true for everyone in
// Lobby, in_game membership during Warmup, alive_states during Round and
// Cooldown, and only the winner during EndWinner.
func (s RulesState) IsAlive(id playerid.PlayerId) bool {
	switch s.Kind {
	case FstLobby:
		return true
	case FstRoundWarmup:
		v, _ := s.warmup.inGame.Get(id)
		return v
	case FstRound:
		v, _ := s.round.aliveStates.Get(id)
		return v
	case FstRoundCooldown:
		v, _ := s.cooldown.round.aliveStates.Get(id)
		return v
	case FstEndWinner:
		return id == s.endWinnerId
	default:
		return false
	}
}

// WinCount pairs a player with their accumulated round wins, for wire
// transfer (RulesState's own win-count bookkeeping is kept in a playerid.Map,
// which is not directly wire-friendly).
type WinCount struct {
	Id    playerid.PlayerId
	Count uint8
}

// RulesSnapshot is the wire-friendly projection of RulesState: every
// exported field a client needs to render lobby/countdown/round/cooldown/
// winner UI, flattened out of the FSM's unexported per-variant payloads.
type RulesSnapshot struct {
	Kind          FstKind
	RoundId       uint8
	RemainingUs   uint32
	ScreenY       int32
	WinCounts     []WinCount
	EndWinnerId   playerid.PlayerId
}

// Snapshot projects s into its wire-friendly form.
func (s RulesState) Snapshot() RulesSnapshot {
	out := RulesSnapshot{Kind: s.Kind, RoundId: s.RoundId()}
	switch s.Kind {
	case FstRoundWarmup:
		out.RemainingUs = s.warmup.remainingUs
		out.WinCounts = winCountsToWire(s.warmup.winCounts)
	case FstRound:
		out.ScreenY = s.round.screenY
		out.WinCounts = winCountsToWire(s.round.winCounts)
	case FstRoundCooldown:
		out.RemainingUs = s.cooldown.remainingUs
		out.ScreenY = s.cooldown.round.screenY
		out.WinCounts = winCountsToWire(s.cooldown.round.winCounts)
	case FstEndWinner:
		out.EndWinnerId = s.endWinnerId
	}
	return out
}

func winCountsToWire(m playerid.Map[uint8]) []WinCount {
	entries := m.Iter()
	out := make([]WinCount, len(entries))
	for i, e := range entries {
		out[i] = WinCount{Id: e.Id, Count: e.Value}
	}
	return out
}

// resetPositions lines every currently-known player up in a single row
// centered on lobbySpawnCenterX at lobbySpawnY, spaced one tile apart.
func resetPositions(players *playerid.Map[PlayerState], ids []playerid.PlayerId) {
	n := len(ids)
	if n == 0 {
		return
	}
	start := lobbySpawnCenterX - int32(n-1)/2
	for i, id := range ids {
		p, ok := players.Get(id)
		if !ok {
			p = NewPlayerState(id, coords.CoordPos(start+int32(i), lobbySpawnY))
		}
		p.ResetToPos(coords.CoordPos(start+int32(i), lobbySpawnY))
		players.Set(id, p)
	}
}

// updateScreenY pulls the scroll position upward to stay ScreenYBuffer
// tiles above the highest alive player, and never moves it back down.
func updateScreenY(screenY int32, players *playerid.Map[PlayerState], alive playerid.Map[bool]) int32 {
	for _, e := range players.Iter() {
		isAlive, _ := alive.Get(e.Id)
		if !isAlive {
			continue
		}
		candidate := e.Value.Pos.Row() - ScreenYBuffer
		if candidate < screenY {
			screenY = candidate
		}
	}
	return screenY
}

// shouldKill evaluates a single alive player against the three death
// conditions: falling behind the scroll window, standing on a River row
// with no lillipad beneath them, or a Road-row car collision.
func shouldKill(p PlayerState, screenY int32, roundId uint8, timeUs uint32, m *worldmap.Map) bool {
	row := p.Pos.Row()
	if row > screenY+ScreenSize+ScreenKillBuffer {
		return true
	}

	switch p.Pos.Kind {
	case coords.PosKindLillipad:
		screenX, ok := m.GetLillipadScreenX(p.Pos.RoundId, timeUs, p.Pos.LillipadY, worldmap.LillipadId(p.Pos.LillipadId))
		if !ok {
			return true
		}
		return screenX < -KillOffMapThresh || screenX > float64(ScreenSize)+KillOffMapThresh
	case coords.PosKindCoord:
		r := m.GetRow(roundId, p.Pos.Y)
		if r.RowType == worldmap.RowRiver {
			return true
		}
		if r.RowType == worldmap.RowRoad {
			return m.CollidesCar(timeUs, roundId, p.Pos.X, p.Pos.Y)
		}
	}
	return false
}

// killPlayers marks every player that fails shouldKill this tick as no
// longer alive in place.
func killPlayers(players *playerid.Map[PlayerState], alive *playerid.Map[bool], screenY int32, roundId uint8, timeUs uint32, m *worldmap.Map) {
	for _, e := range players.Iter() {
		wasAlive, _ := alive.Get(e.Id)
		if !wasAlive {
			continue
		}
		if shouldKill(e.Value, screenY, roundId, timeUs, m) {
			alive.Set(e.Id, false)
		}
	}
}

func aliveCount(alive playerid.Map[bool]) int {
	n := 0
	for _, e := range alive.Iter() {
		if e.Value {
			n++
		}
	}
	return n
}

func soleSurvivor(alive playerid.Map[bool]) (playerid.PlayerId, bool) {
	var found playerid.PlayerId
	n := 0
	for _, e := range alive.Iter() {
		if e.Value {
			found = e.Id
			n++
		}
	}
	return found, n == 1
}

// Tick advances the FSM by dtUs, mutating players in place (positions via
// resetPositions on lobby→warmup and cooldown→warmup transitions; no
// position mutation is needed for death, since a dead player simply stops
// being iterated for movement elsewhere) and returning the new RulesState.
func (s RulesState) Tick(dtUs uint32, timeUs uint32, players *playerid.Map[PlayerState], m *worldmap.Map) RulesState {
	switch s.Kind {
	case FstLobby:
		return s.tickLobby(players)
	case FstRoundWarmup:
		return s.tickWarmup(dtUs, timeUs, players, m)
	case FstRound:
		return s.tickRound(dtUs, timeUs, players, m)
	case FstRoundCooldown:
		return s.tickCooldown(dtUs, timeUs, players, m)
	default:
		return s
	}
}

func (s RulesState) tickLobby(players *playerid.Map[PlayerState]) RulesState {
	allReady := players.CountPopulated() >= MinPlayers
	var ids []playerid.PlayerId
	for _, e := range players.Iter() {
		ids = append(ids, e.Id)
		if !inReadyZone(e.Value.Pos.X, e.Value.Pos.Y) {
			allReady = false
		}
	}

	next := s
	if allReady {
		next.lobby.timeWithAllPlayersInReady++
	} else {
		next.lobby.timeWithAllPlayersInReady = 0
	}

	if next.lobby.timeWithAllPlayersInReady >= LobbyReadyTicks {
		inGame := playerid.New[bool]()
		winCounts := playerid.New[uint8]()
		for _, id := range ids {
			inGame.Set(id, true)
			winCounts.Set(id, 0)
		}
		resetPositions(players, ids)
		return RulesState{
			GameId: s.GameId,
			Kind:   FstRoundWarmup,
			warmup: warmupState{
				remainingUs: CountdownTimeUs,
				timeFullUs:  CountdownTimeUs,
				roundId:     0,
				inGame:      inGame,
				winCounts:   winCounts,
			},
		}
	}
	return next
}

func (s RulesState) tickWarmup(dtUs, timeUs uint32, players *playerid.Map[PlayerState], m *worldmap.Map) RulesState {
	w := s.warmup
	w.riverSpawnTimes = m.UpdateRiverSpawnTimes(w.roundId, w.riverSpawnTimes, timeUs, 0-RiverSpawnYOffset)

	if w.remainingUs > dtUs {
		w.remainingUs -= dtUs
		next := s
		next.warmup = w
		return next
	}

	alive := playerid.New[bool]()
	for _, e := range w.inGame.Iter() {
		if e.Value {
			alive.Set(e.Id, true)
		}
	}
	return RulesState{
		GameId: s.GameId,
		Kind:   FstRound,
		round: roundState{
			screenY:         0,
			aliveStates:     alive,
			roundId:         w.roundId,
			winCounts:       w.winCounts,
			riverSpawnTimes: w.riverSpawnTimes,
		},
	}
}

func (s RulesState) tickRound(dtUs, timeUs uint32, players *playerid.Map[PlayerState], m *worldmap.Map) RulesState {
	r := s.round
	r.screenY = updateScreenY(r.screenY, players, r.aliveStates)
	r.riverSpawnTimes = m.UpdateRiverSpawnTimes(r.roundId, r.riverSpawnTimes, timeUs, r.screenY-RiverSpawnYOffset)
	killPlayers(players, &r.aliveStates, r.screenY, r.roundId, timeUs, m)

	if aliveCount(r.aliveStates) <= 1 {
		return RulesState{
			GameId: s.GameId,
			Kind:   FstRoundCooldown,
			cooldown: cooldownState{
				remainingUs: CooldownTimeUs,
				round:       r,
			},
		}
	}

	next := s
	next.round = r
	return next
}

func (s RulesState) tickCooldown(dtUs, timeUs uint32, players *playerid.Map[PlayerState], m *worldmap.Map) RulesState {
	c := s.cooldown
	c.round.screenY = updateScreenY(c.round.screenY, players, c.round.aliveStates)
	c.round.riverSpawnTimes = m.UpdateRiverSpawnTimes(c.round.roundId, c.round.riverSpawnTimes, timeUs, c.round.screenY-RiverSpawnYOffset)
	killPlayers(players, &c.round.aliveStates, c.round.screenY, c.round.roundId, timeUs, m)

	if c.remainingUs > dtUs {
		c.remainingUs -= dtUs
		next := s
		next.cooldown = c
		return next
	}

	winCounts := c.round.winCounts
	if survivor, ok := soleSurvivor(c.round.aliveStates); ok {
		count, _ := winCounts.Get(survivor)
		winCounts.Set(survivor, count+1)
		if count+1 >= RequiredWinCount {
			return RulesState{GameId: s.GameId, Kind: FstEndWinner, endWinnerId: survivor}
		}
	}

	var ids []playerid.PlayerId
	inGame := playerid.New[bool]()
	for _, e := range players.Iter() {
		ids = append(ids, e.Id)
		inGame.Set(e.Id, true)
	}
	resetPositions(players, ids)

	return RulesState{
		GameId: s.GameId,
		Kind:   FstRoundWarmup,
		warmup: warmupState{
			remainingUs: CountdownTimeUs,
			timeFullUs:  CountdownTimeUs,
			roundId:     c.round.roundId + 1,
			inGame:      inGame,
			winCounts:   winCounts,
		},
	}
}
