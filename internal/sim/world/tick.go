package world

import (
	"context"
	"time"

	"go.uber.org/zap"

	"islebound.gg/internal/protocol"
)

// Run is the world's single goroutine: a wall-clock ticker around the
// deterministic StepOnce core. Nothing outside this loop ever mutates
// world state; channels queue, the tick applies.
func (w *World) Run(ctx context.Context) error {
	hz := w.tun.TickRateHz
	if hz <= 0 {
		hz = 10
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	w.log.Info("world running", zap.Int("tick_rate_hz", hz))
	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return ctx.Err()
		case <-ticker.C:
			joins, leaves, commands := w.drainQueues()
			w.StepOnce(joins, leaves, commands)
			w.drainAdmin()
		}
	}
}

// drainQueues empties the channel inboxes without blocking. Per-player
// command order is the channel's arrival order; there is no cross-player
// ordering guarantee and none is needed.
func (w *World) drainQueues() ([]JoinRequest, []uint32, []Command) {
	var joins []JoinRequest
	var leaves []uint32
	var commands []Command
	for {
		select {
		case j := <-w.join:
			joins = append(joins, j)
		case id := <-w.leave:
			leaves = append(leaves, id)
		case c := <-w.inbox:
			commands = append(commands, c)
		default:
			return joins, leaves, commands
		}
	}
}

func (w *World) drainAdmin() {
	for {
		select {
		case req := <-w.admin:
			w.handleAdmin(req)
		default:
			return
		}
	}
}

// shutdown persists every connected character before the goroutine exits.
func (w *World) shutdown() {
	for _, p := range append([]*Player(nil), w.players...) {
		w.handleLeave(p.ID())
	}
	w.log.Info("world stopped", zap.Uint64("tick", w.tick))
}

// StepOnce is the deterministic core of the loop: given the tick's inputs
// it advances the world exactly one tick and returns the tick number and
// the resulting state digest. Tests and replay drive it directly; Run
// wraps it on a ticker.
//
// Order within the tick is fixed: joins, leaves, commands, timers and
// actor ticks, spawners, zone membership, periodic item sync, position
// broadcasts, outbox flush, tick log.
func (w *World) StepOnce(joins []JoinRequest, leaves []uint32, commands []Command) (uint64, uint64) {
	started := time.Now()
	w.tick++
	dt := 1 / float64(w.tun.TickRateHz)

	entry := TickLogEntry{Tick: w.tick, Region: w.region}
	for _, j := range joins {
		w.handleJoin(j)
		entry.Joins = append(entry.Joins, j.Char)
	}
	for _, id := range leaves {
		w.handleLeave(id)
		entry.Leaves = append(entry.Leaves, id)
	}
	for _, c := range commands {
		if w.handleCommand(c) {
			var raw protocol.Writer
			protocol.Encode(&raw, c.Ev)
			entry.Commands = append(entry.Commands, CommandLogEntry{
				Player: c.Player, Tag: c.Ev.Tag().String(), Data: raw.Bytes(),
			})
		}
	}

	for _, e := range w.actorsSnapshot() {
		b := e.Base()
		if !b.Spawned {
			continue
		}
		b.Timers.Tick(w, dt)
		switch v := e.(type) {
		case *Player:
			v.tickCooldowns(dt)
		case *Creature:
			v.tick(w, dt)
		case *Projectile:
			v.tick(w, dt)
		}
	}

	for _, z := range w.zoneOrder {
		for _, l := range z.listeners {
			if s, ok := l.(*Spawner); ok {
				s.tick(w, dt)
			}
		}
	}
	for _, p := range w.players {
		w.updateZoneMembership(p)
	}

	if w.itemSyncEvery > 0 && w.tick%w.itemSyncEvery == 0 {
		for _, p := range w.players {
			w.dispatch(p.flushAmmoSync())
		}
	}

	w.broadcastPositions()
	w.flushOutboxes()

	entry.Actors = len(w.actors)
	entry.Players = len(w.players)
	entry.Digest = w.digest()
	if w.tickSink != nil {
		if err := w.tickSink.WriteTick(entry); err != nil {
			w.log.Warn("tick log write failed", zap.Error(err))
		}
	}

	w.stats.tick.Store(w.tick)
	w.stats.players.Store(int64(len(w.players)))
	w.stats.actors.Store(int64(len(w.actors)))
	w.stats.stepNS.Store(int64(time.Since(started)))
	return w.tick, entry.Digest
}

// broadcastPositions flushes the moved flags as ps records at the position
// cadence. A player's own movement is not echoed back; everything else
// fans to all.
func (w *World) broadcastPositions() {
	every := uint64(1)
	if w.tun.PositionHz > 0 && w.tun.TickRateHz > w.tun.PositionHz {
		every = uint64(w.tun.TickRateHz / w.tun.PositionHz)
	}
	if w.tick%every != 0 {
		return
	}
	for _, e := range w.actors {
		b := e.Base()
		if !b.moved || !b.Spawned {
			continue
		}
		b.moved = false
		ev := &protocol.ActorPosition{Actor: b.ID(), Pos: b.Pos, Rot: b.Rot, Vel: b.Vel}
		if _, isPlayer := e.(*Player); isPlayer {
			w.emit(toAllBut(b.Self, ev))
		} else {
			w.emit(toAll(ev))
		}
	}
}

// flushOutboxes hands each player's batched tick output to its connection.
// The send is non-blocking: a connection that cannot keep up loses the
// batch and its transport's liveness checks deal with it; the tick never
// stalls on a peer.
func (w *World) flushOutboxes() {
	for _, p := range w.players {
		if p.outbox.Len() == 0 {
			continue
		}
		buf := p.outbox.Take()
		if p.send == nil {
			continue
		}
		select {
		case p.send <- buf:
		default:
			w.log.Warn("outbox overflow, dropping batch",
				zap.String("player", p.Name), zap.Int("bytes", len(buf)))
		}
	}
}
