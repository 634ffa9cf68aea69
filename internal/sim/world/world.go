// Package world is the authoritative simulation: one goroutine owns every
// actor in one region, drains queued network commands at tick boundaries,
// and fans adjudicated events back out to connected players. A reduced
// ClientWorld mirrors it on the other end of a connection.
package world

import (
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/geom"
	"islebound.gg/internal/sim/tuning"
)

// TickSink receives one record per simulated tick (the replayable log).
type TickSink interface {
	WriteTick(TickLogEntry) error
}

// AuditSink receives the human-auditable record stream: chat, trades,
// kills, admin actions.
type AuditSink interface {
	WriteAudit(AuditEntry) error
}

// SaveFunc persists one character. Called at leave, travel and autosave.
type SaveFunc func(CharacterState)

type World struct {
	log     *zap.Logger
	tun     tuning.Tuning
	content *catalogs.Catalogs
	region  string

	tick uint64
	rng  *simRNG

	ar        arena
	actors    []Entity
	players   []*Player
	zones     map[string]*AIZone
	zoneOrder []*AIZone

	join  chan JoinRequest
	leave chan uint32
	inbox chan Command
	admin chan AdminRequest
	stop  chan struct{}

	tickSink  TickSink
	auditSink AuditSink
	save      SaveFunc

	dlcKeys map[string]catalogs.ItemCount

	itemSyncEvery uint64

	stats struct {
		tick    atomic.Uint64
		players atomic.Int64
		actors  atomic.Int64
		stepNS  atomic.Int64
	}
}

// WorldStats is the observable surface for metrics endpoints: atomically
// mirrored at each tick boundary, safe to read from any goroutine.
type WorldStats struct {
	Tick    uint64
	Players int
	Actors  int
	StepMS  float64
}

func (w *World) Stats() WorldStats {
	return WorldStats{
		Tick:    w.stats.tick.Load(),
		Players: int(w.stats.players.Load()),
		Actors:  int(w.stats.actors.Load()),
		StepMS:  float64(w.stats.stepNS.Load()) / 1e6,
	}
}

// Command is one decoded client record attributed to a player, queued by
// the transport and applied inside the tick. Events are never applied on
// the network goroutine.
type Command struct {
	Player uint32
	Ev     protocol.Event
}

func New(region string, seed int64, content *catalogs.Catalogs, tun tuning.Tuning, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	w := &World{
		log:     log.With(zap.String("region", region)),
		tun:     tun,
		content: content,
		region:  region,
		rng:     newSimRNG(seed),
		ar:      newArena(),
		zones:   make(map[string]*AIZone),
		join:    make(chan JoinRequest, 64),
		leave:   make(chan uint32, 64),
		inbox:   make(chan Command, 4096),
		admin:   make(chan AdminRequest, 16),
		stop:    make(chan struct{}),
		dlcKeys: make(map[string]catalogs.ItemCount),
	}
	w.itemSyncEvery = ticksFor(tun.Items.SyncIntervalSec, tun.TickRateHz)
	w.buildZones()
	w.placeNPCs()
	return w
}

// SetTickSink, SetAuditSink and SetSaveFunc wire persistence in before the
// loop starts; they are not safe to call once Run is.
func (w *World) SetTickSink(s TickSink)   { w.tickSink = s }
func (w *World) SetAuditSink(s AuditSink) { w.auditSink = s }
func (w *World) SetSaveFunc(f SaveFunc)   { w.save = f }

// SetDLCKeys installs the redeemable key table (key -> granted item).
func (w *World) SetDLCKeys(keys map[string]catalogs.ItemCount) {
	w.dlcKeys = keys
}

// Join, Leave, Inbox and Admin are the channel surface transports talk to.
func (w *World) Join() chan<- JoinRequest   { return w.join }
func (w *World) Leave() chan<- uint32       { return w.leave }
func (w *World) Inbox() chan<- Command      { return w.inbox }
func (w *World) Admin() chan<- AdminRequest { return w.admin }

func (w *World) Region() string { return w.region }
func (w *World) Tick() uint64   { return w.tick }

func (w *World) Content() *catalogs.Catalogs { return w.content }

// buildZones instantiates this region's AI zones and their spawners, in
// name order. The tick walks zones in that order, so same-tick spawns in
// different zones draw ids and RNG identically across runs.
func (w *World) buildZones() {
	names := make([]string, 0, len(w.content.Zones.Defs))
	for name, def := range w.content.Zones.Defs {
		if def.Region == w.region {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		def := w.content.Zones.Defs[name]
		z := &AIZone{Name: name, Def: def}
		for _, sd := range def.Spawns {
			z.AddListener(newSpawner(name, sd))
		}
		w.zones[name] = z
		w.zoneOrder = append(w.zoneOrder, z)
	}
}

// placeNPCs spawns this region's NPC actors from content, in blueprint
// order so their ids match between a fresh world and the one a snapshot
// was taken from.
func (w *World) placeNPCs() {
	names := make([]string, 0, len(w.content.NPCs.Defs))
	for name, def := range w.content.NPCs.Defs {
		if def.Region == w.region {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		def := w.content.NPCs.Defs[name]
		n := &NPC{
			Actor: Actor{
				Blueprint: def.Blueprint,
				Kind:      KindNPC,
				Pos:       vec3Of(def.Pos),
				Rot:       rotYaw(def.Yaw),
				Health:    1,
				MaxHealth: 1,
			},
			Def: def,
		}
		w.insertActor(n, false)
	}
}

// insertActor assigns identity and makes the actor live. With announce
// set, connected players are told; join replay handles the initial
// snapshot for later joiners either way.
func (w *World) insertActor(e Entity, announce bool) Handle {
	h := w.ar.insert(e)
	e.Base().Spawned = true
	w.actors = append(w.actors, e)
	if announce && len(w.players) > 0 {
		w.emit(toAll(w.spawnEventFor(e)))
	}
	return h
}

// DestroyActor reverses insertion: announce, release zone and spawner
// associations, detach, drop from the set and the index. Handles held
// elsewhere now resolve to nil; the id is never reused.
func (w *World) DestroyActor(e Entity) {
	b := e.Base()
	if !b.Spawned {
		return
	}
	switch v := e.(type) {
	case *Player:
		w.leaveAllZones(v)
		w.emit(toAll(&protocol.PlayerLeft{Actor: b.ID()}))
	case *Creature:
		if v.spawner != nil {
			v.spawner.release(b.Self)
		}
		w.emit(toAll(&protocol.ActorDestroy{Actor: b.ID()}))
	default:
		w.emit(toAll(&protocol.ActorDestroy{Actor: b.ID()}))
	}
	b.Spawned = false
	b.Timers.Clear()
	for i, cur := range w.actors {
		if cur == e {
			w.actors = append(w.actors[:i], w.actors[i+1:]...)
			break
		}
	}
	if p, ok := e.(*Player); ok {
		for i, cur := range w.players {
			if cur == p {
				w.players = append(w.players[:i], w.players[i+1:]...)
				break
			}
		}
	}
	w.ar.remove(b.Self)
}

// spawnEventFor is the wire announcement for one live actor.
func (w *World) spawnEventFor(e Entity) protocol.Event {
	b := e.Base()
	if p, ok := e.(*Player); ok {
		return &protocol.PlayerJoined{Actor: b.ID(), Name: p.Name, Admin: p.Admin, Pos: b.Pos, Rot: b.Rot}
	}
	return &protocol.ActorSpawn{Actor: b.ID(), Blueprint: b.Blueprint, Pos: b.Pos, Rot: b.Rot}
}

// SpawnCreature inserts a creature from its catalog definition.
func (w *World) SpawnCreature(blueprint string, pos geom.Vector3, rot geom.Rotation) (*Creature, error) {
	def, ok := w.content.Creatures.Defs[blueprint]
	if !ok {
		return nil, ErrUnknownItem
	}
	c := &Creature{
		Actor: Actor{
			Blueprint: blueprint,
			Kind:      KindCreature,
			Pos:       pos,
			Rot:       rot,
			Health:    def.Health,
			MaxHealth: def.Health,
		},
		Def:  def,
		Home: pos,
	}
	w.insertActor(c, true)
	return c, nil
}

// ActorByID resolves a live actor by wire id.
func (w *World) ActorByID(id uint32) Entity { return w.ar.byID(id) }

// Zone exposes a zone by name, mainly for tests and admin inspection.
func (w *World) Zone(name string) *AIZone { return w.zones[name] }

// Players returns the live player list; callers must not mutate it.
func (w *World) Players() []*Player { return w.players }

// PlayersInRadius collects players within r of pos.
func (w *World) PlayersInRadius(pos geom.Vector3, r float32) []*Player {
	var out []*Player
	for _, p := range w.players {
		if p.Spawned && p.Pos.Distance(pos) <= r {
			out = append(out, p)
		}
	}
	return out
}

// actorsSnapshot copies the live set so tick code can mutate the registry
// (deaths, spawns) while iterating.
func (w *World) actorsSnapshot() []Entity {
	out := make([]Entity, len(w.actors))
	copy(out, w.actors)
	return out
}

func (w *World) playerByID(id uint32) *Player {
	if p, ok := w.ar.byID(id).(*Player); ok {
		return p
	}
	return nil
}

func (w *World) audit(e AuditEntry) {
	if w.auditSink == nil {
		return
	}
	if err := w.auditSink.WriteAudit(e); err != nil {
		w.log.Warn("audit write failed", zap.Error(err))
	}
}

func ticksFor(seconds float64, hz int) uint64 {
	if seconds <= 0 || hz <= 0 {
		return 1
	}
	n := uint64(seconds * float64(hz))
	if n == 0 {
		return 1
	}
	return n
}
