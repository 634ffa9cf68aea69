package world

import (
	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/geom"
)

// EquipSlots is the fixed equipment bar size.
const EquipSlots = 10

// ItemStack is one inventory line: the reserve count plus the rounds
// currently loaded into this item if it is a clip weapon. Loaded moves
// only through reload/fire, never through add/remove.
type ItemStack struct {
	Count  uint32
	Loaded uint32
}

// QuestProgress is the player-owned, mutable side of a quest. The
// definition it points at is shared immutable content.
type QuestProgress struct {
	State     string
	Count     uint32
	Completed bool
}

// Player is the aggregate actor behind one connection (or bot): inventory,
// equipment, quests, cooldowns, mana, PvP state, conversation context.
type Player struct {
	Actor
	Name  string
	Admin bool

	Inventory map[string]*ItemStack
	Pickups   map[string]bool
	Equipped  [EquipSlots]string
	Slot      uint8

	CurrentQuest string
	Quests       map[string]*QuestProgress

	Mana    int
	MaxMana int

	// PvP: desired is what the player asked for, enabled is what the
	// world honors. Enabled lags desired by the countdown so the flag
	// cannot flap mid-fight.
	PvPDesired bool
	PvPEnabled bool

	// ChangingRegion marks the travel window: the player is invulnerable
	// and ignored by AI until the destination world picks them up.
	ChangingRegion bool
	TravelTo       string
	travelPos      geom.Vector3
	travelRot      geom.Rotation

	ConvNPC   Handle
	ConvState string

	Countdown int32

	cooldowns      map[string]float64
	zoneNames      map[string]bool
	lastHitBy      string
	lastDamageTick uint64
	chatCount      int
	dirtyAmmo      map[string]bool

	outbox protocol.Writer
	send   chan<- []byte
}

func newPlayer(name string) *Player {
	return &Player{
		Actor: Actor{
			Blueprint: "player",
			Kind:      KindPlayer,
			Health:    100,
			MaxHealth: 100,
		},
		Name:      name,
		Inventory: make(map[string]*ItemStack),
		Pickups:   make(map[string]bool),
		Quests:    make(map[string]*QuestProgress),
		Mana:      100,
		MaxMana:   100,
		cooldowns: make(map[string]float64),
		zoneNames: make(map[string]bool),
		dirtyAmmo: make(map[string]bool),
	}
}

// CanBeDamaged: dead players and players mid region change are immune;
// player-vs-player damage additionally requires both sides to have PvP
// enabled (not merely desired).
func (p *Player) CanBeDamaged(w *World, instigator Entity) bool {
	if !p.Spawned || !p.Alive() || p.ChangingRegion {
		return false
	}
	if ip, ok := instigator.(*Player); ok && ip != p {
		if !p.PvPEnabled || !ip.PvPEnabled {
			return false
		}
	}
	return true
}

func (p *Player) onKilled(w *World, instigator Entity, item string) {
	p.Timers.Cancel(timerReload)
	w.emit(toOne(p.Self, &protocol.LastHitBy{Item: p.lastHitBy}))
	if ip, ok := instigator.(*Player); ok && ip != p {
		w.emit(toOne(ip.Self, &protocol.Kill{Victim: p.ID(), Item: item}))
	}
	w.audit(AuditEntry{Tick: w.tick, Type: "kill", Player: p.Name, Detail: item})
}

// onTargetKilled is the instigator-side death hook: kill credit for quests
// plus the kill-feed record.
func (p *Player) onTargetKilled(w *World, victim Entity, item string) {
	w.emit(toOne(p.Self, &protocol.Kill{Victim: victim.Base().ID(), Item: item}))
	w.dispatch(w.questKillHook(p, victim.Base().Blueprint))
}

// PerformRespawn is the unconditional side of a respawn: relocate, restore
// vitals, announce.
func (p *Player) PerformRespawn(w *World) []Emit {
	def, ok := w.content.Regions.Defs[w.Region()]
	if ok {
		p.Pos = vec3Of(def.Spawn)
		p.Rot = rotYaw(def.SpawnYaw)
	}
	p.Health = w.tun.Respawn.Health
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	p.Mana = w.tun.Respawn.Mana
	if p.Mana > p.MaxMana {
		p.Mana = p.MaxMana
	}
	p.moved = true
	return []Emit{
		toOne(p.Self, &protocol.Respawn{Pos: p.Pos, Rot: p.Rot}),
		toAll(&protocol.HealthUpdate{Actor: p.ID(), Health: clampHealth16(p.Health)}),
		toOne(p.Self, &protocol.ManaUpdate{Mana: clampMana16(p.Mana)}),
	}
}

// PerformTeleport relocates without the death bookkeeping.
func (p *Player) PerformTeleport(pos geom.Vector3, rot geom.Rotation) []Emit {
	p.Pos = pos
	p.Rot = rot
	p.moved = true
	return []Emit{toOne(p.Self, &protocol.Teleport{Pos: p.Pos, Rot: p.Rot})}
}

// PerformPickup sets a one-time pickup flag and tells the client.
func (p *Player) PerformPickup(name string) []Emit {
	p.Pickups[name] = true
	return []Emit{toOne(p.Self, &protocol.PickedUp{Pickup: name})}
}

// PerformSetMana overwrites mana (never negative) and syncs the client.
func (p *Player) PerformSetMana(mana int) []Emit {
	if mana < 0 {
		mana = 0
	}
	if mana > p.MaxMana {
		mana = p.MaxMana
	}
	p.Mana = mana
	return []Emit{toOne(p.Self, &protocol.ManaUpdate{Mana: clampMana16(p.Mana)})}
}

// PerformSetCountdown updates the generic countdown display.
func (p *Player) PerformSetCountdown(seconds int32) []Emit {
	p.Countdown = seconds
	return []Emit{toOne(p.Self, &protocol.CountdownUpdate{Seconds: seconds})}
}

// SpendMana debits a cost, failing without change if it would go negative.
func (p *Player) SpendMana(cost int) ([]Emit, error) {
	if cost <= 0 {
		return nil, nil
	}
	if p.Mana < cost {
		return nil, ErrNoMana
	}
	return p.PerformSetMana(p.Mana - cost), nil
}

func clampMana16(m int) uint16 {
	if m < 0 {
		return 0
	}
	if m > 65535 {
		return 65535
	}
	return uint16(m)
}
