package world

import (
	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/geom"
)

// Kind is the closed set of entity variants. Behavior differences hang off
// the variant structs and the capability interfaces below, not a class
// hierarchy.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindNPC
	KindCreature
	KindProjectile
	KindChest
	KindPickup
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	case KindCreature:
		return "creature"
	case KindProjectile:
		return "projectile"
	case KindChest:
		return "chest"
	case KindPickup:
		return "pickup"
	}
	return "unknown"
}

// Entity is anything living in the actor arena.
type Entity interface {
	Base() *Actor
}

// Damageable is the capability other systems must consult before dealing
// damage. CanBeDamaged returning false makes Damage a no-op.
type Damageable interface {
	Entity
	CanBeDamaged(w *World, instigator Entity) bool
}

// Usable reacts to a player's use action (the ee record).
type Usable interface {
	Entity
	OnUsed(w *World, p *Player) []Emit
}

// Actor is the data record every variant shares: identity, placement,
// health, the named boolean state bag and the timer set.
type Actor struct {
	Self      Handle
	Blueprint string
	Kind      Kind

	// Spawned gates world interaction: a detached actor (created but not
	// announced, or already destroyed) rejects movement and collision.
	Spawned bool

	Pos geom.Vector3
	Rot geom.Rotation
	Vel geom.Vector3

	// Movement intent as signed fractions, client-reported.
	Forward float32
	Strafe  float32

	Health    int
	MaxHealth int

	// States is the named boolean bag scripted content reads and writes
	// (doors, switches). Missing keys read as false.
	States map[string]bool

	Timers TimerSet

	// Owner attributes projectiles and spawner children. Weak: resolves
	// to nil once the owner is gone.
	Owner Handle

	// Remote interpolation: the authoritative value the visible position
	// blends toward. Only meaningful on mirrored actors in a ClientWorld.
	RemotePos geom.Vector3
	RemoteRot geom.Rotation
	RemoteVel geom.Vector3

	moved bool // position dirtied since the last broadcast
}

func (a *Actor) Base() *Actor { return a }

func (a *Actor) ID() uint32 { return a.Self.ID }

func (a *Actor) Alive() bool { return a.Health > 0 }

// SetPosition moves a spawned actor and marks it for the next position
// broadcast. Detached actors reject the move.
func (a *Actor) SetPosition(pos geom.Vector3, rot geom.Rotation) bool {
	if !a.Spawned {
		return false
	}
	a.Pos = pos
	a.Rot = rot
	a.moved = true
	return true
}

// remoteBlendFraction is how much of the remaining gap to the remote
// target closes per tick. Critically-damped style: the actor eases in,
// never snaps.
const remoteBlendFraction = 0.35

// blendRemote advances the interpolation toward the authoritative remote
// state. Velocity extrapolates the target between updates.
func (a *Actor) blendRemote(dt float64) {
	a.RemotePos = a.RemotePos.Add(a.RemoteVel.Scale(float32(dt)))
	a.Pos = a.Pos.Toward(a.RemotePos, remoteBlendFraction)
	a.Rot = a.RemoteRot
	a.Vel = a.RemoteVel
}

// State reads a named flag; missing is false.
func (a *Actor) State(name string) bool { return a.States[name] }

// PerformUpdateState writes a named flag and reports it, even when the
// value did not change: content retriggers on redundant sets.
func (a *Actor) PerformUpdateState(name string, value bool) []Emit {
	if a.States == nil {
		a.States = make(map[string]bool)
	}
	a.States[name] = value
	return []Emit{toAll(&protocol.State{Actor: a.ID(), Name: name, Value: value})}
}

// PerformTriggerEvent fires a named scripted event on the actor,
// attributed to instigator (Nil for none).
func (a *Actor) PerformTriggerEvent(event string, instigator Handle) []Emit {
	return []Emit{toAll(&protocol.Trigger{Actor: a.ID(), Event: event, Instigator: instigator.ID})}
}

// clampHealth16 narrows health for the wire. No content pushes health
// anywhere near the bound.
func clampHealth16(h int) int16 {
	if h > 32767 {
		return 32767
	}
	if h < -32768 {
		return -32768
	}
	return int16(h)
}
