package world

import (
	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/geom"
)

// Creature is a hostile mob: spawner-owned, wanders its home point, chases
// and bites players that come too close, drops loot on death.
type Creature struct {
	Actor
	Def  catalogs.CreatureDef
	Home geom.Vector3

	target  Handle
	wander  geom.Vector3
	spawner *Spawner
}

// Default kinematics for creature definitions that leave them zero.
const (
	defaultCreatureSpeed  = 200.0
	defaultAggroRadius    = 1200.0
	defaultAttackRange    = 150.0
	defaultAttackInterval = 1.5
	defaultWanderRadius   = 400.0
)

func (c *Creature) speed() float32 {
	if c.Def.Speed > 0 {
		return float32(c.Def.Speed)
	}
	return defaultCreatureSpeed
}

func (c *Creature) aggroRadius() float32 {
	if c.Def.AggroRadius > 0 {
		return float32(c.Def.AggroRadius)
	}
	return defaultAggroRadius
}

func (c *Creature) attackRange() float32 {
	if c.Def.AttackRange > 0 {
		return float32(c.Def.AttackRange)
	}
	return defaultAttackRange
}

func (c *Creature) attackInterval() float64 {
	if c.Def.AttackSec > 0 {
		return c.Def.AttackSec
	}
	return defaultAttackInterval
}

func (c *Creature) wanderRadius() float32 {
	if c.Def.WanderRadius > 0 {
		return float32(c.Def.WanderRadius)
	}
	return defaultWanderRadius
}

func (c *Creature) CanBeDamaged(w *World, instigator Entity) bool {
	return c.Spawned && c.Alive()
}

func (c *Creature) tick(w *World, dt float64) {
	if !c.Spawned || !c.Alive() {
		return
	}
	if t := c.acquireTarget(w); t != nil {
		c.chase(w, t, dt)
		return
	}
	c.target = Nil
	c.Timers.Cancel("attack")
	c.wanderStep(w, dt)
}

// acquireTarget keeps the current target while it stays valid and in
// roughly twice aggro range, otherwise picks the nearest damageable
// player inside aggro range.
func (c *Creature) acquireTarget(w *World) *Player {
	if p, ok := w.ar.resolve(c.target).(*Player); ok {
		if p.Spawned && p.Alive() && !p.ChangingRegion && c.Pos.Distance(p.Pos) <= 2*c.aggroRadius() {
			return p
		}
	}
	var best *Player
	var bestD float32
	for _, p := range w.players {
		if !p.Spawned || !p.Alive() || p.ChangingRegion {
			continue
		}
		d := c.Pos.Distance(p.Pos)
		if d > c.aggroRadius() {
			continue
		}
		if best == nil || d < bestD {
			best, bestD = p, d
		}
	}
	if best != nil {
		c.target = best.Self
	}
	return best
}

func (c *Creature) chase(w *World, p *Player, dt float64) {
	to := p.Pos.Sub(c.Pos)
	dist := to.Length()
	if dist > c.attackRange() {
		step := to.Normalized().Scale(c.speed() * float32(dt))
		if step.Length() > dist {
			step = to
		}
		c.Pos = c.Pos.Add(step)
		c.Vel = to.Normalized().Scale(c.speed())
		c.moved = true
	} else {
		c.Vel = geom.Vector3{}
		if !c.Timers.Active("attack") {
			c.Timers.SetRecurring("attack", actionCreatureAttack, c.Self, c.attackInterval())
		}
	}
	c.faceToward(p.Pos)
}

// wanderStep drifts toward a roaming point around home, picking a new one
// on arrival.
func (c *Creature) wanderStep(w *World, dt float64) {
	if c.wander == (geom.Vector3{}) || c.Pos.Distance(c.wander) < 50 {
		r := c.wanderRadius()
		c.wander = c.Home.Add(geom.Vector3{
			X: (w.rng.Float32()*2 - 1) * r,
			Y: (w.rng.Float32()*2 - 1) * r,
		})
	}
	to := c.wander.Sub(c.Pos)
	step := to.Normalized().Scale(c.speed() * 0.4 * float32(dt))
	if step.Length() > to.Length() {
		step = to
	}
	c.Pos = c.Pos.Add(step)
	c.Vel = to.Normalized().Scale(c.speed() * 0.4)
	c.moved = true
	c.faceToward(c.wander)
}

func (c *Creature) faceToward(p geom.Vector3) {
	d := p.Sub(c.Pos)
	if d.X == 0 && d.Y == 0 {
		return
	}
	c.Rot.Yaw = yawOf(d)
	c.Rot = c.Rot.Normalized()
}

// bite deals the creature's touch damage if the target is still in range.
func (c *Creature) bite(w *World) {
	p, ok := w.ar.resolve(c.target).(*Player)
	if !ok || !c.Spawned || !c.Alive() {
		return
	}
	if c.Pos.Distance(p.Pos) > c.attackRange()*1.25 {
		return
	}
	dtype := c.Def.DamageType
	if dtype == "" {
		dtype = "Physical"
	}
	w.Damage(p, c, c.Def.Blueprint, c.Def.Damage, dtype)
}

func (c *Creature) onKilled(w *World, instigator Entity, item string) {
	if c.spawner != nil {
		c.spawner.release(c.Self)
	}
	c.dropLoot(w)
	w.DestroyActor(c)
}

// dropLoot rolls each loot entry once and scatters pickups around the
// corpse.
func (c *Creature) dropLoot(w *World) {
	for _, l := range c.Def.Loot {
		if w.rng.Float64() >= l.Chance {
			continue
		}
		off := geom.Vector3{
			X: (w.rng.Float32()*2 - 1) * 80,
			Y: (w.rng.Float32()*2 - 1) * 80,
		}
		w.SpawnLoot(c.Pos.Add(off), l.Item, l.Count)
	}
}

const actionCreatureAttack = "creature.attack"

func init() {
	registerTimerAction(actionCreatureAttack, func(w *World, target Handle, key string) {
		if c, ok := w.ar.resolve(target).(*Creature); ok {
			c.bite(w)
		}
	})
}
