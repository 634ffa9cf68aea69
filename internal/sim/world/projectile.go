package world

import (
	"fmt"

	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/geom"
)

// projectileHitRadius is the capsule-ish radius a projectile must pass
// within to count as a direct hit.
const projectileHitRadius = 100.0

// Projectile is a ballistic actor owned by whoever fired it. It carries
// the firing item so damage and type resolve from content at impact time,
// not spawn time.
type Projectile struct {
	Actor
	Item     string
	Weapon   catalogs.WeaponDef
	Lifetime float64
}

// SpawnProjectile validates the owner still resolves before inserting: a
// shot fired by an actor destroyed in the same tick must not enter the
// world orphaned.
func (w *World) SpawnProjectile(owner Entity, item string, pos geom.Vector3, dir geom.Vector3) (*Projectile, error) {
	ob := owner.Base()
	if w.ar.resolve(ob.Self) == nil {
		return nil, fmt.Errorf("spawn projectile: %w", ErrNoSuchActor)
	}
	def, ok := w.content.Items.Defs[item]
	if !ok || def.Weapon == nil {
		return nil, fmt.Errorf("spawn projectile: %w: %q", ErrUnknownItem, item)
	}
	wd := *def.Weapon
	dir = dir.Normalized()
	pr := &Projectile{
		Actor: Actor{
			Blueprint: item,
			Kind:      KindProjectile,
			Pos:       pos,
			Rot:       geom.Rotation{Yaw: yawOf(dir)}.Normalized(),
			Vel:       dir.Scale(float32(wd.Speed)),
			Health:    1,
			MaxHealth: 1,
			Owner:     ob.Self,
		},
		Item:     item,
		Weapon:   wd,
		Lifetime: wd.LifetimeSec,
	}
	w.insertActor(pr, true)
	return pr, nil
}

func (p *Projectile) tick(w *World, dt float64) {
	if !p.Spawned {
		return
	}
	p.Pos = p.Pos.Add(p.Vel.Scale(float32(dt)))
	p.moved = true

	if hit := p.findHit(w); hit != nil {
		p.onHit(w, hit)
		return
	}

	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		p.onLifetimeEnded(w)
	}
}

// findHit returns the nearest damageable actor within the hit radius,
// never the owner: direct self-hits are impossible, only splash can hurt
// the shooter.
func (p *Projectile) findHit(w *World) Damageable {
	var best Damageable
	var bestD float32
	for _, e := range w.actorsSnapshot() {
		b := e.Base()
		if b.Self == p.Owner || b.Kind == KindProjectile || !b.Spawned || !b.Alive() {
			continue
		}
		d, ok := e.(Damageable)
		if !ok {
			continue
		}
		dist := b.Pos.Distance(p.Pos)
		if dist > projectileHitRadius {
			continue
		}
		if best == nil || dist < bestD {
			best, bestD = d, dist
		}
	}
	return best
}

func (p *Projectile) onHit(w *World, hit Damageable) {
	inst := w.ar.resolve(p.Owner)
	if inst == nil {
		inst = p
	}
	if p.Weapon.Damage > 0 {
		w.Damage(hit, inst, p.Item, p.Weapon.Damage, p.Weapon.DamageType)
	}
	p.splash(w, inst, hit)
	w.DestroyActor(p)
}

// onLifetimeEnded fires when the fuse runs out with nothing struck.
// Splash-carrying projectiles (grenades) still detonate; the rest just
// vanish.
func (p *Projectile) onLifetimeEnded(w *World) {
	inst := w.ar.resolve(p.Owner)
	if inst == nil {
		inst = p
	}
	p.splash(w, inst, nil)
	w.DestroyActor(p)
}

func (p *Projectile) splash(w *World, inst Entity, directHit Damageable) {
	if p.Weapon.SplashRadius <= 0 {
		return
	}
	amount := p.Weapon.SplashDamage
	if amount <= 0 {
		amount = p.Weapon.Damage
	}
	var exclude Entity
	if directHit != nil {
		exclude = directHit
	}
	w.SplashDamage(p.Pos, inst, exclude, p.Item, amount, p.Weapon.DamageType, float32(p.Weapon.SplashRadius))
}
