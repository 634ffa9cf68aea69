package world

import (
	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/geom"
)

// killed is implemented by variants that react to their own death.
type killed interface {
	onKilled(w *World, instigator Entity, item string)
}

// Damage applies amount to target if it can currently be damaged, clamping
// health at zero. The death hooks fire exactly once, on the tick health
// crosses from positive to non-positive; hitting a corpse changes nothing.
// Reports whether any health was removed.
func (w *World) Damage(target Damageable, instigator Entity, item string, amount int, damageType string) bool {
	a := target.Base()
	if !a.Spawned || !a.Alive() {
		return false
	}
	if !target.CanBeDamaged(w, instigator) {
		return false
	}
	if amount <= 0 {
		return false
	}
	_ = damageType // resistances are content-side; the server applies raw amounts

	a.Health -= amount
	if a.Health < 0 {
		a.Health = 0
	}
	w.emit(toAll(&protocol.HealthUpdate{Actor: a.ID(), Health: clampHealth16(a.Health)}))

	if p, ok := target.(*Player); ok {
		p.lastHitBy = item
		p.lastDamageTick = w.tick
	}

	if a.Health == 0 {
		if v, ok := target.(killed); ok {
			v.onKilled(w, instigator, item)
		}
		if ip, ok := instigator.(*Player); ok && ip != nil {
			ip.onTargetKilled(w, target, item)
		}
	}
	return true
}

// SplashDamage applies area damage around an impact point to every
// damageable actor within radius, except the one already hit directly.
// The instigator is deliberately not excluded: standing in your own blast
// hurts.
func (w *World) SplashDamage(pos geom.Vector3, instigator Entity, exclude Entity, item string, amount int, damageType string, radius float32) {
	if amount <= 0 || radius <= 0 {
		return
	}
	for _, e := range w.actorsSnapshot() {
		if e == exclude {
			continue
		}
		if e.Base().Kind == KindProjectile {
			continue
		}
		d, ok := e.(Damageable)
		if !ok {
			continue
		}
		if e.Base().Pos.Distance(pos) > radius {
			continue
		}
		w.Damage(d, instigator, item, amount, damageType)
	}
}
