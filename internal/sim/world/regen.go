package world

import "islebound.gg/internal/protocol"

// Player maintenance timers: vitals regeneration, chat flood decay and the
// PvP change countdown. All of them live on the player's own timer set so
// they die with the actor and survive nothing they should not.

const (
	timerManaRegen    = "regen.mana"
	timerHealthRegen  = "regen.health"
	timerChatDecay    = "chat.decay"
	timerPvPCountdown = "pvp.countdown"

	actionManaRegen   = "player.regen.mana"
	actionHealthRegen = "player.regen.health"
	actionChatDecay   = "player.chat.decay"
	actionPvPApply    = "player.pvp.apply"
)

// startRegenTimers arms the recurring per-player upkeep. Called once at
// join; the timers recur for the player's whole stay.
func (w *World) startRegenTimers(p *Player) {
	if w.tun.Regen.ManaPerTick > 0 && w.tun.Regen.ManaIntervalSec > 0 {
		p.Timers.SetRecurring(timerManaRegen, actionManaRegen, p.Self, w.tun.Regen.ManaIntervalSec)
	}
	if w.tun.Regen.HealthPerTick > 0 && w.tun.Regen.HealthIntervalSec > 0 {
		p.Timers.SetRecurring(timerHealthRegen, actionHealthRegen, p.Self, w.tun.Regen.HealthIntervalSec)
	}
	if w.tun.Chat.FloodDecaySec > 0 {
		p.Timers.SetRecurring(timerChatDecay, actionChatDecay, p.Self, w.tun.Chat.FloodDecaySec)
	}
}

func (w *World) regenMana(p *Player) {
	if !p.Alive() || p.Mana >= p.MaxMana {
		return
	}
	w.dispatch(p.PerformSetMana(p.Mana + w.tun.Regen.ManaPerTick))
}

// regenHealth trickles health back, but only once the player has gone
// unhit for the configured delay. Taking damage resets the clock.
func (w *World) regenHealth(p *Player) {
	if !p.Alive() || p.Health >= p.MaxHealth {
		return
	}
	delay := ticksFor(w.tun.Regen.HealthDelaySec, w.tun.TickRateHz)
	if w.tick-p.lastDamageTick < delay {
		return
	}
	p.Health += w.tun.Regen.HealthPerTick
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	w.emit(toAll(&protocol.HealthUpdate{Actor: p.ID(), Health: clampHealth16(p.Health)}))
}

// handlePvPDesire records intent and starts (or restarts) the countdown
// toward honoring it. Re-requesting the current desired state is a no-op,
// so flapping just keeps resetting one timer instead of queueing changes.
func (w *World) handlePvPDesire(p *Player, desired bool) {
	if desired == p.PvPDesired {
		return
	}
	p.PvPDesired = desired
	if desired == p.PvPEnabled {
		p.Timers.Cancel(timerPvPCountdown)
		w.emit(toOne(p.Self, &protocol.PvPEnable{Enabled: p.PvPEnabled}))
		return
	}
	sec := w.tun.PvP.CountdownSec
	if sec <= 0 {
		sec = 1
	}
	p.Timers.Set(timerPvPCountdown, actionPvPApply, p.Self, float64(sec))
	w.emit(toOne(p.Self, &protocol.PvPCountdown{Target: desired, Seconds: int32(sec)}))
}

func init() {
	registerTimerAction(actionManaRegen, func(w *World, target Handle, key string) {
		if p, ok := w.ar.resolve(target).(*Player); ok {
			w.regenMana(p)
		}
	})
	registerTimerAction(actionHealthRegen, func(w *World, target Handle, key string) {
		if p, ok := w.ar.resolve(target).(*Player); ok {
			w.regenHealth(p)
		}
	})
	registerTimerAction(actionChatDecay, func(w *World, target Handle, key string) {
		if p, ok := w.ar.resolve(target).(*Player); ok && p.chatCount > 0 {
			p.chatCount--
		}
	})
	registerTimerAction(actionPvPApply, func(w *World, target Handle, key string) {
		p, ok := w.ar.resolve(target).(*Player)
		if !ok {
			return
		}
		p.PvPEnabled = p.PvPDesired
		w.emit(toOne(p.Self, &protocol.PvPEnable{Enabled: p.PvPEnabled}))
	})
}
