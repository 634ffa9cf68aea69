package world

import "islebound.gg/internal/protocol"

// Scope selects the recipients of one emitted event.
type Scope uint8

const (
	// ScopeAll fans out to every connected player.
	ScopeAll Scope = iota
	// ScopeAllBut skips Target, so an acting player is not echoed an
	// action it already applied.
	ScopeAllBut
	// ScopeOne delivers privately to Target: inventory, quests,
	// conversation state.
	ScopeOne
)

// Emit is one event plus who should see it. Perform* mutators return
// these instead of touching the network themselves: the state transition
// stays pure and the world decides delivery.
type Emit struct {
	Scope  Scope
	Target Handle
	Ev     protocol.Event
}

func toAll(ev protocol.Event) Emit             { return Emit{Scope: ScopeAll, Ev: ev} }
func toAllBut(h Handle, ev protocol.Event) Emit { return Emit{Scope: ScopeAllBut, Target: h, Ev: ev} }
func toOne(h Handle, ev protocol.Event) Emit    { return Emit{Scope: ScopeOne, Target: h, Ev: ev} }

// dispatch encodes emits into the recipients' outbox buffers. Outboxes
// drain to connections at the end of the tick, so everything a tick
// produces for one player leaves as one batch.
func (w *World) dispatch(emits []Emit) {
	for _, e := range emits {
		switch e.Scope {
		case ScopeAll:
			for _, p := range w.players {
				protocol.Encode(&p.outbox, e.Ev)
			}
		case ScopeAllBut:
			for _, p := range w.players {
				if p.Self == e.Target {
					continue
				}
				protocol.Encode(&p.outbox, e.Ev)
			}
		case ScopeOne:
			if p, ok := w.ar.resolve(e.Target).(*Player); ok {
				protocol.Encode(&p.outbox, e.Ev)
			}
		}
	}
}

// emit is the shorthand for world code that mutates and reports in one
// place (ticks, hooks); command handlers prefer collecting []Emit.
func (w *World) emit(e Emit) { w.dispatch([]Emit{e}) }
