package world

import (
	"fmt"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/catalogs"
)

// NPC is a conversable, unkillable world actor driven entirely by its
// catalog definition: a dialogue graph, optional quest gates on the
// opening state and an optional shop.
type NPC struct {
	Actor
	Def catalogs.NPCDef
}

// InitialState picks the dialogue state a conversation with p opens on.
// Quest gates are checked in declaration order; the first gate matching
// the player's progress wins, otherwise the static initial state.
func (n *NPC) InitialState(p *Player) string {
	for _, g := range n.Def.QuestGates {
		prog, started := p.Quests[g.Quest]
		if !started {
			continue
		}
		if g.Completed {
			if prog.Completed {
				return g.Initial
			}
			continue
		}
		if g.State != "" && prog.State == g.State && !prog.Completed {
			return g.Initial
		}
	}
	return n.Def.InitialState
}

// OnUsed starts (or restarts) a conversation.
func (n *NPC) OnUsed(w *World, p *Player) []Emit {
	state := n.InitialState(p)
	p.ConvNPC = n.Self
	p.ConvState = state
	emits := []Emit{toOne(p.Self, &protocol.NPCConversationState{NPC: n.ID(), State: state})}
	emits = append(emits, w.questTalkHook(p, n.Def.Blueprint)...)
	return emits
}

// Transition takes the transition labeled label out of p's current
// dialogue state with this NPC. The side-effect hook runs before the
// player's conversation pointer updates, matching the contract content
// was written against.
func (n *NPC) Transition(w *World, p *Player, label string) ([]Emit, error) {
	if w.ar.resolve(p.ConvNPC) != Entity(n) {
		return nil, ErrNotInConvo
	}
	st, ok := n.Def.States[p.ConvState]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchState, p.ConvState)
	}
	for _, tr := range st.Transitions {
		if tr.Label != label {
			continue
		}
		switch tr.Kind {
		case catalogs.TransitionEnd:
			p.ConvNPC = Nil
			p.ConvState = ""
			return []Emit{toOne(p.Self, &protocol.NPCConversationEnd{})}, nil

		case catalogs.TransitionShop:
			p.ConvNPC = Nil
			p.ConvState = ""
			return []Emit{toOne(p.Self, &protocol.NPCShop{NPC: n.ID()})}, nil

		case catalogs.TransitionContinue:
			// Catalog validation guarantees tr.Next exists.
			emits := n.onTransitionTaken(w, p, tr.Next)
			p.ConvState = tr.Next
			emits = append(emits, toOne(p.Self, &protocol.NPCConversationState{NPC: n.ID(), State: tr.Next}))
			return emits, nil
		}
	}
	return nil, fmt.Errorf("%w: %q from %q", ErrNoSuchLabel, label, p.ConvState)
}

// onTransitionTaken applies the destination state's content effect: quest
// starts, advances, completions and item grants.
func (n *NPC) onTransitionTaken(w *World, p *Player, to string) []Emit {
	eff := n.Def.States[to].Effect
	if eff == nil {
		return nil
	}
	return w.applyStateEffect(p, eff)
}

// BuyPrice and SellPrice apply this NPC's shop multipliers over the item's
// base trade value. Zero without a shop; callers gate on HasShop.
func (n *NPC) BuyPrice(def catalogs.ItemDef) uint32 {
	if n.Def.Shop == nil {
		return 0
	}
	return n.Def.Shop.BuyPrice(def.TradeValue)
}

func (n *NPC) SellPrice(def catalogs.ItemDef) uint32 {
	if n.Def.Shop == nil {
		return 0
	}
	return n.Def.Shop.SellPrice(def.TradeValue)
}

func (n *NPC) HasShop() bool { return n.Def.Shop != nil }

// Sells reports whether the shop stocks the item.
func (n *NPC) Sells(item string) bool {
	if n.Def.Shop == nil {
		return false
	}
	for _, it := range n.Def.Shop.Items {
		if it == item {
			return true
		}
	}
	return false
}

// applyStateEffect is shared by dialogue transitions and solved circuits.
func (w *World) applyStateEffect(p *Player, eff *catalogs.StateEffect) []Emit {
	var emits []Emit
	if eff.StartQuest != "" {
		if e, err := w.StartQuest(p, eff.StartQuest); err == nil {
			emits = append(emits, e...)
		}
	}
	if eff.AdvanceQuest != "" {
		if e, err := w.AdvanceQuest(p, eff.AdvanceQuest); err == nil {
			emits = append(emits, e...)
		}
	}
	if eff.CompleteQuest != "" {
		if e, err := w.CompleteQuest(p, eff.CompleteQuest); err == nil {
			emits = append(emits, e...)
		}
	}
	for _, ic := range eff.GiveItems {
		// Grants clamp rather than fail: content should never brick a
		// conversation because a bag was full.
		_, e, err := p.AddItem(w, ic.Item, ic.Count, true)
		if err == nil {
			emits = append(emits, e...)
		}
	}
	return emits
}
