package world

import (
	"fmt"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/catalogs"
)

// Quest progression is monotonic per player per quest: a quest cannot be
// un-started and its state never moves backward through the declared
// order. Completion is terminal.

// SelectQuest makes quest the tracked one, starting it first if needed.
func (w *World) SelectQuest(p *Player, quest string) ([]Emit, error) {
	if _, ok := w.content.Quests.Defs[quest]; !ok {
		return nil, fmt.Errorf("select quest: %w: %q", ErrUnknownQuest, quest)
	}
	var emits []Emit
	if _, started := p.Quests[quest]; !started {
		e, err := w.StartQuest(p, quest)
		if err != nil {
			return nil, err
		}
		emits = e
	}
	p.CurrentQuest = quest
	return append(emits, toOne(p.Self, &protocol.CurrentQuest{Quest: quest})), nil
}

// StartQuest puts the player at the quest's first state. Starting an
// already-started quest is a no-op success: content paths may race the
// player's own journal.
func (w *World) StartQuest(p *Player, quest string) ([]Emit, error) {
	def, ok := w.content.Quests.Defs[quest]
	if !ok {
		return nil, fmt.Errorf("start quest: %w: %q", ErrUnknownQuest, quest)
	}
	if _, started := p.Quests[quest]; started {
		return nil, nil
	}
	p.Quests[quest] = &QuestProgress{State: def.StartState()}
	return []Emit{toOne(p.Self, &protocol.StartQuest{Quest: quest})}, nil
}

// AdvanceQuest moves a started quest to its next declared state, or
// completes it from the last one.
func (w *World) AdvanceQuest(p *Player, quest string) ([]Emit, error) {
	def, ok := w.content.Quests.Defs[quest]
	if !ok {
		return nil, fmt.Errorf("advance quest: %w: %q", ErrUnknownQuest, quest)
	}
	prog, started := p.Quests[quest]
	if !started || prog.Completed {
		return nil, fmt.Errorf("advance quest %q: %w", quest, ErrQuestRegressed)
	}
	i := def.StateIndex(prog.State)
	if i < 0 {
		return nil, fmt.Errorf("advance quest %q: %w: %q", quest, ErrNoSuchState, prog.State)
	}
	if i+1 >= len(def.States) {
		return w.CompleteQuest(p, quest)
	}
	return w.performAdvance(p, quest, def.States[i+1].Name), nil
}

func (w *World) performAdvance(p *Player, quest, state string) []Emit {
	prog := p.Quests[quest]
	prog.State = state
	prog.Count = 0
	return []Emit{toOne(p.Self, &protocol.AdvanceQuest{Quest: quest, State: state, Count: 0})}
}

// CompleteQuest finishes a started quest and pays its reward. Terminal:
// later advances and completions fail.
func (w *World) CompleteQuest(p *Player, quest string) ([]Emit, error) {
	def, ok := w.content.Quests.Defs[quest]
	if !ok {
		return nil, fmt.Errorf("complete quest: %w: %q", ErrUnknownQuest, quest)
	}
	prog, started := p.Quests[quest]
	if !started || prog.Completed {
		return nil, fmt.Errorf("complete quest %q: %w", quest, ErrQuestRegressed)
	}
	prog.Completed = true
	prog.State = def.FinalState()
	emits := []Emit{toOne(p.Self, &protocol.CompleteQuest{Quest: quest})}
	for _, ic := range def.Reward {
		_, e, err := p.AddItem(w, ic.Item, ic.Count, true)
		if err == nil {
			emits = append(emits, e...)
		}
	}
	if p.CurrentQuest == quest {
		p.CurrentQuest = ""
		emits = append(emits, toOne(p.Self, &protocol.CurrentQuest{Quest: ""}))
	}
	w.audit(AuditEntry{Tick: w.tick, Type: "quest_complete", Player: p.Name, Detail: quest})
	return emits, nil
}

// questKillHook credits a kill of blueprint against every started,
// uncompleted quest whose current state wants kills of it.
func (w *World) questKillHook(p *Player, blueprint string) []Emit {
	return w.questRuleHook(p, func(a *catalogs.AdvanceRule) bool {
		return a.Kind == "kill" && a.Blueprint == blueprint
	})
}

// questCollectHook credits gained items against collect states. The rule
// counts total collected, not currently held, so spending the items does
// not regress progress.
func (w *World) questCollectHook(p *Player, item string) []Emit {
	return w.questRuleHook(p, func(a *catalogs.AdvanceRule) bool {
		return a.Kind == "collect" && a.Item == item
	})
}

// questTalkHook advances talk states when a conversation with the named
// NPC opens.
func (w *World) questTalkHook(p *Player, npc string) []Emit {
	return w.questRuleHook(p, func(a *catalogs.AdvanceRule) bool {
		return a.Kind == "talk" && a.NPC == npc
	})
}

func (w *World) questRuleHook(p *Player, match func(*catalogs.AdvanceRule) bool) []Emit {
	var emits []Emit
	for name, prog := range p.Quests {
		if prog.Completed {
			continue
		}
		def, ok := w.content.Quests.Defs[name]
		if !ok {
			continue
		}
		st, ok := def.State(prog.State)
		if !ok || st.Advance == nil || !match(st.Advance) {
			continue
		}
		prog.Count++
		need := st.Advance.Count
		if need == 0 || st.Advance.Kind == "talk" {
			need = 1
		}
		if prog.Count >= need {
			if e, err := w.AdvanceQuest(p, name); err == nil {
				emits = append(emits, e...)
			}
		} else {
			emits = append(emits, toOne(p.Self, &protocol.AdvanceQuest{Quest: name, State: prog.State, Count: prog.Count}))
		}
	}
	return emits
}
