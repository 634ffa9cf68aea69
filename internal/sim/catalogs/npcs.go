package catalogs

import "fmt"

// Dialogue transition kinds.
const (
	TransitionEnd      = "end"
	TransitionContinue = "continue"
	TransitionShop     = "shop"
)

type NPCCatalog struct {
	Defs   map[string]NPCDef
	Digest string
}

type CreatureCatalog struct {
	Defs map[string]CreatureDef
	// Creatures share npcs.json, so the NPC digest covers them.
}

// NPCDef is a conversable world actor: placement, a dialogue graph, an
// optional shop and optional quest-gated opening states.
type NPCDef struct {
	Blueprint    string                   `json:"blueprint"`
	DisplayName  string                   `json:"display_name"`
	Region       string                   `json:"region"`
	Pos          [3]float64               `json:"pos"`
	Yaw          float64                  `json:"yaw,omitempty"`
	InitialState string                   `json:"initial_state"`
	States       map[string]DialogueState `json:"states"`
	QuestGates   []QuestGate              `json:"quest_gates,omitempty"`
	Shop         *ShopDef                 `json:"shop,omitempty"`
}

type DialogueState struct {
	Text        string       `json:"text"`
	Transitions []Transition `json:"transitions,omitempty"`
	Effect      *StateEffect `json:"effect,omitempty"`
}

// Transition is one labeled choice out of a dialogue state. A "continue"
// transition names the next state; "end" and "shop" are terminal.
type Transition struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Next  string `json:"next,omitempty"`
}

// StateEffect runs when a transition lands on the state carrying it:
// quest changes and item grants driven entirely by content.
type StateEffect struct {
	StartQuest    string      `json:"start_quest,omitempty"`
	AdvanceQuest  string      `json:"advance_quest,omitempty"`
	CompleteQuest string      `json:"complete_quest,omitempty"`
	GiveItems     []ItemCount `json:"give_items,omitempty"`
}

// QuestGate picks a different opening state for players at a given point
// in a quest. Gates are checked in order; the first match wins.
type QuestGate struct {
	Quest     string `json:"quest"`
	State     string `json:"state,omitempty"`
	Completed bool   `json:"completed,omitempty"`
	Initial   string `json:"initial"`
}

type ShopDef struct {
	Items    []string `json:"items"`
	BuyMult  float64  `json:"buy_mult,omitempty"`
	SellMult float64  `json:"sell_mult,omitempty"`
}

// BuyPrice is the cost in trade value for a player buying from this shop.
func (s *ShopDef) BuyPrice(base uint32) uint32 {
	m := s.BuyMult
	if m <= 0 {
		m = 1
	}
	return uint32(float64(base) * m)
}

// SellPrice is what the shop pays for a player's item.
func (s *ShopDef) SellPrice(base uint32) uint32 {
	m := s.SellMult
	if m <= 0 {
		m = 0.5
	}
	return uint32(float64(base) * m)
}

type CreatureDef struct {
	Blueprint    string     `json:"blueprint"`
	DisplayName  string     `json:"display_name"`
	Health       int        `json:"health"`
	Damage       int        `json:"damage"`
	DamageType   string     `json:"damage_type,omitempty"`
	AttackRange  float64    `json:"attack_range,omitempty"`
	AttackSec    float64    `json:"attack_sec,omitempty"`
	Speed        float64    `json:"speed,omitempty"`
	WanderRadius float64    `json:"wander_radius,omitempty"`
	AggroRadius  float64    `json:"aggro_radius,omitempty"`
	Loot         []LootDrop `json:"loot,omitempty"`
}

type LootDrop struct {
	Item   string  `json:"item"`
	Count  uint32  `json:"count"`
	Chance float64 `json:"chance"`
}

type npcsFile struct {
	NPCs      []NPCDef      `json:"npcs"`
	Creatures []CreatureDef `json:"creatures"`
}

func loadNPCs(path string, npcs *NPCCatalog, creatures *CreatureCatalog) error {
	var file npcsFile
	digest, err := readJSON(path, &file)
	if err != nil {
		return err
	}
	npcs.Digest = digest
	npcs.Defs = make(map[string]NPCDef, len(file.NPCs))
	creatures.Defs = make(map[string]CreatureDef, len(file.Creatures))

	for _, n := range file.NPCs {
		if n.Blueprint == "" {
			return fmt.Errorf("npcs.json: npc with empty blueprint")
		}
		if _, dup := npcs.Defs[n.Blueprint]; dup {
			return fmt.Errorf("npcs.json: duplicate npc %q", n.Blueprint)
		}
		if err := validateDialogue(n); err != nil {
			return err
		}
		npcs.Defs[n.Blueprint] = n
	}

	for _, c := range file.Creatures {
		if c.Blueprint == "" {
			return fmt.Errorf("npcs.json: creature with empty blueprint")
		}
		if _, dup := creatures.Defs[c.Blueprint]; dup {
			return fmt.Errorf("npcs.json: duplicate creature %q", c.Blueprint)
		}
		if _, clash := npcs.Defs[c.Blueprint]; clash {
			return fmt.Errorf("npcs.json: %q is both npc and creature", c.Blueprint)
		}
		if c.Health <= 0 {
			return fmt.Errorf("npcs.json: creature %q needs positive health", c.Blueprint)
		}
		if c.DamageType != "" && !oneOf(c.DamageType, DamageTypes...) {
			return fmt.Errorf("npcs.json: creature %q: unknown damage_type %q", c.Blueprint, c.DamageType)
		}
		for _, l := range c.Loot {
			if l.Chance < 0 || l.Chance > 1 {
				return fmt.Errorf("npcs.json: creature %q: loot chance out of [0,1]", c.Blueprint)
			}
		}
		creatures.Defs[c.Blueprint] = c
	}
	return nil
}

// validateDialogue enforces the structural invariant: every "continue"
// transition must land on a declared state. The rest of the graph may be
// shaped however content wants.
func validateDialogue(n NPCDef) error {
	if len(n.States) == 0 {
		return fmt.Errorf("npcs.json: npc %q has no dialogue states", n.Blueprint)
	}
	if _, ok := n.States[n.InitialState]; !ok {
		return fmt.Errorf("npcs.json: npc %q: initial_state %q not declared", n.Blueprint, n.InitialState)
	}
	for name, st := range n.States {
		labels := map[string]bool{}
		for _, tr := range st.Transitions {
			if tr.Label == "" {
				return fmt.Errorf("npcs.json: npc %q state %q: empty transition label", n.Blueprint, name)
			}
			if labels[tr.Label] {
				return fmt.Errorf("npcs.json: npc %q state %q: duplicate transition label %q", n.Blueprint, name, tr.Label)
			}
			labels[tr.Label] = true
			switch tr.Kind {
			case TransitionEnd:
			case TransitionShop:
				if n.Shop == nil {
					return fmt.Errorf("npcs.json: npc %q state %q: shop transition but no shop", n.Blueprint, name)
				}
			case TransitionContinue:
				if _, ok := n.States[tr.Next]; !ok {
					return fmt.Errorf("npcs.json: npc %q state %q transition %q: unknown next state %q",
						n.Blueprint, name, tr.Label, tr.Next)
				}
			default:
				return fmt.Errorf("npcs.json: npc %q state %q: unknown transition kind %q", n.Blueprint, name, tr.Kind)
			}
		}
	}
	for _, g := range n.QuestGates {
		if _, ok := n.States[g.Initial]; !ok {
			return fmt.Errorf("npcs.json: npc %q quest gate: unknown initial state %q", n.Blueprint, g.Initial)
		}
	}
	return nil
}
