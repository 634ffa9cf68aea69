package catalogs

import "fmt"

type QuestCatalog struct {
	Defs   map[string]QuestDef
	Digest string
}

// QuestDef is immutable shared content; per-player progress lives on the
// player. States are ordered and progress through them is monotonic, so
// the state's position in the slice doubles as its rank.
type QuestDef struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Description string       `json:"description"`
	States      []QuestState `json:"states"`
	Reward      []ItemCount  `json:"reward,omitempty"`
}

type QuestState struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Advance     *AdvanceRule `json:"advance,omitempty"`
}

// AdvanceRule drives the engine hooks that move a quest forward: kill N of
// a blueprint, collect N of an item, or talk to an NPC.
type AdvanceRule struct {
	Kind      string `json:"kind"`
	Blueprint string `json:"blueprint,omitempty"`
	Item      string `json:"item,omitempty"`
	NPC       string `json:"npc,omitempty"`
	Count     uint32 `json:"count,omitempty"`
}

func (q *QuestDef) StartState() string {
	if len(q.States) == 0 {
		return ""
	}
	return q.States[0].Name
}

// StateIndex returns the state's rank, or -1 when the quest never declares
// it.
func (q *QuestDef) StateIndex(name string) int {
	for i, s := range q.States {
		if s.Name == name {
			return i
		}
	}
	return -1
}

func (q *QuestDef) State(name string) (QuestState, bool) {
	i := q.StateIndex(name)
	if i < 0 {
		return QuestState{}, false
	}
	return q.States[i], true
}

// FinalState is the last declared state; completing from it finishes the
// quest.
func (q *QuestDef) FinalState() string {
	if len(q.States) == 0 {
		return ""
	}
	return q.States[len(q.States)-1].Name
}

func loadQuests(path string, out *QuestCatalog) error {
	var defs []QuestDef
	digest, err := readJSON(path, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.Defs = make(map[string]QuestDef, len(defs))

	for _, q := range defs {
		if q.Name == "" {
			return fmt.Errorf("quests.json: empty name")
		}
		if _, dup := out.Defs[q.Name]; dup {
			return fmt.Errorf("quests.json: duplicate quest %q", q.Name)
		}
		if len(q.States) == 0 {
			return fmt.Errorf("quests.json: quest %q has no states", q.Name)
		}
		seen := map[string]bool{}
		for _, s := range q.States {
			if s.Name == "" {
				return fmt.Errorf("quests.json: quest %q: empty state name", q.Name)
			}
			if seen[s.Name] {
				return fmt.Errorf("quests.json: quest %q: duplicate state %q", q.Name, s.Name)
			}
			seen[s.Name] = true
			if a := s.Advance; a != nil {
				if !oneOf(a.Kind, "kill", "collect", "talk") {
					return fmt.Errorf("quests.json: quest %q state %q: unknown advance kind %q", q.Name, s.Name, a.Kind)
				}
				if (a.Kind == "kill" || a.Kind == "collect") && a.Count == 0 {
					return fmt.Errorf("quests.json: quest %q state %q: advance needs a count", q.Name, s.Name)
				}
			}
		}
		out.Defs[q.Name] = q
	}
	return nil
}
