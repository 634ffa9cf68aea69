package catalogs

import "fmt"

// validate checks every cross-pack reference after the individual packs
// loaded: items named by shops, loot, rewards and effects; quests named
// by dialogue and gates; blueprints named by spawns and advance rules;
// regions named by placements and posts.
func (c *Catalogs) validate() error {
	item := func(where, name string) error {
		if _, ok := c.Items.Defs[name]; !ok {
			return fmt.Errorf("%s: unknown item %q", where, name)
		}
		return nil
	}
	quest := func(where, name string) error {
		if _, ok := c.Quests.Defs[name]; !ok {
			return fmt.Errorf("%s: unknown quest %q", where, name)
		}
		return nil
	}
	region := func(where, name string) error {
		if _, ok := c.Regions.Defs[name]; !ok {
			return fmt.Errorf("%s: unknown region %q", where, name)
		}
		return nil
	}
	effect := func(where string, e *StateEffect) error {
		if e == nil {
			return nil
		}
		for _, q := range []string{e.StartQuest, e.AdvanceQuest, e.CompleteQuest} {
			if q != "" {
				if err := quest(where, q); err != nil {
					return err
				}
			}
		}
		for _, ic := range e.GiveItems {
			if err := item(where, ic.Item); err != nil {
				return err
			}
		}
		return nil
	}

	for name, w := range c.Items.Defs {
		if w.Weapon != nil && w.Weapon.AmmoItem != "" {
			if err := item(fmt.Sprintf("item %q ammo", name), w.Weapon.AmmoItem); err != nil {
				return err
			}
		}
	}

	for name, q := range c.Quests.Defs {
		where := fmt.Sprintf("quest %q", name)
		for _, ic := range q.Reward {
			if err := item(where+" reward", ic.Item); err != nil {
				return err
			}
		}
		for _, s := range q.States {
			a := s.Advance
			if a == nil {
				continue
			}
			switch a.Kind {
			case "kill":
				if _, ok := c.Creatures.Defs[a.Blueprint]; !ok {
					return fmt.Errorf("%s state %q: unknown creature %q", where, s.Name, a.Blueprint)
				}
			case "collect":
				if err := item(fmt.Sprintf("%s state %q", where, s.Name), a.Item); err != nil {
					return err
				}
			case "talk":
				if _, ok := c.NPCs.Defs[a.NPC]; !ok {
					return fmt.Errorf("%s state %q: unknown npc %q", where, s.Name, a.NPC)
				}
			}
		}
	}

	for name, n := range c.NPCs.Defs {
		where := fmt.Sprintf("npc %q", name)
		if err := region(where, n.Region); err != nil {
			return err
		}
		if n.Shop != nil {
			for _, it := range n.Shop.Items {
				if err := item(where+" shop", it); err != nil {
					return err
				}
			}
		}
		for stName, st := range n.States {
			if err := effect(fmt.Sprintf("%s state %q", where, stName), st.Effect); err != nil {
				return err
			}
		}
		for _, g := range n.QuestGates {
			if err := quest(where+" gate", g.Quest); err != nil {
				return err
			}
			if g.State != "" {
				q := c.Quests.Defs[g.Quest]
				if q.StateIndex(g.State) < 0 {
					return fmt.Errorf("%s gate: quest %q has no state %q", where, g.Quest, g.State)
				}
			}
		}
	}

	for name, cr := range c.Creatures.Defs {
		for _, l := range cr.Loot {
			if err := item(fmt.Sprintf("creature %q loot", name), l.Item); err != nil {
				return err
			}
		}
	}

	for name, z := range c.Zones.Defs {
		where := fmt.Sprintf("zone %q", name)
		if err := region(where, z.Region); err != nil {
			return err
		}
		for _, s := range z.Spawns {
			if _, ok := c.Creatures.Defs[s.Blueprint]; !ok {
				return fmt.Errorf("%s: unknown spawn blueprint %q", where, s.Blueprint)
			}
		}
	}

	for name, p := range c.Regions.Posts {
		if err := region(fmt.Sprintf("post %q", name), p.Region); err != nil {
			return err
		}
	}
	for name, tp := range c.Regions.Teleports {
		if err := region(fmt.Sprintf("teleport %q", name), tp.Region); err != nil {
			return err
		}
	}

	for name, circ := range c.Circuits.Defs {
		if err := effect(fmt.Sprintf("circuit %q", name), circ.Solved); err != nil {
			return err
		}
	}
	return nil
}
