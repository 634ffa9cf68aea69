package world

import (
	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/geom"
)

// Chest is a lootable world prop. The "opened" flag lives in the shared
// state bag so scripted content can watch it like any other trigger.
type Chest struct {
	Actor
	Contents []catalogs.ItemCount
}

func (c *Chest) OnUsed(w *World, p *Player) []Emit {
	if c.State("opened") {
		return []Emit{toOne(p.Self, &protocol.Display{Title: c.Blueprint, Body: "Empty."})}
	}
	emits := c.PerformUpdateState("opened", true)
	emits = append(emits, c.PerformTriggerEvent("opened", p.Self)...)
	for _, ic := range c.Contents {
		_, e, err := p.AddItem(w, ic.Item, ic.Count, true)
		if err == nil {
			emits = append(emits, e...)
		}
	}
	return emits
}

// SpawnChest inserts a chest prop with the given contents.
func (w *World) SpawnChest(blueprint string, pos geom.Vector3, contents []catalogs.ItemCount) *Chest {
	c := &Chest{
		Actor: Actor{
			Blueprint: blueprint,
			Kind:      KindChest,
			Pos:       pos,
			Health:    1,
			MaxHealth: 1,
		},
		Contents: contents,
	}
	w.insertActor(c, true)
	return c
}

// Pickup is an item lying in the world. A named pickup is a one-time
// per-player grant: it stays in the world and each player's pickup flag
// records whether they already took it. An unnamed pickup is a consumable
// drop (creature loot) destroyed by whoever grabs it first.
type Pickup struct {
	Actor
	Name  string
	Item  string
	Count uint32
}

func (pk *Pickup) OnUsed(w *World, p *Player) []Emit {
	if pk.Name != "" {
		if p.Pickups[pk.Name] {
			return nil
		}
		_, emits, err := p.AddItem(w, pk.Item, pk.Count, false)
		if err != nil {
			return []Emit{toOne(p.Self, &protocol.Display{Title: "Inventory", Body: "You can't carry any more of that."})}
		}
		emits = append(emits, p.PerformPickup(pk.Name)...)
		return emits
	}

	added, emits, err := p.AddItem(w, pk.Item, pk.Count, true)
	if err != nil || added == 0 {
		return nil
	}
	if added < pk.Count {
		// Partial grab leaves the remainder on the ground.
		pk.Count -= added
		return emits
	}
	w.DestroyActor(pk)
	return emits
}

// SpawnNamedPickup places a persistent one-time pickup.
func (w *World) SpawnNamedPickup(name string, pos geom.Vector3, item string, count uint32) *Pickup {
	pk := &Pickup{
		Actor: Actor{
			Blueprint: item,
			Kind:      KindPickup,
			Pos:       pos,
			Health:    1,
			MaxHealth: 1,
		},
		Name:  name,
		Item:  item,
		Count: count,
	}
	w.insertActor(pk, true)
	return pk
}

// SpawnLoot scatters a consumable drop.
func (w *World) SpawnLoot(pos geom.Vector3, item string, count uint32) *Pickup {
	pk := &Pickup{
		Actor: Actor{
			Blueprint: item,
			Kind:      KindPickup,
			Pos:       pos,
			Health:    1,
			MaxHealth: 1,
		},
		Item:  item,
		Count: count,
	}
	w.insertActor(pk, true)
	return pk
}
