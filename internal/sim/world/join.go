package world

import (
	"go.uber.org/zap"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/geom"
)

// CharacterState is the persistence boundary: everything a character
// carries between sessions and across region worlds. The charstore maps
// this to rows; the world never touches the database itself.
type CharacterState struct {
	Name   string
	Region string
	Pos    geom.Vector3
	Rot    geom.Rotation

	Health int
	Mana   int
	Admin  bool

	Items        map[string]ItemStack
	Equipped     []string
	Slot         uint8
	Pickups      []string
	Quests       map[string]QuestProgress
	CurrentQuest string
}

// JoinRequest attaches a character to this world. Send is the connection's
// outbound byte channel (nil for headless joins in tests); Resp reports
// the assigned actor id.
type JoinRequest struct {
	Char CharacterState
	Send chan<- []byte
	Resp chan<- JoinResult
}

type JoinResult struct {
	ID  uint32
	Err error
}

// handleJoin builds the player from persisted state and replays the world
// to them before announcing them to everyone else: a joiner must never
// observe an event referencing an id it was not told about.
func (w *World) handleJoin(req JoinRequest) {
	p := newPlayer(req.Char.Name)
	p.send = req.Send
	w.setInitialState(p, req.Char)

	w.ar.insert(p)
	p.Spawned = true
	w.actors = append(w.actors, p)

	// Existing world to the joiner first.
	protocol.Encode(&p.outbox, &protocol.Welcome{
		PlayerID:      p.ID(),
		Region:        w.region,
		Tick:          w.tick,
		ContentDigest: w.content.Digest(),
	})
	for _, e := range w.actors {
		if e == Entity(p) || !e.Base().Spawned {
			continue
		}
		protocol.Encode(&p.outbox, w.spawnEventFor(e))
	}
	w.dispatch(w.syncPrivateState(p))

	// Then the joiner to the existing world.
	w.players = append(w.players, p)
	w.dispatch([]Emit{toAllBut(p.Self, w.spawnEventFor(p))})

	w.updateZoneMembership(p)
	w.startRegenTimers(p)

	if req.Resp != nil {
		req.Resp <- JoinResult{ID: p.ID()}
	}
	w.log.Info("player joined", zap.String("player", p.Name), zap.Uint32("id", p.ID()))
	w.audit(AuditEntry{Tick: w.tick, Type: "join", Player: p.Name})
}

// setInitialState applies the SetInitial*State boundary in one place:
// inventory, pickups, quests, equipment, placement.
func (w *World) setInitialState(p *Player, c CharacterState) {
	if c.Pos != (geom.Vector3{}) {
		p.Pos = c.Pos
		p.Rot = c.Rot
	} else if def, ok := w.content.Regions.Defs[w.region]; ok {
		p.Pos = vec3Of(def.Spawn)
		p.Rot = rotYaw(def.SpawnYaw)
	}
	if c.Health > 0 {
		p.Health = c.Health
	}
	if c.Mana > 0 {
		p.Mana = c.Mana
	}
	p.Admin = c.Admin
	p.Slot = c.Slot
	p.CurrentQuest = c.CurrentQuest

	for item, st := range c.Items {
		if _, ok := w.content.Items.Defs[item]; !ok {
			w.log.Warn("dropping unknown persisted item", zap.String("player", p.Name), zap.String("item", item))
			continue
		}
		stack := st
		p.Inventory[item] = &stack
	}
	for i, item := range c.Equipped {
		if i >= EquipSlots {
			break
		}
		if item != "" && p.Count(item) > 0 {
			p.Equipped[i] = item
		}
	}
	for _, name := range c.Pickups {
		p.Pickups[name] = true
	}
	for quest, prog := range c.Quests {
		def, ok := w.content.Quests.Defs[quest]
		if !ok || (!prog.Completed && def.StateIndex(prog.State) < 0) {
			w.log.Warn("dropping unknown persisted quest state", zap.String("player", p.Name), zap.String("quest", quest))
			continue
		}
		cp := prog
		p.Quests[quest] = &cp
	}
	if _, ok := p.Quests[p.CurrentQuest]; !ok {
		p.CurrentQuest = ""
	}
}

// syncPrivateState replays the player's own aggregate to their client:
// inventory, ammo, equipment, slot, quests, vitals.
func (w *World) syncPrivateState(p *Player) []Emit {
	var emits []Emit
	for item, st := range p.Inventory {
		if st.Count > 0 {
			emits = append(emits, toOne(p.Self, &protocol.AddItem{Item: item, Count: st.Count}))
		}
		if st.Loaded > 0 {
			emits = append(emits, toOne(p.Self, &protocol.LoadedAmmo{Item: item, Loaded: st.Loaded}))
		}
	}
	for slot, item := range p.Equipped {
		if item != "" {
			emits = append(emits, toOne(p.Self, &protocol.Equip{Slot: uint8(slot), Item: item}))
		}
	}
	emits = append(emits, toOne(p.Self, &protocol.CurrentSlot{Slot: p.Slot}))
	for name := range p.Pickups {
		emits = append(emits, toOne(p.Self, &protocol.PickedUp{Pickup: name}))
	}
	for quest, prog := range p.Quests {
		emits = append(emits, toOne(p.Self, &protocol.StartQuest{Quest: quest}))
		if prog.Completed {
			emits = append(emits, toOne(p.Self, &protocol.CompleteQuest{Quest: quest}))
		} else {
			emits = append(emits, toOne(p.Self, &protocol.AdvanceQuest{Quest: quest, State: prog.State, Count: prog.Count}))
		}
	}
	if p.CurrentQuest != "" {
		emits = append(emits, toOne(p.Self, &protocol.CurrentQuest{Quest: p.CurrentQuest}))
	}
	emits = append(emits,
		toAll(&protocol.HealthUpdate{Actor: p.ID(), Health: clampHealth16(p.Health)}),
		toOne(p.Self, &protocol.ManaUpdate{Mana: clampMana16(p.Mana)}),
		toOne(p.Self, &protocol.PvPEnable{Enabled: p.PvPEnabled}),
	)
	return emits
}

// handleLeave persists and removes a player.
func (w *World) handleLeave(id uint32) {
	p := w.playerByID(id)
	if p == nil {
		return
	}
	if w.save != nil {
		w.save(w.characterOf(p))
	}
	w.DestroyActor(p)
	w.log.Info("player left", zap.String("player", p.Name))
	w.audit(AuditEntry{Tick: w.tick, Type: "leave", Player: p.Name})
}

// characterOf snapshots a player back into its persistable form.
func (w *World) characterOf(p *Player) CharacterState {
	c := CharacterState{
		Name:         p.Name,
		Region:       w.region,
		Pos:          p.Pos,
		Rot:          p.Rot,
		Health:       p.Health,
		Mana:         p.Mana,
		Admin:        p.Admin,
		Slot:         p.Slot,
		CurrentQuest: p.CurrentQuest,
		Items:        make(map[string]ItemStack, len(p.Inventory)),
		Quests:       make(map[string]QuestProgress, len(p.Quests)),
	}
	if p.ChangingRegion && p.TravelTo != "" {
		// Persist the traveler at their destination so the next world's
		// join places them where the post points.
		c.Region = p.TravelTo
		c.Pos = p.travelPos
		c.Rot = p.travelRot
	}
	for item, st := range p.Inventory {
		c.Items[item] = *st
	}
	c.Equipped = make([]string, EquipSlots)
	copy(c.Equipped, p.Equipped[:])
	for name := range p.Pickups {
		c.Pickups = append(c.Pickups, name)
	}
	for quest, prog := range p.Quests {
		c.Quests[quest] = *prog
	}
	return c
}
