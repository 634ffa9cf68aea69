package world

import (
	"go.uber.org/zap"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/geom"
)

// ClientWorld is the non-authoritative variant behind a connection: one
// locally controlled player plus mirrors of everything the server
// announced. Commands encode requests instead of mutating; incoming
// server events apply directly, without re-validation, because the
// server already adjudicated them. Bots and the replay tool drive it.
type ClientWorld struct {
	log     *zap.Logger
	content *catalogs.Catalogs

	region string
	tick   uint64
	selfID uint32

	ar     arena
	actors []Entity
	self   *Player

	out protocol.Writer
}

func NewClientWorld(content *catalogs.Catalogs, log *zap.Logger) *ClientWorld {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClientWorld{log: log, content: content, ar: newArena()}
}

func (c *ClientWorld) Region() string { return c.region }
func (c *ClientWorld) Tick() uint64   { return c.tick }
func (c *ClientWorld) SelfID() uint32 { return c.selfID }
func (c *ClientWorld) Self() *Player  { return c.self }

func (c *ClientWorld) ActorByID(id uint32) Entity { return c.ar.byID(id) }
func (c *ClientWorld) Actors() []Entity           { return c.actors }

// TakeOutgoing drains the pending request bytes for the connection writer.
func (c *ClientWorld) TakeOutgoing() []byte { return c.out.Take() }

// Step advances the client-side interpolation: mirrors ease toward their
// last authoritative position. The local player is not blended; it is
// authoritative locally (prediction) and corrected only by tp/rs.
func (c *ClientWorld) Step(dt float64) {
	for _, e := range c.actors {
		b := e.Base()
		if b.ID() == c.selfID {
			continue
		}
		b.blendRemote(dt)
	}
}

// Request surface. Each method queues one encoded record; the transport
// flushes them at the client cadence.

func (c *ClientWorld) Hello(name string) {
	protocol.Encode(&c.out, &protocol.Hello{Version: protocol.Version, Name: name})
}

// Move applies locally (prediction) and reports the new position.
func (c *ClientWorld) Move(pos geom.Vector3, rot geom.Rotation, forward, strafe float32) {
	if c.self != nil {
		c.self.Pos = pos
		c.self.Rot = rot
		c.self.Forward = forward
		c.self.Strafe = strafe
	}
	protocol.Encode(&c.out, &protocol.Move{Pos: pos, Rot: rot, Forward: forward, Strafe: strafe})
}

func (c *ClientWorld) Jump(jumping bool) {
	protocol.Encode(&c.out, &protocol.Jump{Jumping: jumping})
}

func (c *ClientWorld) Sprint(running bool) {
	protocol.Encode(&c.out, &protocol.Sprint{Running: running})
}

func (c *ClientWorld) SelectSlot(slot uint8) {
	protocol.Encode(&c.out, &protocol.SelectSlot{Slot: slot})
}

func (c *ClientWorld) Fire(item string, dir geom.Vector3) {
	protocol.Encode(&c.out, &protocol.FireRequest{Item: item, Dir: dir})
}

func (c *ClientWorld) Chat(text string) {
	protocol.Encode(&c.out, &protocol.ChatSay{Text: text})
}

func (c *ClientWorld) Use(actor uint32) {
	protocol.Encode(&c.out, &protocol.Use{Actor: actor})
}

func (c *ClientWorld) Reload() {
	protocol.Encode(&c.out, &protocol.ReloadRequest{})
}

func (c *ClientWorld) Activate(item string) {
	protocol.Encode(&c.out, &protocol.Activate{Item: item})
}

func (c *ClientWorld) Transition(label string) {
	protocol.Encode(&c.out, &protocol.Transition{Label: label})
}

func (c *ClientWorld) Buy(item string, count uint32) {
	protocol.Encode(&c.out, &protocol.Buy{Item: item, Count: count})
}

func (c *ClientWorld) Sell(item string, count uint32) {
	protocol.Encode(&c.out, &protocol.Sell{Item: item, Count: count})
}

func (c *ClientWorld) SetPvPDesired(desired bool) {
	protocol.Encode(&c.out, &protocol.PvPDesire{Desired: desired})
}

func (c *ClientWorld) SelectQuest(quest string) {
	protocol.Encode(&c.out, &protocol.SelectQuest{Quest: quest})
}

func (c *ClientWorld) Respawn() {
	protocol.Encode(&c.out, &protocol.RespawnRequest{})
}

func (c *ClientWorld) FastTravel(origin, dest string) {
	protocol.Encode(&c.out, &protocol.FastTravel{Origin: origin, Dest: dest})
}

func (c *ClientWorld) RegionReady(region string) {
	protocol.Encode(&c.out, &protocol.RegionReady{Region: region})
}

func (c *ClientWorld) SetCircuitInputs(circuit string, inputs uint32) {
	protocol.Encode(&c.out, &protocol.CircuitInputs{Circuit: circuit, Inputs: inputs})
}

func (c *ClientWorld) SubmitDLCKey(key string) {
	protocol.Encode(&c.out, &protocol.SubmitDLCKey{Key: key})
}

// Apply mirrors one adjudicated server event into local state.
func (c *ClientWorld) Apply(ev protocol.Event) {
	switch e := ev.(type) {
	case *protocol.Welcome:
		c.selfID = e.PlayerID
		c.region = e.Region
		c.tick = e.Tick

	case *protocol.PlayerJoined:
		p := newPlayer(e.Name)
		p.Admin = e.Admin
		p.Pos = e.Pos
		p.Rot = e.Rot
		p.RemotePos = e.Pos
		p.RemoteRot = e.Rot
		c.insertMirror(e.Actor, p)
		if e.Actor == c.selfID {
			c.self = p
		}

	case *protocol.ActorSpawn:
		a := &Actor{Blueprint: e.Blueprint, Pos: e.Pos, Rot: e.Rot, RemotePos: e.Pos, RemoteRot: e.Rot, Health: 1, MaxHealth: 1}
		c.insertMirror(e.Actor, &mirrorActor{Actor: *a})

	case *protocol.PlayerLeft:
		c.removeMirror(e.Actor)
	case *protocol.ActorDestroy:
		c.removeMirror(e.Actor)

	case *protocol.ActorPosition:
		if m := c.ar.byID(e.Actor); m != nil {
			b := m.Base()
			b.RemotePos = e.Pos
			b.RemoteRot = e.Rot
			b.RemoteVel = e.Vel
		}

	case *protocol.Teleport:
		if c.self != nil {
			c.self.Pos = e.Pos
			c.self.Rot = e.Rot
		}
	case *protocol.Respawn:
		if c.self != nil {
			c.self.Pos = e.Pos
			c.self.Rot = e.Rot
		}

	case *protocol.HealthUpdate:
		if m := c.ar.byID(e.Actor); m != nil {
			m.Base().Health = int(e.Health)
		}
	case *protocol.ManaUpdate:
		if c.self != nil {
			c.self.Mana = int(e.Mana)
		}

	case *protocol.State:
		if m := c.ar.byID(e.Actor); m != nil {
			b := m.Base()
			if b.States == nil {
				b.States = make(map[string]bool)
			}
			b.States[e.Name] = e.Value
		}

	case *protocol.AddItem:
		c.selfStack(e.Item).Count += e.Count
	case *protocol.RemoveItem:
		if st := c.selfStack(e.Item); st.Count >= e.Count {
			st.Count -= e.Count
		} else {
			st.Count = 0
		}
	case *protocol.LoadedAmmo:
		c.selfStack(e.Item).Loaded = e.Loaded
	case *protocol.Reload:
		c.selfStack(e.Weapon).Loaded = e.Loaded

	case *protocol.Equip:
		if c.self != nil && int(e.Slot) < EquipSlots {
			c.self.Equipped[e.Slot] = e.Item
		}
	case *protocol.CurrentSlot:
		if c.self != nil {
			c.self.Slot = e.Slot
		}
	case *protocol.PickedUp:
		if c.self != nil {
			c.self.Pickups[e.Pickup] = true
		}

	case *protocol.StartQuest:
		if c.self != nil {
			if _, ok := c.self.Quests[e.Quest]; !ok {
				c.self.Quests[e.Quest] = &QuestProgress{}
			}
		}
	case *protocol.AdvanceQuest:
		if c.self != nil {
			prog, ok := c.self.Quests[e.Quest]
			if !ok {
				prog = &QuestProgress{}
				c.self.Quests[e.Quest] = prog
			}
			prog.State = e.State
			prog.Count = e.Count
		}
	case *protocol.CompleteQuest:
		if c.self != nil {
			if prog, ok := c.self.Quests[e.Quest]; ok {
				prog.Completed = true
			}
		}
	case *protocol.CurrentQuest:
		if c.self != nil {
			c.self.CurrentQuest = e.Quest
		}

	case *protocol.PvPEnable:
		if c.self != nil {
			c.self.PvPEnabled = e.Enabled
		}
	case *protocol.CountdownUpdate:
		if c.self != nil {
			c.self.Countdown = e.Seconds
		}

	case *protocol.NPCConversationState:
		if c.self != nil {
			if m := c.ar.byID(e.NPC); m != nil {
				c.self.ConvNPC = m.Base().Self
			}
			c.self.ConvState = e.State
		}
	case *protocol.NPCConversationEnd, *protocol.NPCShop:
		if c.self != nil {
			c.self.ConvNPC = Nil
			c.self.ConvState = ""
		}

	case *protocol.RegionChange:
		c.region = e.Region
	}
}

// mirrorActor is the generic remote actor: everything the client knows
// about a non-player is its Actor record.
type mirrorActor struct {
	Actor
}

func (c *ClientWorld) insertMirror(id uint32, e Entity) {
	c.removeMirror(id)
	c.ar.insertWithID(id, e)
	e.Base().Spawned = true
	c.actors = append(c.actors, e)
}

func (c *ClientWorld) removeMirror(id uint32) {
	e := c.ar.byID(id)
	if e == nil {
		return
	}
	for i, cur := range c.actors {
		if cur == e {
			c.actors = append(c.actors[:i], c.actors[i+1:]...)
			break
		}
	}
	c.ar.remove(e.Base().Self)
}

func (c *ClientWorld) selfStack(item string) *ItemStack {
	if c.self == nil {
		return &ItemStack{}
	}
	st := c.self.Inventory[item]
	if st == nil {
		st = &ItemStack{}
		c.self.Inventory[item] = st
	}
	return st
}
