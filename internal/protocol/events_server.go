package protocol

import "islebound.gg/internal/sim/geom"

// Server to client records. Clients apply these without re-validating;
// the server already adjudicated them.

// Welcome answers Hello: the assigned actor id, the region, the current
// tick and the content-pack digest so mismatched clients can bail early.
type Welcome struct {
	PlayerID      uint32
	Region        string
	Tick          uint64
	ContentDigest string
}

func (*Welcome) Tag() Tag { return T("wl") }

func (e *Welcome) encode(w *Writer) {
	w.U32(e.PlayerID)
	w.Str(e.Region)
	w.U64(e.Tick)
	w.Str(e.ContentDigest)
}

func (e *Welcome) decode(r *Reader) {
	e.PlayerID = r.U32()
	e.Region = r.Str()
	e.Tick = r.U64()
	e.ContentDigest = r.Str()
}

// ActorPosition replicates another actor's motion: full position, quantized
// rotation and quantized velocity. Fixed 28-byte payload, sent every
// broadcast tick for every moving actor, hence the quantization.
type ActorPosition struct {
	Actor uint32
	Pos   geom.Vector3
	Rot   geom.Rotation
	Vel   geom.Vector3
}

func (*ActorPosition) Tag() Tag { return T("ps") }

func (e *ActorPosition) encode(w *Writer) {
	w.U32(e.Actor)
	w.Vec(e.Pos)
	w.Rot(e.Rot)
	w.Vec16(e.Vel)
}

func (e *ActorPosition) decode(r *Reader) {
	e.Actor = r.U32()
	e.Pos = r.Vec()
	e.Rot = r.Rot()
	e.Vel = r.Vec16()
}

// Teleport forcibly relocates the receiving player. Full-precision
// rotation: this is authoritative and rare.
type Teleport struct {
	Pos geom.Vector3
	Rot geom.Rotation
}

func (*Teleport) Tag() Tag { return T("tp") }

func (e *Teleport) encode(w *Writer) {
	w.Vec(e.Pos)
	w.PrecRot(e.Rot)
}

func (e *Teleport) decode(r *Reader) {
	e.Pos = r.Vec()
	e.Rot = r.PrecRot()
}

type RelativeTeleport struct {
	Delta geom.Vector3
}

func (*RelativeTeleport) Tag() Tag { return T("rt") }

func (e *RelativeTeleport) encode(w *Writer) { w.Vec(e.Delta) }
func (e *RelativeTeleport) decode(r *Reader) { e.Delta = r.Vec() }

// Respawn relocates the receiving player and resets client-side death
// state; health and mana arrive as separate updates.
type Respawn struct {
	Pos geom.Vector3
	Rot geom.Rotation
}

func (*Respawn) Tag() Tag { return T("rs") }

func (e *Respawn) encode(w *Writer) {
	w.Vec(e.Pos)
	w.PrecRot(e.Rot)
}

func (e *Respawn) decode(r *Reader) {
	e.Pos = r.Vec()
	e.Rot = r.PrecRot()
}

// ActorSpawn announces a non-player actor, both for new spawns and as the
// existing-actor snapshot replayed to a joining player.
type ActorSpawn struct {
	Actor     uint32
	Blueprint string
	Pos       geom.Vector3
	Rot       geom.Rotation
}

func (*ActorSpawn) Tag() Tag { return T("mk") }

func (e *ActorSpawn) encode(w *Writer) {
	w.U32(e.Actor)
	w.Str(e.Blueprint)
	w.Vec(e.Pos)
	w.Rot(e.Rot)
}

func (e *ActorSpawn) decode(r *Reader) {
	e.Actor = r.U32()
	e.Blueprint = r.Str()
	e.Pos = r.Vec()
	e.Rot = r.Rot()
}

type ActorDestroy struct {
	Actor uint32
}

func (*ActorDestroy) Tag() Tag { return T("xx") }

func (e *ActorDestroy) encode(w *Writer) { w.U32(e.Actor) }
func (e *ActorDestroy) decode(r *Reader) { e.Actor = r.U32() }

// PlayerJoined announces a player actor, both on join and as the
// existing-player snapshot for joiners.
type PlayerJoined struct {
	Actor uint32
	Name  string
	Admin bool
	Pos   geom.Vector3
	Rot   geom.Rotation
}

func (*PlayerJoined) Tag() Tag { return T("pj") }

func (e *PlayerJoined) encode(w *Writer) {
	w.U32(e.Actor)
	w.Str(e.Name)
	w.Bool(e.Admin)
	w.Vec(e.Pos)
	w.Rot(e.Rot)
}

func (e *PlayerJoined) decode(r *Reader) {
	e.Actor = r.U32()
	e.Name = r.Str()
	e.Admin = r.Bool()
	e.Pos = r.Vec()
	e.Rot = r.Rot()
}

type PlayerLeft struct {
	Actor uint32
}

func (*PlayerLeft) Tag() Tag { return T("pl") }

func (e *PlayerLeft) encode(w *Writer) { w.U32(e.Actor) }
func (e *PlayerLeft) decode(r *Reader) { e.Actor = r.U32() }

// PlayerItem shows which item another player is holding.
type PlayerItem struct {
	Actor uint32
	Item  string
}

func (*PlayerItem) Tag() Tag { return T("pi") }

func (e *PlayerItem) encode(w *Writer) {
	w.U32(e.Actor)
	w.Str(e.Item)
}

func (e *PlayerItem) decode(r *Reader) {
	e.Actor = r.U32()
	e.Item = r.Str()
}

// CurrentSlot is the server side of the slot tag: restores the selected
// slot on login or after an authoritative change.
type CurrentSlot struct {
	Slot uint8
}

func (*CurrentSlot) Tag() Tag { return T("s=") }

func (e *CurrentSlot) encode(w *Writer) { w.U8(e.Slot) }
func (e *CurrentSlot) decode(r *Reader) { e.Slot = r.U8() }

// State replicates one named boolean flag on an actor. Redundant
// same-value sets are sent on purpose; content retriggers on them.
type State struct {
	Actor uint32
	Name  string
	Value bool
}

func (*State) Tag() Tag { return T("st") }

func (e *State) encode(w *Writer) {
	w.U32(e.Actor)
	w.Str(e.Name)
	w.Bool(e.Value)
}

func (e *State) decode(r *Reader) {
	e.Actor = r.U32()
	e.Name = r.Str()
	e.Value = r.Bool()
}

// Trigger fires a named scripted event on an actor, attributed to an
// instigator (0 for none).
type Trigger struct {
	Actor      uint32
	Event      string
	Instigator uint32
}

func (*Trigger) Tag() Tag { return T("tr") }

func (e *Trigger) encode(w *Writer) {
	w.U32(e.Actor)
	w.Str(e.Event)
	w.U32(e.Instigator)
}

func (e *Trigger) decode(r *Reader) {
	e.Actor = r.U32()
	e.Event = r.Str()
	e.Instigator = r.U32()
}

type HealthUpdate struct {
	Actor  uint32
	Health int16
}

func (*HealthUpdate) Tag() Tag { return T("++") }

func (e *HealthUpdate) encode(w *Writer) {
	w.U32(e.Actor)
	w.I16(e.Health)
}

func (e *HealthUpdate) decode(r *Reader) {
	e.Actor = r.U32()
	e.Health = r.I16()
}

// Kill notifies the killer: who died and to which item.
type Kill struct {
	Victim uint32
	Item   string
}

func (*Kill) Tag() Tag { return T("kl") }

func (e *Kill) encode(w *Writer) {
	w.U32(e.Victim)
	w.Str(e.Item)
}

func (e *Kill) decode(r *Reader) {
	e.Victim = r.U32()
	e.Item = r.Str()
}

// LastHitBy tells the victim what item finished them, for the death screen.
type LastHitBy struct {
	Item string
}

func (*LastHitBy) Tag() Tag { return T("lh") }

func (e *LastHitBy) encode(w *Writer) { w.Str(e.Item) }
func (e *LastHitBy) decode(r *Reader) { e.Item = r.Str() }

// FireBullets is the server side of the fire tag: replicates another
// actor's shot for effects.
type FireBullets struct {
	Actor uint32
	Item  string
	Dir   geom.Vector3
}

func (*FireBullets) Tag() Tag { return T("*i") }

func (e *FireBullets) encode(w *Writer) {
	w.U32(e.Actor)
	w.Str(e.Item)
	w.Vec(e.Dir)
}

func (e *FireBullets) decode(r *Reader) {
	e.Actor = r.U32()
	e.Item = r.Str()
	e.Dir = r.Vec()
}

type AddItem struct {
	Item  string
	Count uint32
}

func (*AddItem) Tag() Tag { return T("cp") }

func (e *AddItem) encode(w *Writer) {
	w.Str(e.Item)
	w.U32(e.Count)
}

func (e *AddItem) decode(r *Reader) {
	e.Item = r.Str()
	e.Count = r.U32()
}

type RemoveItem struct {
	Item  string
	Count uint32
}

func (*RemoveItem) Tag() Tag { return T("dp") }

func (e *RemoveItem) encode(w *Writer) {
	w.Str(e.Item)
	w.U32(e.Count)
}

func (e *RemoveItem) decode(r *Reader) {
	e.Item = r.Str()
	e.Count = r.U32()
}

type LoadedAmmo struct {
	Item   string
	Loaded uint32
}

func (*LoadedAmmo) Tag() Tag { return T("la") }

func (e *LoadedAmmo) encode(w *Writer) {
	w.Str(e.Item)
	w.U32(e.Loaded)
}

func (e *LoadedAmmo) decode(r *Reader) {
	e.Item = r.Str()
	e.Loaded = r.U32()
}

// Reload is the server side of the reload tag: the adjudicated result.
type Reload struct {
	Weapon string
	Ammo   string
	Loaded uint32
}

func (*Reload) Tag() Tag { return T("rl") }

func (e *Reload) encode(w *Writer) {
	w.Str(e.Weapon)
	w.Str(e.Ammo)
	w.U32(e.Loaded)
}

func (e *Reload) decode(r *Reader) {
	e.Weapon = r.Str()
	e.Ammo = r.Str()
	e.Loaded = r.U32()
}

type PickedUp struct {
	Pickup string
}

func (*PickedUp) Tag() Tag { return T("pu") }

func (e *PickedUp) encode(w *Writer) { w.Str(e.Pickup) }
func (e *PickedUp) decode(r *Reader) { e.Pickup = r.Str() }

// Equip confirms an item into an equipment slot; empty item clears it.
type Equip struct {
	Slot uint8
	Item string
}

func (*Equip) Tag() Tag { return T("eq") }

func (e *Equip) encode(w *Writer) {
	w.U8(e.Slot)
	w.Str(e.Item)
}

func (e *Equip) decode(r *Reader) {
	e.Slot = r.U8()
	e.Item = r.Str()
}

type ManaUpdate struct {
	Mana uint16
}

func (*ManaUpdate) Tag() Tag { return T("ma") }

func (e *ManaUpdate) encode(w *Writer) { w.U16(e.Mana) }
func (e *ManaUpdate) decode(r *Reader) { e.Mana = r.U16() }

type CountdownUpdate struct {
	Seconds int32
}

func (*CountdownUpdate) Tag() Tag { return T("cd") }

func (e *CountdownUpdate) encode(w *Writer) { w.I32(e.Seconds) }
func (e *CountdownUpdate) decode(r *Reader) { e.Seconds = r.I32() }

// PvPCountdown ticks down toward the target enabled state.
type PvPCountdown struct {
	Target  bool
	Seconds int32
}

func (*PvPCountdown) Tag() Tag { return T("pc") }

func (e *PvPCountdown) encode(w *Writer) {
	w.Bool(e.Target)
	w.I32(e.Seconds)
}

func (e *PvPCountdown) decode(r *Reader) {
	e.Target = r.Bool()
	e.Seconds = r.I32()
}

type PvPEnable struct {
	Enabled bool
}

func (*PvPEnable) Tag() Tag { return T("pv") }

func (e *PvPEnable) encode(w *Writer) { w.Bool(e.Enabled) }
func (e *PvPEnable) decode(r *Reader) { e.Enabled = r.Bool() }

type CurrentQuest struct {
	Quest string
}

func (*CurrentQuest) Tag() Tag { return T("q=") }

func (e *CurrentQuest) encode(w *Writer) { w.Str(e.Quest) }
func (e *CurrentQuest) decode(r *Reader) { e.Quest = r.Str() }

type StartQuest struct {
	Quest string
}

func (*StartQuest) Tag() Tag { return T("q+") }

func (e *StartQuest) encode(w *Writer) { w.Str(e.Quest) }
func (e *StartQuest) decode(r *Reader) { e.Quest = r.Str() }

// AdvanceQuest moves a quest to a state with the progress counter reset or
// carried, per the state's rule.
type AdvanceQuest struct {
	Quest string
	State string
	Count uint32
}

func (*AdvanceQuest) Tag() Tag { return T("q>") }

func (e *AdvanceQuest) encode(w *Writer) {
	w.Str(e.Quest)
	w.Str(e.State)
	w.U32(e.Count)
}

func (e *AdvanceQuest) decode(r *Reader) {
	e.Quest = r.Str()
	e.State = r.Str()
	e.Count = r.U32()
}

type CompleteQuest struct {
	Quest string
}

func (*CompleteQuest) Tag() Tag { return T("q!") }

func (e *CompleteQuest) encode(w *Writer) { w.Str(e.Quest) }
func (e *CompleteQuest) decode(r *Reader) { e.Quest = r.Str() }

// NPCConversationState pushes the dialogue state to show; the client
// resolves display text and transition labels from its content pack.
type NPCConversationState struct {
	NPC   uint32
	State string
}

func (*NPCConversationState) Tag() Tag { return T("nc") }

func (e *NPCConversationState) encode(w *Writer) {
	w.U32(e.NPC)
	w.Str(e.State)
}

func (e *NPCConversationState) decode(r *Reader) {
	e.NPC = r.U32()
	e.State = r.Str()
}

type NPCConversationEnd struct{}

func (*NPCConversationEnd) Tag() Tag { return T("ne") }

func (*NPCConversationEnd) encode(w *Writer) {}
func (*NPCConversationEnd) decode(r *Reader) {}

type NPCShop struct {
	NPC uint32
}

func (*NPCShop) Tag() Tag { return T("ns") }

func (e *NPCShop) encode(w *Writer) { w.U32(e.NPC) }
func (e *NPCShop) decode(r *Reader) { e.NPC = r.U32() }

// RegionChange is the server side of the region tag: directs the client to
// load a region; the client answers with RegionReady.
type RegionChange struct {
	Region string
}

func (*RegionChange) Tag() Tag { return T("ch") }

func (e *RegionChange) encode(w *Writer) { w.Str(e.Region) }
func (e *RegionChange) decode(r *Reader) { e.Region = r.Str() }

// Chat is the server side of the chat tag: a fully formatted line.
type Chat struct {
	Line string
}

func (*Chat) Tag() Tag { return T("#*") }

func (e *Chat) encode(w *Writer) { w.Str(e.Line) }
func (e *Chat) decode(r *Reader) { e.Line = r.Str() }

// CircuitOutput reports a circuit evaluation: the echoed inputs and the
// output lines packed as bits.
type CircuitOutput struct {
	Circuit string
	Inputs  uint32
	Outputs []bool
}

func (*CircuitOutput) Tag() Tag { return T("co") }

func (e *CircuitOutput) encode(w *Writer) {
	w.Str(e.Circuit)
	w.U32(e.Inputs)
	w.U16(uint16(len(e.Outputs)))
	var b byte
	for i, v := range e.Outputs {
		if v {
			b |= 1 << (i % 8)
		}
		if i%8 == 7 {
			w.U8(b)
			b = 0
		}
	}
	if len(e.Outputs)%8 != 0 {
		w.U8(b)
	}
}

func (e *CircuitOutput) decode(r *Reader) {
	e.Circuit = r.Str()
	e.Inputs = r.U32()
	n := int(r.U16())
	if r.Err() != nil || n == 0 {
		return
	}
	e.Outputs = make([]bool, n)
	for i := 0; i < n; i += 8 {
		b := r.U8()
		for j := 0; j < 8 && i+j < n; j++ {
			e.Outputs[i+j] = b&(1<<j) != 0
		}
	}
}

// Display shows a titled message box on the client.
type Display struct {
	Title string
	Body  string
}

func (*Display) Tag() Tag { return T("ds") }

func (e *Display) encode(w *Writer) {
	w.Str(e.Title)
	w.Str(e.Body)
}

func (e *Display) decode(r *Reader) {
	e.Title = r.Str()
	e.Body = r.Str()
}
