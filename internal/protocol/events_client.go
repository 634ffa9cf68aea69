package protocol

import "islebound.gg/internal/sim/geom"

// Client to server records. The server validates every one of these before
// acting; nothing here is trusted.

// Hello opens the session: protocol version plus the character name to
// attach to.
type Hello struct {
	Version uint16
	Name    string
}

func (*Hello) Tag() Tag { return T("hi") }

func (e *Hello) encode(w *Writer) {
	w.U16(e.Version)
	w.Str(e.Name)
}

func (e *Hello) decode(r *Reader) {
	e.Version = r.U16()
	e.Name = r.Str()
}

// Move reports the client's own position at its input cadence: full
// position, quantized rotation, and movement intent as signed fractions.
// Fixed 20-byte payload.
type Move struct {
	Pos     geom.Vector3
	Rot     geom.Rotation
	Forward float32
	Strafe  float32
}

func (*Move) Tag() Tag { return T("mv") }

func (e *Move) encode(w *Writer) {
	w.Vec(e.Pos)
	w.Rot(e.Rot)
	w.Frac(e.Forward)
	w.Frac(e.Strafe)
}

func (e *Move) decode(r *Reader) {
	e.Pos = r.Vec()
	e.Rot = r.Rot()
	e.Forward = r.Frac()
	e.Strafe = r.Frac()
}

type Jump struct {
	Jumping bool
}

func (*Jump) Tag() Tag { return T("jp") }

func (e *Jump) encode(w *Writer) { w.Bool(e.Jumping) }
func (e *Jump) decode(r *Reader) { e.Jumping = r.Bool() }

type Sprint struct {
	Running bool
}

func (*Sprint) Tag() Tag { return T("rn") }

func (e *Sprint) encode(w *Writer) { w.Bool(e.Running) }
func (e *Sprint) decode(r *Reader) { e.Running = r.Bool() }

type SelectSlot struct {
	Slot uint8
}

func (*SelectSlot) Tag() Tag { return T("s=") }

func (e *SelectSlot) encode(w *Writer) { w.U8(e.Slot) }
func (e *SelectSlot) decode(r *Reader) { e.Slot = r.U8() }

// FireRequest asks to fire the named weapon in a direction. The server
// resolves the shot; the client never reports hits.
type FireRequest struct {
	Item string
	Dir  geom.Vector3
}

func (*FireRequest) Tag() Tag { return T("*i") }

func (e *FireRequest) encode(w *Writer) {
	w.Str(e.Item)
	w.Vec(e.Dir)
}

func (e *FireRequest) decode(r *Reader) {
	e.Item = r.Str()
	e.Dir = r.Vec()
}

// ChatSay is the client side of the chat tag: raw text, sanitized and
// attributed by the server.
type ChatSay struct {
	Text string
}

func (*ChatSay) Tag() Tag { return T("#*") }

func (e *ChatSay) encode(w *Writer) { w.Str(e.Text) }
func (e *ChatSay) decode(r *Reader) { e.Text = r.Str() }

// Use interacts with a world actor (chest, travel post, NPC) by id.
type Use struct {
	Actor uint32
}

func (*Use) Tag() Tag { return T("ee") }

func (e *Use) encode(w *Writer) { w.U32(e.Actor) }
func (e *Use) decode(r *Reader) { e.Actor = r.U32() }

// ReloadRequest reloads the held weapon. Empty payload; the server knows
// the slot, the clip and the reserve.
type ReloadRequest struct{}

func (*ReloadRequest) Tag() Tag { return T("rl") }

func (*ReloadRequest) encode(w *Writer) {}
func (*ReloadRequest) decode(r *Reader) {}

// Activate consumes or casts the named inventory item.
type Activate struct {
	Item string
}

func (*Activate) Tag() Tag { return T("ac") }

func (e *Activate) encode(w *Writer) { w.Str(e.Item) }
func (e *Activate) decode(r *Reader) { e.Item = r.Str() }

// Transition takes the labeled transition from the current dialogue state.
type Transition struct {
	Label string
}

func (*Transition) Tag() Tag { return T("ts") }

func (e *Transition) encode(w *Writer) { w.Str(e.Label) }
func (e *Transition) decode(r *Reader) { e.Label = r.Str() }

type Buy struct {
	Item  string
	Count uint32
}

func (*Buy) Tag() Tag { return T("by") }

func (e *Buy) encode(w *Writer) {
	w.Str(e.Item)
	w.U32(e.Count)
}

func (e *Buy) decode(r *Reader) {
	e.Item = r.Str()
	e.Count = r.U32()
}

type Sell struct {
	Item  string
	Count uint32
}

func (*Sell) Tag() Tag { return T("sl") }

func (e *Sell) encode(w *Writer) {
	w.Str(e.Item)
	w.U32(e.Count)
}

func (e *Sell) decode(r *Reader) {
	e.Item = r.Str()
	e.Count = r.U32()
}

// PvPDesire flags intent; the enabled state lags it by the countdown.
type PvPDesire struct {
	Desired bool
}

func (*PvPDesire) Tag() Tag { return T("pd") }

func (e *PvPDesire) encode(w *Writer) { w.Bool(e.Desired) }
func (e *PvPDesire) decode(r *Reader) { e.Desired = r.Bool() }

// SelectQuest picks the tracked quest in the journal.
type SelectQuest struct {
	Quest string
}

func (*SelectQuest) Tag() Tag { return T("qs") }

func (e *SelectQuest) encode(w *Writer) { w.Str(e.Quest) }
func (e *SelectQuest) decode(r *Reader) { e.Quest = r.Str() }

type RespawnRequest struct{}

func (*RespawnRequest) Tag() Tag { return T("rr") }

func (*RespawnRequest) encode(w *Writer) {}
func (*RespawnRequest) decode(r *Reader) {}

// RegionReady is the client side of the region tag: sent once the client
// has loaded the region it was directed to.
type RegionReady struct {
	Region string
}

func (*RegionReady) Tag() Tag { return T("ch") }

func (e *RegionReady) encode(w *Writer) { w.Str(e.Region) }
func (e *RegionReady) decode(r *Reader) { e.Region = r.Str() }

// FastTravel asks to travel from an origin post to a destination by name.
type FastTravel struct {
	Origin string
	Dest   string
}

func (*FastTravel) Tag() Tag { return T("ft") }

func (e *FastTravel) encode(w *Writer) {
	w.Str(e.Origin)
	w.Str(e.Dest)
}

func (e *FastTravel) decode(r *Reader) {
	e.Origin = r.Str()
	e.Dest = r.Str()
}

// CircuitInputs sets the input lines of a named circuit as a bitfield.
type CircuitInputs struct {
	Circuit string
	Inputs  uint32
}

func (*CircuitInputs) Tag() Tag { return T("ci") }

func (e *CircuitInputs) encode(w *Writer) {
	w.Str(e.Circuit)
	w.U32(e.Inputs)
}

func (e *CircuitInputs) decode(r *Reader) {
	e.Circuit = r.Str()
	e.Inputs = r.U32()
}

type SubmitDLCKey struct {
	Key string
}

func (*SubmitDLCKey) Tag() Tag { return T("dk") }

func (e *SubmitDLCKey) encode(w *Writer) { w.Str(e.Key) }
func (e *SubmitDLCKey) decode(r *Reader) { e.Key = r.Str() }
