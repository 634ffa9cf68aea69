// Package protocol is the binary wire contract between the game server and
// its clients: a typed little-endian codec plus the closed set of
// tag-prefixed event records. Tags are two ASCII bytes. Strings carry a u16
// length prefix. Vectors and rotations have full-precision and quantized
// encodings; quantized fields trade fidelity for bandwidth on the records
// sent every tick.
package protocol

import (
	"fmt"
	"io"
)

const Version uint16 = 3

// Tag identifies one record layout within a direction.
type Tag [2]byte

func T(s string) Tag { return Tag{s[0], s[1]} }

func (t Tag) String() string {
	if t == TagAck {
		return `\x00\x00`
	}
	return string(t[:])
}

// TagAck is the two-zero-byte keepalive both sides may send at any time.
var TagAck = Tag{0, 0}

// Event is one wire record. The codec methods are unexported so the event
// set stays closed: every implementation lives in this package and is
// reachable from exactly one registry per direction.
type Event interface {
	Tag() Tag
	encode(w *Writer)
	decode(r *Reader)
}

// Registry maps a tag to a decoder for one direction of the connection.
// The same tag may carry different payloads per direction (fire, reload,
// chat, region records do), so each side decodes only with its own table.
type Registry map[Tag]func() Event

// UnknownTagError reports a tag with no decoder in the active registry.
// With no outer framing there is no way to resync past an unknown record,
// so the connection must be dropped.
type UnknownTagError struct {
	Tag Tag
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("protocol: unknown tag %q (0x%02x%02x)", e.Tag.String(), e.Tag[0], e.Tag[1])
}

// Encode appends ev's tag and fields to w.
func Encode(w *Writer, ev Event) {
	t := ev.Tag()
	w.U8(t[0])
	w.U8(t[1])
	ev.encode(w)
}

// EncodeAll appends a batch of events in order.
func EncodeAll(w *Writer, evs ...Event) {
	for _, ev := range evs {
		Encode(w, ev)
	}
}

// Decode reads the next record from r using the direction's registry.
// A clean end of input between records returns io.EOF; truncation inside a
// record returns ErrTruncated; an unregistered tag returns
// *UnknownTagError. Only io.EOF leaves the stream reusable.
func Decode(r *Reader, reg Registry) (Event, error) {
	t, err := readTag(r)
	if err != nil {
		return nil, err
	}
	if t == TagAck {
		return Ack{}, nil
	}
	mk, ok := reg[t]
	if !ok {
		return nil, &UnknownTagError{Tag: t}
	}
	ev := mk()
	ev.decode(r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return ev, nil
}

// readTag reads the 2-byte tag. EOF before the first byte is the clean
// between-records end; EOF after it is truncation.
func readTag(r *Reader) (Tag, error) {
	if r.err != nil {
		return Tag{}, r.err
	}
	var t Tag
	n, err := io.ReadFull(r.r, t[:])
	if err == nil {
		return t, nil
	}
	if err == io.EOF && n == 0 {
		return Tag{}, io.EOF
	}
	r.fail(ErrTruncated)
	return Tag{}, ErrTruncated
}

// Ack is the keepalive record. It has no payload and decodes from either
// direction.
type Ack struct{}

func (Ack) Tag() Tag         { return TagAck }
func (Ack) encode(w *Writer) {}
func (Ack) decode(r *Reader) {}

// ClientEvents is the registry of records a server accepts from clients.
var ClientEvents = Registry{
	T("hi"): func() Event { return &Hello{} },
	T("mv"): func() Event { return &Move{} },
	T("jp"): func() Event { return &Jump{} },
	T("rn"): func() Event { return &Sprint{} },
	T("s="): func() Event { return &SelectSlot{} },
	T("*i"): func() Event { return &FireRequest{} },
	T("#*"): func() Event { return &ChatSay{} },
	T("ee"): func() Event { return &Use{} },
	T("rl"): func() Event { return &ReloadRequest{} },
	T("ac"): func() Event { return &Activate{} },
	T("ts"): func() Event { return &Transition{} },
	T("by"): func() Event { return &Buy{} },
	T("sl"): func() Event { return &Sell{} },
	T("pd"): func() Event { return &PvPDesire{} },
	T("qs"): func() Event { return &SelectQuest{} },
	T("rr"): func() Event { return &RespawnRequest{} },
	T("ch"): func() Event { return &RegionReady{} },
	T("ft"): func() Event { return &FastTravel{} },
	T("ci"): func() Event { return &CircuitInputs{} },
	T("dk"): func() Event { return &SubmitDLCKey{} },
}

// ServerEvents is the registry of records a client accepts from the server.
var ServerEvents = Registry{
	T("wl"): func() Event { return &Welcome{} },
	T("ps"): func() Event { return &ActorPosition{} },
	T("tp"): func() Event { return &Teleport{} },
	T("rt"): func() Event { return &RelativeTeleport{} },
	T("rs"): func() Event { return &Respawn{} },
	T("mk"): func() Event { return &ActorSpawn{} },
	T("xx"): func() Event { return &ActorDestroy{} },
	T("pj"): func() Event { return &PlayerJoined{} },
	T("pl"): func() Event { return &PlayerLeft{} },
	T("pi"): func() Event { return &PlayerItem{} },
	T("s="): func() Event { return &CurrentSlot{} },
	T("st"): func() Event { return &State{} },
	T("tr"): func() Event { return &Trigger{} },
	T("++"): func() Event { return &HealthUpdate{} },
	T("kl"): func() Event { return &Kill{} },
	T("lh"): func() Event { return &LastHitBy{} },
	T("*i"): func() Event { return &FireBullets{} },
	T("cp"): func() Event { return &AddItem{} },
	T("dp"): func() Event { return &RemoveItem{} },
	T("la"): func() Event { return &LoadedAmmo{} },
	T("rl"): func() Event { return &Reload{} },
	T("pu"): func() Event { return &PickedUp{} },
	T("eq"): func() Event { return &Equip{} },
	T("ma"): func() Event { return &ManaUpdate{} },
	T("cd"): func() Event { return &CountdownUpdate{} },
	T("pc"): func() Event { return &PvPCountdown{} },
	T("pv"): func() Event { return &PvPEnable{} },
	T("q="): func() Event { return &CurrentQuest{} },
	T("q+"): func() Event { return &StartQuest{} },
	T("q>"): func() Event { return &AdvanceQuest{} },
	T("q!"): func() Event { return &CompleteQuest{} },
	T("nc"): func() Event { return &NPCConversationState{} },
	T("ne"): func() Event { return &NPCConversationEnd{} },
	T("ns"): func() Event { return &NPCShop{} },
	T("ch"): func() Event { return &RegionChange{} },
	T("#*"): func() Event { return &Chat{} },
	T("co"): func() Event { return &CircuitOutput{} },
	T("ds"): func() Event { return &Display{} },
}
