package world

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// digest hashes the simulation-relevant world state into one uint64 per
// tick. Replay re-steps a snapshot through the tick log and compares
// digests; any divergence pins the first non-deterministic tick. Maps are
// walked in sorted key order so the hash is independent of Go's map
// iteration; actors go in insertion order, which the tick preserves.
func (w *World) digest() uint64 {
	h := xxhash.New()
	var buf [8]byte

	u32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		h.Write(buf[:4])
	}
	u64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	f32 := func(v float32) { u32(math.Float32bits(v)) }
	str := func(s string) {
		u32(uint32(len(s)))
		h.Write([]byte(s))
	}
	flag := func(b bool) {
		if b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}

	u64(w.tick)
	str(w.region)
	u32(w.ar.nextID)

	for _, e := range w.actors {
		b := e.Base()
		u32(b.ID())
		h.Write([]byte{byte(b.Kind)})
		str(b.Blueprint)
		f32(b.Pos.X)
		f32(b.Pos.Y)
		f32(b.Pos.Z)
		f32(b.Rot.Yaw)
		u32(uint32(int32(b.Health)))
		for _, k := range sortedKeys(b.States) {
			str(k)
			flag(b.States[k])
		}

		switch v := e.(type) {
		case *Player:
			str(v.Name)
			u32(uint32(int32(v.Mana)))
			flag(v.PvPEnabled)
			flag(v.PvPDesired)
			flag(v.ChangingRegion)
			h.Write([]byte{v.Slot})
			for _, item := range sortedKeys(v.Inventory) {
				st := v.Inventory[item]
				str(item)
				u32(st.Count)
				u32(st.Loaded)
			}
			for _, slot := range v.Equipped {
				str(slot)
			}
			for _, name := range sortedKeys(v.Pickups) {
				str(name)
			}
			str(v.CurrentQuest)
			for _, q := range sortedKeys(v.Quests) {
				prog := v.Quests[q]
				str(q)
				str(prog.State)
				u32(prog.Count)
				flag(prog.Completed)
			}
		case *Projectile:
			u32(v.Owner.ID)
			str(v.Item)
			f32(float32(v.Lifetime))
		case *Creature:
			u32(v.target.ID)
		case *Pickup:
			str(v.Item)
			u32(v.Count)
		}
	}
	return h.Sum64()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
