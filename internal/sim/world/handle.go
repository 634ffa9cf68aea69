package world

// Handle is a generation-checked reference to an arena slot. Cross-actor
// links (owner, conversation partner, spawner slots, timer targets) are
// handles, never pointers: a link that outlives its actor resolves to nil
// instead of dangling.
type Handle struct {
	ID  uint32
	Gen uint32
}

// Nil is the zero handle; it never resolves.
var Nil = Handle{}

func (h Handle) IsNil() bool { return h.ID == 0 }

type arenaSlot struct {
	gen uint32
	e   Entity
}

// arena owns actor identity. IDs are allocated monotonically and never
// reused within a world's lifetime; the generation counter catches a
// handle forged or held across an import.
type arena struct {
	slots  map[uint32]arenaSlot
	nextID uint32
	gen    uint32
}

func newArena() arena {
	return arena{slots: make(map[uint32]arenaSlot)}
}

func (ar *arena) insert(e Entity) Handle {
	ar.nextID++
	ar.gen++
	h := Handle{ID: ar.nextID, Gen: ar.gen}
	e.Base().Self = h
	ar.slots[h.ID] = arenaSlot{gen: h.Gen, e: e}
	return h
}

// insertWithID restores an actor under a known id during snapshot import.
func (ar *arena) insertWithID(id uint32, e Entity) Handle {
	if id > ar.nextID {
		ar.nextID = id
	}
	ar.gen++
	h := Handle{ID: id, Gen: ar.gen}
	e.Base().Self = h
	ar.slots[h.ID] = arenaSlot{gen: h.Gen, e: e}
	return h
}

func (ar *arena) resolve(h Handle) Entity {
	if h.IsNil() {
		return nil
	}
	s, ok := ar.slots[h.ID]
	if !ok || s.gen != h.Gen {
		return nil
	}
	return s.e
}

func (ar *arena) byID(id uint32) Entity {
	s, ok := ar.slots[id]
	if !ok {
		return nil
	}
	return s.e
}

func (ar *arena) remove(h Handle) {
	s, ok := ar.slots[h.ID]
	if !ok || s.gen != h.Gen {
		return
	}
	delete(ar.slots, h.ID)
}

func (ar *arena) len() int { return len(ar.slots) }
