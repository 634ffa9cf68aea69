package world

import (
	"fmt"
	"math/rand"

	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/geom"
)

// SnapshotVersion gates imports: a snapshot written by a different layout
// is refused rather than misread.
const SnapshotVersion = 1

// simRNG wraps the seeded source and counts draws so a snapshot can
// restore the exact stream position: re-seeding and replaying the draw
// count lands on the same next value.
type simRNG struct {
	src   *rand.Rand
	seed  int64
	draws uint64
}

func newSimRNG(seed int64) *simRNG {
	return &simRNG{src: rand.New(rand.NewSource(seed)), seed: seed}
}

func (r *simRNG) Float64() float64 {
	r.draws++
	return r.src.Float64()
}

func (r *simRNG) Float32() float32 {
	r.draws++
	return r.src.Float32()
}

func (r *simRNG) restore(seed int64, draws uint64) {
	r.src = rand.New(rand.NewSource(seed))
	r.seed = seed
	r.draws = 0
	for i := uint64(0); i < draws; i++ {
		r.Float64()
	}
}

// Snapshot is one world frozen mid-run: enough to resume or to re-step the
// tick log from. Content is not embedded; the catalog digest pins which
// pack the snapshot was taken against.
type Snapshot struct {
	Version       int    `json:"version"`
	Region        string `json:"region"`
	Tick          uint64 `json:"tick"`
	ContentDigest string `json:"content_digest"`

	NextID   uint32 `json:"next_id"`
	RNGSeed  int64  `json:"rng_seed"`
	RNGDraws uint64 `json:"rng_draws"`

	Actors  []ActorSnapshot  `json:"actors"`
	Players []PlayerSnapshot `json:"players"`
	Zones   []ZoneSnapshot   `json:"zones"`
}

type ActorSnapshot struct {
	ID        uint32          `json:"id"`
	Kind      string          `json:"kind"`
	Blueprint string          `json:"blueprint"`
	Pos       geom.Vector3    `json:"pos"`
	Rot       geom.Rotation   `json:"rot"`
	Health    int             `json:"health"`
	MaxHealth int             `json:"max_health"`
	States    map[string]bool `json:"states,omitempty"`

	// Variant payloads; exactly one is meaningful per kind.
	PickupName  string               `json:"pickup_name,omitempty"`
	Item        string               `json:"item,omitempty"`
	Count       uint32               `json:"count,omitempty"`
	Contents    []catalogs.ItemCount `json:"contents,omitempty"`
	Home        geom.Vector3         `json:"home,omitempty"`
	Wander      geom.Vector3         `json:"wander,omitempty"`
	SpawnerZone string               `json:"spawner_zone,omitempty"`
}

type PlayerSnapshot struct {
	ID   uint32         `json:"id"`
	Char CharacterState `json:"char"`
}

type ZoneSnapshot struct {
	Name     string           `json:"name"`
	Spawners []SpawnerSnapshot `json:"spawners"`
}

type SpawnerSnapshot struct {
	Blueprint string   `json:"blueprint"`
	Countdown float64  `json:"countdown"`
	Slots     []uint32 `json:"slots,omitempty"`
}

// Export freezes the world. Players are captured through the same
// CharacterState boundary the charstore uses; their connections are not
// part of the snapshot.
func (w *World) Export() *Snapshot {
	s := &Snapshot{
		Version:       SnapshotVersion,
		Region:        w.region,
		Tick:          w.tick,
		ContentDigest: w.content.Digest(),
		NextID:        w.ar.nextID,
		RNGSeed:       w.rng.seed,
		RNGDraws:      w.rng.draws,
	}
	for _, e := range w.actors {
		b := e.Base()
		as := ActorSnapshot{
			ID:        b.ID(),
			Kind:      b.Kind.String(),
			Blueprint: b.Blueprint,
			Pos:       b.Pos,
			Rot:       b.Rot,
			Health:    b.Health,
			MaxHealth: b.MaxHealth,
			States:    b.States,
		}
		switch v := e.(type) {
		case *Player:
			s.Players = append(s.Players, PlayerSnapshot{ID: b.ID(), Char: w.characterOf(v)})
			continue
		case *NPC:
			// NPCs rebuild from content at New; they are not snapshotted.
			continue
		case *Projectile:
			// Projectiles live fractions of a second; dropping them keeps
			// the snapshot format out of the weapon internals.
			continue
		case *Creature:
			as.Home = v.Home
			as.Wander = v.wander
			if v.spawner != nil {
				as.SpawnerZone = v.spawner.Zone
			}
		case *Chest:
			as.Contents = v.Contents
		case *Pickup:
			as.PickupName = v.Name
			as.Item = v.Item
			as.Count = v.Count
		}
		s.Actors = append(s.Actors, as)
	}
	for _, z := range w.zoneOrder {
		zs := ZoneSnapshot{Name: z.Name}
		for _, l := range z.listeners {
			sp, ok := l.(*Spawner)
			if !ok {
				continue
			}
			ss := SpawnerSnapshot{Blueprint: sp.Blueprint, Countdown: sp.countdown}
			for _, h := range sp.slots {
				ss.Slots = append(ss.Slots, h.ID)
			}
			zs.Spawners = append(zs.Spawners, ss)
		}
		s.Zones = append(s.Zones, zs)
	}
	return s
}

// Import restores a fresh world (same region, content and tuning) to the
// snapshot's state. Players come back detached; their connections rejoin
// through the normal join path. Must run before the loop starts.
func (w *World) Import(s *Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot: version %d, want %d", s.Version, SnapshotVersion)
	}
	if s.Region != w.region {
		return fmt.Errorf("snapshot: region %q into world %q", s.Region, w.region)
	}
	if s.ContentDigest != w.content.Digest() {
		return fmt.Errorf("snapshot: content digest mismatch")
	}
	w.tick = s.Tick
	w.rng.restore(s.RNGSeed, s.RNGDraws)

	for _, as := range s.Actors {
		e, err := w.restoreActor(as)
		if err != nil {
			return err
		}
		w.ar.insertWithID(as.ID, e)
		e.Base().Spawned = true
		w.actors = append(w.actors, e)
	}
	if s.NextID > w.ar.nextID {
		w.ar.nextID = s.NextID
	}

	for _, zs := range s.Zones {
		z := w.zones[zs.Name]
		if z == nil {
			return fmt.Errorf("snapshot: unknown zone %q", zs.Name)
		}
		for _, ss := range zs.Spawners {
			for _, l := range z.listeners {
				sp, ok := l.(*Spawner)
				if !ok || sp.Blueprint != ss.Blueprint {
					continue
				}
				sp.countdown = ss.Countdown
				for _, id := range ss.Slots {
					if c, ok := w.ar.byID(id).(*Creature); ok {
						c.spawner = sp
						sp.slots = append(sp.slots, c.Self)
					}
				}
				break
			}
		}
	}
	return nil
}

func (w *World) restoreActor(as ActorSnapshot) (Entity, error) {
	base := Actor{
		Blueprint: as.Blueprint,
		Pos:       as.Pos,
		Rot:       as.Rot,
		Health:    as.Health,
		MaxHealth: as.MaxHealth,
		States:    as.States,
	}
	switch as.Kind {
	case KindCreature.String():
		def, ok := w.content.Creatures.Defs[as.Blueprint]
		if !ok {
			return nil, fmt.Errorf("snapshot: unknown creature %q", as.Blueprint)
		}
		base.Kind = KindCreature
		return &Creature{Actor: base, Def: def, Home: as.Home, wander: as.Wander}, nil
	case KindChest.String():
		base.Kind = KindChest
		return &Chest{Actor: base, Contents: as.Contents}, nil
	case KindPickup.String():
		base.Kind = KindPickup
		return &Pickup{Actor: base, Name: as.PickupName, Item: as.Item, Count: as.Count}, nil
	}
	return nil, fmt.Errorf("snapshot: unrestorable actor kind %q", as.Kind)
}
