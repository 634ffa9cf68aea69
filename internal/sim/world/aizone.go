package world

import (
	"go.uber.org/zap"

	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/geom"
)

// ZoneListener reacts to a zone's active state flipping. Activation fires
// only on the 0→1 occupancy transition and deactivation only on 1→0; a
// second player entering an occupied zone is invisible to listeners.
type ZoneListener interface {
	OnZoneActivated(w *World)
	OnZoneDeactivated(w *World)
}

// AIZone gates simulation cost by relevance: spawners (and whatever else
// listens) only run while at least one player stands inside the zone box.
type AIZone struct {
	Name      string
	Def       catalogs.ZoneDef
	occupancy int
	listeners []ZoneListener
}

func (z *AIZone) Active() bool   { return z.occupancy > 0 }
func (z *AIZone) Occupancy() int { return z.occupancy }

func (z *AIZone) AddListener(l ZoneListener) {
	z.listeners = append(z.listeners, l)
}

// OnPlayerEntered bumps occupancy; the first occupant wakes the listeners.
func (z *AIZone) OnPlayerEntered(w *World) {
	z.occupancy++
	if z.occupancy == 1 {
		for _, l := range z.listeners {
			l.OnZoneActivated(w)
		}
	}
}

// OnPlayerLeft drops occupancy; the last occupant leaving puts the
// listeners back to sleep.
func (z *AIZone) OnPlayerLeft(w *World) {
	if z.occupancy == 0 {
		return
	}
	z.occupancy--
	if z.occupancy == 0 {
		for _, l := range z.listeners {
			l.OnZoneDeactivated(w)
		}
	}
}

func (z *AIZone) Contains(p geom.Vector3) bool {
	return z.Def.Contains(float64(p.X), float64(p.Y), float64(p.Z))
}

// Spawner keeps a bounded population of one creature blueprint alive near
// a point, counting down to each spawn only while its zone is active.
// Deactivation stops the countdown but never despawns survivors: threats
// persist, they just stop multiplying.
type Spawner struct {
	Zone      string
	Blueprint string
	Cap       int
	Interval  float64
	Pos       geom.Vector3
	Rot       geom.Rotation

	active    bool
	countdown float64
	slots     []Handle
}

func newSpawner(zone string, def catalogs.SpawnDef) *Spawner {
	return &Spawner{
		Zone:      zone,
		Blueprint: def.Blueprint,
		Cap:       def.Cap,
		Interval:  def.IntervalSec,
		Pos:       geom.Vector3{X: float32(def.Pos[0]), Y: float32(def.Pos[1]), Z: float32(def.Pos[2])},
		Rot:       geom.Rotation{Yaw: float32(def.Yaw)},
		countdown: def.IntervalSec,
	}
}

func (s *Spawner) OnZoneActivated(w *World)   { s.active = true }
func (s *Spawner) OnZoneDeactivated(w *World) { s.active = false }

// Live counts the slots whose creature still resolves.
func (s *Spawner) Live(w *World) int {
	n := 0
	for _, h := range s.slots {
		if w.ar.resolve(h) != nil {
			n++
		}
	}
	return n
}

// release frees the slot owned by a dead creature.
func (s *Spawner) release(h Handle) {
	for i, cur := range s.slots {
		if cur == h {
			s.slots[i] = s.slots[len(s.slots)-1]
			s.slots = s.slots[:len(s.slots)-1]
			return
		}
	}
}

// tick advances the spawn countdown. At zero with a free slot it spawns
// one creature and re-arms; at cap it idles armed so a kill is followed by
// a full interval, not an instant replacement.
func (s *Spawner) tick(w *World, dt float64) {
	if !s.active {
		return
	}
	s.countdown -= dt
	if s.countdown > 0 {
		return
	}
	s.countdown = s.Interval
	if len(s.slots) >= s.Cap {
		return
	}
	c, err := w.SpawnCreature(s.Blueprint, s.Pos, s.Rot)
	if err != nil {
		w.log.Warn("spawner blueprint failed", zap.String("zone", s.Zone), zap.String("blueprint", s.Blueprint), zap.Error(err))
		return
	}
	c.spawner = s
	s.slots = append(s.slots, c.Self)
}

// updateZoneMembership diffs the zones containing each player's position
// against the set they were last seen in, entering and leaving as needed.
// This is the only occupancy driver; leave-world paths call leaveAllZones.
func (w *World) updateZoneMembership(p *Player) {
	for _, z := range w.zoneOrder {
		inside := p.Spawned && p.Alive() && z.Contains(p.Pos)
		was := p.zoneNames[z.Name]
		switch {
		case inside && !was:
			p.zoneNames[z.Name] = true
			z.OnPlayerEntered(w)
		case !inside && was:
			delete(p.zoneNames, z.Name)
			z.OnPlayerLeft(w)
		}
	}
}

func (w *World) leaveAllZones(p *Player) {
	for name := range p.zoneNames {
		if z := w.zones[name]; z != nil {
			z.OnPlayerLeft(w)
		}
		delete(p.zoneNames, name)
	}
}
