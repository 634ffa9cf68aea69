package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"islebound.gg/internal/sim/geom"
)

func TestDamageClampsAndFiresDeathOnce(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "victim")

	c, err := w.SpawnCreature("ReefCrab", geom.Vector3{X: 100}, geom.Rotation{})
	require.NoError(t, err)

	require.True(t, w.Damage(c, p, "TidePistol", 40, "Physical"))
	require.Equal(t, 10, c.Health)

	// The killing blow clamps at zero, drops loot and destroys the actor.
	require.True(t, w.Damage(c, p, "TidePistol", 999, "Physical"))
	require.False(t, c.Spawned)
	require.Nil(t, w.ar.resolve(c.Self), "handle must not resolve after death")

	// A corpse takes no further damage.
	require.False(t, w.Damage(c, p, "TidePistol", 10, "Physical"))
}

func TestCreatureDeathDropsLoot(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "hunter")

	c, err := w.SpawnCreature("ReefCrab", geom.Vector3{X: 100}, geom.Rotation{})
	require.NoError(t, err)
	w.Damage(c, p, "TidePistol", 50, "Physical")

	var drops int
	for _, e := range w.actors {
		if _, ok := e.(*Pickup); ok {
			drops++
		}
	}
	require.Equal(t, 1, drops, "chance-1 loot must drop exactly once")
}

func TestPvPRequiresBothEnabled(t *testing.T) {
	w := newTestWorld(t)
	a := joinTestPlayer(w, "a")
	b := joinTestPlayer(w, "b")

	require.False(t, w.Damage(b, a, "TidePistol", 10, "Physical"))
	require.Equal(t, 100, b.Health)

	a.PvPEnabled = true
	require.False(t, w.Damage(b, a, "TidePistol", 10, "Physical"), "one-sided pvp must not land")

	b.PvPEnabled = true
	require.True(t, w.Damage(b, a, "TidePistol", 10, "Physical"))
	require.Equal(t, 90, b.Health)
}

func TestChangingRegionIsImmune(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "traveler")
	c, err := w.SpawnCreature("ReefCrab", geom.Vector3{X: 100}, geom.Rotation{})
	require.NoError(t, err)

	p.ChangingRegion = true
	require.False(t, w.Damage(p, c, "ReefCrab", 10, "Physical"))
	require.Equal(t, 100, p.Health)
}

func TestSelfDamageIgnoresPvP(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "clumsy")

	require.True(t, w.Damage(p, p, "ReefBomb", 30, "Fire"))
	require.Equal(t, 70, p.Health)
}

func TestProjectileDirectHitNeverOwnerSplashMay(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "bomber")
	_, _, err := p.AddItem(w, "ReefBomb", 1, false)
	require.NoError(t, err)

	// Fired straight up from the player: no direct hit possible, the
	// fuse runs out next to the shooter and the splash catches them.
	pr, err := w.SpawnProjectile(p, "ReefBomb", p.Pos, geom.Vector3{Z: 1})
	require.NoError(t, err)
	require.Equal(t, p.Self, pr.Owner)

	stepN(w, 5) // lifetime 0.3s at 10hz
	require.False(t, pr.Spawned)
	require.Equal(t, 40, p.Health, "splash hits the shooter")
}

func TestProjectileHitsNearestTarget(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "shooter")
	near, err := w.SpawnCreature("ReefCrab", geom.Vector3{X: 180}, geom.Rotation{})
	require.NoError(t, err)
	far, err := w.SpawnCreature("ReefCrab", geom.Vector3{X: 4000}, geom.Rotation{})
	require.NoError(t, err)

	_, err = w.SpawnProjectile(p, "TidePistol", p.Pos, geom.Vector3{X: 1})
	require.NoError(t, err)

	w.StepOnce(nil, nil, nil)
	require.Equal(t, 25, near.Health)
	require.Equal(t, 50, far.Health)
}

func TestKillFeedAndLastHitBy(t *testing.T) {
	w := newTestWorld(t)
	a := joinTestPlayer(w, "a")
	b := joinTestPlayer(w, "b")
	a.PvPEnabled = true
	b.PvPEnabled = true

	w.Damage(b, a, "TidePistol", 100, "Physical")
	require.False(t, b.Alive())
	require.Equal(t, "TidePistol", b.lastHitBy)
	require.True(t, b.Spawned, "dead players stay in the world until respawn")
}
