package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"islebound.gg/internal/sim/world"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := &world.Snapshot{
		Version:       world.SnapshotVersion,
		Region:        "isle",
		Tick:          4200,
		ContentDigest: "abc123",
		NextID:        17,
		RNGSeed:       7,
		RNGDraws:      99,
		Actors: []world.ActorSnapshot{
			{ID: 3, Kind: "creature", Blueprint: "ReefCrab", Health: 50, MaxHealth: 50},
		},
	}

	path := PathFor(dir, snap.Tick)
	require.NoError(t, Write(path, snap))

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, snap, got)
}

func TestLatestPicksNewest(t *testing.T) {
	dir := t.TempDir()

	latest, err := Latest(dir)
	require.NoError(t, err)
	require.Empty(t, latest, "no snapshots yet")

	for _, tick := range []uint64{100, 9000, 350} {
		require.NoError(t, Write(PathFor(dir, tick), &world.Snapshot{
			Version: world.SnapshotVersion, Region: "isle", Tick: tick,
		}))
	}
	latest, err = Latest(dir)
	require.NoError(t, err)
	require.Equal(t, PathFor(dir, 9000), latest)

	got, err := Read(latest)
	require.NoError(t, err)
	require.Equal(t, uint64(9000), got.Tick)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(PathFor(t.TempDir(), 1))
	require.Error(t, err)
}
