package world

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTripResumesIdentically(t *testing.T) {
	w1 := newTestWorld(t)
	p := joinTestPlayer(w1, "mara")
	stepN(w1, 25) // spawner fills, creatures wander

	// Detach the player the way a restart would; the character rides the
	// charstore, not the snapshot.
	w1.StepOnce(nil, []uint32{p.ID()}, nil)

	snap := w1.Export()

	// Snapshots cross a process boundary as JSON.
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	w2 := New("isle", 99, testContent(), testTuning(), nil)
	require.NoError(t, w2.Import(&decoded))
	require.Equal(t, w1.digest(), w2.digest(), "imported world must hash identically")

	// And it must keep stepping identically: same rng stream position,
	// same spawner countdowns, same actor set.
	for i := 0; i < 30; i++ {
		_, d1 := w1.StepOnce(nil, nil, nil)
		_, d2 := w2.StepOnce(nil, nil, nil)
		require.Equal(t, d1, d2, "divergence at step %d", i)
	}
}

func TestSnapshotCapturesPlayersAsCharacters(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	_, _, err := p.AddItem(w, "Coins", 33, false)
	require.NoError(t, err)

	snap := w.Export()
	require.Len(t, snap.Players, 1)
	require.Equal(t, p.ID(), snap.Players[0].ID)
	require.Equal(t, "mara", snap.Players[0].Char.Name)
	require.EqualValues(t, 33, snap.Players[0].Char.Items["Coins"].Count)

	for _, as := range snap.Actors {
		require.NotEqual(t, KindPlayer.String(), as.Kind, "players must not appear as plain actors")
	}
}

func TestSnapshotImportGuards(t *testing.T) {
	w := newTestWorld(t)
	snap := w.Export()

	bad := *snap
	bad.Version = SnapshotVersion + 1
	require.Error(t, New("isle", 7, testContent(), testTuning(), nil).Import(&bad))

	bad = *snap
	bad.Region = "haven"
	require.Error(t, New("isle", 7, testContent(), testTuning(), nil).Import(&bad))

	bad = *snap
	bad.ContentDigest = "deadbeef"
	require.Error(t, New("isle", 7, testContent(), testTuning(), nil).Import(&bad))
}

func TestSimRNGRestoreReplaysStream(t *testing.T) {
	a := newSimRNG(42)
	for i := 0; i < 17; i++ {
		a.Float64()
	}
	next := a.Float64()

	b := newSimRNG(0)
	b.restore(42, 17)
	require.Equal(t, next, b.Float64())
	require.Equal(t, a.draws, b.draws)
}
