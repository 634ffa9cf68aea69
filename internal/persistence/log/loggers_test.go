package log

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"islebound.gg/internal/sim/world"
)

func TestTickLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, l.WriteTick(world.TickLogEntry{
			Tick:    i,
			Region:  "isle",
			Players: 2,
			Digest:  0xfeed + i,
		}))
	}
	require.NoError(t, l.Close())

	entries, err := ReadTicks(dir, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	require.Equal(t, uint64(1), entries[0].Tick)
	require.Equal(t, "isle", entries[0].Region)
	require.Equal(t, uint64(0xfeed+5), entries[4].Digest)

	tail, err := ReadTicks(dir, 4)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, uint64(4), tail[0].Tick)
}

func TestReadTicksMissingDir(t *testing.T) {
	entries, err := ReadTicks(filepath.Join(t.TempDir(), "nope"), 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAuditLoggerWrites(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	require.NoError(t, l.WriteAudit(world.AuditEntry{Tick: 9, Type: "chat", Player: "mara", Detail: "hi"}))
	require.NoError(t, l.Close())
}
