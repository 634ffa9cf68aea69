package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"islebound.gg/internal/sim/geom"
)

func TestStartQuestIdempotent(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	emits, err := w.StartQuest(p, "crab_cull")
	require.NoError(t, err)
	require.NotEmpty(t, emits)
	require.Equal(t, "hunt", p.Quests["crab_cull"].State)

	emits, err = w.StartQuest(p, "crab_cull")
	require.NoError(t, err, "re-starting is a silent no-op")
	require.Empty(t, emits)
}

func TestSelectQuestAutoStarts(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	_, err := w.SelectQuest(p, "shell_errand")
	require.NoError(t, err)
	require.Equal(t, "shell_errand", p.CurrentQuest)
	require.Contains(t, p.Quests, "shell_errand")

	_, err = w.SelectQuest(p, "lost_treasure")
	require.ErrorIs(t, err, ErrUnknownQuest)
}

func TestKillHookCountsAndAdvances(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	_, err := w.StartQuest(p, "crab_cull")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c, err := w.SpawnCreature("ReefCrab", geom.Vector3{X: 100}, geom.Rotation{})
		require.NoError(t, err)
		w.Damage(c, p, "TidePistol", 999, "Physical")
	}
	prog := p.Quests["crab_cull"]
	require.Equal(t, "report", prog.State)
	require.Zero(t, prog.Count, "advancing resets the counter")

	// Further kills in the talk state change nothing.
	c, err := w.SpawnCreature("ReefCrab", geom.Vector3{X: 100}, geom.Rotation{})
	require.NoError(t, err)
	w.Damage(c, p, "TidePistol", 999, "Physical")
	require.Equal(t, "report", prog.State)
	require.Zero(t, prog.Count)
}

func TestCollectHookCountsGainsNotHoldings(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	_, err := w.StartQuest(p, "shell_errand")
	require.NoError(t, err)

	_, _, err = p.AddItem(w, "CrabShell", 1, false)
	require.NoError(t, err)
	prog := p.Quests["shell_errand"]
	require.EqualValues(t, 1, prog.Count)

	// Spending the shell does not regress progress.
	_, err = p.RemoveItem(w, "CrabShell", 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, prog.Count)

	_, _, err = p.AddItem(w, "CrabShell", 1, false)
	require.NoError(t, err)
	require.True(t, prog.Completed, "second collected shell finishes the single-state quest")
	require.EqualValues(t, 1, p.Count("Medkit"), "completion pays the reward")
}

func TestCompletionIsTerminal(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	_, err := w.StartQuest(p, "shell_errand")
	require.NoError(t, err)
	_, err = w.CompleteQuest(p, "shell_errand")
	require.NoError(t, err)

	_, err = w.AdvanceQuest(p, "shell_errand")
	require.ErrorIs(t, err, ErrQuestRegressed)
	_, err = w.CompleteQuest(p, "shell_errand")
	require.ErrorIs(t, err, ErrQuestRegressed)
}

func TestAdvanceUnstartedQuest(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	_, err := w.AdvanceQuest(p, "crab_cull")
	require.ErrorIs(t, err, ErrQuestRegressed)
}

func TestCompletingTrackedQuestClearsSelection(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	_, err := w.SelectQuest(p, "shell_errand")
	require.NoError(t, err)

	_, err = w.CompleteQuest(p, "shell_errand")
	require.NoError(t, err)
	require.Empty(t, p.CurrentQuest)
}
