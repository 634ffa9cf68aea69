package world

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func shopkeeper(t *testing.T, w *World) *NPC {
	t.Helper()
	for _, e := range w.actors {
		if n, ok := e.(*NPC); ok && n.Def.Blueprint == "Shopkeeper" {
			return n
		}
	}
	t.Fatal("shopkeeper not placed")
	return nil
}

func TestConversationOpensOnInitialState(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	n := shopkeeper(t, w)

	w.dispatch(n.OnUsed(w, p))
	require.Equal(t, n.Self, p.ConvNPC)
	require.Equal(t, "greet", p.ConvState)
}

func TestTransitionEffectRunsBeforePointerUpdate(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	n := shopkeeper(t, w)

	w.dispatch(n.OnUsed(w, p))
	_, err := n.Transition(w, p, "Work?")
	require.NoError(t, err)
	require.Equal(t, "offer", p.ConvState)
	require.Contains(t, p.Quests, "crab_cull", "landing on the offer state starts the quest")

	_, err = n.Transition(w, p, "Bye")
	require.NoError(t, err)
	require.True(t, p.ConvNPC.IsNil())
	require.Empty(t, p.ConvState)
}

func TestTransitionUnknownLabel(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	n := shopkeeper(t, w)

	w.dispatch(n.OnUsed(w, p))
	_, err := n.Transition(w, p, "Gossip")
	require.ErrorIs(t, err, ErrNoSuchLabel)
	require.Equal(t, "greet", p.ConvState, "failed transition must not move the pointer")
}

func TestTransitionOutsideConversation(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	n := shopkeeper(t, w)

	_, err := n.Transition(w, p, "Bye")
	require.ErrorIs(t, err, ErrNotInConvo)
}

func TestShopTransitionIsTerminal(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	n := shopkeeper(t, w)

	w.dispatch(n.OnUsed(w, p))
	_, err := n.Transition(w, p, "Trade")
	require.NoError(t, err)
	require.True(t, p.ConvNPC.IsNil())
}

func TestQuestGatePicksOpeningState(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	n := shopkeeper(t, w)

	require.Equal(t, "greet", n.InitialState(p))

	_, err := w.StartQuest(p, "crab_cull")
	require.NoError(t, err)
	require.Equal(t, "greet", n.InitialState(p), "gate wants the report state, not hunt")

	p.Quests["crab_cull"].State = "report"
	require.Equal(t, "done_greet", n.InitialState(p))

	// The gated path hands in the quest.
	w.dispatch(n.OnUsed(w, p))
	// Talking to the shopkeeper satisfies the report state's talk rule
	// and advances off it, which here completes the quest.
	require.True(t, p.Quests["crab_cull"].Completed)
	require.EqualValues(t, 100, p.Count("Coins"))
}

func TestShopPrices(t *testing.T) {
	w := newTestWorld(t)
	n := shopkeeper(t, w)

	def := w.content.Items.Defs["Medkit"]
	require.EqualValues(t, 20, n.BuyPrice(def), "default buy multiplier is 1x trade value")
	require.EqualValues(t, 10, n.SellPrice(def), "default sell multiplier is half")
	require.True(t, n.Sells("Medkit"))
	require.False(t, n.Sells("CrabShell"))
}
