package world

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/geom"
)

// joinWired joins through StepOnce with a live send channel, the way a
// connection does, and returns the id plus the channel.
func joinWired(t *testing.T, w *World, name string) (uint32, chan []byte) {
	t.Helper()
	send := make(chan []byte, 8)
	resp := make(chan JoinResult, 1)
	w.StepOnce([]JoinRequest{{Char: CharacterState{Name: name}, Send: send, Resp: resp}}, nil, nil)
	r := <-resp
	require.NoError(t, r.Err)
	return r.ID, send
}

func decodeBatch(t *testing.T, buf []byte) []protocol.Event {
	t.Helper()
	r := protocol.NewReader(bytes.NewReader(buf))
	var evs []protocol.Event
	for {
		ev, err := protocol.Decode(r, protocol.ServerEvents)
		if err == io.EOF {
			return evs
		}
		require.NoError(t, err)
		evs = append(evs, ev)
	}
}

func drainBatches(t *testing.T, send chan []byte) []protocol.Event {
	t.Helper()
	var evs []protocol.Event
	for {
		select {
		case buf := <-send:
			evs = append(evs, decodeBatch(t, buf)...)
		default:
			return evs
		}
	}
}

func TestJoinerSeesWorldBeforeAnnounce(t *testing.T) {
	w := newTestWorld(t)
	aID, aSend := joinWired(t, w, "a")
	drainBatches(t, aSend)

	bID, bSend := joinWired(t, w, "b")
	evs := drainBatches(t, bSend)
	require.NotEmpty(t, evs)

	wl, ok := evs[0].(*protocol.Welcome)
	require.True(t, ok, "welcome leads the batch")
	require.Equal(t, bID, wl.PlayerID)
	require.Equal(t, "isle", wl.Region)
	require.Equal(t, w.content.Digest(), wl.ContentDigest)

	// Every id referenced later in the batch was introduced by a spawn
	// record first, and the joiner is never told about itself twice.
	known := map[uint32]bool{bID: true}
	sawA := false
	for _, ev := range evs {
		switch e := ev.(type) {
		case *protocol.PlayerJoined:
			require.NotEqual(t, bID, e.Actor, "own spawn must not echo")
			known[e.Actor] = true
			sawA = sawA || e.Actor == aID
		case *protocol.ActorSpawn:
			known[e.Actor] = true
		case *protocol.HealthUpdate:
			require.True(t, known[e.Actor], "health for an unintroduced id")
		case *protocol.ActorPosition:
			require.True(t, known[e.Actor], "position for an unintroduced id")
		}
	}
	require.True(t, sawA, "existing player replayed to the joiner")

	// The existing player hears the announcement.
	var aHeard bool
	for _, ev := range drainBatches(t, aSend) {
		if e, ok := ev.(*protocol.PlayerJoined); ok && e.Actor == bID {
			aHeard = true
		}
	}
	require.True(t, aHeard)
}

func TestJoinRestoresPersistedCharacter(t *testing.T) {
	w := newTestWorld(t)
	send := make(chan []byte, 8)
	resp := make(chan JoinResult, 1)
	w.StepOnce([]JoinRequest{{
		Char: CharacterState{
			Name:   "mara",
			Pos:    geom.Vector3{X: 700},
			Health: 60,
			Items:  map[string]ItemStack{"Coins": {Count: 40}, "RustedIdol": {Count: 1}},
			Quests: map[string]QuestProgress{
				"crab_cull": {State: "hunt", Count: 2},
				"old_quest": {State: "gone"},
			},
			CurrentQuest: "crab_cull",
		},
		Send: send, Resp: resp,
	}}, nil, nil)
	r := <-resp
	require.NoError(t, r.Err)

	p := w.playerByID(r.ID)
	require.Equal(t, float32(700), p.Pos.X)
	require.Equal(t, 60, p.Health)
	require.EqualValues(t, 40, p.Count("Coins"))
	require.Zero(t, p.Count("RustedIdol"), "unknown persisted items are dropped")
	require.Contains(t, p.Quests, "crab_cull")
	require.EqualValues(t, 2, p.Quests["crab_cull"].Count)
	require.NotContains(t, p.Quests, "old_quest", "unknown persisted quests are dropped")
	require.Equal(t, "crab_cull", p.CurrentQuest)
}

func TestLeaveSavesCharacter(t *testing.T) {
	w := newTestWorld(t)
	var saved []CharacterState
	w.SetSaveFunc(func(c CharacterState) { saved = append(saved, c) })

	p := joinTestPlayer(w, "mara")
	_, _, err := p.AddItem(w, "Coins", 12, false)
	require.NoError(t, err)
	id := p.ID()

	w.StepOnce(nil, []uint32{id}, nil)
	require.Len(t, saved, 1)
	require.Equal(t, "mara", saved[0].Name)
	require.Equal(t, "isle", saved[0].Region)
	require.EqualValues(t, 12, saved[0].Items["Coins"].Count)
	require.Nil(t, w.playerByID(id))
}

func TestDestroyedIDsNeverReused(t *testing.T) {
	w := newTestWorld(t)
	c1, err := w.SpawnCreature("ReefCrab", geom.Vector3{}, geom.Rotation{})
	require.NoError(t, err)
	id1 := c1.ID()
	w.DestroyActor(c1)

	c2, err := w.SpawnCreature("ReefCrab", geom.Vector3{}, geom.Rotation{})
	require.NoError(t, err)
	require.Greater(t, c2.ID(), id1)
	require.Nil(t, w.ar.byID(id1), "old id must stay dead")
}

func TestStepDigestIsDeterministic(t *testing.T) {
	run := func() []uint64 {
		w := New("isle", 7, testContent(), testTuning(), nil)
		var digests []uint64
		_, digest := w.StepOnce([]JoinRequest{{Char: CharacterState{Name: "mara"}}}, nil, nil)
		digests = append(digests, digest)
		id := w.players[0].ID()
		for i := 0; i < 40; i++ {
			var cmds []Command
			if i == 5 {
				cmds = []Command{{Player: id, Ev: &protocol.Move{Pos: geom.Vector3{X: 300}, Forward: 1}}}
			}
			if i == 12 {
				cmds = []Command{{Player: id, Ev: &protocol.ChatSay{Text: "same words"}}}
			}
			_, digest := w.StepOnce(nil, nil, cmds)
			digests = append(digests, digest)
		}
		return digests
	}

	require.Equal(t, run(), run(), "identical inputs, identical digests")
}

func TestDigestSeparatesDivergedWorlds(t *testing.T) {
	w1 := New("isle", 7, testContent(), testTuning(), nil)
	w2 := New("isle", 7, testContent(), testTuning(), nil)
	w1.StepOnce([]JoinRequest{{Char: CharacterState{Name: "mara"}}}, nil, nil)
	w2.StepOnce([]JoinRequest{{Char: CharacterState{Name: "mara"}}}, nil, nil)

	id := w1.players[0].ID()
	_, d1 := w1.StepOnce(nil, nil, []Command{{Player: id, Ev: &protocol.Move{Pos: geom.Vector3{X: 999}, Forward: 1}}})
	_, d2 := w2.StepOnce(nil, nil, nil)
	require.NotEqual(t, d1, d2)
}

func TestTickLogRecordsAcceptedCommandsOnly(t *testing.T) {
	w := newTestWorld(t)
	var entries []TickLogEntry
	w.SetTickSink(tickSinkFunc(func(e TickLogEntry) error {
		entries = append(entries, e)
		return nil
	}))
	p := joinTestPlayer(w, "mara")

	w.StepOnce(nil, nil, []Command{
		{Player: p.ID(), Ev: &protocol.ChatSay{Text: "hi"}},
		{Player: p.ID(), Ev: &protocol.Buy{Item: "Medkit", Count: 1}}, // no shop in range
	})
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Commands, 1, "rejected commands stay out of the log")
	require.Equal(t, "#*", entries[0].Commands[0].Tag)
	require.Equal(t, entries[0].Digest, w.digest())

	// The logged bytes are the record itself.
	ev, err := protocol.Decode(protocol.NewReader(bytes.NewReader(entries[0].Commands[0].Data)), protocol.ClientEvents)
	require.NoError(t, err)
	require.Equal(t, "hi", ev.(*protocol.ChatSay).Text)
}

type tickSinkFunc func(TickLogEntry) error

func (f tickSinkFunc) WriteTick(e TickLogEntry) error { return f(e) }

func TestPositionBroadcastSkipsSelf(t *testing.T) {
	w := newTestWorld(t)
	aID, aSend := joinWired(t, w, "a")
	_, bSend := joinWired(t, w, "b")
	drainBatches(t, aSend)
	drainBatches(t, bSend)

	w.StepOnce(nil, nil, []Command{{Player: aID, Ev: &protocol.Move{Pos: geom.Vector3{X: 250}, Forward: 1}}})

	var bSaw, aSaw bool
	for _, ev := range drainBatches(t, bSend) {
		if e, ok := ev.(*protocol.ActorPosition); ok && e.Actor == aID {
			bSaw = true
			require.Equal(t, float32(250), e.Pos.X)
			require.Greater(t, e.Vel.X, float32(0), "velocity derives from move intent")
		}
	}
	for _, ev := range drainBatches(t, aSend) {
		if e, ok := ev.(*protocol.ActorPosition); ok && e.Actor == aID {
			aSaw = true
		}
	}
	require.True(t, bSaw)
	require.False(t, aSaw, "own movement is not echoed")
}

func TestAdminRequestsRunBetweenTicks(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	resp := make(chan AdminResult, 1)
	w.handleAdmin(AdminRequest{Op: AdminGive, Player: "mara", Item: "Medkit", Count: 2, Resp: resp})
	require.NoError(t, (<-resp).Err)
	require.EqualValues(t, 2, p.Count("Medkit"))

	resp = make(chan AdminResult, 1)
	w.handleAdmin(AdminRequest{Op: AdminList, Resp: resp})
	r := <-resp
	require.NoError(t, r.Err)
	require.Len(t, r.Players, 1)
	require.Equal(t, "mara", r.Players[0].Name)

	resp = make(chan AdminResult, 1)
	w.handleAdmin(AdminRequest{Op: AdminKick, Player: "nobody", Resp: resp})
	require.Error(t, (<-resp).Err)
}
