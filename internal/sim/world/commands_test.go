package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/geom"
)

func command(w *World, p *Player, ev protocol.Event) {
	w.StepOnce(nil, nil, []Command{{Player: p.ID(), Ev: ev}})
}

func TestFireConsumesAmmoAndStartsCooldown(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	givePistol(t, w, p, 8)
	_, err := p.StartReload(w)
	require.NoError(t, err)
	stepN(w, 11)
	require.EqualValues(t, 8, p.Loaded("TidePistol"))

	command(w, p, &protocol.FireRequest{Item: "TidePistol", Dir: geom.Vector3{X: 1}})
	require.EqualValues(t, 7, p.Loaded("TidePistol"))
	require.True(t, p.OnCooldown("TidePistol"))

	// A second shot inside the cooldown is rejected without spending ammo.
	command(w, p, &protocol.FireRequest{Item: "TidePistol", Dir: geom.Vector3{X: 1}})
	require.EqualValues(t, 7, p.Loaded("TidePistol"))
}

func TestFireRejectsEmptyClipAndWrongItem(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	givePistol(t, w, p, 8)

	require.ErrorIs(t, w.handleFire(p, &protocol.FireRequest{Item: "TidePistol", Dir: geom.Vector3{X: 1}}), ErrNoAmmo)
	require.ErrorIs(t, w.handleFire(p, &protocol.FireRequest{Item: "Medkit", Dir: geom.Vector3{X: 1}}), ErrNotHeld)
}

func TestFireRejectedWhileDead(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	givePistol(t, w, p, 8)
	p.Health = 0

	require.ErrorIs(t, w.handleFire(p, &protocol.FireRequest{Item: "TidePistol", Dir: geom.Vector3{X: 1}}), ErrDead)
}

func TestActivateConsumableHealsAndCoolsDown(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	_, _, err := p.AddItem(w, "Medkit", 2, false)
	require.NoError(t, err)
	p.Health = 30

	require.NoError(t, w.handleActivate(p, "Medkit"))
	require.Equal(t, 80, p.Health)
	require.EqualValues(t, 1, p.Count("Medkit"))

	require.ErrorIs(t, w.handleActivate(p, "Medkit"), ErrOnCooldown)
}

func TestChatFloodDropsExcess(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	for i := 0; i < 8; i++ {
		w.handleChat(p, "hello there")
	}
	require.Equal(t, w.tun.Chat.FloodMax, p.chatCount, "excess lines must not count")

	// The decay timer frees budget again.
	stepN(w, int(w.tun.Chat.FloodDecaySec*10)+1)
	require.Equal(t, w.tun.Chat.FloodMax-1, p.chatCount)
}

func TestChatSanitized(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	w.handleChat(p, "  \x00\x1b[31m  spaced    out  ")
	require.Equal(t, 1, p.chatCount)

	w.handleChat(p, "\x00\x01\x02")
	require.Equal(t, 1, p.chatCount, "a line that sanitizes to nothing is dropped free")
}

func TestUseRespectsRadius(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	n := shopkeeper(t, w)

	require.ErrorIs(t, w.handleUse(p, n.ID()), ErrTooFar)

	p.Pos = geom.Vector3{X: 400}
	require.NoError(t, w.handleUse(p, n.ID()))
	require.Equal(t, "greet", p.ConvState)
}

func TestBuyChecksCapacityBeforeFunds(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	p.Pos = geom.Vector3{X: 400}
	_, _, err := p.AddItem(w, "Coins", 500, false)
	require.NoError(t, err)
	_, _, err = p.AddItem(w, "Medkit", 5, false)
	require.NoError(t, err)

	err = w.handleBuy(p, "Medkit", 1)
	require.ErrorIs(t, err, ErrInventoryFull)
	require.EqualValues(t, 500, p.Count("Coins"), "failed buy must not debit")
}

func TestBuyAndSellRoundTrip(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	p.Pos = geom.Vector3{X: 400}
	_, _, err := p.AddItem(w, "Coins", 100, false)
	require.NoError(t, err)

	require.NoError(t, w.handleBuy(p, "Medkit", 2))
	require.EqualValues(t, 60, p.Count("Coins"))
	require.EqualValues(t, 2, p.Count("Medkit"))

	require.NoError(t, w.handleSell(p, "Medkit", 2))
	require.EqualValues(t, 80, p.Count("Coins"), "shops pay half value")
	require.Zero(t, p.Count("Medkit"))
}

func TestBuyRejectsWithoutFundsOrShop(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	require.ErrorIs(t, w.handleBuy(p, "Medkit", 1), ErrTooFar)

	p.Pos = geom.Vector3{X: 400}
	require.ErrorIs(t, w.handleBuy(p, "Medkit", 1), ErrNoFunds)
	require.ErrorIs(t, w.handleBuy(p, "CrabShell", 1), ErrUnknownItem, "the shop does not stock shells")
}

func TestSellingWeaponUnloadsClipFirst(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	p.Pos = geom.Vector3{X: 400}
	givePistol(t, w, p, 8)
	_, err := p.StartReload(w)
	require.NoError(t, err)
	stepN(w, 11)
	require.EqualValues(t, 8, p.Loaded("TidePistol"))

	require.NoError(t, w.handleSell(p, "TidePistol", 1))
	require.Zero(t, p.Count("TidePistol"))
	require.EqualValues(t, 8, p.Count("PistolRounds"), "loaded rounds return to reserve")
	require.EqualValues(t, 50, p.Count("Coins"))
}

func TestPvPDesireLagsByCountdown(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	w.handlePvPDesire(p, true)
	require.True(t, p.PvPDesired)
	require.False(t, p.PvPEnabled)

	stepN(w, 10*w.tun.PvP.CountdownSec+1)
	require.True(t, p.PvPEnabled)
}

func TestPvPFlappingResolvesToLastDesire(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	w.handlePvPDesire(p, true)
	stepN(w, 5)
	w.handlePvPDesire(p, false)
	require.False(t, p.Timers.Active(timerPvPCountdown), "desire back to enabled cancels the countdown")

	stepN(w, 10*w.tun.PvP.CountdownSec+1)
	require.False(t, p.PvPEnabled)
}

func TestRespawnRestoresAndRelocates(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")
	p.Pos = geom.Vector3{X: 4000}
	p.Health = 0
	p.Mana = 10

	command(w, p, &protocol.RespawnRequest{})
	require.Equal(t, w.tun.Respawn.Health, p.Health)
	require.Equal(t, w.tun.Respawn.Mana, p.Mana)
	require.Equal(t, float32(0), p.Pos.X, "respawn returns to region spawn")

	// Respawning while alive is rejected.
	p.Pos = geom.Vector3{X: 4000}
	command(w, p, &protocol.RespawnRequest{})
	require.Equal(t, float32(4000), p.Pos.X)
}

func TestFastTravelSameRegionTeleports(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	require.NoError(t, w.handleFastTravel(p, "isle_dock", "isle_cliff"))
	require.Equal(t, float32(3000), p.Pos.X)
	require.False(t, p.ChangingRegion)
}

func TestFastTravelCrossRegionOpensWindow(t *testing.T) {
	w := newTestWorld(t)
	var saved []CharacterState
	w.SetSaveFunc(func(c CharacterState) { saved = append(saved, c) })
	p := joinTestPlayer(w, "mara")

	require.NoError(t, w.handleFastTravel(p, "isle_dock", "haven_dock"))
	require.True(t, p.ChangingRegion)
	require.Equal(t, "haven", p.TravelTo)
	require.Len(t, saved, 1)
	require.Equal(t, "haven", saved[0].Region)
	require.Equal(t, float32(9100), saved[0].Pos.X, "traveler persists at the destination post")

	// The window blocks a second travel request.
	require.ErrorIs(t, w.handleFastTravel(p, "isle_dock", "isle_cliff"), ErrChangingRegion)
}

func TestFastTravelValidatesPosts(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	require.ErrorIs(t, w.handleFastTravel(p, "nowhere", "isle_cliff"), ErrNoSuchPost)
	require.ErrorIs(t, w.handleFastTravel(p, "haven_dock", "isle_dock"), ErrNoSuchPost, "origin must be in this region")

	p.Pos = geom.Vector3{X: 2000}
	require.ErrorIs(t, w.handleFastTravel(p, "isle_dock", "isle_cliff"), ErrTooFar)
}

func TestCircuitSolveGrantsOnce(t *testing.T) {
	w := newTestWorld(t)
	p := joinTestPlayer(w, "mara")

	require.NoError(t, w.handleCircuitInputs(p, "vault_lock", 0b01))
	require.Zero(t, p.Count("Coins"), "unsolved inputs grant nothing")

	require.NoError(t, w.handleCircuitInputs(p, "vault_lock", 0b11))
	require.EqualValues(t, 25, p.Count("Coins"))

	require.NoError(t, w.handleCircuitInputs(p, "vault_lock", 0b11))
	require.EqualValues(t, 25, p.Count("Coins"), "re-solving must not pay twice")

	require.ErrorIs(t, w.handleCircuitInputs(p, "keypad", 1), ErrNoSuchCircuit)
}

func TestDLCKeyRedeemsOnce(t *testing.T) {
	w := newTestWorld(t)
	w.SetDLCKeys(map[string]catalogs.ItemCount{"REEF-2026": {Item: "Coins", Count: 10}})
	p := joinTestPlayer(w, "mara")

	require.ErrorIs(t, w.handleDLCKey(p, "WRONG"), ErrBadKey)
	require.NoError(t, w.handleDLCKey(p, "REEF-2026"))
	require.EqualValues(t, 10, p.Count("Coins"))
	require.NoError(t, w.handleDLCKey(p, "REEF-2026"))
	require.EqualValues(t, 10, p.Count("Coins"))
}
