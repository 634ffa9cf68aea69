package world

import (
	"testing"

	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/tuning"
)

// testContent builds a small content pack in code so tests do not depend
// on the shipped configs. One region with a spawner zone, a shopkeeper
// with a quest-gated dialogue, a kill quest and a collect quest.
func testContent() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Items: catalogs.ItemCatalog{Defs: map[string]catalogs.ItemDef{
			"Coins": {Name: "Coins", Rarity: "Resource", MaxCount: 1000000, TradeValue: 1},
			"CrabShell": {Name: "CrabShell", Rarity: "Resource", MaxCount: 50, TradeValue: 5},
			"Medkit": {
				Name: "Medkit", Rarity: "Normal", MaxCount: 5, TradeValue: 20,
				Consumable: &catalogs.ConsumableDef{Heal: 50, CooldownSec: 2},
			},
			"TidePistol": {
				Name: "TidePistol", Rarity: "Normal", MaxCount: 1, TradeValue: 100,
				Weapon: &catalogs.WeaponDef{
					Damage: 25, DamageType: "Physical", AmmoItem: "PistolRounds",
					ClipSize: 8, ReloadSec: 1, Speed: 2000, LifetimeSec: 2, CooldownSec: 0.2,
				},
			},
			"PistolRounds": {Name: "PistolRounds", Rarity: "Resource", MaxCount: 200, TradeValue: 1},
			"ReefBomb": {
				Name: "ReefBomb", Rarity: "Rare", MaxCount: 3, TradeValue: 150,
				Weapon: &catalogs.WeaponDef{
					Damage: 0, DamageType: "Fire", Speed: 800, LifetimeSec: 0.3,
					SplashRadius: 500, SplashDamage: 60,
				},
			},
		}},
		Quests: catalogs.QuestCatalog{Defs: map[string]catalogs.QuestDef{
			"crab_cull": {
				Name: "crab_cull",
				States: []catalogs.QuestState{
					{Name: "hunt", Advance: &catalogs.AdvanceRule{Kind: "kill", Blueprint: "ReefCrab", Count: 3}},
					{Name: "report", Advance: &catalogs.AdvanceRule{Kind: "talk", NPC: "Shopkeeper"}},
				},
				Reward: []catalogs.ItemCount{{Item: "Coins", Count: 100}},
			},
			"shell_errand": {
				Name: "shell_errand",
				States: []catalogs.QuestState{
					{Name: "gather", Advance: &catalogs.AdvanceRule{Kind: "collect", Item: "CrabShell", Count: 2}},
				},
				Reward: []catalogs.ItemCount{{Item: "Medkit", Count: 1}},
			},
		}},
		NPCs: catalogs.NPCCatalog{Defs: map[string]catalogs.NPCDef{
			"Shopkeeper": {
				Blueprint: "Shopkeeper", Region: "isle", Pos: [3]float64{500, 0, 0},
				InitialState: "greet",
				States: map[string]catalogs.DialogueState{
					"greet": {Transitions: []catalogs.Transition{
						{Label: "Work?", Kind: catalogs.TransitionContinue, Next: "offer"},
						{Label: "Trade", Kind: catalogs.TransitionShop},
						{Label: "Bye", Kind: catalogs.TransitionEnd},
					}},
					"offer": {
						Effect: &catalogs.StateEffect{StartQuest: "crab_cull"},
						Transitions: []catalogs.Transition{
							{Label: "Bye", Kind: catalogs.TransitionEnd},
						},
					},
					"thanks": {
						Effect: &catalogs.StateEffect{CompleteQuest: "crab_cull"},
						Transitions: []catalogs.Transition{
							{Label: "Bye", Kind: catalogs.TransitionEnd},
						},
					},
					"done_greet": {Transitions: []catalogs.Transition{
						{Label: "Here you go", Kind: catalogs.TransitionContinue, Next: "thanks"},
						{Label: "Bye", Kind: catalogs.TransitionEnd},
					}},
				},
				QuestGates: []catalogs.QuestGate{
					{Quest: "crab_cull", State: "report", Initial: "done_greet"},
				},
				Shop: &catalogs.ShopDef{Items: []string{"Medkit", "PistolRounds", "TidePistol"}},
			},
		}},
		Creatures: catalogs.CreatureCatalog{Defs: map[string]catalogs.CreatureDef{
			"ReefCrab": {
				Blueprint: "ReefCrab", Health: 50, Damage: 10,
				Loot: []catalogs.LootDrop{{Item: "CrabShell", Count: 1, Chance: 1}},
			},
		}},
		Zones: catalogs.ZoneCatalog{Defs: map[string]catalogs.ZoneDef{
			"crab_den": {
				Name: "crab_den", Region: "isle",
				Min: [3]float64{-1000, -1000, -1000}, Max: [3]float64{1000, 1000, 1000},
				Spawns: []catalogs.SpawnDef{
					{Blueprint: "ReefCrab", Cap: 2, IntervalSec: 1, Pos: [3]float64{200, 0, 0}},
				},
			},
		}},
		Regions: catalogs.RegionCatalog{
			Defs: map[string]catalogs.RegionDef{
				"isle":  {Name: "isle", Spawn: [3]float64{0, 0, 0}},
				"haven": {Name: "haven", Spawn: [3]float64{9000, 0, 0}},
			},
			Posts: map[string]catalogs.TravelPost{
				"isle_dock":  {Name: "isle_dock", Region: "isle", Pos: [3]float64{100, 0, 0}},
				"isle_cliff": {Name: "isle_cliff", Region: "isle", Pos: [3]float64{3000, 0, 0}},
				"haven_dock": {Name: "haven_dock", Region: "haven", Pos: [3]float64{9100, 0, 0}},
			},
			Teleports: map[string]catalogs.TravelPost{},
		},
		Circuits: catalogs.CircuitCatalog{Defs: map[string]catalogs.CircuitDef{
			"vault_lock": {
				Name: "vault_lock", Inputs: 2,
				Gates:   []catalogs.Gate{{Name: "g", Op: "and", In: []string{"in0", "in1"}}},
				Outputs: []string{"g"},
				Solved:  &catalogs.StateEffect{GiveItems: []catalogs.ItemCount{{Item: "Coins", Count: 25}}},
			},
		}},
	}
}

func testTuning() tuning.Tuning {
	t := tuning.Default()
	t.TickRateHz = 10
	t.Items.SyncIntervalSec = 0.2
	return t
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	return New("isle", 7, testContent(), testTuning(), nil)
}

// joinTestPlayer attaches a character directly through the join path,
// outside the tick, which is fine for tests exercising world internals.
func joinTestPlayer(w *World, name string) *Player {
	resp := make(chan JoinResult, 1)
	w.handleJoin(JoinRequest{Char: CharacterState{Name: name}, Resp: resp})
	res := <-resp
	return w.playerByID(res.ID)
}

func stepN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.StepOnce(nil, nil, nil)
	}
}

func givePistol(t *testing.T, w *World, p *Player, rounds uint32) {
	t.Helper()
	if _, _, err := p.AddItem(w, "TidePistol", 1, false); err != nil {
		t.Fatalf("add pistol: %v", err)
	}
	if rounds > 0 {
		if _, _, err := p.AddItem(w, "PistolRounds", rounds, false); err != nil {
			t.Fatalf("add rounds: %v", err)
		}
	}
	if _, err := p.Equip(w, 0, "TidePistol"); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if _, err := p.SetSlot(w, 0); err != nil {
		t.Fatalf("slot: %v", err)
	}
}
