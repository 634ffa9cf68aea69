package catalogs

import "fmt"

// Rarities and damage types are closed string sets; the world maps them to
// its own enums after load.
var (
	Rarities    = []string{"Resource", "Normal", "Rare", "Legendary", "Leet"}
	DamageTypes = []string{"Physical", "Fire", "Cold", "Shock"}
)

type ItemCatalog struct {
	Defs   map[string]ItemDef
	Digest string
}

type ItemDef struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Flavor      string `json:"flavor,omitempty"`
	Rarity      string `json:"rarity"`
	MaxCount    uint32 `json:"max_count"`
	TradeValue  uint32 `json:"trade_value"`
	ManaCost    int    `json:"mana_cost,omitempty"`

	Weapon     *WeaponDef     `json:"weapon,omitempty"`
	Consumable *ConsumableDef `json:"consumable,omitempty"`
}

type WeaponDef struct {
	Damage        int     `json:"damage"`
	DamageType    string  `json:"damage_type"`
	AmmoItem      string  `json:"ammo_item,omitempty"`
	ClipSize      uint32  `json:"clip_size,omitempty"`
	ReloadSec     float64 `json:"reload_sec,omitempty"`
	PartialReload bool    `json:"partial_reload,omitempty"`
	AutoFire      bool    `json:"auto_fire,omitempty"`
	Projectiles   int     `json:"projectiles,omitempty"`
	Spread        float64 `json:"spread,omitempty"`
	Speed         float64 `json:"speed"`
	LifetimeSec   float64 `json:"lifetime_sec"`
	SplashRadius  float64 `json:"splash_radius,omitempty"`
	SplashDamage  int     `json:"splash_damage,omitempty"`
	Range         float64 `json:"range,omitempty"`
	CooldownSec   float64 `json:"cooldown_sec,omitempty"`
}

type ConsumableDef struct {
	Heal        int     `json:"heal,omitempty"`
	Mana        int     `json:"mana,omitempty"`
	CooldownSec float64 `json:"cooldown_sec,omitempty"`
}

// ShotCount is the projectiles-per-shot with the default applied.
func (w *WeaponDef) ShotCount() int {
	if w.Projectiles <= 0 {
		return 1
	}
	return w.Projectiles
}

// UsesAmmo reports whether firing consumes loaded rounds.
func (w *WeaponDef) UsesAmmo() bool { return w.AmmoItem != "" }

func loadItems(path string, out *ItemCatalog) error {
	var defs []ItemDef
	digest, err := readJSON(path, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.Defs = make(map[string]ItemDef, len(defs))

	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("items.json: empty name")
		}
		if _, dup := out.Defs[d.Name]; dup {
			return fmt.Errorf("items.json: duplicate item %q", d.Name)
		}
		if !oneOf(d.Rarity, Rarities...) {
			return fmt.Errorf("items.json: item %q: unknown rarity %q", d.Name, d.Rarity)
		}
		if d.MaxCount == 0 {
			return fmt.Errorf("items.json: item %q: max_count must be positive", d.Name)
		}
		if w := d.Weapon; w != nil {
			if !oneOf(w.DamageType, DamageTypes...) {
				return fmt.Errorf("items.json: item %q: unknown damage_type %q", d.Name, w.DamageType)
			}
			if w.Speed <= 0 || w.LifetimeSec <= 0 {
				return fmt.Errorf("items.json: item %q: weapon needs positive speed and lifetime_sec", d.Name)
			}
			if w.UsesAmmo() && w.ClipSize == 0 {
				return fmt.Errorf("items.json: item %q: ammo weapon needs clip_size", d.Name)
			}
		}
		out.Defs[d.Name] = d
	}
	return nil
}
