package world

import (
	"fmt"

	"islebound.gg/internal/protocol"
)

const timerReload = "reload"

// AddItem adds count of item, bounded by the item's declared maximum.
// allowPartial selects the overflow policy: false makes overflow a
// capacity error with no change, true clamps and reports how many fit.
// The asymmetry with the always-strict RemoveItem is intentional gameplay
// policy (partial pickups allowed, partial consumption not).
func (p *Player) AddItem(w *World, item string, count uint32, allowPartial bool) (added uint32, emits []Emit, err error) {
	def, ok := w.content.Items.Defs[item]
	if !ok {
		return 0, nil, fmt.Errorf("add item: %w: %q", ErrUnknownItem, item)
	}
	if count == 0 {
		return 0, nil, nil
	}
	held := p.Count(item)
	room := def.MaxCount - held
	if count > room {
		if !allowPartial {
			return 0, nil, fmt.Errorf("add item %q: %w", item, ErrInventoryFull)
		}
		count = room
	}
	if count == 0 {
		return 0, nil, nil
	}
	return count, p.PerformAddItem(w, item, count), nil
}

// PerformAddItem credits an already-validated count and reports it
// privately; quest collect hooks ride along.
func (p *Player) PerformAddItem(w *World, item string, count uint32) []Emit {
	st := p.Inventory[item]
	if st == nil {
		st = &ItemStack{}
		p.Inventory[item] = st
	}
	st.Count += count
	emits := []Emit{toOne(p.Self, &protocol.AddItem{Item: item, Count: count})}
	return append(emits, w.questCollectHook(p, item)...)
}

// RemoveItem debits exactly count or nothing: asking for more than held is
// a content error and leaves the stack untouched.
func (p *Player) RemoveItem(w *World, item string, count uint32) ([]Emit, error) {
	if count == 0 {
		return nil, nil
	}
	st := p.Inventory[item]
	if st == nil || st.Count < count {
		return nil, fmt.Errorf("remove item %q: %w", item, ErrNotHeld)
	}
	return p.PerformRemoveItem(w, item, count), nil
}

func (p *Player) PerformRemoveItem(w *World, item string, count uint32) []Emit {
	st := p.Inventory[item]
	if st == nil {
		return nil
	}
	if count > st.Count {
		count = st.Count
	}
	st.Count -= count
	var emits []Emit
	if st.Count == 0 {
		// An equipped item must be held with count > 0; loaded rounds keep
		// the stack alive for UnloadClip but never keep it equipped.
		emits = p.unequipEverywhere(item)
		if st.Loaded == 0 {
			delete(p.Inventory, item)
		}
	}
	return append(emits, toOne(p.Self, &protocol.RemoveItem{Item: item, Count: count}))
}

// Count is the reserve count held; loaded rounds are counted separately.
func (p *Player) Count(item string) uint32 {
	if st := p.Inventory[item]; st != nil {
		return st.Count
	}
	return 0
}

func (p *Player) Loaded(item string) uint32 {
	if st := p.Inventory[item]; st != nil {
		return st.Loaded
	}
	return 0
}

// Equip places a held item into a slot; the invariant that an equipped
// item is also in inventory with count > 0 is enforced here and on
// removal. Equipping the empty name clears the slot.
func (p *Player) Equip(w *World, slot uint8, item string) ([]Emit, error) {
	if slot >= EquipSlots {
		return nil, fmt.Errorf("equip: bad slot %d", slot)
	}
	if item != "" {
		if _, ok := w.content.Items.Defs[item]; !ok {
			return nil, fmt.Errorf("equip: %w: %q", ErrUnknownItem, item)
		}
		if p.Count(item) == 0 {
			return nil, fmt.Errorf("equip %q: %w", item, ErrNotHeld)
		}
	}
	return p.PerformEquip(slot, item), nil
}

func (p *Player) PerformEquip(slot uint8, item string) []Emit {
	p.Equipped[slot] = item
	return []Emit{toOne(p.Self, &protocol.Equip{Slot: slot, Item: item})}
}

func (p *Player) unequipEverywhere(item string) []Emit {
	var emits []Emit
	for slot, eq := range p.Equipped {
		if eq == item {
			emits = append(emits, p.PerformEquip(uint8(slot), "")...)
		}
	}
	return emits
}

// HeldItem is the item in the currently selected slot.
func (p *Player) HeldItem() string { return p.Equipped[p.Slot] }

// SetSlot switches the selected equipment slot and shows the held item to
// everyone else.
func (p *Player) SetSlot(w *World, slot uint8) ([]Emit, error) {
	if slot >= EquipSlots {
		return nil, fmt.Errorf("slot: bad slot %d", slot)
	}
	p.Slot = slot
	return []Emit{
		toOne(p.Self, &protocol.CurrentSlot{Slot: slot}),
		toAllBut(p.Self, &protocol.PlayerItem{Actor: p.ID(), Item: p.HeldItem()}),
	}, nil
}

// StartReload begins moving reserve rounds into the held weapon's clip.
// The transfer lands when the reload timer fires, so a death or weapon
// switch mid-reload loses nothing.
func (p *Player) StartReload(w *World) ([]Emit, error) {
	item := p.HeldItem()
	def, ok := w.content.Items.Defs[item]
	if !ok || def.Weapon == nil {
		return nil, fmt.Errorf("reload: %w: %q", ErrUnknownItem, item)
	}
	wd := def.Weapon
	if !wd.UsesAmmo() {
		return nil, fmt.Errorf("reload %q: %w", item, ErrNoAmmo)
	}
	st := p.Inventory[item]
	if st == nil {
		return nil, fmt.Errorf("reload %q: %w", item, ErrNotHeld)
	}
	if st.Loaded >= wd.ClipSize {
		return nil, fmt.Errorf("reload %q: %w", item, ErrClipFull)
	}
	if p.Count(wd.AmmoItem) == 0 {
		return nil, fmt.Errorf("reload %q: %w", item, ErrNoAmmo)
	}
	if p.Timers.Active(timerReload) {
		return nil, nil
	}
	sec := wd.ReloadSec
	if sec <= 0 {
		sec = 1
	}
	p.Timers.Set(timerReload, actionFinishReload, p.Self, sec)
	return nil, nil
}

// PerformReload moves rounds from reserve to clip, bounded by clip size
// and reserve; loaded never exceeds clip capacity.
func (p *Player) PerformReload(w *World) []Emit {
	item := p.HeldItem()
	def, ok := w.content.Items.Defs[item]
	if !ok || def.Weapon == nil || !def.Weapon.UsesAmmo() {
		return nil
	}
	wd := def.Weapon
	st := p.Inventory[item]
	ammo := p.Inventory[wd.AmmoItem]
	if st == nil || ammo == nil {
		return nil
	}
	move := wd.ClipSize - st.Loaded
	if move > ammo.Count {
		move = ammo.Count
	}
	if move == 0 {
		return nil
	}
	st.Loaded += move
	ammo.Count -= move
	emits := []Emit{
		toOne(p.Self, &protocol.Reload{Weapon: item, Ammo: wd.AmmoItem, Loaded: st.Loaded}),
		toOne(p.Self, &protocol.RemoveItem{Item: wd.AmmoItem, Count: move}),
	}
	if ammo.Count == 0 && ammo.Loaded == 0 {
		delete(p.Inventory, wd.AmmoItem)
	}
	return emits
}

// UnloadClip returns loaded rounds to reserve, used when stowing a weapon
// at a shop.
func (p *Player) UnloadClip(w *World, item string) []Emit {
	def, ok := w.content.Items.Defs[item]
	if !ok || def.Weapon == nil || !def.Weapon.UsesAmmo() {
		return nil
	}
	st := p.Inventory[item]
	if st == nil || st.Loaded == 0 {
		return nil
	}
	moved, emits, err := p.AddItem(w, def.Weapon.AmmoItem, st.Loaded, true)
	if err != nil {
		return nil
	}
	st.Loaded -= moved
	p.dirtyAmmo[item] = true
	return emits
}

// OnCooldown reports whether the item's use cooldown is still running.
func (p *Player) OnCooldown(item string) bool {
	return p.cooldowns[item] > 0
}

func (p *Player) startCooldown(item string, seconds float64) {
	if seconds > 0 {
		p.cooldowns[item] = seconds
	}
}

// tickCooldowns advances the per-item countdowns; they run on wall clock
// regardless of what happens to the inventory.
func (p *Player) tickCooldowns(dt float64) {
	for item, left := range p.cooldowns {
		left -= dt
		if left <= 0 {
			delete(p.cooldowns, item)
		} else {
			p.cooldowns[item] = left
		}
	}
}

// flushAmmoSync drains the dirty loaded-ammo set as la records. Firing
// dirties the set every shot; this batches the sync instead of spamming
// one record per round.
func (p *Player) flushAmmoSync() []Emit {
	if len(p.dirtyAmmo) == 0 {
		return nil
	}
	var emits []Emit
	for item := range p.dirtyAmmo {
		emits = append(emits, toOne(p.Self, &protocol.LoadedAmmo{Item: item, Loaded: p.Loaded(item)}))
		delete(p.dirtyAmmo, item)
	}
	return emits
}

const actionFinishReload = "player.reload"

func init() {
	registerTimerAction(actionFinishReload, func(w *World, target Handle, key string) {
		if p, ok := w.ar.resolve(target).(*Player); ok {
			w.dispatch(p.PerformReload(w))
		}
	})
}
