package world

import (
	"go.uber.org/zap"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/geom"
)

// CurrencyItem is the item name trading debits and credits. Content must
// define it with a max_count large enough to never clamp in practice.
const CurrencyItem = "Coins"

// playerMoveSpeed is the nominal full-throttle speed used to derive the
// replicated velocity from client movement intent. Movement itself is
// client-reported; this only shapes interpolation on other clients.
const playerMoveSpeed = 600.0

// handleCommand applies one queued client record. Reports whether the
// command was accepted for the tick log; rejected commands are logged at
// debug and otherwise vanish, the client is only told when there is a
// user-facing reason (shop, inventory).
func (w *World) handleCommand(c Command) bool {
	p := w.playerByID(c.Player)
	if p == nil || !p.Spawned {
		return false
	}

	switch ev := c.Ev.(type) {
	case *protocol.Move:
		return w.handleMove(p, ev)
	case *protocol.Jump:
		if ev.Jumping && p.Alive() {
			w.dispatch(p.PerformTriggerEvent("jump", p.Self))
		}
		return true
	case *protocol.Sprint:
		w.dispatch(p.PerformUpdateState("sprinting", ev.Running))
		return true
	case *protocol.SelectSlot:
		return w.reject(p, "slot", w.dispatchErr(p.SetSlot(w, ev.Slot)))
	case *protocol.FireRequest:
		return w.reject(p, "fire", w.handleFire(p, ev))
	case *protocol.ChatSay:
		w.handleChat(p, ev.Text)
		return true
	case *protocol.Use:
		return w.reject(p, "use", w.handleUse(p, ev.Actor))
	case *protocol.ReloadRequest:
		return w.reject(p, "reload", w.dispatchErr(p.StartReload(w)))
	case *protocol.Activate:
		return w.reject(p, "activate", w.handleActivate(p, ev.Item))
	case *protocol.Transition:
		return w.reject(p, "transition", w.handleTransition(p, ev.Label))
	case *protocol.Buy:
		return w.reject(p, "buy", w.handleBuy(p, ev.Item, ev.Count))
	case *protocol.Sell:
		return w.reject(p, "sell", w.handleSell(p, ev.Item, ev.Count))
	case *protocol.PvPDesire:
		w.handlePvPDesire(p, ev.Desired)
		return true
	case *protocol.SelectQuest:
		return w.reject(p, "quest", w.dispatchErr(w.SelectQuest(p, ev.Quest)))
	case *protocol.RespawnRequest:
		if p.Alive() {
			return false
		}
		w.dispatch(p.PerformRespawn(w))
		w.updateZoneMembership(p)
		return true
	case *protocol.FastTravel:
		return w.reject(p, "travel", w.handleFastTravel(p, ev.Origin, ev.Dest))
	case *protocol.CircuitInputs:
		return w.reject(p, "circuit", w.handleCircuitInputs(p, ev.Circuit, ev.Inputs))
	case *protocol.SubmitDLCKey:
		return w.reject(p, "dlc", w.handleDLCKey(p, ev.Key))
	case *protocol.RegionReady:
		// Region routing happens above the world; a stray ready record
		// inside a world is harmless.
		return false
	}
	return false
}

// dispatchErr collapses the (emits, error) handler shape: emits go out,
// the error comes back.
func (w *World) dispatchErr(emits []Emit, err error) error {
	if err != nil {
		return err
	}
	w.dispatch(emits)
	return nil
}

func (w *World) reject(p *Player, op string, err error) bool {
	if err == nil {
		return true
	}
	w.log.Debug("command rejected",
		zap.String("player", p.Name), zap.String("op", op), zap.Error(err))
	return false
}

// handleMove accepts the client-reported position. The server does not
// simulate player physics; it gates on liveness and the travel window and
// derives the replicated velocity from the reported intent.
func (w *World) handleMove(p *Player, ev *protocol.Move) bool {
	if !p.Alive() || p.ChangingRegion {
		return false
	}
	if !p.SetPosition(ev.Pos, ev.Rot) {
		return false
	}
	p.Forward = ev.Forward
	p.Strafe = ev.Strafe
	p.Vel = ev.Rot.Forward().Scale(ev.Forward * playerMoveSpeed)
	w.updateZoneMembership(p)
	return true
}

// handleFire adjudicates one shot of the held weapon: equipment, vitals,
// ammo, mana and cooldown all gate before any projectile exists.
func (w *World) handleFire(p *Player, ev *protocol.FireRequest) error {
	if !p.Alive() {
		return ErrDead
	}
	if p.ChangingRegion {
		return ErrChangingRegion
	}
	if ev.Item != p.HeldItem() {
		return ErrNotHeld
	}
	def, ok := w.content.Items.Defs[ev.Item]
	if !ok || def.Weapon == nil {
		return ErrUnknownItem
	}
	wd := def.Weapon
	if p.OnCooldown(ev.Item) {
		return ErrOnCooldown
	}
	if wd.UsesAmmo() {
		st := p.Inventory[ev.Item]
		if st == nil || st.Loaded == 0 {
			return ErrNoAmmo
		}
	}
	manaEmits, err := p.SpendMana(def.ManaCost)
	if err != nil {
		return err
	}
	w.dispatch(manaEmits)

	if wd.UsesAmmo() {
		p.Inventory[ev.Item].Loaded--
		p.dirtyAmmo[ev.Item] = true
	}
	p.startCooldown(ev.Item, wd.CooldownSec)

	dir := ev.Dir.Normalized()
	if dir == (geom.Vector3{}) {
		dir = p.Rot.Forward()
	}
	for i := 0; i < wd.ShotCount(); i++ {
		if _, err := w.SpawnProjectile(p, ev.Item, p.Pos, w.spreadDir(dir, wd.Spread)); err != nil {
			return err
		}
	}
	w.emit(toAllBut(p.Self, &protocol.FireBullets{Actor: p.ID(), Item: ev.Item, Dir: dir}))
	return nil
}

// spreadDir jitters a unit direction by up to spread degrees of yaw and
// pitch. Every pellet of a multi-projectile shot rolls independently.
func (w *World) spreadDir(dir geom.Vector3, spread float64) geom.Vector3 {
	if spread <= 0 {
		return dir
	}
	r := geom.Rotation{
		Yaw:   yawOf(dir) + float32((w.rng.Float64()*2-1)*spread),
		Pitch: float32((w.rng.Float64()*2 - 1) * spread),
	}
	return r.Normalized().Forward()
}

// handleChat sanitizes, flood-limits, attributes and fans out one line.
// Flooded lines are dropped with a private notice rather than an error;
// chat is not a command that can "fail".
func (w *World) handleChat(p *Player, raw string) {
	if p.chatCount >= w.tun.Chat.FloodMax {
		w.emit(toOne(p.Self, &protocol.Display{Title: "Chat", Body: "You are sending messages too quickly."}))
		return
	}
	text := sanitizeChat(raw, w.tun.Chat.MaxLen)
	if text == "" {
		return
	}
	p.chatCount++
	w.emit(toAll(&protocol.Chat{Line: p.Name + ": " + text}))
	w.audit(AuditEntry{Tick: w.tick, Type: "chat", Player: p.Name, Detail: text})
}

// handleUse routes the use record to whatever Usable stands close enough.
func (w *World) handleUse(p *Player, actorID uint32) error {
	if !p.Alive() {
		return ErrDead
	}
	e := w.ar.byID(actorID)
	if e == nil || !e.Base().Spawned {
		return ErrNoSuchActor
	}
	u, ok := e.(Usable)
	if !ok {
		return ErrNoSuchActor
	}
	if p.Pos.Distance(e.Base().Pos) > float32(w.tun.Items.UseRadius) {
		return ErrTooFar
	}
	w.dispatch(u.OnUsed(w, p))
	return nil
}

// handleActivate consumes one unit of a consumable item.
func (w *World) handleActivate(p *Player, item string) error {
	if !p.Alive() {
		return ErrDead
	}
	def, ok := w.content.Items.Defs[item]
	if !ok || def.Consumable == nil {
		return ErrUnknownItem
	}
	if p.Count(item) == 0 {
		return ErrNotHeld
	}
	if p.OnCooldown(item) {
		return ErrOnCooldown
	}
	emits, err := p.RemoveItem(w, item, 1)
	if err != nil {
		return err
	}
	cd := def.Consumable
	if cd.Heal > 0 {
		p.Health += cd.Heal
		if p.Health > p.MaxHealth {
			p.Health = p.MaxHealth
		}
		emits = append(emits, toAll(&protocol.HealthUpdate{Actor: p.ID(), Health: clampHealth16(p.Health)}))
	}
	if cd.Mana > 0 {
		emits = append(emits, p.PerformSetMana(p.Mana+cd.Mana)...)
	}
	p.startCooldown(item, cd.CooldownSec)
	w.dispatch(emits)
	return nil
}

// handleTransition advances the player's open conversation by label.
func (w *World) handleTransition(p *Player, label string) error {
	n, ok := w.ar.resolve(p.ConvNPC).(*NPC)
	if !ok {
		return ErrNotInConvo
	}
	return w.dispatchErr(n.Transition(w, p, label))
}

// nearbyShop finds a shop NPC in use range. Buy and sell both require
// standing at the counter; the shop record the client saw does not grant
// remote trading.
func (w *World) nearbyShop(p *Player) *NPC {
	var best *NPC
	var bestD float32
	for _, e := range w.actors {
		n, ok := e.(*NPC)
		if !ok || !n.HasShop() || !n.Spawned {
			continue
		}
		d := p.Pos.Distance(n.Pos)
		if d > float32(w.tun.Items.UseRadius) {
			continue
		}
		if best == nil || d < bestD {
			best, bestD = n, d
		}
	}
	return best
}

// handleBuy purchases count of item from the nearby shop. Capacity is
// checked before funds so a failed buy never half-mutates: either both
// the debit and the credit happen or neither does.
func (w *World) handleBuy(p *Player, item string, count uint32) error {
	if count == 0 {
		return nil
	}
	n := w.nearbyShop(p)
	if n == nil {
		return ErrTooFar
	}
	if !n.Sells(item) {
		return ErrUnknownItem
	}
	def, ok := w.content.Items.Defs[item]
	if !ok {
		return ErrUnknownItem
	}
	if p.Count(item)+count > def.MaxCount {
		w.emit(toOne(p.Self, &protocol.Display{Title: n.Def.DisplayName, Body: "You can't carry that many."}))
		return ErrInventoryFull
	}
	cost := n.BuyPrice(def) * count
	if p.Count(CurrencyItem) < cost {
		w.emit(toOne(p.Self, &protocol.Display{Title: n.Def.DisplayName, Body: "You can't afford that."}))
		return ErrNoFunds
	}
	emits, err := p.RemoveItem(w, CurrencyItem, cost)
	if err != nil {
		return err
	}
	_, buy, err := p.AddItem(w, item, count, false)
	if err != nil {
		return err
	}
	w.dispatch(append(emits, buy...))
	w.audit(AuditEntry{Tick: w.tick, Type: "buy", Player: p.Name, Detail: item})
	return nil
}

// handleSell trades count of a held item for its sell price. Loaded
// rounds are returned to reserve first so selling a weapon never eats
// its clip.
func (w *World) handleSell(p *Player, item string, count uint32) error {
	if count == 0 {
		return nil
	}
	n := w.nearbyShop(p)
	if n == nil {
		return ErrTooFar
	}
	def, ok := w.content.Items.Defs[item]
	if !ok {
		return ErrUnknownItem
	}
	if item == CurrencyItem {
		return ErrUnknownItem
	}
	if p.Count(item) < count {
		return ErrNotHeld
	}
	emits := p.UnloadClip(w, item)
	sold, err := p.RemoveItem(w, item, count)
	if err != nil {
		return err
	}
	emits = append(emits, sold...)
	price := n.SellPrice(def) * count
	if price > 0 {
		_, paid, err := p.AddItem(w, CurrencyItem, price, true)
		if err == nil {
			emits = append(emits, paid...)
		}
	}
	w.dispatch(emits)
	w.audit(AuditEntry{Tick: w.tick, Type: "sell", Player: p.Name, Detail: item})
	return nil
}

// handleFastTravel moves the player between posts. Same-region travel is
// an immediate teleport; cross-region travel opens the changing-region
// window, persists the character at the destination and directs the
// client to load the region. The region router completes the move when
// the client reports ready.
func (w *World) handleFastTravel(p *Player, origin, dest string) error {
	if !p.Alive() {
		return ErrDead
	}
	if p.ChangingRegion {
		return ErrChangingRegion
	}
	from, ok := w.content.Regions.Posts[origin]
	if !ok {
		return ErrNoSuchPost
	}
	to, ok := w.content.Regions.Posts[dest]
	if !ok {
		return ErrNoSuchPost
	}
	if from.Region != w.region {
		return ErrNoSuchPost
	}
	if p.Pos.Distance(vec3Of(from.Pos)) > float32(w.tun.Items.UseRadius) {
		return ErrTooFar
	}

	if to.Region == w.region {
		w.dispatch(p.PerformTeleport(vec3Of(to.Pos), rotYaw(to.Yaw)))
		w.updateZoneMembership(p)
		return nil
	}

	p.ChangingRegion = true
	p.TravelTo = to.Region
	p.travelPos = vec3Of(to.Pos)
	p.travelRot = rotYaw(to.Yaw)
	if w.save != nil {
		w.save(w.characterOf(p))
	}
	w.emit(toOne(p.Self, &protocol.RegionChange{Region: to.Region}))
	w.audit(AuditEntry{Tick: w.tick, Type: "travel", Player: p.Name, Detail: origin + ">" + dest})
	return nil
}

// handleCircuitInputs evaluates a content circuit against the submitted
// input lines and reports the outputs. Driving every output high solves
// the circuit; the solved effect fires once per player, recorded as a
// pickup flag.
func (w *World) handleCircuitInputs(p *Player, name string, inputs uint32) error {
	def, ok := w.content.Circuits.Defs[name]
	if !ok {
		return ErrNoSuchCircuit
	}
	outputs := def.Eval(inputs)
	emits := []Emit{toOne(p.Self, &protocol.CircuitOutput{Circuit: name, Inputs: inputs, Outputs: outputs})}
	if def.SolvedBy(inputs) && def.Solved != nil {
		flag := "circuit:" + name
		if !p.Pickups[flag] {
			emits = append(emits, p.PerformPickup(flag)...)
			emits = append(emits, w.applyStateEffect(p, def.Solved)...)
			w.audit(AuditEntry{Tick: w.tick, Type: "circuit_solved", Player: p.Name, Detail: name})
		}
	}
	w.dispatch(emits)
	return nil
}

// handleDLCKey redeems a content key for its granted items, once per
// player per key.
func (w *World) handleDLCKey(p *Player, key string) error {
	grant, ok := w.dlcKeys[key]
	if !ok {
		w.emit(toOne(p.Self, &protocol.Display{Title: "Key", Body: "That key is not valid."}))
		return ErrBadKey
	}
	flag := "dlc:" + key
	if p.Pickups[flag] {
		w.emit(toOne(p.Self, &protocol.Display{Title: "Key", Body: "That key was already redeemed."}))
		return nil
	}
	emits := p.PerformPickup(flag)
	_, granted, err := p.AddItem(w, grant.Item, grant.Count, true)
	if err != nil {
		return err
	}
	w.dispatch(append(emits, granted...))
	w.audit(AuditEntry{Tick: w.tick, Type: "dlc_key", Player: p.Name, Detail: grant.Item})
	return nil
}
