package world

import "errors"

// Content errors: the operation referenced something the content packs or
// the player's own state never declared. The operation no-ops.
var (
	ErrUnknownItem   = errors.New("unknown item")
	ErrUnknownQuest  = errors.New("unknown quest")
	ErrNoSuchState   = errors.New("no such dialogue state")
	ErrNoSuchLabel   = errors.New("no such transition")
	ErrNotInConvo    = errors.New("not in a conversation")
	ErrNotHeld       = errors.New("item not held")
	ErrNoSuchActor   = errors.New("no such actor")
	ErrNoSuchRegion  = errors.New("no such region")
	ErrNoSuchPost    = errors.New("no such travel post")
	ErrNoSuchCircuit = errors.New("no such circuit")
	ErrBadKey        = errors.New("invalid key")
)

// Capacity errors: the mutation would overflow a declared bound. The
// operation no-ops; nothing is partially applied.
var (
	ErrInventoryFull = errors.New("inventory full")
	ErrClipFull      = errors.New("clip full")
	ErrSpawnerFull   = errors.New("spawner at cap")
	ErrNoFunds       = errors.New("not enough trade value")
)

// State errors: the operation is well-formed but the world is not in a
// state that permits it right now.
var (
	ErrDead           = errors.New("actor is dead")
	ErrNotDead        = errors.New("actor is not dead")
	ErrOnCooldown     = errors.New("item on cooldown")
	ErrNoAmmo         = errors.New("no ammo")
	ErrNoMana         = errors.New("not enough mana")
	ErrQuestRegressed = errors.New("quest progress cannot regress")
	ErrChangingRegion = errors.New("player is changing region")
	ErrTooFar         = errors.New("target out of range")
	ErrFlooded        = errors.New("chat flood")
)

// ErrNotAuthority marks a mutation reserved for the authoritative world.
// A ClientWorld redirects these to "send request" instead.
var ErrNotAuthority = errors.New("not the authority")
