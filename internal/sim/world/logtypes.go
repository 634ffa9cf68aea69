package world

// TickLogEntry is one line of the replayable tick log: everything that
// entered the world this tick plus the resulting state digest. Re-stepping
// a snapshot through these lines must reproduce the digests exactly.
type TickLogEntry struct {
	Tick   uint64           `json:"tick"`
	Region string           `json:"region"`
	Joins  []CharacterState `json:"joins,omitempty"`
	Leaves []uint32         `json:"leaves,omitempty"`

	Commands []CommandLogEntry `json:"commands,omitempty"`

	Actors  int    `json:"actors"`
	Players int    `json:"players"`
	Digest  uint64 `json:"digest"`
}

// CommandLogEntry records one applied command: the player, the record tag
// and the encoded record itself, so replay can re-step the exact inputs.
type CommandLogEntry struct {
	Player uint32 `json:"player"`
	Tag    string `json:"tag"`
	Data   []byte `json:"data,omitempty"`
}

// AuditEntry is one line of the human-facing audit stream: chat lines,
// trades, kills, quest completions, admin actions.
type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Type   string `json:"type"`
	Player string `json:"player,omitempty"`
	Detail string `json:"detail,omitempty"`
}
