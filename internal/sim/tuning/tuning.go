package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz         int `yaml:"tick_rate_hz"`
	PositionHz         int `yaml:"position_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	AutosaveSec        int `yaml:"autosave_sec"`

	Regen   Regen   `yaml:"regen"`
	PvP     PvP     `yaml:"pvp"`
	Chat    Chat    `yaml:"chat"`
	Items   Items   `yaml:"items"`
	Respawn Respawn `yaml:"respawn"`
}

type Regen struct {
	ManaPerTick       int     `yaml:"mana_per_tick"`
	ManaIntervalSec   float64 `yaml:"mana_interval_sec"`
	HealthPerTick     int     `yaml:"health_per_tick"`
	HealthIntervalSec float64 `yaml:"health_interval_sec"`
	HealthDelaySec    float64 `yaml:"health_delay_sec"`
}

type PvP struct {
	CountdownSec int `yaml:"countdown_sec"`
}

type Chat struct {
	FloodMax      int     `yaml:"flood_max"`
	FloodDecaySec float64 `yaml:"flood_decay_sec"`
	MaxLen        int     `yaml:"max_len"`
}

type Items struct {
	SyncIntervalSec float64 `yaml:"sync_interval_sec"`
	PickupRadius    float64 `yaml:"pickup_radius"`
	UseRadius       float64 `yaml:"use_radius"`
}

type Respawn struct {
	Health int `yaml:"health"`
	Mana   int `yaml:"mana"`
}

// Default is the tuning the server runs with when no file is given.
func Default() Tuning {
	return Tuning{
		TickRateHz:         10,
		PositionHz:         10,
		SnapshotEveryTicks: 3000,
		AutosaveSec:        60,
		Regen: Regen{
			ManaPerTick:       1,
			ManaIntervalSec:   0.5,
			HealthPerTick:     2,
			HealthIntervalSec: 1,
			HealthDelaySec:    5,
		},
		PvP:  PvP{CountdownSec: 10},
		Chat: Chat{FloodMax: 5, FloodDecaySec: 3, MaxLen: 255},
		Items: Items{
			SyncIntervalSec: 0.25,
			PickupRadius:    250,
			UseRadius:       350,
		},
		Respawn: Respawn{Health: 100, Mana: 100},
	}
}

// Load reads a tuning file over the defaults, so a partial file only
// overrides what it names.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
