package catalogs

import "fmt"

type ZoneCatalog struct {
	Defs   map[string]ZoneDef
	Digest string
}

// ZoneDef is an axis-aligned AI zone. Spawners attached to it only run
// while a player is inside the box.
type ZoneDef struct {
	Name   string     `json:"name"`
	Region string     `json:"region"`
	Min    [3]float64 `json:"min"`
	Max    [3]float64 `json:"max"`
	Spawns []SpawnDef `json:"spawns,omitempty"`
}

type SpawnDef struct {
	Blueprint   string     `json:"blueprint"`
	Cap         int        `json:"cap"`
	IntervalSec float64    `json:"interval_sec"`
	Pos         [3]float64 `json:"pos"`
	Yaw         float64    `json:"yaw,omitempty"`
}

// Contains reports whether a point is inside the zone box.
func (z *ZoneDef) Contains(x, y, zc float64) bool {
	return x >= z.Min[0] && x <= z.Max[0] &&
		y >= z.Min[1] && y <= z.Max[1] &&
		zc >= z.Min[2] && zc <= z.Max[2]
}

func loadZones(path string, out *ZoneCatalog) error {
	var defs []ZoneDef
	digest, err := readJSON(path, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.Defs = make(map[string]ZoneDef, len(defs))

	for _, z := range defs {
		if z.Name == "" {
			return fmt.Errorf("zones.json: empty zone name")
		}
		if _, dup := out.Defs[z.Name]; dup {
			return fmt.Errorf("zones.json: duplicate zone %q", z.Name)
		}
		for i := 0; i < 3; i++ {
			if z.Min[i] > z.Max[i] {
				return fmt.Errorf("zones.json: zone %q: min exceeds max on axis %d", z.Name, i)
			}
		}
		for _, s := range z.Spawns {
			if s.Blueprint == "" {
				return fmt.Errorf("zones.json: zone %q: spawn with empty blueprint", z.Name)
			}
			if s.Cap <= 0 {
				return fmt.Errorf("zones.json: zone %q: spawn %q needs a positive cap", z.Name, s.Blueprint)
			}
			if s.IntervalSec <= 0 {
				return fmt.Errorf("zones.json: zone %q: spawn %q needs a positive interval", z.Name, s.Blueprint)
			}
		}
		out.Defs[z.Name] = z
	}
	return nil
}
