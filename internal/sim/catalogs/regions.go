package catalogs

import "fmt"

type RegionCatalog struct {
	Defs      map[string]RegionDef
	Posts     map[string]TravelPost
	Teleports map[string]TravelPost
	Digest    string
}

// RegionDef is one hosted region: a world of its own with a default spawn.
type RegionDef struct {
	Name     string     `json:"name"`
	Spawn    [3]float64 `json:"spawn"`
	SpawnYaw float64    `json:"spawn_yaw,omitempty"`
}

// TravelPost is a named location: fast-travel posts are reachable from one
// another, teleports are direct targets for content and admins.
type TravelPost struct {
	Name   string     `json:"name"`
	Region string     `json:"region"`
	Pos    [3]float64 `json:"pos"`
	Yaw    float64    `json:"yaw,omitempty"`
}

type regionsFile struct {
	Regions   []RegionDef  `json:"regions"`
	Posts     []TravelPost `json:"posts"`
	Teleports []TravelPost `json:"teleports"`
}

func loadRegions(path string, out *RegionCatalog) error {
	var file regionsFile
	digest, err := readJSON(path, &file)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.Defs = make(map[string]RegionDef, len(file.Regions))
	out.Posts = make(map[string]TravelPost, len(file.Posts))
	out.Teleports = make(map[string]TravelPost, len(file.Teleports))

	for _, r := range file.Regions {
		if r.Name == "" {
			return fmt.Errorf("regions.json: empty region name")
		}
		if _, dup := out.Defs[r.Name]; dup {
			return fmt.Errorf("regions.json: duplicate region %q", r.Name)
		}
		out.Defs[r.Name] = r
	}
	if len(out.Defs) == 0 {
		return fmt.Errorf("regions.json: at least one region required")
	}

	for _, p := range file.Posts {
		if p.Name == "" {
			return fmt.Errorf("regions.json: post with empty name")
		}
		if _, dup := out.Posts[p.Name]; dup {
			return fmt.Errorf("regions.json: duplicate post %q", p.Name)
		}
		out.Posts[p.Name] = p
	}
	for _, tp := range file.Teleports {
		if tp.Name == "" {
			return fmt.Errorf("regions.json: teleport with empty name")
		}
		if _, dup := out.Teleports[tp.Name]; dup {
			return fmt.Errorf("regions.json: duplicate teleport %q", tp.Name)
		}
		out.Teleports[tp.Name] = tp
	}
	return nil
}
