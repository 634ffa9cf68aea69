// Package catalogs loads the immutable content packs: items, quests, NPCs,
// creatures, AI zones, regions and circuits. Every cross-reference between
// packs is checked at load; a dangling name is a content-authoring error
// and fails Load outright rather than surfacing mid-session.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Catalogs struct {
	Items     ItemCatalog
	Quests    QuestCatalog
	NPCs      NPCCatalog
	Creatures CreatureCatalog
	Zones     ZoneCatalog
	Regions   RegionCatalog
	Circuits  CircuitCatalog
}

// ItemCount pairs an item name with a count; used by rewards, loot and
// dialogue grants.
type ItemCount struct {
	Item  string `json:"item"`
	Count uint32 `json:"count"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadQuests(filepath.Join(configDir, "quests.json"), &c.Quests); err != nil {
		return nil, err
	}
	if err := loadNPCs(filepath.Join(configDir, "npcs.json"), &c.NPCs, &c.Creatures); err != nil {
		return nil, err
	}
	if err := loadZones(filepath.Join(configDir, "zones.json"), &c.Zones); err != nil {
		return nil, err
	}
	if err := loadRegions(filepath.Join(configDir, "regions.json"), &c.Regions); err != nil {
		return nil, err
	}
	if err := loadCircuits(filepath.Join(configDir, "circuits.json"), &c.Circuits); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Digest combines the per-pack digests into one value clients can compare
// against in the welcome record.
func (c *Catalogs) Digest() string {
	var b strings.Builder
	b.WriteString(c.Items.Digest)
	b.WriteString(c.Quests.Digest)
	b.WriteString(c.NPCs.Digest)
	b.WriteString(c.Zones.Digest)
	b.WriteString(c.Regions.Digest)
	b.WriteString(c.Circuits.Digest)
	return sha256Hex([]byte(b.String()))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func readJSON(path string, v any) (digest string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sha256Hex(raw), nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
