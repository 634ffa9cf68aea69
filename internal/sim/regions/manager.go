// Package regions hosts one world goroutine per region and routes
// players between them. A connection talks to exactly one world at a
// time; fast travel re-binds it through the character store.
package regions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/geom"
	"islebound.gg/internal/sim/world"
)

var (
	ErrWorldBusy    = errors.New("region world not responding")
	ErrNoSuchRegion = errors.New("no such region")
)

// CharSource is the persistence boundary the router needs: load on join,
// save rides each world's SaveFunc. Saves may be queued; Flush blocks
// until every save issued before it is visible to Load.
type CharSource interface {
	Load(name string) (world.CharacterState, bool, error)
	Flush()
}

const (
	joinTimeout  = 3 * time.Second
	adminTimeout = 3 * time.Second
)

type Manager struct {
	log           *zap.Logger
	worlds        map[string]*world.World
	chars         CharSource
	defaultRegion string
}

func NewManager(worlds map[string]*world.World, defaultRegion string, chars CharSource, log *zap.Logger) (*Manager, error) {
	if len(worlds) == 0 {
		return nil, fmt.Errorf("regions: no worlds")
	}
	if _, ok := worlds[defaultRegion]; !ok {
		return nil, fmt.Errorf("regions: default region %q has no world", defaultRegion)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:           log,
		worlds:        worlds,
		chars:         chars,
		defaultRegion: defaultRegion,
	}, nil
}

// Run drives every region world until ctx ends; the first world error
// stops them all.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range m.worlds {
		w := w
		g.Go(func() error { return w.Run(ctx) })
	}
	return g.Wait()
}

func (m *Manager) World(region string) *world.World { return m.worlds[region] }

func (m *Manager) Regions() []string {
	out := make([]string, 0, len(m.worlds))
	for r := range m.worlds {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Join loads the character and attaches it to its region's world. New
// names start fresh in the default region. Used both for the initial
// handshake and for the re-bind after a cross-region travel, where the
// origin world has already persisted the character at its destination.
func (m *Manager) Join(name string, send chan<- []byte) (string, uint32, error) {
	char := world.CharacterState{Name: name, Region: m.defaultRegion}
	if m.chars != nil {
		// The travel save is queued by the origin world's tick; a fast
		// client's re-bind must not outrun it.
		m.chars.Flush()
		loaded, ok, err := m.chars.Load(name)
		if err != nil {
			return "", 0, fmt.Errorf("load %q: %w", name, err)
		}
		if ok {
			char = loaded
		}
	}
	w := m.worlds[char.Region]
	if w == nil {
		m.log.Warn("character in unknown region, rehoming",
			zap.String("player", name), zap.String("region", char.Region))
		char.Region = m.defaultRegion
		char.Pos = geom.Vector3{}
		char.Rot = geom.Rotation{}
		w = m.worlds[char.Region]
	}

	resp := make(chan world.JoinResult, 1)
	select {
	case w.Join() <- world.JoinRequest{Char: char, Send: send, Resp: resp}:
	case <-time.After(joinTimeout):
		return "", 0, fmt.Errorf("join %s: %w", char.Region, ErrWorldBusy)
	}
	select {
	case r := <-resp:
		if r.Err != nil {
			return "", 0, r.Err
		}
		return char.Region, r.ID, nil
	case <-time.After(joinTimeout):
		return "", 0, fmt.Errorf("join %s: %w", char.Region, ErrWorldBusy)
	}
}

// Leave detaches a player from its region world; the world persists the
// character on its own tick.
func (m *Manager) Leave(region string, id uint32) {
	w := m.worlds[region]
	if w == nil {
		return
	}
	select {
	case w.Leave() <- id:
	case <-time.After(joinTimeout):
		m.log.Warn("leave queue full", zap.String("region", region), zap.Uint32("id", id))
	}
}

// Command queues one decoded client record for the region's next tick.
// A full inbox drops the command; the client's own resend/timeout logic
// owns recovery, the tick never blocks.
func (m *Manager) Command(region string, playerID uint32, ev protocol.Event) {
	w := m.worlds[region]
	if w == nil {
		return
	}
	select {
	case w.Inbox() <- world.Command{Player: playerID, Ev: ev}:
	default:
		m.log.Warn("inbox full, dropping command",
			zap.String("region", region), zap.Uint32("player", playerID))
	}
}

// Admin runs one admin request against a region world and waits for the
// result.
func (m *Manager) Admin(region string, req world.AdminRequest) (world.AdminResult, error) {
	w := m.worlds[region]
	if w == nil {
		return world.AdminResult{}, fmt.Errorf("admin: %w: %q", ErrNoSuchRegion, region)
	}
	resp := make(chan world.AdminResult, 1)
	req.Resp = resp
	select {
	case w.Admin() <- req:
	case <-time.After(adminTimeout):
		return world.AdminResult{}, fmt.Errorf("admin %s: %w", region, ErrWorldBusy)
	}
	select {
	case r := <-resp:
		return r, r.Err
	case <-time.After(adminTimeout):
		return world.AdminResult{}, fmt.Errorf("admin %s: %w", region, ErrWorldBusy)
	}
}

// ListPlayers aggregates the player list across every region.
func (m *Manager) ListPlayers() ([]world.AdminPlayerInfo, error) {
	var out []world.AdminPlayerInfo
	for _, region := range m.Regions() {
		r, err := m.Admin(region, world.AdminRequest{Op: world.AdminList})
		if err != nil {
			return nil, err
		}
		out = append(out, r.Players...)
	}
	return out, nil
}

// SaveAll asks every region to persist its connected characters now.
func (m *Manager) SaveAll() error {
	for _, region := range m.Regions() {
		if _, err := m.Admin(region, world.AdminRequest{Op: world.AdminSaveAll}); err != nil {
			return err
		}
	}
	return nil
}

// Export snapshots one region from outside its goroutine.
func (m *Manager) Export(region string) (*world.Snapshot, error) {
	r, err := m.Admin(region, world.AdminRequest{Op: world.AdminExport})
	if err != nil {
		return nil, err
	}
	return r.Snapshot, nil
}
