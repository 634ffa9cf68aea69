package world

import (
	"fmt"

	"islebound.gg/internal/sim/geom"
)

// Admin operations ride their own channel so the HTTP surface never races
// the tick. Requests are applied at tick boundaries like everything else.

type AdminOp string

const (
	AdminList     AdminOp = "list"
	AdminKick     AdminOp = "kick"
	AdminGive     AdminOp = "give"
	AdminTeleport AdminOp = "teleport"
	AdminSaveAll  AdminOp = "save"
	AdminExport   AdminOp = "export"
)

type AdminRequest struct {
	Op     AdminOp
	Player string
	Item   string
	Count  uint32
	Pos    geom.Vector3

	Resp chan<- AdminResult
}

type AdminResult struct {
	Players  []AdminPlayerInfo
	Snapshot *Snapshot
	Err      error
}

type AdminPlayerInfo struct {
	ID     uint32       `json:"id"`
	Name   string       `json:"name"`
	Region string       `json:"region"`
	Pos    geom.Vector3 `json:"pos"`
	Health int          `json:"health"`
	Mana   int          `json:"mana"`
}

func (w *World) handleAdmin(req AdminRequest) {
	res := AdminResult{}
	switch req.Op {
	case AdminList:
		for _, p := range w.players {
			res.Players = append(res.Players, AdminPlayerInfo{
				ID:     p.ID(),
				Name:   p.Name,
				Region: w.region,
				Pos:    p.Pos,
				Health: p.Health,
				Mana:   p.Mana,
			})
		}
	case AdminKick:
		if p := w.playerNamed(req.Player); p != nil {
			w.handleLeave(p.ID())
		} else {
			res.Err = fmt.Errorf("kick %q: %w", req.Player, ErrNoSuchActor)
		}
	case AdminGive:
		if p := w.playerNamed(req.Player); p != nil {
			_, emits, err := p.AddItem(w, req.Item, req.Count, true)
			res.Err = err
			w.dispatch(emits)
		} else {
			res.Err = fmt.Errorf("give %q: %w", req.Player, ErrNoSuchActor)
		}
	case AdminTeleport:
		if p := w.playerNamed(req.Player); p != nil {
			w.dispatch(p.PerformTeleport(req.Pos, p.Rot))
			w.updateZoneMembership(p)
		} else {
			res.Err = fmt.Errorf("teleport %q: %w", req.Player, ErrNoSuchActor)
		}
	case AdminSaveAll:
		if w.save != nil {
			for _, p := range w.players {
				w.save(w.characterOf(p))
			}
		}
	case AdminExport:
		res.Snapshot = w.Export()
	default:
		res.Err = fmt.Errorf("unknown admin op %q", req.Op)
	}
	w.audit(AuditEntry{Tick: w.tick, Type: "admin", Player: req.Player, Detail: string(req.Op)})
	if req.Resp != nil {
		req.Resp <- res
	}
}

func (w *World) playerNamed(name string) *Player {
	for _, p := range w.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}
