package main

import (
	"encoding/json"
	"net/http"

	"islebound.gg/internal/persistence/charstore"
	"islebound.gg/internal/persistence/snapshot"
	"islebound.gg/internal/sim/geom"
	"islebound.gg/internal/sim/regions"
	"islebound.gg/internal/sim/world"
)

// Admin endpoints are loopback-only and run through each world's admin
// channel, so they apply at tick boundaries and never race the simulation.

func registerAdmin(mux *http.ServeMux, mgr *regions.Manager, store *charstore.Store, regionDirs map[string]string) {
	mux.HandleFunc("/admin/v1/players", guard(http.MethodGet, func(rw http.ResponseWriter, r *http.Request) {
		players, err := mgr.ListPlayers()
		if err != nil {
			writeErr(rw, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(rw, players)
	}))

	mux.HandleFunc("/admin/v1/characters", guard(http.MethodGet, func(rw http.ResponseWriter, r *http.Request) {
		chars, err := store.List()
		if err != nil {
			writeErr(rw, http.StatusInternalServerError, err)
			return
		}
		writeJSON(rw, chars)
	}))

	mux.HandleFunc("/admin/v1/kick", guard(http.MethodPost, func(rw http.ResponseWriter, r *http.Request) {
		var req struct {
			Region string `json:"region"`
			Player string `json:"player"`
		}
		if !readJSON(rw, r, &req) {
			return
		}
		_, err := mgr.Admin(req.Region, world.AdminRequest{Op: world.AdminKick, Player: req.Player})
		if err != nil {
			writeErr(rw, http.StatusNotFound, err)
			return
		}
		writeJSON(rw, map[string]bool{"ok": true})
	}))

	mux.HandleFunc("/admin/v1/give", guard(http.MethodPost, func(rw http.ResponseWriter, r *http.Request) {
		var req struct {
			Region string `json:"region"`
			Player string `json:"player"`
			Item   string `json:"item"`
			Count  uint32 `json:"count"`
		}
		if !readJSON(rw, r, &req) {
			return
		}
		_, err := mgr.Admin(req.Region, world.AdminRequest{
			Op: world.AdminGive, Player: req.Player, Item: req.Item, Count: req.Count,
		})
		if err != nil {
			writeErr(rw, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(rw, map[string]bool{"ok": true})
	}))

	mux.HandleFunc("/admin/v1/teleport", guard(http.MethodPost, func(rw http.ResponseWriter, r *http.Request) {
		var req struct {
			Region string     `json:"region"`
			Player string     `json:"player"`
			Pos    [3]float32 `json:"pos"`
		}
		if !readJSON(rw, r, &req) {
			return
		}
		_, err := mgr.Admin(req.Region, world.AdminRequest{
			Op: world.AdminTeleport, Player: req.Player,
			Pos: geom.Vector3{X: req.Pos[0], Y: req.Pos[1], Z: req.Pos[2]},
		})
		if err != nil {
			writeErr(rw, http.StatusNotFound, err)
			return
		}
		writeJSON(rw, map[string]bool{"ok": true})
	}))

	mux.HandleFunc("/admin/v1/save", guard(http.MethodPost, func(rw http.ResponseWriter, r *http.Request) {
		if err := mgr.SaveAll(); err != nil {
			writeErr(rw, http.StatusServiceUnavailable, err)
			return
		}
		store.Flush()
		writeJSON(rw, map[string]bool{"ok": true})
	}))

	mux.HandleFunc("/admin/v1/snapshot", guard(http.MethodPost, func(rw http.ResponseWriter, r *http.Request) {
		region := r.URL.Query().Get("region")
		snap, err := mgr.Export(region)
		if err != nil {
			writeErr(rw, http.StatusNotFound, err)
			return
		}
		path := snapshot.PathFor(regionDirs[region], snap.Tick)
		if err := snapshot.Write(path, snap); err != nil {
			writeErr(rw, http.StatusInternalServerError, err)
			return
		}
		writeJSON(rw, map[string]any{"ok": true, "tick": snap.Tick, "path": path})
	}))
}

func guard(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if r.Method != method {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(rw, r)
	}
}

func readJSON(rw http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(rw, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}

func writeErr(rw http.ResponseWriter, code int, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(map[string]string{"error": err.Error()})
}
