package charstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"islebound.gg/internal/sim/world"
)

// Store persists characters in sqlite. Saves ride a writer goroutine so
// the world tick never waits on disk; loads are synchronous because they
// only happen on join.
type Store struct {
	db *sql.DB

	ch   chan saveReq
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("charstore: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		ch: make(chan saveReq, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS characters (
			name TEXT PRIMARY KEY,
			region TEXT NOT NULL,
			x REAL NOT NULL, y REAL NOT NULL, z REAL NOT NULL,
			yaw REAL NOT NULL, pitch REAL NOT NULL,
			health INTEGER NOT NULL,
			mana INTEGER NOT NULL,
			admin INTEGER NOT NULL DEFAULT 0,
			slot INTEGER NOT NULL DEFAULT 0,
			current_quest TEXT NOT NULL DEFAULT '',
			items_json TEXT NOT NULL,
			equipped_json TEXT NOT NULL,
			pickups_json TEXT NOT NULL,
			quests_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_characters_region ON characters(region);`,
		`CREATE TABLE IF NOT EXISTS tick_index (
			region TEXT NOT NULL,
			path TEXT NOT NULL,
			first_tick INTEGER NOT NULL,
			last_tick INTEGER NOT NULL,
			PRIMARY KEY (region, path)
		);`,
	}
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

type saveReq struct {
	c    world.CharacterState
	done chan struct{} // flush fence when c.Name is empty
}

func (s *Store) loop() {
	for r := range s.ch {
		if r.done != nil {
			close(r.done)
			continue
		}
		if err := s.upsert(r.c); err != nil {
			// Keep draining; the next autosave retries the same character.
			fmt.Fprintf(os.Stderr, "charstore: save %s: %v\n", r.c.Name, err)
		}
	}
}

// Save queues a character write. Blocks only if thousands of saves are
// already pending, which means the disk is gone anyway.
func (s *Store) Save(c world.CharacterState) {
	if s == nil || s.closed.Load() || c.Name == "" {
		return
	}
	s.ch <- saveReq{c: c}
}

func (s *Store) upsert(c world.CharacterState) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	equipped, err := json.Marshal(c.Equipped)
	if err != nil {
		return err
	}
	pickups, err := json.Marshal(c.Pickups)
	if err != nil {
		return err
	}
	quests, err := json.Marshal(c.Quests)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO characters
		(name, region, x, y, z, yaw, pitch, health, mana, admin, slot,
		 current_quest, items_json, equipped_json, pickups_json, quests_json, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.Name, c.Region,
		c.Pos.X, c.Pos.Y, c.Pos.Z, c.Rot.Yaw, c.Rot.Pitch,
		c.Health, c.Mana, boolInt(c.Admin), c.Slot,
		c.CurrentQuest, string(items), string(equipped), string(pickups), string(quests),
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Load reads one character. The second return is false when the name has
// never been saved.
func (s *Store) Load(name string) (world.CharacterState, bool, error) {
	var (
		c                                world.CharacterState
		admin                            int
		items, equipped, pickups, quests string
	)
	row := s.db.QueryRow(`SELECT name, region, x, y, z, yaw, pitch, health, mana,
		admin, slot, current_quest, items_json, equipped_json, pickups_json, quests_json
		FROM characters WHERE name = ?`, name)
	err := row.Scan(&c.Name, &c.Region, &c.Pos.X, &c.Pos.Y, &c.Pos.Z,
		&c.Rot.Yaw, &c.Rot.Pitch, &c.Health, &c.Mana,
		&admin, &c.Slot, &c.CurrentQuest, &items, &equipped, &pickups, &quests)
	if err == sql.ErrNoRows {
		return world.CharacterState{}, false, nil
	}
	if err != nil {
		return world.CharacterState{}, false, err
	}
	c.Admin = admin != 0
	if err := json.Unmarshal([]byte(items), &c.Items); err != nil {
		return world.CharacterState{}, false, err
	}
	if err := json.Unmarshal([]byte(equipped), &c.Equipped); err != nil {
		return world.CharacterState{}, false, err
	}
	if err := json.Unmarshal([]byte(pickups), &c.Pickups); err != nil {
		return world.CharacterState{}, false, err
	}
	if err := json.Unmarshal([]byte(quests), &c.Quests); err != nil {
		return world.CharacterState{}, false, err
	}
	return c, true, nil
}

// List returns name and region of every stored character, newest first.
func (s *Store) List() ([]CharacterInfo, error) {
	rows, err := s.db.Query(`SELECT name, region, health, mana, updated_at
		FROM characters ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CharacterInfo
	for rows.Next() {
		var ci CharacterInfo
		if err := rows.Scan(&ci.Name, &ci.Region, &ci.Health, &ci.Mana, &ci.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}

type CharacterInfo struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	Health    int    `json:"health"`
	Mana      int    `json:"mana"`
	UpdatedAt string `json:"updated_at"`
}

// RecordTickSpan indexes a tick log file's tick range for ops queries.
func (s *Store) RecordTickSpan(region, path string, firstTick, lastTick uint64) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO tick_index(region, path, first_tick, last_tick)
		VALUES (?,?,?,?)`, region, path, firstTick, lastTick)
	return err
}

type TickSpan struct {
	Region    string `json:"region"`
	Path      string `json:"path"`
	FirstTick uint64 `json:"first_tick"`
	LastTick  uint64 `json:"last_tick"`
}

func (s *Store) TickSpans(region string) ([]TickSpan, error) {
	rows, err := s.db.Query(`SELECT region, path, first_tick, last_tick
		FROM tick_index WHERE region = ? ORDER BY first_tick`, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TickSpan
	for rows.Next() {
		var ts TickSpan
		if err := rows.Scan(&ts.Region, &ts.Path, &ts.FirstTick, &ts.LastTick); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// Flush blocks until every save queued before it has hit the database.
// Enqueue order is apply order, so a fence request coming back means
// everything ahead of it is durable.
func (s *Store) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- saveReq{done: done}
	<-done
}

// Close drains pending saves and closes the database.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
