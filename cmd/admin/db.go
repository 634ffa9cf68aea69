package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"islebound.gg/internal/persistence/charstore"
	persistlog "islebound.gg/internal/persistence/log"
)

// Offline commands read the character store directly; the server does not
// need to be running.

func dbCmd(args []string) {
	if len(args) < 1 {
		usage()
	}
	switch args[0] {
	case "characters":
		dbCharactersCmd(args[1:])
	case "character":
		dbCharacterCmd(args[1:])
	case "ticks":
		dbTicksCmd(args[1:])
	case "index-ticks":
		dbIndexTicksCmd(args[1:])
	default:
		usage()
	}
}

func openStore(dataDir string) *charstore.Store {
	store, err := charstore.Open(filepath.Join(dataDir, "characters.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	return store
}

func dbCharactersCmd(args []string) {
	fs := flag.NewFlagSet("db characters", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	store := openStore(*dataDir)
	defer store.Close()

	chars, err := store.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, c := range chars {
		fmt.Printf("%-24s region=%-12s health=%-4d mana=%-4d updated=%s\n",
			c.Name, c.Region, c.Health, c.Mana, c.UpdatedAt)
	}
}

func dbCharacterCmd(args []string) {
	fs := flag.NewFlagSet("db character", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	name := fs.String("name", "", "character name")
	_ = fs.Parse(args)
	require(*name != "", "missing -name")

	store := openStore(*dataDir)
	defer store.Close()

	c, ok, err := store.Load(*name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "no character %q\n", *name)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(c)
}

func dbTicksCmd(args []string) {
	fs := flag.NewFlagSet("db ticks", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	region := fs.String("region", "", "region name")
	_ = fs.Parse(args)
	require(*region != "", "missing -region")

	store := openStore(*dataDir)
	defer store.Close()

	spans, err := store.TickSpans(*region)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tick spans:", err)
		os.Exit(1)
	}
	for _, s := range spans {
		fmt.Printf("%s ticks %d..%d\n", s.Path, s.FirstTick, s.LastTick)
	}
}

// dbIndexTicksCmd scans a region's tick log files and records the range
// each file covers, so replay tooling can seek without decompressing
// everything.
func dbIndexTicksCmd(args []string) {
	fs := flag.NewFlagSet("db index-ticks", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	region := fs.String("region", "", "region name")
	_ = fs.Parse(args)
	require(*region != "", "missing -region")

	store := openStore(*dataDir)
	defer store.Close()

	regionDir := filepath.Join(*dataDir, "regions", *region)
	spans, err := persistlog.TickFileSpans(regionDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scan:", err)
		os.Exit(1)
	}
	for _, s := range spans {
		if err := store.RecordTickSpan(*region, s.Path, s.FirstTick, s.LastTick); err != nil {
			fmt.Fprintln(os.Stderr, "record:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("indexed %d tick files for %s\n", len(spans), *region)
}
