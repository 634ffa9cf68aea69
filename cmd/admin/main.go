// Command admin operates a running server over its loopback endpoints
// and inspects the on-disk character store directly.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "players":
		getCmd(os.Args[2:], "/admin/v1/players")
	case "save":
		saveCmd(os.Args[2:])
	case "kick":
		kickCmd(os.Args[2:])
	case "give":
		giveCmd(os.Args[2:])
	case "teleport":
		teleportCmd(os.Args[2:])
	case "snapshot":
		snapshotCmd(os.Args[2:])
	case "db":
		dbCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: admin <command> [flags]

commands:
  players              list connected players across regions
  kick                 disconnect a player
  give                 grant items to a connected player
  teleport             move a connected player
  save                 persist all connected characters now
  snapshot             write a snapshot for one region
  db characters        list persisted characters (offline)
  db character         show one persisted character (offline)
  db ticks             list indexed tick log spans (offline)
  db index-ticks       index a region's tick log files (offline)`)
	os.Exit(2)
}

func kickCmd(args []string) {
	fs := flag.NewFlagSet("kick", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	region := fs.String("region", "", "player's region")
	player := fs.String("player", "", "player name")
	_ = fs.Parse(args)
	require(*region != "", "missing -region")
	require(*player != "", "missing -player")
	post(*baseURL, "/admin/v1/kick", map[string]any{"region": *region, "player": *player})
}

func giveCmd(args []string) {
	fs := flag.NewFlagSet("give", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	region := fs.String("region", "", "player's region")
	player := fs.String("player", "", "player name")
	item := fs.String("item", "", "item name")
	count := fs.Uint("count", 1, "item count")
	_ = fs.Parse(args)
	require(*region != "", "missing -region")
	require(*player != "", "missing -player")
	require(*item != "", "missing -item")
	post(*baseURL, "/admin/v1/give", map[string]any{
		"region": *region, "player": *player, "item": *item, "count": *count,
	})
}

func teleportCmd(args []string) {
	fs := flag.NewFlagSet("teleport", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	region := fs.String("region", "", "player's region")
	player := fs.String("player", "", "player name")
	pos := fs.String("pos", "", "x,y,z destination")
	_ = fs.Parse(args)
	require(*region != "", "missing -region")
	require(*player != "", "missing -player")
	v, err := parseVec3(*pos)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -pos:", err)
		os.Exit(2)
	}
	post(*baseURL, "/admin/v1/teleport", map[string]any{
		"region": *region, "player": *player, "pos": v,
	})
}

func saveCmd(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)
	post(*baseURL, "/admin/v1/save", nil)
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	region := fs.String("region", "", "region to snapshot")
	_ = fs.Parse(args)
	require(*region != "", "missing -region")
	post(*baseURL, "/admin/v1/snapshot?region="+*region, nil)
}

func getCmd(args []string, path string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(join(*baseURL, path))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	dump(resp)
}

func post(baseURL, path string, body any) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			os.Exit(1)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(http.MethodPost, join(baseURL, path), rd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	cl := &http.Client{Timeout: 10 * time.Second}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	dump(resp)
}

func dump(resp *http.Response) {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func join(baseURL, path string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
}

func require(ok bool, msg string) {
	if !ok {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(2)
	}
}

func parseVec3(s string) ([3]float32, error) {
	var v [3]float32
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := range v {
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[i]), "%g", &v[i]); err != nil {
			return v, err
		}
	}
	return v, nil
}
