package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"islebound.gg/internal/sim/world"
)

// Header is the human-readable first line of a snapshot file; the gob
// body that follows carries the full world.Snapshot.
type Header struct {
	Version int    `json:"version"`
	Region  string `json:"region"`
	Tick    uint64 `json:"tick"`
}

// Write stores a world snapshot as a zstd stream: one JSON header line,
// then the gob-encoded body.
func Write(path string, snap *world.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(Header{Version: snap.Version, Region: snap.Region, Tick: snap.Tick})
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// Read loads a snapshot written by Write. The header line is advisory;
// the gob body is authoritative.
func Read(path string) (*world.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	if _, err := br.ReadBytes('\n'); err != nil {
		return nil, fmt.Errorf("snapshot header: %w", err)
	}
	var snap world.Snapshot
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return &snap, nil
}

// PathFor names a snapshot file inside a region's snapshot directory.
func PathFor(regionDir string, tick uint64) string {
	return filepath.Join(regionDir, "snapshots", fmt.Sprintf("snap-%012d.zst", tick))
}

// Latest returns the newest snapshot file path in a region directory, or
// "" when none exists. Zero-padded tick names sort lexically.
func Latest(regionDir string) (string, error) {
	dir := filepath.Join(regionDir, "snapshots")
	names, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var files []string
	for _, e := range names {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "snap-") && strings.HasSuffix(e.Name(), ".zst") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return "", nil
	}
	sort.Strings(files)
	return filepath.Join(dir, files[len(files)-1]), nil
}
