package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPartialOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	body := "tick_rate_hz: 20\npvp:\n  countdown_sec: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickRateHz != 20 {
		t.Fatalf("TickRateHz = %d", got.TickRateHz)
	}
	if got.PvP.CountdownSec != 3 {
		t.Fatalf("PvP.CountdownSec = %d", got.PvP.CountdownSec)
	}
	// Untouched knobs keep their defaults.
	if got.Chat.FloodMax != Default().Chat.FloodMax {
		t.Fatalf("Chat.FloodMax = %d", got.Chat.FloodMax)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected yaml error")
	}
}
