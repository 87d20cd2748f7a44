package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PollRate != time.Second {
		t.Errorf("PollRate = %v, want 1s", cfg.PollRate)
	}
	if len(cfg.Connections) != 0 {
		t.Errorf("expected no connections, got %d", len(cfg.Connections))
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollRate != time.Second {
		t.Errorf("PollRate = %v, want 1s", cfg.PollRate)
	}
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.PollRate = 5 * time.Second
	cfg.AddConnection(Connection{
		Name:     "plc1",
		Address:  "192.168.1.10:48898",
		AmsNetId: "192.168.1.10.1.1",
		AmsPort:  851,
		Timeout:  2 * time.Second,
		Enabled:  true,
	})

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.PollRate != 5*time.Second {
		t.Errorf("PollRate = %v, want 5s", loaded.PollRate)
	}
	if len(loaded.Connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(loaded.Connections))
	}
	if loaded.Connections[0].Name != "plc1" || loaded.Connections[0].AmsNetId != "192.168.1.10.1.1" {
		t.Errorf("unexpected connection: %+v", loaded.Connections[0])
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("connections: [this is not valid"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestFindAddRemoveUpdateConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AddConnection(Connection{Name: "a", Address: "10.0.0.1:48898"})
	cfg.AddConnection(Connection{Name: "b", Address: "10.0.0.2:48898"})

	if cfg.FindConnection("a") == nil {
		t.Fatal("expected to find connection a")
	}
	if cfg.FindConnection("missing") != nil {
		t.Fatal("expected nil for missing connection")
	}

	if !cfg.UpdateConnection("a", Connection{Name: "a", Address: "10.0.0.9:48898"}) {
		t.Fatal("UpdateConnection should report success")
	}
	if cfg.FindConnection("a").Address != "10.0.0.9:48898" {
		t.Fatal("update did not take effect")
	}

	if !cfg.RemoveConnection("a") {
		t.Fatal("RemoveConnection should report success")
	}
	if cfg.FindConnection("a") != nil {
		t.Fatal("connection a should be gone")
	}
	if cfg.RemoveConnection("a") {
		t.Fatal("removing an already-removed connection should report false")
	}
}

func TestOnChangeListenerFiresOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()

	fired := make(chan struct{}, 1)
	id := cfg.AddOnChangeListener(func() { fired <- struct{}{} })
	defer cfg.RemoveOnChangeListener(id)

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("listener was not called")
	}
}

func TestRemoveOnChangeListenerStopsNotifications(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()

	fired := make(chan struct{}, 1)
	id := cfg.AddOnChangeListener(func() { fired <- struct{}{} })
	cfg.RemoveOnChangeListener(id)

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("removed listener should not have fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLockUnlockAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()

	cfg.Lock()
	cfg.PollRate = 10 * time.Second
	if err := cfg.UnlockAndSave(path); err != nil {
		t.Fatalf("UnlockAndSave: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.PollRate != 10*time.Second {
		t.Errorf("PollRate = %v, want 10s", loaded.PollRate)
	}
}

func TestDefaultPathIsUnderHomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	want := filepath.Join(home, ".goads", "config.yaml")
	if got := DefaultPath(); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
