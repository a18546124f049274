package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestOpenCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if store.Current() != Default() {
		t.Errorf("Current() = %+v, want defaults", store.Current())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("settings file not created: %v", err)
	}
	if store.LoadError() != nil {
		t.Errorf("LoadError() = %v", store.LoadError())
	}
}

func TestOpenReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "ip: 10.0.0.5\nrun_deadzone: 0.9\nturning_enabled: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got := store.Current()
	if got.IP != "10.0.0.5" || got.RunDeadzone != 0.9 || !got.TurningEnabled {
		t.Errorf("Current() = %+v", got)
	}
	// Fields absent from the file keep their defaults.
	if got.WalkDeadzone != Default().WalkDeadzone {
		t.Errorf("WalkDeadzone = %v, want default", got.WalkDeadzone)
	}
}

func TestOpenFallsBackOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("ip: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if store.Current() != Default() {
		t.Errorf("Current() = %+v, want defaults", store.Current())
	}
	if store.LoadError() == nil {
		t.Error("LoadError() = nil, want parse error")
	}
}

func TestUpdateAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	var (
		mu   sync.Mutex
		seen []Settings
	)
	store.OnChange(func(s Settings) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})

	next := Default()
	next.TurningGoal = 45
	if err := store.Update(next); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	bad := Default()
	bad.IP = "bogus"
	if err := store.Update(bad); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Update(bad) error = %v, want ErrInvalid", err)
	}
	if store.Current().TurningGoal != 45 {
		t.Errorf("invalid update replaced settings: %+v", store.Current())
	}

	if err := store.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Current().TurningGoal != 45 {
		t.Errorf("saved TurningGoal = %d, want 45", reopened.Current().TurningGoal)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Errorf("OnChange called %d times, want 1", len(seen))
	}
}

func TestPatch(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.Patch([]byte(`{"turning_enabled": true, "turning_multiplier": 2.5}`))
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if !got.TurningEnabled || got.TurningMultiplier != 2.5 {
		t.Errorf("Patch() = %+v", got)
	}
	if got.RunDeadzone != Default().RunDeadzone {
		t.Errorf("untouched field changed: %+v", got)
	}

	if _, err := store.Patch([]byte(`{not json`)); !errors.Is(err, ErrInvalid) {
		t.Errorf("Patch(garbage) error = %v, want ErrInvalid", err)
	}
	if _, err := store.Patch([]byte(`{"turning_goal": 500}`)); !errors.Is(err, ErrInvalid) {
		t.Errorf("Patch(out of range) error = %v, want ErrInvalid", err)
	}
}

func TestWatchReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan Settings, 1)
	store.OnReload(func(s Settings) {
		select {
		case reloaded <- s:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Watch(ctx, 10*time.Millisecond)

	// Push the mtime forward so coarse filesystem clocks still see a change.
	content := "ip: 127.0.0.1\nturning_goal: 30\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-reloaded:
		if got.TurningGoal != 30 {
			t.Errorf("OnReload TurningGoal = %d, want 30", got.TurningGoal)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("settings not reloaded, TurningGoal = %d", store.Current().TurningGoal)
	}
	if store.Current().TurningGoal != 30 {
		t.Errorf("Current().TurningGoal = %d, want 30", store.Current().TurningGoal)
	}
}

func TestReloadKeepsSettingsOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("ip: not-an-ip\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Reload() error = %v, want ErrInvalid", err)
	}
	if store.Current().IP != "127.0.0.1" {
		t.Errorf("IP = %q, want previous value", store.Current().IP)
	}
}
