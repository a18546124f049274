package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DefaultReloadInterval is how often Watch checks the settings file.
const DefaultReloadInterval = 2 * time.Second

// Store owns the current Settings and the file backing them.
//
// Current is lock-free. Writers (Update, Reload, Save) are serialised.
type Store struct {
	path    string
	current atomic.Pointer[Settings]

	mu        sync.Mutex // serialises writers and protects the fields below
	modTime   time.Time
	listeners []func(Settings)
	reloaded  []func(Settings)

	loadErr error
	logger  Logger
}

// Open loads the settings file at path, creating it from Default when it
// does not exist. Content that cannot be parsed falls back to Default and the
// parse error is kept for LoadError; the file itself is left untouched so the
// user can fix it.
//
// Open does not validate the loaded values. An unusable IP surfaces when the
// bridge starts.
func Open(path string) (*Store, error) {
	s := &Store{path: path, logger: noopLogger{}}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		def := Default()
		s.current.Store(&def)
		if err := s.write(def); err != nil {
			return nil, fmt.Errorf("creating settings file: %w", err)
		}
		return s, nil
	}

	loaded, modTime, err := s.read()
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, err
		}
		s.loadErr = err
		loaded = Default()
	}
	s.current.Store(&loaded)
	s.modTime = modTime
	return s, nil
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// LoadError returns the parse error that made Open fall back to Default,
// or nil.
func (s *Store) LoadError() error {
	return s.loadErr
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Current returns the active snapshot.
func (s *Store) Current() Settings {
	return *s.current.Load()
}

// OnChange registers fn to run after every successful swap. Callbacks run
// synchronously on the writer's goroutine.
func (s *Store) OnChange(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// OnReload registers fn to run after Watch picks up an edited file. It runs
// after the OnChange callbacks for the same swap.
func (s *Store) OnReload(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloaded = append(s.reloaded, fn)
}

// Update validates next and makes it the active snapshot. The file is not
// written until Save.
func (s *Store) Update(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(next)
	return nil
}

// Patch applies a partial JSON document on top of the current snapshot.
// Fields absent from data keep their current values.
func (s *Store) Patch(data []byte) (Settings, error) {
	next := s.Current()
	if err := json.Unmarshal(data, &next); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Update(next); err != nil {
		return Settings{}, err
	}
	return next, nil
}

// Reload re-reads the settings file. Invalid content keeps the current
// snapshot and returns the error.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, modTime, err := s.read()
	if err != nil {
		return err
	}
	s.modTime = modTime

	if err := loaded.Validate(); err != nil {
		return err
	}
	s.swap(loaded)
	return nil
}

// Save writes the current snapshot to the settings file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.Current())
}

// Watch polls the settings file every interval and reloads it when its
// modification time changes. It returns when ctx is cancelled.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReloadInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.changedOnDisk() {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Error("failed to reload settings, keeping existing settings",
					"path", s.path, "error", err)
				continue
			}
			s.logger.Info("settings reloaded", "path", s.path)

			s.mu.Lock()
			fns := append([]func(Settings){}, s.reloaded...)
			s.mu.Unlock()
			current := s.Current()
			for _, fn := range fns {
				fn(current)
			}
		}
	}
}

func (s *Store) changedOnDisk() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !info.ModTime().Equal(s.modTime)
}

// swap must be called with s.mu held.
func (s *Store) swap(next Settings) {
	s.current.Store(&next)
	for _, fn := range s.listeners {
		fn(next)
	}
}

func (s *Store) read() (Settings, time.Time, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Settings{}, time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Settings{}, time.Time{}, err
	}

	loaded := Default()
	if err := yaml.NewDecoder(f).Decode(&loaded); err != nil {
		return Settings{}, info.ModTime(), fmt.Errorf("parsing settings file: %w", err)
	}
	return loaded, info.ModTime(), nil
}

// write must be called with s.mu held (or before the store is shared).
func (s *Store) write(v Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return err
	}

	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
	}
	return nil
}
