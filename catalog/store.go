package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 250 * time.Millisecond

// Store serves the current catalog. A file-backed store can be reloaded while
// the bot is running; readers always see a complete, validated catalog.
type Store struct {
	path     string
	reserved []string
	log      *zap.Logger
	current  atomic.Pointer[Catalog]
}

// OpenStore loads the catalog at path, or the embedded one when path is empty.
func OpenStore(log *zap.Logger, path string, reserved ...string) (*Store, error) {
	s := &Store{path: path, reserved: reserved, log: log}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the catalog. On error the previous catalog stays active.
func (s *Store) Reload() error {
	c, err := s.read()
	if err != nil {
		return err
	}
	if err := c.Validate(s.reserved...); err != nil {
		return fmt.Errorf("catalog rejected: %w", err)
	}
	s.current.Store(c)
	s.log.Info("Catalog loaded",
		zap.String("path", s.path),
		zap.Int("tutorials", len(c.Tutorials)),
		zap.Int("team", len(c.Team)),
	)
	return nil
}

func (s *Store) read() (*Catalog, error) {
	if s.path == "" {
		return Default()
	}
	return Load(s.path)
}

// Watch reloads the catalog file whenever it changes, until ctx is done.
// The directory is watched rather than the file so that editors replacing the
// file by rename are noticed too.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	s.log.Info("Watching catalog", zap.String("path", s.path))

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, func() {
			if err := s.Reload(); err != nil {
				s.log.Warn("Catalog reload failed, keeping previous catalog", zap.Error(err))
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("Catalog watcher error", zap.Error(err))
		}
	}
}
