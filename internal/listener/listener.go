package listener

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mechdash/internal/config"
	"mechdash/internal/dataset"
)

type Reloader interface {
	Reload(ctx context.Context) (*dataset.Snapshot, error)
}

// Service keeps the dataset snapshot fresh. File changes are picked up through
// fsnotify; the interval poll catches anything the watcher misses and drives
// reloads of remote sources.
type Service struct {
	holder   Reloader
	path     string
	watch    bool
	interval time.Duration
	debounce time.Duration
	logger   *zap.Logger

	lastMod time.Time
}

func NewService(holder Reloader, cfg config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		holder:   holder,
		path:     cfg.DatasetPath(),
		watch:    cfg.ReloadWatch,
		interval: time.Duration(cfg.ReloadIntervalSec) * time.Second,
		debounce: 250 * time.Millisecond,
		logger:   logger,
	}
}

// Run loads the dataset once and then reloads on change until ctx is done.
// A failed load is logged, not returned: the server keeps answering with the
// previous snapshot or with "dataset unavailable".
func (s *Service) Run(ctx context.Context) error {
	s.reload(ctx, "startup")

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if s.watch && s.path != "" {
		w, err := s.newWatcher()
		if err != nil {
			s.logger.Warn("file watch disabled", zap.String("path", s.path), zap.Error(err))
		} else {
			defer w.Close()
			events, watchErrs = w.Events, w.Errors
		}
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if s.relevant(ev) {
				fire = time.After(s.debounce)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.logger.Warn("file watch error", zap.Error(err))
		case <-fire:
			fire = nil
			s.reload(ctx, "watch")
		case <-tick:
			if s.path == "" || s.changed() {
				s.reload(ctx, "interval")
			}
		}
	}
}

// newWatcher watches the parent directory so atomic replace-by-rename of the
// dataset file is still seen.
func (s *Service) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (s *Service) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	// Matches the file itself and SQLite sidecars such as app.db-wal.
	return strings.HasPrefix(filepath.Base(ev.Name), filepath.Base(s.path)) &&
		filepath.Dir(filepath.Clean(ev.Name)) == filepath.Dir(filepath.Clean(s.path))
}

func (s *Service) changed() bool {
	mod := s.modTime()
	return !mod.Equal(s.lastMod)
}

func (s *Service) modTime() time.Time {
	var latest time.Time
	for _, p := range []string{s.path, s.path + "-wal"} {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}

func (s *Service) reload(ctx context.Context, trigger string) {
	mod := s.modTime()
	snap, err := s.holder.Reload(ctx)
	s.lastMod = mod
	if err != nil {
		s.logger.Warn("reload failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	s.logger.Debug("reload done", zap.String("trigger", trigger), zap.Int("records", len(snap.Records)))
}
