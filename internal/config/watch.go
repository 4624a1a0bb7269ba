package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// RoomsWatcher polls the room catalogue file and hands every valid revision
// to a callback. A revision that fails to load is logged and skipped; the
// last good catalogue stays in effect.
type RoomsWatcher struct {
	path     string
	interval time.Duration
	logger   *zerolog.Logger

	modTime time.Time
	size    int64
}

func NewRoomsWatcher(path string, interval time.Duration, logger *zerolog.Logger) *RoomsWatcher {
	if path == "" {
		path = "configs/rooms.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	l := logger.With().Str("component", "rooms_watcher").Str("path", path).Logger()
	return &RoomsWatcher{path: path, interval: interval, logger: &l}
}

// Start loads the catalogue once, passes it to onUpdate and keeps polling
// until ctx is done. The first load must succeed.
func (w *RoomsWatcher) Start(ctx context.Context, onUpdate func(*RoomsConfig)) error {
	cfg, err := w.load()
	if err != nil {
		return err
	}
	onUpdate(cfg)

	go w.poll(ctx, onUpdate)
	return nil
}

func (w *RoomsWatcher) load() (*RoomsConfig, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, fmt.Errorf("stat rooms config: %w", err)
	}
	cfg, err := LoadRoomsConfig(w.path)
	if err != nil {
		return nil, err
	}
	w.modTime, w.size = info.ModTime(), info.Size()
	return cfg, nil
}

func (w *RoomsWatcher) changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logger.Debug().Err(err).Msg("stat rooms config")
		return false
	}
	return info.ModTime().After(w.modTime) || info.Size() != w.size
}

func (w *RoomsWatcher) poll(ctx context.Context, onUpdate func(*RoomsConfig)) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !w.changed() {
			continue
		}
		cfg, err := w.load()
		if err != nil {
			w.logger.Warn().Err(err).Msg("rooms config rejected, keeping the previous catalogue")
			// Remember the broken revision so it is reported once.
			if info, statErr := os.Stat(w.path); statErr == nil {
				w.modTime, w.size = info.ModTime(), info.Size()
			}
			continue
		}
		w.logger.Info().Int("rooms", len(cfg.Rooms)).Msg("rooms config reloaded")
		onUpdate(cfg)
	}
}
