package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the file at path whenever it changes and passes its
// log_level to apply. Only the level is reloaded; every other setting needs
// a restart. Watch blocks until ctx is done.
//
// The parent directory is watched so that editors which replace the file by
// rename are still observed.
func Watch(ctx context.Context, path string, log *slog.Logger, apply func(slog.Level)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			reload(ctx, abs, log, apply)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WarnContext(ctx, "config.watch.err", slog.String("err", err.Error()))
		}
	}
}

func reload(ctx context.Context, path string, log *slog.Logger, apply func(slog.Level)) {
	f, err := ReadFile(path)
	if err != nil {
		log.WarnContext(ctx, "config.reload.err", slog.String("err", err.Error()))
		return
	}
	if f.LogLevel == "" {
		return
	}
	level, err := ParseLevel(f.LogLevel)
	if err != nil {
		log.WarnContext(ctx, "config.reload.err", slog.String("err", err.Error()))
		return
	}
	apply(level)
	log.InfoContext(ctx, "config.reload.ok", slog.String("log_level", level.String()))
}
