package groundtruth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors dir for reference CSV changes and rebuilds the index when
// the directory settles. Each successful rebuild is handed to onReload;
// the previous index stays in service when a rebuild fails.
//
// Rebuilds are debounced because a snapshot refresh touches several files
// in quick succession.
func Watch(ctx context.Context, dir string, logger *slog.Logger, onReload func(*Index)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	var debounce *time.Timer
	var reloadCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(500 * time.Millisecond)
			reloadCh = debounce.C
		} else {
			debounce.Reset(500 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			ix, loadErr := Load(dir, logger)
			if loadErr != nil {
				logger.Warn("watcher: rebuild failed, keeping previous index",
					slog.String("error", loadErr.Error()))
				continue
			}
			logger.Info("watcher: index rebuilt", slog.String("summary", ix.Summary()))
			if onReload != nil {
				onReload(ix)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(ev.Name), ".csv") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
