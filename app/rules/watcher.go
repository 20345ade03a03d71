package rules

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Watch reloads registry whenever the file at path changes. The parent directory is
// watched so that editors replacing the file by rename are picked up.
func Watch(path string, registry *Registry, debounce time.Duration) (io.Closer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				if _, err := registry.Reload(context.Background()); err != nil {
					slog.Error("Rule reload failed", "file", path, "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Rules watcher error", "error", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !shouldTriggerReload(evt, absPath) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				timerC = timer.C
			}
		}
	}()

	slog.Info("Rules auto-reload enabled", "file", path, "debounce", debounce.String())

	return closerFunc(func() error {
		close(stopCh)
		err := watcher.Close()
		<-doneCh
		return err
	}), nil
}

func shouldTriggerReload(evt fsnotify.Event, target string) bool {
	if evt.Name == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(evt.Name)
	if err != nil {
		return false
	}
	return name == target
}
