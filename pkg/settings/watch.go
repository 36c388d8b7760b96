package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes to the settings file at path until ctx is done. The
// directory is watched rather than the file so that atomic replacements
// (write to temp, rename) are seen. Bursts of writes are coalesced into one
// notification. The channel is closed when watching stops.
func Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	if path == "" {
		return nil, errors.New("settings: watch path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("settings: watch: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("settings: ensure dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("settings: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("settings: watch %s: %w", dir, err)
	}

	changes := make(chan struct{}, 1)
	var (
		mu     sync.Mutex
		closed bool
	)
	send := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case changes <- struct{}{}:
		default:
			// A notification is already pending.
		}
	}

	go func() {
		defer func() {
			mu.Lock()
			closed = true
			close(changes)
			mu.Unlock()
		}()
		defer watcher.Close()

		throttle := newThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != abs {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				throttle.Enqueue(send)
			}
		}
	}()

	return changes, nil
}

// throttle runs the latest queued callback once per quiet period.
type throttle struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func newThrottle(delay time.Duration) *throttle {
	return &throttle{delay: delay}
}

func (t *throttle) Enqueue(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
}

func (t *throttle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
