// Package popout moves layout subtrees into separate windows and back.
//
// The parent writes the subtree's config to a Storage under a fresh
// window key and asks a Launcher to start a child running
// `dock --gl-window=<key>`. The child takes the config, builds its own
// layout and talks back over the parent's HTTP Bridge. When the bridge
// cannot be reached the child leaves a ready marker in the storage,
// which the parent polls for.
package popout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docklayout/internal/config"
	"docklayout/internal/session"
)

// ErrNotFound is returned when a storage key does not exist.
var ErrNotFound = errors.New("not found")

// DefaultPollInterval is how often the parent checks the storage for a
// ready marker.
const DefaultPollInterval = 10 * time.Millisecond

// Storage holds pop-out configs between the parent writing them and the
// child taking them.
type Storage interface {
	Put(ctx context.Context, key string, value []byte) error
	// Get returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Take reads and deletes key in one step.
	Take(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by storages that can signal a key being
// written instead of being polled.
type Watcher interface {
	// Watch sends on the returned channel whenever key may have been
	// written, until ctx is done.
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}

func readyKey(key string) string { return key + ".ready" }

// WriteConfig stores cfg minified under a fresh window key and returns
// the key.
func WriteConfig(ctx context.Context, s Storage, cfg config.ResolvedPopoutLayoutConfig) (string, error) {
	data, err := config.MinifyPopout(cfg)
	if err != nil {
		return "", err
	}
	key := session.NewWindowKey().String()
	if err := s.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("store popout config: %w", err)
	}
	return key, nil
}

// TakeConfig reads and deletes the config stored under key.
func TakeConfig(ctx context.Context, s Storage, key string) (config.ResolvedPopoutLayoutConfig, error) {
	if _, err := session.ParseWindowKey(key); err != nil {
		return config.ResolvedPopoutLayoutConfig{}, err
	}
	data, err := s.Take(ctx, key)
	if err != nil {
		return config.ResolvedPopoutLayoutConfig{}, fmt.Errorf("take popout config %s: %w", key, err)
	}
	return config.UnminifyPopout(data)
}

// MarkReady leaves the ready marker for key.
func MarkReady(ctx context.Context, s Storage, key string) error {
	return s.Put(ctx, readyKey(key), []byte(time.Now().UTC().Format(time.RFC3339Nano)))
}

// WaitReady blocks until the ready marker for key appears, then removes
// it. Storages implementing Watcher wake it early; it polls every
// interval regardless.
func WaitReady(ctx context.Context, s Storage, key string, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	marker := readyKey(key)
	var wake <-chan struct{}
	if w, ok := s.(Watcher); ok {
		ch, err := w.Watch(ctx, marker)
		if err == nil {
			wake = ch
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		_, err := s.Get(ctx, marker)
		switch {
		case err == nil:
			return s.Delete(ctx, marker)
		case !errors.Is(err, ErrNotFound):
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-wake:
		}
	}
}
