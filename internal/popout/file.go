package popout

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

const (
	// DataDirEnv overrides the data directory (~/.docklayout).
	DataDirEnv = "DOCK_DATA_DIR"
	// DefaultDataDir is the data directory under the user's home.
	DefaultDataDir = ".docklayout"
	// windowsSubdir holds the pop-out configs inside the data directory.
	windowsSubdir = "windows"
)

// FileStorage keeps each key in its own file.
// Layout: <data dir>/windows/<key>
type FileStorage struct {
	dir string
}

var (
	_ Storage = (*FileStorage)(nil)
	_ Watcher = (*FileStorage)(nil)
)

// DataDir returns the directory in DOCK_DATA_DIR if set, else
// ~/.docklayout.
func DataDir() (string, error) {
	if base := os.Getenv(DataDirEnv); base != "" {
		return base, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDataDir), nil
}

// NewFileStorage creates a storage under dataDir, or under DataDir() when
// dataDir is empty.
func NewFileStorage(dataDir string) (*FileStorage, error) {
	if dataDir == "" {
		var err error
		if dataDir, err = DataDir(); err != nil {
			return nil, err
		}
	}
	dir := filepath.Join(dataDir, windowsSubdir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create window dir: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the directory holding the files.
func (f *FileStorage) Dir() string {
	return f.dir
}

func (f *FileStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key), nil
}

// Put implements Storage. The file is written under a temporary name and
// renamed so readers never see a partial config.
func (f *FileStorage) Put(_ context.Context, key string, value []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Get implements Storage.
func (f *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

// Take implements Storage. The file is renamed away before reading so two
// takers cannot both get it.
func (f *FileStorage) Take(ctx context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	claimed := filepath.Join(f.dir, ".taken-"+key)
	if err := os.Rename(p, claimed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer os.Remove(claimed)
	return os.ReadFile(claimed)
}

// Delete implements Storage.
func (f *FileStorage) Delete(_ context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Watch implements Watcher using fsnotify on the storage directory.
func (f *FileStorage) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(f.dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	ch := make(chan struct{}, 1)
	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 || filepath.Clean(event.Name) != p {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return ch, nil
}
