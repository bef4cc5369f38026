package telemetry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/thunderstorm509/dashboard/logging"
	"github.com/thunderstorm509/dashboard/utils"
)

// FileStore serves a telemetry snapshot kept in a JSON file as a flat object of key to number,
// e.g. {"/Thunderstorm/Module0Angle": 45.0}. The file is reloaded whenever it changes on disk.
// Non-numeric values are logged and ignored.
type FileStore struct {
	path   string
	logger logging.Logger

	mu     sync.RWMutex
	values map[string]float64

	reloads atomic.Uint64
	watcher *fsnotify.Watcher
	workers *utils.StoppableWorkers
}

// NewFileStore loads path and starts watching it. A missing file starts out empty; a file that
// exists but does not parse is an error.
func NewFileStore(path string, logger logging.Logger) (*FileStore, error) {
	path = filepath.Clean(path)
	fs := &FileStore{path: path, logger: logger, values: map[string]float64{}}
	if err := fs.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create telemetry file watcher")
	}
	// watch the directory so writers that replace the file by renaming are still seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "cannot watch %q", path), watcher.Close())
	}
	fs.watcher = watcher
	fs.workers = utils.NewStoppableWorkers(fs.watch)
	return fs, nil
}

func (fs *FileStore) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fs.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fs.path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := fs.Reload(); err != nil {
				fs.logger.Warnw("keeping previous telemetry snapshot", "path", fs.path, "error", err)
			}
		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return
			}
			fs.logger.Errorw("telemetry file watcher error", "path", fs.path, "error", err)
		}
	}
}

// Reload reads the file now. On failure the previous snapshot is kept.
func (fs *FileStore) Reload() error {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrapf(err, "cannot parse telemetry file %q", fs.path)
	}

	values := make(map[string]float64, len(raw))
	for key, v := range raw {
		f, ok := v.(float64)
		if !ok {
			fs.logger.Debugw("ignoring telemetry entry", "key", key, "error", utils.NewUnexpectedTypeError[float64](v))
			continue
		}
		values[key] = f
	}

	fs.mu.Lock()
	fs.values = values
	fs.mu.Unlock()
	fs.reloads.Inc()
	fs.logger.Debugw("telemetry snapshot loaded", "path", fs.path, "entries", len(values))
	return nil
}

// Reloads counts successful loads, including the initial one.
func (fs *FileStore) Reloads() uint64 {
	return fs.reloads.Load()
}

// Double returns the value of key in the current snapshot.
func (fs *FileStore) Double(key string) (float64, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	v, ok := fs.values[key]
	return v, ok
}

// Close stops watching the file.
func (fs *FileStore) Close() error {
	fs.workers.Stop()
	return fs.watcher.Close()
}
