package config

import (
	"path/filepath"
	"sync"

	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	fsnotify *fsnotify.Watcher
	path     string
	onChange func(*Config)
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	closeErr error
}

// Watch calls onChange with every valid version of the file written after the call.
// Invalid versions are logged and skipped, the previous configuration stays in effect.
//
// The parent directory is watched rather than the file, since most editors replace the
// file on save.
func Watch(path string, onChange func(*Config)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create config watcher")
	}

	path = filepath.Clean(path)
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, errors.Wrapf(err, "watch config %s", path)
	}

	w := &Watcher{
		fsnotify: fsWatch,
		path:     path,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()

	return w, nil
}

func (w *Watcher) start() {
	defer w.wg.Done()

	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.reload()

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			logging.LogError("config: watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logging.LogError("config: keeping previous settings: %v", err)
		return
	}
	logging.LogInfo("config: reloaded %s", w.path)
	w.onChange(cfg)
}

// Close stops the watcher and waits for the pending callback to return.
// Later calls return the result of the first one.
func (w *Watcher) Close() error {
	w.once.Do(func() {
		close(w.done)
		w.closeErr = w.fsnotify.Close()
		w.wg.Wait()
	})
	return w.closeErr
}
