package credential

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads a FileStore when another process rewrites the backing
// file, so long-running programs observe token rotation performed outside
// of them.
type Watcher struct {
	store   *FileStore
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher over the store's backing file. The parent
// directory is watched because editors and atomic writers replace the file
// instead of updating it in place.
func NewWatcher(store *FileStore) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("credential watcher: create failed: %w", err)
	}
	if err = w.Add(filepath.Dir(store.Path())); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("credential watcher: watch %s failed: %w", filepath.Dir(store.Path()), err)
	}
	return &Watcher{store: store, watcher: w}, nil
}

// Run processes filesystem events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			log.Warnf("credential watcher: close failed: %v", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.store.Path() {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := w.store.reload(); err != nil {
				log.Warnf("credential watcher: %v", err)
				continue
			}
			log.Debugf("credential watcher: reloaded %s", w.store.Path())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("credential watcher: %v", err)
		}
	}
}
