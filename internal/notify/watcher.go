// Package notify watches the inbox directory and imports dropped memo files.
package notify

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/Dr-Min/memotheme/internal/importer"
)

// InboxWatcher watches an inbox directory and imports memo files as they
// appear. Imports are rate-limited so a bulk drop does not hammer the
// analyzer and store.
type InboxWatcher struct {
	dir        string
	imp        *importer.Importer
	limiter    *rate.Limiter
	removeDone bool
	watcher    *fsnotify.Watcher
	done       chan struct{}
}

// NewInboxWatcher creates a watcher over dir. importRate is files per
// second; removeDone controls whether imported files are deleted.
func NewInboxWatcher(dir string, imp *importer.Importer, importRate float64, removeDone bool) *InboxWatcher {
	if importRate <= 0 {
		importRate = 1
	}
	return &InboxWatcher{
		dir:        dir,
		imp:        imp,
		limiter:    rate.NewLimiter(rate.Limit(importRate), 1),
		removeDone: removeDone,
		done:       make(chan struct{}),
	}
}

// Start begins watching. It drains any files already sitting in the inbox
// first, then watches for new ones. Call Stop() to clean up.
func (iw *InboxWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(iw.dir, 0o700); err != nil {
		return err
	}

	iw.drainExisting(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(iw.dir); err != nil {
		_ = w.Close()
		return err
	}
	iw.watcher = w

	go iw.loop(ctx)
	log.Printf("notify: watching %s for memo files", iw.dir)
	return nil
}

// Stop shuts down the watcher.
func (iw *InboxWatcher) Stop() {
	if iw.watcher != nil {
		_ = iw.watcher.Close()
	}
	<-iw.done
}

func (iw *InboxWatcher) loop(ctx context.Context) {
	defer close(iw.done)
	for {
		select {
		case evt, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Rename) != 0 && importer.IsMemoFile(evt.Name) {
				iw.processFile(ctx, evt.Name)
			}
		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

func (iw *InboxWatcher) drainExisting(ctx context.Context) {
	entries, err := os.ReadDir(iw.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && importer.IsMemoFile(entry.Name()) {
			iw.processFile(ctx, filepath.Join(iw.dir, entry.Name()))
		}
	}
}

func (iw *InboxWatcher) processFile(ctx context.Context, path string) {
	if err := iw.limiter.Wait(ctx); err != nil {
		return
	}

	m, err := iw.imp.ImportFile(ctx, path)
	if err != nil {
		log.Printf("notify: import failed for %s: %v", filepath.Base(path), err)
		return
	}
	log.Printf("notify: imported %s as memo %s (%d themes)", filepath.Base(path), m.ID, len(m.Themes))

	if iw.removeDone {
		_ = os.Remove(path)
	}
}
