package importer

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-imports paths whenever one of them is written or replaced, until
// ctx ends. Changed files are re-imported even without Options.Force. A
// failed import is logged and the previously imported questions stay in place.
//
// The parent directories are watched rather than the files, so a save that
// renames a temporary file over the original is seen as a Create.
func (im *Importer) Watch(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// cleaned name -> path as given, so re-imports keep the same hash key
	watched := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		name := filepath.Clean(p)
		watched[name] = p
		dir := filepath.Dir(name)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return err
		}
		dirs[dir] = true
	}
	slog.Info("watching question files", "paths", paths)

	forced := New(im.store, Options{Force: true, Explainer: im.opts.Explainer})
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, ok := watched[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			if _, err := forced.ImportFile(ctx, path); err != nil {
				slog.Error("re-import failed, keeping previous questions", "path", path, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("question watcher error", "error", err)
		}
	}
}
