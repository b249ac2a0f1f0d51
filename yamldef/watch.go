package yamldef

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/reoring/docskema"
)

// ReloadFunc receives the recompiled schema, or the error that prevented it.
type ReloadFunc func(s *docskema.Schema, err error)

// Watch recompiles the definition at path whenever it is written, created or
// renamed into place and hands the result to fn. The directory is watched
// rather than the file so editors that replace files atomically keep working.
// Watch returns once the watcher is set up; it stops when ctx is done.
func Watch(ctx context.Context, path string, fn ReloadFunc, opts ...docskema.Option) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "watch %s", filepath.Dir(path))
	}
	name := filepath.Base(path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					fn(LoadFile(path, opts...))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fn(nil, errors.Wrap(err, "watch"))
			}
		}
	}()
	return nil
}
