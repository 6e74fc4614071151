package templating

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the template directory and calls Refresh each time a template
// or partial is written, created, removed or renamed. It runs until ctx is
// cancelled. If onRefresh is non-nil it is called after every reload attempt
// with the Refresh result.
//
// A failed reload is logged and the previously loaded templates stay active.
func (tm *TemplateManager) Watch(ctx context.Context, onRefresh func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := tm.GetTemplateDir()
	if err := watcher.Add(dir); err != nil {
		return err
	}

	tm.logger.Info("Watching templates for changes", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isTemplateFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			tm.logger.Debug("Template change detected", "file", event.Name, "op", event.Op.String())
			err := tm.Refresh()
			if err != nil {
				tm.logger.Error("template reload failed, keeping previous templates", "error", err)
			}
			if onRefresh != nil {
				onRefresh(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			tm.logger.Error("template watcher error", "error", err)
		}
	}
}
