package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce collapses the burst of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

// watchFile runs fn once, then again after every change to path, until ctx
// is done. Errors from fn are reported through onErr and do not stop watching.
// The parent directory is watched so editors that replace the file on save
// keep triggering.
func watchFile(ctx context.Context, path string, logger *slog.Logger, fn func() error, onErr func(error)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := fn(); err != nil {
		onErr(err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	logger.Debug("watching file", slog.String("path", absPath))

	debounceTimer := time.NewTimer(watchDebounce)
	debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if eventPath, err := filepath.Abs(event.Name); err != nil || eventPath != absPath {
				continue
			}
			debounceTimer.Reset(watchDebounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceCh = nil
			logger.Debug("change detected", slog.String("path", absPath))
			if err := fn(); err != nil {
				onErr(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// watchUntilInterrupt watches path for a command until Ctrl-C, reporting
// errors through the renderer.
func watchUntilInterrupt(cmd *cobra.Command, cmdCtx *CommandContext, path string, fn func() error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cmdCtx.Renderer.Println(cmdCtx.Renderer.Muted(fmt.Sprintf("Watching %s (Ctrl-C to stop)", path)))
	return watchFile(ctx, path, cmdCtx.Logger, fn, func(err error) {
		cmdCtx.Renderer.Error(err.Error())
	})
}
