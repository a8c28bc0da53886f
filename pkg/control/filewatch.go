package control

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"purifygate/pkg/metrics"
	"purifygate/pkg/wordlist"
)

// FileWatcher reloads a word file whenever it is written or replaced.
type FileWatcher struct {
	path    string
	sources *WordSources
	logger  *zap.Logger
}

func NewFileWatcher(path string, sources *WordSources, logger *zap.Logger) *FileWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWatcher{
		path:    filepath.Clean(path),
		sources: sources,
		logger:  logger.Named("wordfile"),
	}
}

// Load reads the file into the word sources.
func (f *FileWatcher) Load() error {
	words, err := wordlist.LoadFile(f.path)
	if err != nil {
		metrics.Reloads.WithLabelValues(SourceFile, resultError).Inc()
		return err
	}
	f.sources.Set(SourceFile, words)
	metrics.Reloads.WithLabelValues(SourceFile, resultOK).Inc()
	f.logger.Info("word file loaded", zap.String("path", f.path), zap.Int("words", len(words)))
	return nil
}

// Start watches the file's directory in the background until ctx is done.
// Editors often replace files by rename, so the directory is watched
// rather than the file itself.
func (f *FileWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return errors.Wrapf(err, "watch %s", filepath.Dir(f.path))
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != f.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := f.Load(); err != nil {
					f.logger.Warn("word file reload failed, keeping current words", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("file watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
