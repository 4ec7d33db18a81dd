package internal

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnolang/cilint/internal/types"
)

// debounce is how long a change settles before the file is re-linted, so a
// burst of writes is linted once.
const debounce = 100 * time.Millisecond

// StartWatching re-lints listing files under dirs whenever they change and
// hands the results to report. A nil report logs the issues instead.
func (e *Engine) StartWatching(dirs []string, report func(filename string, issues []tt.Issue)) error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	if e.isWatching {
		return fmt.Errorf("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	if report == nil {
		report = e.reportIssues
	}
	e.watcher = watcher
	e.watchDirs = dirs
	e.report = report
	e.isWatching = true
	go e.watchLoop(watcher)
	return nil
}

func (e *Engine) StopWatching() error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	if !e.isWatching {
		e.logger.Debug("not watching")
		return nil
	}
	e.isWatching = false
	return e.watcher.Close()
}

func (e *Engine) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !IsListing(event.Name) {
		return
	}
	time.Sleep(debounce)

	if e.cache != nil {
		e.cache.Invalidate(event.Name)
	}
	issues, err := e.Run(event.Name)
	if err != nil {
		e.logger.Error("error linting changed file", zap.String("file", event.Name), zap.Error(err))
		return
	}
	e.report(event.Name, issues)
}

func (e *Engine) reportIssues(filename string, issues []tt.Issue) {
	if len(issues) == 0 {
		e.logger.Info("no issues found", zap.String("file", filename))
		return
	}
	e.logger.Info("issues found", zap.String("file", filename), zap.Int("count", len(issues)))
	for _, issue := range issues {
		e.logger.Info(issue.Message, zap.String("rule", issue.Rule), zap.Stringer("at", issue.Start))
	}
}
