package content

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/content"
)

const reloadDebounce = 100 * time.Millisecond

// Provider serves the loaded library and reloads it when the corpus file
// changes on disk. A reload that fails to parse or validate keeps the
// current library, so a half-written file never takes the corpus offline.
type Provider struct {
	mu      sync.RWMutex
	path    string
	library *content.Library
	logger  *zap.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	stopped sync.Once
}

func NewProvider(path string, logger *zap.Logger) (*Provider, error) {
	lib, err := LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	return &Provider{
		path:    path,
		library: lib,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Library returns the currently loaded corpus.
func (p *Provider) Library() *content.Library {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.library
}

// FindChapter locates a chapter by its container id in the current corpus.
func (p *Provider) FindChapter(containerID string) (workTitle, partTitle string, chapter *content.Chapter) {
	return p.Library().FindChapter(containerID)
}

// Watch starts reloading the corpus on file changes until Close is called.
func (p *Provider) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create corpus watcher: %w", err)
	}
	if err := watcher.Add(p.path); err != nil {
		watcher.Close()
		return fmt.Errorf("watch corpus file: %w", err)
	}
	// Watch the directory too; editors and deploys replace the file by
	// rename, which drops the direct watch.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		p.logger.Warn("could not watch corpus directory", zap.Error(err))
	}

	p.watcher = watcher
	go p.watchLoop()
	p.logger.Info("corpus watcher started", zap.String("path", p.path))
	return nil
}

// Close stops the watcher. The provider keeps serving the last library.
func (p *Provider) Close() {
	p.stopped.Do(func() {
		close(p.stopCh)
		if p.watcher != nil {
			p.watcher.Close()
		}
	})
}

func (p *Provider) watchLoop() {
	var debounce *time.Timer

	for {
		select {
		case <-p.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, p.reload)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("corpus watcher error", zap.Error(err))
		}
	}
}

func (p *Provider) reload() {
	lib, err := LoadLibrary(p.path)
	if err != nil {
		p.logger.Error("corpus reload failed, keeping current library", zap.Error(err))
		return
	}

	p.mu.Lock()
	p.library = lib
	p.mu.Unlock()

	p.logger.Info("corpus reloaded",
		zap.String("path", p.path),
		zap.Int("works", len(lib.Works)),
	)
}
