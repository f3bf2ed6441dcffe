package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"habitat/internal/api"
	"habitat/pkg/logging"
)

// Watcher reloads template definitions when their files change on disk. It
// debounces rapid successive writes so editors that save in multiple steps
// trigger one reload.
type Watcher struct {
	mu sync.Mutex

	registry *Registry
	dir      string
	debounce time.Duration

	watcher *fsnotify.Watcher
	pending map[string]*time.Timer
	stopCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher over the registry's template directory.
func NewWatcher(registry *Registry, debounce time.Duration) *Watcher {
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	dir := ""
	if registry.storage != nil {
		dir = registry.storage.EntityDir(templateEntityType)
	}
	return &Watcher{
		registry: registry,
		dir:      dir,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching the template directory. Without persistent storage
// there is nothing to watch and Start is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.dir == "" {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	go w.processEvents(ctx)

	logging.Info("catalog", "Watching %s for template changes", w.dir)
	return nil
}

// Stop closes the watcher and cancels pending reloads.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)

	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Error("catalog", err, "Closing template watcher")
		}
		w.watcher = nil
	}
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("catalog", err, "Template watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isYAMLFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		// Deleting a definition file never removes the registered template;
		// environments built from it keep working.
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	path := event.Name
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.reload(path)
	})
}

// reload reads one definition file and registers the template it holds.
func (w *Watcher) reload(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("catalog", "Cannot read template file %s: %v", path, err)
		return
	}
	var tmpl api.EnvironmentTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		logging.Warn("catalog", "Cannot parse template file %s: %v", path, err)
		return
	}
	if tmpl.ID == "" {
		tmpl.ID = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".yaml"), ".yml")
	}
	if err := validateTemplate(&tmpl); err != nil {
		logging.Warn("catalog", "Rejecting template file %s: %v", path, err)
		return
	}

	w.registry.mu.Lock()
	w.registry.templates[tmpl.ID] = &tmpl
	w.registry.mu.Unlock()
	logging.Info("catalog", "Reloaded template %s from %s", tmpl.ID, path)
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
