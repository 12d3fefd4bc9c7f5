package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gyaneshwarpardhi/bankpredict/internal/metrics"
	"github.com/gyaneshwarpardhi/bankpredict/internal/model"
)

// DefaultDebounce is how long Watch waits for a burst of file events to settle.
const DefaultDebounce = 250 * time.Millisecond

// Store holds the active artifact Set and replaces it atomically on reload.
// Readers call Current per request and never observe a partially loaded set.
type Store struct {
	dir      string
	registry *model.Registry
	logger   *zap.Logger
	debounce time.Duration

	current  atomic.Pointer[Set]
	reloadMu sync.Mutex

	mu       sync.RWMutex
	onChange []func(*Set)
}

// NewStore creates a Store rooted at dir. No artifacts are loaded until Reload.
func NewStore(dir string, reg *model.Registry, logger *zap.Logger) *Store {
	return &Store{dir: dir, registry: reg, logger: logger, debounce: DefaultDebounce}
}

// Dir returns the artifacts root.
func (s *Store) Dir() string { return s.dir }

// Current returns the active set, or nil before the first successful load.
func (s *Store) Current() *Set { return s.current.Load() }

// OnChange registers a callback invoked after every successful reload.
func (s *Store) OnChange(fn func(*Set)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Reload loads a fresh set from disk and makes it current. On failure the previous set
// stays active.
func (s *Store) Reload() (*Set, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	set, err := Load(s.dir, s.registry)
	if err != nil {
		metrics.ArtifactReloads.WithLabelValues("failure").Inc()
		return nil, err
	}
	prev := s.current.Swap(set)
	metrics.ArtifactReloads.WithLabelValues("success").Inc()
	metrics.ArtifactLoadedTimestamp.Set(float64(set.LoadedAt.Unix()))

	fields := []zap.Field{zap.String("version", set.Version), zap.Int("churn_columns", len(set.Churn.Schema)), zap.Int("loan_columns", len(set.Loan.Schema))}
	if prev != nil {
		fields = append(fields, zap.String("previous_version", prev.Version))
	}
	s.logger.Info("artifacts loaded", fields...)

	s.mu.RLock()
	callbacks := make([]func(*Set), len(s.onChange))
	copy(callbacks, s.onChange)
	s.mu.RUnlock()
	for _, fn := range callbacks {
		fn(set)
	}
	return set, nil
}

// Watch starts a background goroutine that reloads the set when any artifact file
// changes. Call the returned stop function to clean up.
func (s *Store) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("artifact watcher: %w", err)
	}
	for _, name := range []string{ModelChurn, ModelLoan} {
		dir := filepath.Join(s.dir, name)
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("artifact watcher add %s: %w", dir, err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		// Artifacts are usually replaced several files at a time.
		var settle <-chan time.Time
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if strings.HasSuffix(ev.Name, ".json") && !ev.Has(fsnotify.Chmod) {
					settle = time.After(s.debounce)
				}
			case <-settle:
				settle = nil
				if _, err := s.Reload(); err != nil {
					s.logger.Warn("artifact reload failed, keeping previous set", zap.Error(err))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("artifact watcher error", zap.Error(err))
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}
