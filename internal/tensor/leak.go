package tensor

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/born-ml/ndtrain/internal/logging"
	"go.uber.org/zap"
)

// LeakWarning describes a root manager that was still open when CheckLeaks
// ran. It is a diagnostic, not an error: CheckLeaks has already closed the
// manager by the time the warning is returned.
type LeakWarning struct {
	ManagerID string
	Handles   int    // Handles owned directly at the time of the check
	Children  int    // Open child managers at the time of the check
	CreatedAt string // file:line of the NewManager call
}

// String returns a human-readable description.
func (w LeakWarning) String() string {
	return fmt.Sprintf("manager %s created at %s was not closed (%d handles, %d children)",
		w.ManagerID, w.CreatedAt, w.Handles, w.Children)
}

var leaks = struct {
	mu      sync.Mutex
	enabled bool
	open    map[*Manager]string
}{
	open: make(map[*Manager]string),
}

// TrackLeaks turns root-manager leak tracking on or off. Only managers created
// while tracking is on are checked. Turning tracking off forgets every
// tracked manager.
func TrackLeaks(enabled bool) {
	leaks.mu.Lock()
	defer leaks.mu.Unlock()
	leaks.enabled = enabled
	if !enabled {
		leaks.open = make(map[*Manager]string)
	}
}

// CheckLeaks reports every tracked root manager that is still open, logs a
// warning for each and force-closes it. Call it at shutdown or at the end of
// a test.
func CheckLeaks() []LeakWarning {
	leaks.mu.Lock()
	open := make(map[*Manager]string, len(leaks.open))
	for m, site := range leaks.open {
		open[m] = site
	}
	leaks.mu.Unlock()

	log := logging.Named("tensor")
	var warnings []LeakWarning
	for m, site := range open {
		if !m.IsOpen() {
			untrackRoot(m)
			continue
		}
		w := LeakWarning{
			ManagerID: m.ID(),
			Handles:   m.NumHandles(),
			Children:  m.NumChildren(),
			CreatedAt: site,
		}
		log.Warn("manager was not closed explicitly",
			zap.String("manager", w.ManagerID),
			zap.String("created_at", w.CreatedAt),
			zap.Int("handles", w.Handles),
			zap.Int("children", w.Children))
		if err := m.Close(); err != nil {
			log.Error("forced close failed", zap.String("manager", w.ManagerID), zap.Error(err))
		}
		warnings = append(warnings, w)
	}
	return warnings
}

func trackRoot(m *Manager) {
	leaks.mu.Lock()
	defer leaks.mu.Unlock()
	if !leaks.enabled {
		return
	}
	site := "unknown"
	// Skip trackRoot and NewManager.
	if _, file, line, ok := runtime.Caller(2); ok {
		site = fmt.Sprintf("%s:%d", file, line)
	}
	leaks.open[m] = site
}

func untrackRoot(m *Manager) {
	leaks.mu.Lock()
	delete(leaks.open, m)
	leaks.mu.Unlock()
}
