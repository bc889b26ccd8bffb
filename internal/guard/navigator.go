package guard

import (
	"sync"

	"github.com/charmbracelet/log"
)

// LogNavigator is the terminal client's navigator: it tracks the current
// logical route and logs requested transitions instead of rendering views.
type LogNavigator struct {
	mu      sync.Mutex
	current string
	logger  *log.Logger
}

// NewLogNavigator creates a LogNavigator positioned at the root route.
func NewLogNavigator(logger *log.Logger) *LogNavigator {
	return &LogNavigator{current: "/", logger: logger}
}

// Navigate records the transition as the new current route.
func (n *LogNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logger.Debug("navigation requested", "from", n.current, "to", path)
	n.current = path
}

// Current returns the current logical route.
func (n *LogNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
