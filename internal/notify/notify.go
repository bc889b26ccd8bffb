// package notify defines the user-facing notification capability.
//
// Stores and the session manager report outcomes through a [Notifier]
// injected at construction; how the message is rendered (terminal line,
// TUI status bar) is the caller's concern.
package notify

import "github.com/charmbracelet/log"

// Severity classifies a notification.
type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// String returns the lowercase label for the severity.
func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Notifier is the channel every action uses to surface an outcome to the user.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// LogNotifier renders notifications through a [log.Logger].
type LogNotifier struct {
	logger *log.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier backed by the given logger.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(msg string) { n.logger.Info(msg) }
func (n *LogNotifier) Info(msg string)    { n.logger.Info(msg) }
func (n *LogNotifier) Warning(msg string) { n.logger.Warn(msg) }
func (n *LogNotifier) Error(msg string)   { n.logger.Error(msg) }
