package notify

import "github.com/edulab/homeworkd/internal/logger"

// LogNotifier writes notifications to the application log. It is the default
// sink; a real deployment would push these to the admin frontend instead.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(message string, severity Severity) {
	entry := logger.WithComponent("notify")
	switch severity {
	case SeverityError:
		entry.Error(message)
	default:
		entry.Info(message)
	}
}
