package notify

import "fmt"

const (
	NotifierKindLog    = "log"
	NotifierKindMemory = "memory"
)

// NewNotifierFromConfig creates a Notifier based on the configured kind.
func NewNotifierFromConfig(kind string) (Notifier, error) {
	switch kind {
	case NotifierKindLog, "":
		return NewLogNotifier(), nil
	case NotifierKindMemory:
		return NewMemoryNotifier(), nil
	default:
		return nil, fmt.Errorf("unknown notifier kind: %s (supported: %s, %s)", kind, NotifierKindLog, NotifierKindMemory)
	}
}
