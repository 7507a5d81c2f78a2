package notify

import "sync"

// Notification is a single recorded message.
type Notification struct {
	Message  string
	Severity Severity
}

// MemoryNotifier records notifications in memory. It is used in tests and in
// development setups where no real sink is available.
type MemoryNotifier struct {
	mu            sync.RWMutex
	notifications []Notification
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, Notification{Message: message, Severity: severity})
}

// Notifications returns a copy of everything recorded so far.
func (n *MemoryNotifier) Notifications() []Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

// Reset clears the recorded notifications.
func (n *MemoryNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = nil
}
