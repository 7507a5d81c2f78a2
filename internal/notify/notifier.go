package notify

// Severity classifies a user-facing notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notifier delivers user-facing messages. Implementations must be safe for
// concurrent use; callers treat the sink as stateless and reentrant.
type Notifier interface {
	Notify(message string, severity Severity)
}
