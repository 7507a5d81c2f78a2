package autosave

// Status is the user-visible save state of an edit session. Transitions are
// strictly controller-driven and ordered:
// Idle -> Pending -> Saving -> Saved|Failed -> Idle.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSaving
	StatusSaved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
