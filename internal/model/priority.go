package model

// Priority is an ordered task priority. It is persisted as its ordinal
// index, so the order of these constants must never change; new values may
// only be appended.
type Priority int

const (
	PriorityNothing Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

// priorityNames is indexed by ordinal.
var priorityNames = []string{"none", "low", "medium", "high"}

// PriorityFromOrdinal converts a stored ordinal back to a Priority.
// Out-of-range ordinals (from a newer or corrupted schema) fall back to
// PriorityNothing instead of failing.
func PriorityFromOrdinal(ordinal int) Priority {
	if ordinal < 0 || ordinal >= len(priorityNames) {
		return PriorityNothing
	}
	return Priority(ordinal)
}

// Ordinal returns the stable storage representation of p.
func (p Priority) Ordinal() int {
	return int(p)
}

func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return priorityNames[PriorityNothing]
	}
	return priorityNames[p]
}

// Priorities returns all priorities in ordinal order, for pickers.
func Priorities() []Priority {
	return []Priority{PriorityNothing, PriorityLow, PriorityMedium, PriorityHigh}
}
