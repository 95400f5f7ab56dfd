package domain

import "time"

// Priority ranks review work and notifications.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityOrder = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Priorities lists priorities from lowest to highest.
func Priorities() []Priority {
	out := make([]Priority, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.rank() >= 0
}

func (p Priority) rank() int {
	for i, known := range priorityOrder {
		if p == known {
			return i
		}
	}
	return -1
}

func (p Priority) bump() Priority {
	r := p.rank()
	if r < 0 || r == len(priorityOrder)-1 {
		return p
	}
	return priorityOrder[r+1]
}

const (
	urgentWindow = 3
	highWindow   = 7
	mediumWindow = 14
	staleQueue   = 14 * 24 * time.Hour
)

// ComputePriority derives the review priority of an application. Only
// applications waiting on a reviewer or the student are ranked; drafts and
// closed-out applications are always low.
func ComputePriority(status Status, deadline time.Time, submittedAt *time.Time, now time.Time) Priority {
	if status == StatusDraft || status.Terminal() {
		return PriorityLow
	}

	days := int(deadline.Sub(now).Hours() / 24)
	var p Priority
	switch {
	case days <= urgentWindow:
		p = PriorityUrgent
	case days <= highWindow:
		p = PriorityHigh
	case days <= mediumWindow:
		p = PriorityMedium
	default:
		p = PriorityLow
	}

	if submittedAt != nil && now.Sub(*submittedAt) > staleQueue {
		p = p.bump()
	}
	return p
}
