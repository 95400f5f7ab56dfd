// Package domain holds the scholarship application lifecycle rules: status
// machines, eligibility, scoring and review priority. Nothing in here touches
// the database or HTTP; services feed it snapshots and persist the result.
package domain

import (
	"fmt"
	"strings"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSubmitted        Status = "submitted"
	StatusUnderReview      Status = "under_review"
	StatusPendingDocuments Status = "pending_documents"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusWithdrawn        Status = "withdrawn"
)

var allStatuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusPendingDocuments,
	StatusApproved,
	StatusRejected,
	StatusWithdrawn,
}

// Statuses returns every application status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown application status %q", raw)).
			WithDetails(map[string]interface{}{"status": raw})
	}
	return s, nil
}

// Valid reports whether s is one of the seven lifecycle states.
func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusWithdrawn
}

// Editable reports whether the owning student may change the application
// content while it is in s.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusPendingDocuments
}

// Event names a lifecycle action.
type Event string

const (
	EventSubmit           Event = "submit"
	EventBeginReview      Event = "begin_review"
	EventRequestDocuments Event = "request_documents"
	EventResubmit         Event = "resubmit"
	EventApprove          Event = "approve"
	EventReject           Event = "reject"
	EventReturn           Event = "return"
	EventWithdraw         Event = "withdraw"
)

// ActorKind tells who is allowed to fire an event.
type ActorKind int

const (
	// ActorOwner events may only be fired by the student who owns the application.
	ActorOwner ActorKind = iota
	// ActorReviewer events require the applications:review permission.
	ActorReviewer
)

// Actor returns the kind of actor allowed to fire e.
func (e Event) Actor() ActorKind {
	switch e {
	case EventSubmit, EventResubmit, EventWithdraw:
		return ActorOwner
	default:
		return ActorReviewer
	}
}

type rule struct {
	from  Status
	event Event
	to    Status
}

// transitions is the only place where a status change is defined.
var transitions = []rule{
	{StatusDraft, EventSubmit, StatusSubmitted},
	{StatusSubmitted, EventBeginReview, StatusUnderReview},
	{StatusUnderReview, EventRequestDocuments, StatusPendingDocuments},
	{StatusPendingDocuments, EventResubmit, StatusUnderReview},
	{StatusUnderReview, EventApprove, StatusApproved},
	{StatusUnderReview, EventReject, StatusRejected},
	{StatusSubmitted, EventReturn, StatusPendingDocuments},
	{StatusUnderReview, EventReturn, StatusPendingDocuments},
	{StatusDraft, EventWithdraw, StatusWithdrawn},
	{StatusSubmitted, EventWithdraw, StatusWithdrawn},
	{StatusUnderReview, EventWithdraw, StatusWithdrawn},
	{StatusPendingDocuments, EventWithdraw, StatusWithdrawn},
}

// Transition returns the status reached by firing ev from the given status.
// It fails with a conflict error when the table has no matching row.
func Transition(from Status, ev Event) (Status, error) {
	if !from.Valid() {
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown application status %q", from))
	}
	if from.Terminal() {
		return "", apperrors.NewConflictError(fmt.Sprintf("application is %s and can no longer change", from)).
			WithCode("INVALID_TRANSITION")
	}
	for _, r := range transitions {
		if r.from == from && r.event == ev {
			return r.to, nil
		}
	}
	return "", apperrors.NewConflictError(fmt.Sprintf("cannot %s an application that is %s", strings.ReplaceAll(string(ev), "_", " "), from)).
		WithCode("INVALID_TRANSITION").
		WithDetails(map[string]interface{}{"status": from, "event": ev})
}

// Allowed reports whether the table justifies moving from one status to another.
func Allowed(from, to Status) bool {
	for _, r := range transitions {
		if r.from == from && r.to == to {
			return true
		}
	}
	return false
}

// AvailableEvents lists the events that can fire from s, in table order.
func AvailableEvents(s Status) []Event {
	var events []Event
	seen := make(map[Event]bool)
	for _, r := range transitions {
		if r.from == s && !seen[r.event] {
			seen[r.event] = true
			events = append(events, r.event)
		}
	}
	return events
}

// Decision is the reviewer outcome passed to decide.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
	DecisionReturned Decision = "returned"
)

// ParseDecision validates a reviewer decision.
func ParseDecision(raw string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(raw))); d {
	case DecisionApproved, DecisionRejected, DecisionReturned:
		return d, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("decision must be approved, rejected or returned, got %q", raw)).
		WithDetails(map[string]interface{}{"decision": raw})
}

// Event maps a decision onto its lifecycle event.
func (d Decision) Event() Event {
	switch d {
	case DecisionApproved:
		return EventApprove
	case DecisionRejected:
		return EventReject
	default:
		return EventReturn
	}
}
