package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// ScholarshipStatus is the publication state of a scholarship.
type ScholarshipStatus string

const (
	ScholarshipDraft     ScholarshipStatus = "draft"
	ScholarshipActive    ScholarshipStatus = "active"
	ScholarshipClosed    ScholarshipStatus = "closed"
	ScholarshipCancelled ScholarshipStatus = "cancelled"
)

// ScholarshipStatuses lists every scholarship status.
func ScholarshipStatuses() []ScholarshipStatus {
	return []ScholarshipStatus{ScholarshipDraft, ScholarshipActive, ScholarshipClosed, ScholarshipCancelled}
}

// Valid reports whether s is a known scholarship status.
func (s ScholarshipStatus) Valid() bool {
	switch s {
	case ScholarshipDraft, ScholarshipActive, ScholarshipClosed, ScholarshipCancelled:
		return true
	}
	return false
}

var scholarshipTransitions = map[ScholarshipStatus][]ScholarshipStatus{
	ScholarshipDraft:  {ScholarshipActive, ScholarshipCancelled},
	ScholarshipActive: {ScholarshipClosed, ScholarshipCancelled},
	ScholarshipClosed: {ScholarshipActive, ScholarshipCancelled},
}

// TransitionScholarship validates a publication change. Reopening a closed
// scholarship requires its deadline to still be in the future.
func TransitionScholarship(from, to ScholarshipStatus, deadline, now time.Time) error {
	if !to.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown scholarship status %q", to))
	}
	allowed := false
	for _, next := range scholarshipTransitions[from] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperrors.NewConflictError(fmt.Sprintf("scholarship cannot move from %s to %s", from, to)).
			WithCode("INVALID_TRANSITION")
	}
	if to == ScholarshipActive && !now.Before(deadline) {
		return apperrors.NewConflictError("scholarship deadline has passed; extend it before publishing").
			WithCode("DEADLINE_PASSED")
	}
	return nil
}

// AcceptsSubmissions reports whether new applications may be submitted.
func AcceptsSubmissions(status ScholarshipStatus, deadline, now time.Time) bool {
	return status == ScholarshipActive && now.Before(deadline)
}

// ScholarshipTerms is the validated, user-editable part of a scholarship.
type ScholarshipTerms struct {
	Name          string
	Amount        float64
	TotalFunding  float64
	MaxRecipients int
	Deadline      time.Time
	AwardDate     *time.Time
	Department    string
	MinGPA        *float64
	YearsOfStudy  []YearOfStudy
}

// ValidateScholarshipTerms checks amounts, caps, dates and eligibility inputs.
// requireFutureDeadline is set on creation and whenever the deadline changes.
func ValidateScholarshipTerms(t ScholarshipTerms, now time.Time, requireFutureDeadline bool) error {
	problems := make(map[string]interface{})
	if strings.TrimSpace(t.Name) == "" {
		problems["name"] = "required"
	}
	if t.Amount <= 0 {
		problems["amount"] = "must be greater than 0"
	}
	if t.MaxRecipients <= 0 {
		problems["maxRecipients"] = "must be greater than 0"
	}
	if t.Amount > 0 && t.MaxRecipients > 0 && t.TotalFunding < t.Amount*float64(t.MaxRecipients) {
		problems["totalFunding"] = fmt.Sprintf("must be at least amount x maxRecipients (%.2f)", t.Amount*float64(t.MaxRecipients))
	}
	if t.Deadline.IsZero() {
		problems["applicationDeadline"] = "required"
	} else if requireFutureDeadline && !t.Deadline.After(now) {
		problems["applicationDeadline"] = "must be in the future"
	}
	if t.AwardDate != nil && !t.Deadline.IsZero() && t.AwardDate.Before(t.Deadline) {
		problems["awardDate"] = "must not be before the application deadline"
	}
	if strings.TrimSpace(t.Department) == "" {
		problems["department"] = "required (use \"all\" for every department)"
	}
	if t.MinGPA != nil && (*t.MinGPA < 0 || *t.MinGPA > 4) {
		problems["minGpa"] = "must be between 0.0 and 4.0"
	}
	for _, y := range t.YearsOfStudy {
		if !y.Valid() {
			problems["yearOfStudy"] = fmt.Sprintf("unknown year of study %q", y)
			break
		}
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError("invalid scholarship").WithDetails(problems)
	}
	return nil
}
