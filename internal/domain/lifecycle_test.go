package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTransitionPayment(t *testing.T) {
	ok := [][2]PaymentStatus{
		{PaymentPending, PaymentProcessing},
		{PaymentPending, PaymentCancelled},
		{PaymentProcessing, PaymentCompleted},
		{PaymentProcessing, PaymentFailed},
		{PaymentFailed, PaymentProcessing},
	}
	for _, pair := range ok {
		assert.NoError(t, TransitionPayment(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	bad := [][2]PaymentStatus{
		{PaymentPending, PaymentCompleted},
		{PaymentCompleted, PaymentProcessing},
		{PaymentCancelled, PaymentPending},
		{PaymentFailed, PaymentCompleted},
	}
	for _, pair := range bad {
		assert.ErrorIs(t, TransitionPayment(pair[0], pair[1]), apperrors.ErrConflict, "%s -> %s", pair[0], pair[1])
	}

	assert.ErrorIs(t, TransitionPayment(PaymentPending, "refunded"), apperrors.ErrValidationFailed)
	assert.True(t, PaymentCompleted.Terminal())
	assert.False(t, PaymentFailed.Terminal())
}

func TestTransitionScholarship(t *testing.T) {
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	require.NoError(t, TransitionScholarship(ScholarshipDraft, ScholarshipActive, future, now))
	require.NoError(t, TransitionScholarship(ScholarshipActive, ScholarshipClosed, future, now))
	require.NoError(t, TransitionScholarship(ScholarshipClosed, ScholarshipActive, future, now))
	require.NoError(t, TransitionScholarship(ScholarshipClosed, ScholarshipCancelled, past, now))

	assert.ErrorIs(t, TransitionScholarship(ScholarshipClosed, ScholarshipActive, past, now), apperrors.ErrConflict)
	assert.ErrorIs(t, TransitionScholarship(ScholarshipCancelled, ScholarshipActive, future, now), apperrors.ErrConflict)
	assert.ErrorIs(t, TransitionScholarship(ScholarshipActive, ScholarshipDraft, future, now), apperrors.ErrConflict)
}

func TestAcceptsSubmissions(t *testing.T) {
	assert.True(t, AcceptsSubmissions(ScholarshipActive, now.Add(time.Minute), now))
	assert.False(t, AcceptsSubmissions(ScholarshipActive, now, now))
	assert.False(t, AcceptsSubmissions(ScholarshipClosed, now.Add(time.Hour), now))
}

func TestValidateScholarshipTerms(t *testing.T) {
	valid := ScholarshipTerms{
		Name:          "Merit Award",
		Amount:        1000,
		TotalFunding:  5000,
		MaxRecipients: 5,
		Deadline:      now.Add(30 * 24 * time.Hour),
		Department:    "all",
	}
	assert.NoError(t, ValidateScholarshipTerms(valid, now, true))

	underfunded := valid
	underfunded.TotalFunding = 4999
	err := ValidateScholarshipTerms(underfunded, now, true)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	ce, _ := apperrors.As(err)
	assert.Contains(t, ce.Details, "totalFunding")

	expired := valid
	expired.Deadline = now.Add(-time.Hour)
	assert.Error(t, ValidateScholarshipTerms(expired, now, true))
	assert.NoError(t, ValidateScholarshipTerms(expired, now, false))

	badYear := valid
	badYear.YearsOfStudy = []YearOfStudy{"7"}
	assert.Error(t, ValidateScholarshipTerms(badYear, now, true))
}

func TestComputePriority(t *testing.T) {
	days := func(n int) time.Time { return now.Add(time.Duration(n) * 24 * time.Hour) }
	fresh := now.Add(-time.Hour)
	stale := now.Add(-20 * 24 * time.Hour)

	cases := []struct {
		name      string
		status    Status
		deadline  time.Time
		submitted *time.Time
		want      Priority
	}{
		{"draft is low", StatusDraft, days(1), nil, PriorityLow},
		{"approved is low", StatusApproved, days(1), &fresh, PriorityLow},
		{"two days urgent", StatusSubmitted, days(2), &fresh, PriorityUrgent},
		{"five days high", StatusUnderReview, days(5), &fresh, PriorityHigh},
		{"ten days medium", StatusSubmitted, days(10), &fresh, PriorityMedium},
		{"month away low", StatusSubmitted, days(30), &fresh, PriorityLow},
		{"stale bumps low to medium", StatusSubmitted, days(30), &stale, PriorityMedium},
		{"stale urgent stays urgent", StatusPendingDocuments, days(1), &stale, PriorityUrgent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputePriority(tc.status, tc.deadline, tc.submitted, now)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, ComputePriority(tc.status, tc.deadline, tc.submitted, now))
		})
	}
}

func TestUploadPolicy(t *testing.T) {
	p := DefaultUploadPolicy
	assert.NoError(t, p.Check("transcript.PDF", 1024, DocTranscript))
	assert.Error(t, p.Check("virus.exe", 1024, DocOther))
	assert.Error(t, p.Check("big.pdf", 6<<20, DocOther))
	assert.Error(t, p.Check("empty.pdf", 0, DocOther))
	assert.Error(t, p.Check("ok.pdf", 10, DocumentType("selfie")))
}

func TestValidateSubmission(t *testing.T) {
	full := SubmissionContent{
		PersonalInfo:  map[string]interface{}{"phone": "555"},
		AcademicInfo:  map[string]interface{}{"gpa": 3.7},
		Essays:        map[string]interface{}{"motivation": "..."},
		DocumentCount: 1,
	}
	assert.NoError(t, ValidateSubmission(full))

	missingDocs := full
	missingDocs.DocumentCount = 0
	err := ValidateSubmission(missingDocs)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	ce, _ := apperrors.As(err)
	assert.Equal(t, "INCOMPLETE_APPLICATION", ce.Code)
	assert.Contains(t, ce.Details, "documents")
}
