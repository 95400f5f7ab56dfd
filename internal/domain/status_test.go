package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

func allEvents() []Event {
	return []Event{
		EventSubmit, EventBeginReview, EventRequestDocuments, EventResubmit,
		EventApprove, EventReject, EventReturn, EventWithdraw,
	}
}

func TestTransition_Table(t *testing.T) {
	cases := []struct {
		from Status
		ev   Event
		to   Status
	}{
		{StatusDraft, EventSubmit, StatusSubmitted},
		{StatusSubmitted, EventBeginReview, StatusUnderReview},
		{StatusUnderReview, EventRequestDocuments, StatusPendingDocuments},
		{StatusPendingDocuments, EventResubmit, StatusUnderReview},
		{StatusUnderReview, EventApprove, StatusApproved},
		{StatusUnderReview, EventReject, StatusRejected},
		{StatusSubmitted, EventReturn, StatusPendingDocuments},
		{StatusUnderReview, EventReturn, StatusPendingDocuments},
		{StatusDraft, EventWithdraw, StatusWithdrawn},
		{StatusPendingDocuments, EventWithdraw, StatusWithdrawn},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.ev), func(t *testing.T) {
			got, err := Transition(tc.from, tc.ev)
			require.NoError(t, err)
			assert.Equal(t, tc.to, got)
		})
	}
}

func TestTransition_EveryResultIsKnownAndJustified(t *testing.T) {
	for _, from := range Statuses() {
		for _, ev := range allEvents() {
			to, err := Transition(from, ev)
			if err != nil {
				assert.True(t, errors.Is(err, apperrors.ErrConflict), "from=%s ev=%s: %v", from, ev, err)
				continue
			}
			assert.True(t, to.Valid(), "from=%s ev=%s produced %q", from, ev, to)
			assert.True(t, Allowed(from, to), "from=%s to=%s not in table", from, to)
		}
	}
}

func TestTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, from := range []Status{StatusApproved, StatusRejected, StatusWithdrawn} {
		for _, ev := range allEvents() {
			_, err := Transition(from, ev)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConflict)
		}
		assert.Empty(t, AvailableEvents(from))
	}
}

func TestTransition_ApproveFromSubmittedIsConflict(t *testing.T) {
	_, err := Transition(StatusSubmitted, EventApprove)
	require.Error(t, err)
	ce, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TRANSITION", ce.Code)
}

func TestTransition_UnknownStatus(t *testing.T) {
	_, err := Transition(Status("archived"), EventSubmit)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Under_Review ")
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, s)

	_, err = ParseStatus("paid")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestDecision(t *testing.T) {
	d, err := ParseDecision("APPROVED")
	require.NoError(t, err)
	assert.Equal(t, EventApprove, d.Event())
	assert.Equal(t, EventReject, DecisionRejected.Event())
	assert.Equal(t, EventReturn, DecisionReturned.Event())

	_, err = ParseDecision("maybe")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestEventActor(t *testing.T) {
	assert.Equal(t, ActorOwner, EventSubmit.Actor())
	assert.Equal(t, ActorOwner, EventResubmit.Actor())
	assert.Equal(t, ActorOwner, EventWithdraw.Actor())
	assert.Equal(t, ActorReviewer, EventBeginReview.Actor())
	assert.Equal(t, ActorReviewer, EventApprove.Actor())
}

func TestStatusFlags(t *testing.T) {
	assert.True(t, StatusDraft.Editable())
	assert.True(t, StatusPendingDocuments.Editable())
	assert.False(t, StatusSubmitted.Editable())
	assert.False(t, StatusUnderReview.Terminal())
	assert.Len(t, Statuses(), 7)
}

func TestPresentationCoversEveryValue(t *testing.T) {
	table := Presentations()
	for _, s := range Statuses() {
		assert.NotEmpty(t, table.ApplicationStatuses[s].Label, s)
	}
	for _, s := range ScholarshipStatuses() {
		assert.NotEmpty(t, table.ScholarshipStatuses[s].Label, s)
	}
	for _, s := range PaymentStatuses() {
		assert.NotEmpty(t, table.PaymentStatuses[s].Label, s)
	}
	for _, p := range Priorities() {
		assert.NotEmpty(t, table.Priorities[p].Label, p)
	}
	assert.Equal(t, "Under Review", StatusUnderReview.Presentation().Label)
}
