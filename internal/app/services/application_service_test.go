package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

func TestCreate_DuplicateActiveApplication(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.apps.Create(ctx, student, &dto.CreateApplicationRequest{ScholarshipID: meritAward})
	require.NoError(t, err)

	_, err = e.apps.Create(ctx, student, &dto.CreateApplicationRequest{ScholarshipID: meritAward})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreate_AllowedAgainAfterWithdraw(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	app, err := e.apps.Create(ctx, student, &dto.CreateApplicationRequest{ScholarshipID: meritAward})
	require.NoError(t, err)
	_, err = e.apps.Withdraw(ctx, student, app.ID)
	require.NoError(t, err)

	again, err := e.apps.Create(ctx, student, &dto.CreateApplicationRequest{ScholarshipID: meritAward})
	require.NoError(t, err)
	assert.NotEqual(t, app.ID, again.ID)
	assert.Equal(t, domain.StatusDraft, again.Status)
}

func TestCreate_RejectedForClosedScholarship(t *testing.T) {
	e := newEnv(t)
	e.setScholarship(meritAward, func(s *models.Scholarship) { s.Status = domain.ScholarshipClosed })

	_, err := e.apps.Create(context.Background(), student, &dto.CreateApplicationRequest{ScholarshipID: meritAward})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "SCHOLARSHIP_CLOSED", errCode(err))
}

func TestCreate_StaffCannotApply(t *testing.T) {
	e := newEnv(t)
	_, err := e.apps.Create(context.Background(), committee, &dto.CreateApplicationRequest{ScholarshipID: meritAward})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestSubmit_QueuesReceiptAndEmail(t *testing.T) {
	e := newEnv(t)

	app := e.submitted(t)

	assert.Equal(t, domain.StatusSubmitted, app.Status)
	require.NotNil(t, app.SubmittedAt)
	assert.True(t, app.SubmittedAt.Equal(testNow))

	received := e.store.byType(models.NotificationApplicationSubmitted)
	require.Len(t, received, 1)
	assert.Equal(t, []int64{studentUser}, received[0].UserIDs)
	assert.Contains(t, subjects(e.sender.to("user10@uni.edu")), "Application received - ScholarHub")
	assert.Equal(t, 1, e.pusher.count(studentUser))
}

func TestSubmit_IncompleteApplication(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	app, err := e.apps.Create(ctx, student, &dto.CreateApplicationRequest{
		ScholarshipID: meritAward,
		PersonalInfo:  map[string]interface{}{"address": "1 Campus Road"},
	})
	require.NoError(t, err)

	_, err = e.apps.Submit(ctx, student, app.ID)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, "INCOMPLETE_APPLICATION", errCode(err))

	ce, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, ce.Details, "documents")
	assert.Contains(t, ce.Details, "essays")

	stored, err := e.apps.Get(ctx, student, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
}

func TestSubmit_IneligibleStudent(t *testing.T) {
	e := newEnv(t)
	app := e.draft(t, weakStudent)

	_, err := e.apps.Submit(context.Background(), weakStudent, app.ID)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, "INELIGIBLE", errCode(err))

	ce, _ := apperrors.As(err)
	assert.Equal(t, []string{string(domain.ReasonGPABelowMinimum)}, ce.Details["reasons"])
}

func TestSubmit_AfterCoordinatorClosesScholarship(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.draft(t, student)

	_, err := e.scholarships.ChangeStatus(ctx, coordinator, meritAward, string(domain.ScholarshipClosed))
	require.NoError(t, err)

	_, err = e.apps.Submit(ctx, student, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "SCHOLARSHIP_CLOSED", errCode(err))
}

func TestSubmit_AfterDeadline(t *testing.T) {
	e := newEnv(t)
	app := e.draft(t, student)

	e.apps.now = func() time.Time { return testNow.Add(11 * 24 * time.Hour) }

	_, err := e.apps.Submit(context.Background(), student, app.ID)
	assert.Equal(t, "SCHOLARSHIP_CLOSED", errCode(err))
}

func TestSubmit_OtherStudentForbidden(t *testing.T) {
	e := newEnv(t)
	app := e.draft(t, student)

	_, err := e.apps.Submit(context.Background(), weakStudent, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestGet_HidesOtherStudentsApplications(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.draft(t, student)

	_, err := e.apps.Get(ctx, weakStudent, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)

	_, err = e.apps.Get(ctx, weakStudent, 9999)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)

	seen, err := e.apps.Get(ctx, committee, app.ID)
	require.NoError(t, err)
	assert.Equal(t, studentUser, seen.StudentID)
}

func TestListMine_OnlyOwnApplications(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.draft(t, student)
	e.draft(t, weakStudent)

	items, total, err := e.apps.ListMine(ctx, weakStudent, models.ApplicationFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, weakStudentUser, items[0].StudentID)

	_, _, err = e.apps.List(ctx, student, models.ApplicationFilter{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, total, err = e.apps.List(ctx, coordinator, models.ApplicationFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestUpdate_OwnerAndVersionChecks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.draft(t, student)

	_, err := e.apps.Update(ctx, weakStudent, app.ID, &dto.UpdateApplicationRequest{
		Essays: map[string]interface{}{"motivation": "hijack"},
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	stale := 99
	_, err = e.apps.Update(ctx, student, app.ID, &dto.UpdateApplicationRequest{
		Essays:  map[string]interface{}{"motivation": "new"},
		Version: &stale,
	})
	assert.ErrorIs(t, err, apperrors.ErrStaleVersion)

	current, err := e.apps.Get(ctx, student, app.ID)
	require.NoError(t, err)
	updated, err := e.apps.Update(ctx, student, app.ID, &dto.UpdateApplicationRequest{
		Essays:  map[string]interface{}{"motivation": "rewritten"},
		Version: &current.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, "rewritten", updated.Essays["motivation"])
	assert.Equal(t, "1 Campus Road", updated.PersonalInfo["address"])
	assert.Greater(t, updated.Version, current.Version)
}

func TestUpdate_NotEditableOnceSubmitted(t *testing.T) {
	e := newEnv(t)
	app := e.submitted(t)

	_, err := e.apps.Update(context.Background(), student, app.ID, &dto.UpdateApplicationRequest{
		Essays: map[string]interface{}{"motivation": "late edit"},
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestReview_ApproveRequiresScore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.underReview(t)

	_, err := e.apps.Review(ctx, committee, app.ID, &dto.ReviewApplicationRequest{
		Action:   dto.ReviewActionDecide,
		Decision: string(domain.DecisionApproved),
		Comments: "Looks good",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	stored, err := e.apps.Get(ctx, committee, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnderReview, stored.Status)
	assert.Empty(t, e.store.payments)
}

func TestReview_ApproveCreatesPaymentAndNotifiesFinance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	app := e.approved(t)

	assert.Equal(t, domain.StatusApproved, app.Status)
	require.NotNil(t, app.Score)
	assert.Equal(t, 88.0, *app.Score)
	require.NotNil(t, app.ReviewedBy)
	assert.Equal(t, committeeUser, *app.ReviewedBy)
	assert.Equal(t, 1, e.scholarship(t, meritAward).CurrentRecipients)

	payments, total, err := e.payments.List(ctx, finance, models.PaymentFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	p := payments[0]
	assert.Equal(t, app.ID, p.ApplicationID)
	assert.Equal(t, studentUser, p.StudentID)
	assert.Equal(t, 2500.0, p.Amount)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.True(t, strings.HasPrefix(p.ReferenceNumber, "SCH-20260301-"), p.ReferenceNumber)

	var financeNotified bool
	for _, n := range e.store.byType(models.NotificationPaymentUpdate) {
		if _, ok := e.store.recipients[n.ID][financeUser]; ok {
			financeNotified = true
		}
	}
	assert.True(t, financeNotified)
	assert.Contains(t, subjects(e.sender.to("user10@uni.edu")), "Application approved - ScholarHub")
}

func TestReview_RecipientCapReached(t *testing.T) {
	e := newEnv(t)
	e.setScholarship(meritAward, func(s *models.Scholarship) { s.CurrentRecipients = s.MaxRecipients })
	app := e.underReview(t)

	_, err := e.apps.Review(context.Background(), committee, app.ID, approve(90))
	assert.ErrorIs(t, err, apperrors.ErrRecipientCapReached)
	assert.Empty(t, e.store.payments)
}

func TestReview_RejectRecordsReason(t *testing.T) {
	e := newEnv(t)
	app := e.underReview(t)

	rejected, err := e.apps.Review(context.Background(), committee, app.ID, &dto.ReviewApplicationRequest{
		Action:   dto.ReviewActionDecide,
		Decision: string(domain.DecisionRejected),
		Comments: "Essay does not address the criteria",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Essay does not address the criteria", *rejected.RejectionReason)
	assert.Empty(t, e.store.payments)
}

func TestReview_StudentCannotReview(t *testing.T) {
	e := newEnv(t)
	app := e.submitted(t)

	_, err := e.apps.Review(context.Background(), student, app.ID, &dto.ReviewApplicationRequest{Action: dto.ReviewActionBegin})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestReview_RequestDocumentsThenResubmit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.underReview(t)

	_, err := e.apps.Review(ctx, committee, app.ID, &dto.ReviewApplicationRequest{Action: dto.ReviewActionRequestDocuments})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)

	pending, err := e.apps.Review(ctx, committee, app.ID, &dto.ReviewApplicationRequest{
		Action:   dto.ReviewActionRequestDocuments,
		Comments: "Please add a recommendation letter",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingDocuments, pending.Status)

	requested := e.store.byType(models.NotificationDocumentsRequested)
	require.Len(t, requested, 1)
	assert.Equal(t, domain.PriorityHigh, requested[0].Priority)
	assert.Contains(t, requested[0].Message, "recommendation letter")

	letter := pdf("letter.pdf", "%PDF-1.7 letter")
	letter.Type = string(domain.DocRecommendation)
	_, err = e.apps.UploadDocument(ctx, student, app.ID, letter)
	require.NoError(t, err)

	back, err := e.apps.Resubmit(ctx, student, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnderReview, back.Status)
	assert.Len(t, back.Documents, 2)
}

func TestWithdraw_FromApprovedIsConflict(t *testing.T) {
	e := newEnv(t)
	app := e.approved(t)

	_, err := e.apps.Withdraw(context.Background(), student, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "INVALID_TRANSITION", errCode(err))
}

func TestUploadDocument_RejectedBeforeStorage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app, err := e.apps.Create(ctx, student, &dto.CreateApplicationRequest{ScholarshipID: meritAward})
	require.NoError(t, err)

	big := pdf("transcript.pdf", "x")
	big.Size = 6 << 20
	_, err = e.apps.UploadDocument(ctx, student, app.ID, big)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = e.apps.UploadDocument(ctx, student, app.ID, pdf("virus.exe", "MZ"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	assert.Zero(t, e.storage.count())
}

func TestUploadDocument_StorageFailureIsUpstream(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app, err := e.apps.Create(ctx, student, &dto.CreateApplicationRequest{ScholarshipID: meritAward})
	require.NoError(t, err)

	e.storage.fail = assert.AnError
	_, err = e.apps.UploadDocument(ctx, student, app.ID, pdf("transcript.pdf", "%PDF"))
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestUploadDocument_NotAllowedOnceSubmitted(t *testing.T) {
	e := newEnv(t)
	app := e.submitted(t)

	_, err := e.apps.UploadDocument(context.Background(), student, app.ID, pdf("late.pdf", "%PDF"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 1, e.storage.count())
}

func TestDeleteDocument(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.draft(t, student)

	stored, err := e.apps.Get(ctx, student, app.ID)
	require.NoError(t, err)
	require.Len(t, stored.Documents, 1)
	doc := stored.Documents[0]
	assert.True(t, e.storage.has(doc.Path))

	err = e.apps.DeleteDocument(ctx, student, app.ID, "missing")
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)

	require.NoError(t, e.apps.DeleteDocument(ctx, student, app.ID, doc.ID))
	assert.False(t, e.storage.has(doc.Path))

	stored, err = e.apps.Get(ctx, student, app.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Documents)
}

func TestDelete_OnlyDrafts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	submitted := e.submitted(t)
	err := e.apps.Delete(ctx, student, submitted.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	e.store.scholarships[2] = e.scholarship(t, meritAward)
	e.setScholarship(2, func(s *models.Scholarship) { s.ID = 2; s.Name = "Second Award" })
	draft, err := e.apps.Create(ctx, student, &dto.CreateApplicationRequest{ScholarshipID: 2})
	require.NoError(t, err)
	_, err = e.apps.UploadDocument(ctx, student, draft.ID, pdf("t.pdf", "%PDF"))
	require.NoError(t, err)

	require.NoError(t, e.apps.Delete(ctx, student, draft.ID))
	_, err = e.apps.Get(ctx, student, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)
	assert.Equal(t, 1, e.storage.count())
}
