package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

func approvedPayment(t *testing.T, e *env) (*models.Application, *models.Payment) {
	t.Helper()
	app := e.approved(t)
	p, err := fakePayments{e.store}.GetByApplicationID(context.Background(), app.ID)
	require.NoError(t, err)
	return app, p
}

func TestPayment_FailureKeepsApplicationApproved(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app, p := approvedPayment(t, e)

	processing, err := e.payments.UpdateStatus(ctx, finance, p.ID, &dto.UpdatePaymentStatusRequest{Status: string(domain.PaymentProcessing)})
	require.NoError(t, err)
	assert.Equal(t, 1, processing.Attempts)

	_, err = e.payments.UpdateStatus(ctx, finance, p.ID, &dto.UpdatePaymentStatusRequest{Status: string(domain.PaymentFailed)})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)

	failed, err := e.payments.UpdateStatus(ctx, finance, p.ID, &dto.UpdatePaymentStatusRequest{
		Status:        string(domain.PaymentFailed),
		FailureReason: "IBAN rejected by bank",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "IBAN rejected by bank", *failed.FailureReason)

	stored, err := e.apps.Get(ctx, student, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Contains(t, subjects(e.sender.to("user10@uni.edu")), "Scholarship payment failed - ScholarHub")

	var failureNotice *models.Notification
	for _, n := range e.store.byType(models.NotificationPaymentUpdate) {
		if n.Title == "Scholarship payment failed" {
			failureNotice = n
		}
	}
	require.NotNil(t, failureNotice)
	assert.Contains(t, failureNotice.Message, p.ReferenceNumber)
	assert.Contains(t, failureNotice.Message, "will contact you")
	assert.NotContains(t, strings.ToLower(failureNotice.Message), "retry")

	retried, err := e.payments.UpdateStatus(ctx, finance, p.ID, &dto.UpdatePaymentStatusRequest{
		Status:        string(domain.PaymentProcessing),
		PaymentMethod: string(domain.MethodDirectDeposit),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, retried.Attempts)
	assert.Nil(t, retried.FailureReason)
	assert.Equal(t, domain.MethodDirectDeposit, retried.PaymentMethod)

	done, err := e.payments.UpdateStatus(ctx, finance, p.ID, &dto.UpdatePaymentStatusRequest{Status: string(domain.PaymentCompleted)})
	require.NoError(t, err)
	require.NotNil(t, done.ProcessedBy)
	assert.Equal(t, financeUser, *done.ProcessedBy)
	require.NotNil(t, done.ProcessedAt)
	assert.True(t, done.ProcessedAt.Equal(testNow))
}

func TestPayment_IllegalTransition(t *testing.T) {
	e := newEnv(t)
	_, p := approvedPayment(t, e)

	_, err := e.payments.UpdateStatus(context.Background(), finance, p.ID, &dto.UpdatePaymentStatusRequest{Status: string(domain.PaymentCompleted)})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "INVALID_TRANSITION", errCode(err))
}

func TestPayment_OnlyFinanceProcesses(t *testing.T) {
	e := newEnv(t)
	_, p := approvedPayment(t, e)

	for _, actor := range []struct {
		name string
		role func() error
	}{
		{"student", func() error {
			_, err := e.payments.UpdateStatus(context.Background(), student, p.ID, &dto.UpdatePaymentStatusRequest{Status: "processing"})
			return err
		}},
		{"committee", func() error {
			_, err := e.payments.UpdateStatus(context.Background(), committee, p.ID, &dto.UpdatePaymentStatusRequest{Status: "processing"})
			return err
		}},
	} {
		t.Run(actor.name, func(t *testing.T) {
			assert.ErrorIs(t, actor.role(), apperrors.ErrPermissionDenied)
		})
	}
}

func TestPayment_Visibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, p := approvedPayment(t, e)

	mine, total, err := e.payments.List(ctx, student, models.PaymentFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, p.ID, mine[0].ID)

	_, total, err = e.payments.List(ctx, weakStudent, models.PaymentFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = e.payments.Get(ctx, weakStudent, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)

	_, _, err = e.payments.List(ctx, committee, models.PaymentFilter{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	got, err := e.payments.Get(ctx, finance, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, got.Amount)
}
