package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/email"
)

func TestSend_ToRoleThenMarkRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	n, err := e.notifications.Send(ctx, coordinator, &dto.CreateNotificationRequest{
		Title:       "Deadline extended",
		Message:     "The merit award deadline moved to 30 April.",
		Priority:    string(domain.PriorityHigh),
		TargetRoles: []string{string(models.RoleStudent)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n.SentCount)
	assert.Equal(t, models.NotificationAnnouncement, n.Type)
	assert.Equal(t, 1, e.pusher.count(studentUser))
	assert.Equal(t, 1, e.pusher.count(weakStudentUser))
	assert.Zero(t, e.pusher.count(committeeUser))
	assert.Len(t, e.sender.to("user11@uni.edu"), 1)

	items, total, unread, err := e.notifications.ListMine(ctx, student, NewPage(1, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 1, unread)
	assert.Nil(t, items[0].ReadAt)

	require.NoError(t, e.notifications.MarkRead(ctx, student, n.ID))
	_, _, unread, err = e.notifications.ListMine(ctx, student, NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, unread)

	err = e.notifications.MarkRead(ctx, committee, n.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
}

func TestSend_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.notifications.Send(ctx, student, &dto.CreateNotificationRequest{
		Title: "hi", Message: "hi", TargetRoles: []string{"student"},
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = e.notifications.Send(ctx, coordinator, &dto.CreateNotificationRequest{Title: " ", Message: "body"})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	ce, _ := apperrors.As(err)
	assert.Contains(t, ce.Details, "title")
	assert.Contains(t, ce.Details, "targetRoles")

	past := testNow.Add(-time.Hour)
	_, err = e.notifications.Send(ctx, coordinator, &dto.CreateNotificationRequest{
		Title: "Old", Message: "news", UserIDs: []int64{studentUser}, ExpiresAt: &past,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = e.notifications.Send(ctx, coordinator, &dto.CreateNotificationRequest{
		Title: "Nobody", Message: "home", UserIDs: []int64{9999},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSend_SkipsInactiveUsers(t *testing.T) {
	e := newEnv(t)
	e.store.users[weakStudentUser].IsActive = false

	n, err := e.notifications.Send(context.Background(), admin, &dto.CreateNotificationRequest{
		Title: "Hello", Message: "students", TargetRoles: []string{"student"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n.SentCount)
	assert.Empty(t, e.sender.to("user11@uni.edu"))
}

func TestMarkAllRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.submitted(t)
	_, err := e.notifications.Send(ctx, coordinator, &dto.CreateNotificationRequest{
		Title: "Reminder", Message: "Check your inbox", UserIDs: []int64{studentUser},
	})
	require.NoError(t, err)

	n, err := e.notifications.MarkAllRead(ctx, student)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, _, unread, err := e.notifications.ListMine(ctx, student, NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	n, err := e.notifications.Send(ctx, coordinator, &dto.CreateNotificationRequest{
		Title: "Hi", Message: "all", TargetRoles: []string{"committee"},
	})
	require.NoError(t, err)

	_, _, err = e.notifications.List(ctx, coordinator, NewPage(1, 20))
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, total, err := e.notifications.List(ctx, admin, NewPage(1, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	require.NoError(t, e.notifications.Delete(ctx, admin, n.ID))
	assert.ErrorIs(t, e.notifications.Delete(ctx, admin, n.ID), apperrors.ErrNotificationNotFound)
}

func TestEmailDispatcher_FailureBacksOffThenRetries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.sender.fail = errors.New("smtp: 421 service not available")

	id, err := e.mailer.Queue(ctx, nil, nil, email.Message{To: "ada@uni.edu", Subject: "Hello", HTMLBody: "<p>hi</p>"})
	require.NoError(t, err)
	e.mailer.Send(ctx, []int64{id})

	row := e.store.outbox[id]
	assert.Equal(t, models.EmailFailed, row.Status)
	assert.Equal(t, 1, row.Attempts)
	require.NotNil(t, row.LastError)
	assert.True(t, row.NextAttemptAt.Equal(testNow.Add(time.Minute)))

	sent, failed, err := e.mailer.RetryDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent+failed, "not due yet")

	e.sender.fail = nil
	e.mailer.now = func() time.Time { return testNow.Add(2 * time.Minute) }
	sent, failed, err = e.mailer.RetryDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Zero(t, failed)
	assert.Equal(t, models.EmailSent, e.store.outbox[id].Status)
	assert.Len(t, e.sender.to("ada@uni.edu"), 1)
}

func TestEmailDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.sender.fail = errors.New("smtp down")

	id, err := e.mailer.Queue(ctx, nil, nil, email.Message{To: "ada@uni.edu", Subject: "Hello"})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		e.mailer.now = func() time.Time { return testNow.Add(24 * time.Hour * time.Duration(i+1)) }
		_, _, err := e.mailer.RetryDue(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, e.store.outbox[id].Attempts)
}

func TestEmailDispatcher_Backoff(t *testing.T) {
	d := &EmailDispatcher{backoff: time.Minute}
	assert.Equal(t, time.Minute, d.nextBackoff(0))
	assert.Equal(t, 2*time.Minute, d.nextBackoff(1))
	assert.Equal(t, 8*time.Minute, d.nextBackoff(3))
	assert.Equal(t, maxRetryBackoff, d.nextBackoff(30))
}
