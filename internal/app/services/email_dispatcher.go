package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/repositories"
	"github.com/yigit/scholarhub/internal/pkg/email"
	"github.com/yigit/scholarhub/internal/pkg/metrics"
)

const (
	defaultRetryBackoff = time.Minute
	maxRetryBackoff     = 6 * time.Hour
	retryBatchSize      = 50
	// postCommitGrace keeps the retry job away from rows that the request
	// that queued them is about to send itself.
	postCommitGrace = time.Minute
)

// EmailDispatcher owns the email outbox: rows are queued inside the
// transaction of the change that caused them, sent right after commit, and
// retried with exponential backoff by the scheduler.
type EmailDispatcher struct {
	outbox      repositories.IEmailDeliveryRepository
	sender      email.Sender
	maxAttempts int
	backoff     time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEmailDispatcher creates a new EmailDispatcher
func NewEmailDispatcher(outbox repositories.IEmailDeliveryRepository, sender email.Sender, maxAttempts int, logger zerolog.Logger) *EmailDispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &EmailDispatcher{
		outbox:      outbox,
		sender:      sender,
		maxAttempts: maxAttempts,
		backoff:     defaultRetryBackoff,
		logger:      logger,
		now:         time.Now,
	}
}

// Queue writes msg to the outbox and returns the row id. Pass the ctx of the
// surrounding transaction.
func (d *EmailDispatcher) Queue(ctx context.Context, userID, notificationID *int64, msg email.Message) (int64, error) {
	row := &models.EmailDelivery{
		NotificationID: notificationID,
		UserID:         userID,
		Recipient:      msg.To,
		Subject:        msg.Subject,
		Body:           msg.HTMLBody,
		Status:         models.EmailPending,
		NextAttemptAt:  d.now().Add(postCommitGrace),
	}
	return d.outbox.Enqueue(ctx, row)
}

// Send delivers the given outbox rows. Failures are recorded on the row and
// logged; they never reach the caller.
func (d *EmailDispatcher) Send(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}
	rows, err := d.outbox.ListByIDs(ctx, ids)
	if err != nil {
		d.logger.Error().Err(err).Int("count", len(ids)).Msg("Failed to load queued emails")
		return
	}
	for _, row := range rows {
		if row.Status != models.EmailPending {
			continue
		}
		d.deliver(ctx, row)
	}
}

// RetryDue sends every row whose next attempt is due.
func (d *EmailDispatcher) RetryDue(ctx context.Context) (sent, failed int, err error) {
	rows, err := d.outbox.ListDue(ctx, d.now(), d.maxAttempts, retryBatchSize)
	if err != nil {
		return 0, 0, err
	}
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		if d.deliver(ctx, row) {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed, nil
}

func (d *EmailDispatcher) deliver(ctx context.Context, row *models.EmailDelivery) bool {
	msg := email.Message{To: row.Recipient, Subject: row.Subject, HTMLBody: row.Body}
	if err := d.sender.Send(ctx, msg); err != nil {
		next := d.now().Add(d.nextBackoff(row.Attempts))
		if markErr := d.outbox.MarkFailed(ctx, row.ID, err.Error(), next); markErr != nil {
			d.logger.Error().Err(markErr).Int64("deliveryID", row.ID).Msg("Failed to record email failure")
		}
		d.logger.Warn().Err(err).
			Int64("deliveryID", row.ID).
			Int("attempt", row.Attempts+1).
			Time("nextAttemptAt", next).
			Msg("Email delivery failed")
		metrics.RecordEmailDelivery("failed")
		return false
	}
	if err := d.outbox.MarkSent(ctx, row.ID, d.now()); err != nil {
		d.logger.Error().Err(err).Int64("deliveryID", row.ID).Msg("Failed to record email sent")
	}
	metrics.RecordEmailDelivery("sent")
	return true
}

// nextBackoff doubles per previous attempt, capped at maxRetryBackoff.
func (d *EmailDispatcher) nextBackoff(attempts int) time.Duration {
	wait := d.backoff
	for i := 0; i < attempts; i++ {
		wait *= 2
		if wait >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return wait
}
