package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/repositories"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/metrics"
)

// PaymentService derives payments from approvals and lets finance move them
// through their lifecycle. A payment's status never feeds back into its
// application.
type PaymentService struct {
	payments      repositories.IPaymentRepository
	notifications *NotificationService
	tx            db.Transactor
	authz         *appauth.AuthorizationService
	logger        zerolog.Logger
	now           func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments repositories.IPaymentRepository,
	notifications *NotificationService,
	tx db.Transactor,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:      payments,
		notifications: notifications,
		tx:            tx,
		authz:         authz,
		logger:        logger,
		now:           time.Now,
	}
}

// newReferenceNumber returns a human-readable unique payment reference.
func newReferenceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("SCH-%s-%s", now.UTC().Format("20060102"), suffix)
}

// createForApproval writes the pending payment of a freshly approved
// application. ctx must carry the approval's transaction.
func (s *PaymentService) createForApproval(ctx context.Context, app *models.Application, sch *models.Scholarship) (*models.Payment, error) {
	p := &models.Payment{
		ApplicationID:   app.ID,
		ScholarshipID:   sch.ID,
		StudentID:       app.StudentID,
		Amount:          sch.Amount,
		Status:          domain.PaymentPending,
		PaymentMethod:   domain.MethodBankTransfer,
		ReferenceNumber: newReferenceNumber(s.now()),
		ScheduledDate:   sch.AwardDate,
	}
	if _, err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns payments visible to the actor: everything for finance and
// admin, only their own for students.
func (s *PaymentService) List(ctx context.Context, actor appauth.Actor, filter models.PaymentFilter) ([]*models.Payment, int64, error) {
	switch {
	case s.authz.Can(actor, appauth.PermPaymentsRead):
	case s.authz.Can(actor, appauth.PermApplicationsOwn):
		filter.StudentID = &actor.UserID
	default:
		return nil, 0, apperrors.NewForbiddenError("you don't have permission to view payments")
	}
	return s.payments.List(ctx, filter)
}

// Get returns one payment. Students only see their own.
func (s *PaymentService) Get(ctx context.Context, actor appauth.Actor, id int64) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, hideAs(err, apperrors.ErrPaymentNotFound)
	}
	if err := s.authz.AuthorizeRead(actor, p.StudentID, appauth.PermPaymentsRead, apperrors.ErrPaymentNotFound); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStatus applies a finance transition.
func (s *PaymentService) UpdateStatus(ctx context.Context, actor appauth.Actor, id int64, req *dto.UpdatePaymentStatusRequest) (*models.Payment, error) {
	if err := s.authz.Authorize(actor, appauth.PermPaymentsProcess); err != nil {
		return nil, err
	}
	to := domain.PaymentStatus(req.Status)
	if to == domain.PaymentFailed && strings.TrimSpace(req.FailureReason) == "" {
		return nil, apperrors.NewValidationError("a failure reason is required").
			WithDetails(map[string]interface{}{"failureReason": "required"})
	}
	var method domain.PaymentMethod
	if req.PaymentMethod != "" {
		method = domain.PaymentMethod(req.PaymentMethod)
		if !method.Valid() {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown payment method %q", req.PaymentMethod))
		}
	}

	var (
		payment  *models.Payment
		dispatch *Dispatch
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.payments.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.TransitionPayment(p.Status, to); err != nil {
			return err
		}

		now := s.now()
		p.Status = to
		if method != "" {
			p.PaymentMethod = method
		}
		if req.ScheduledDate != nil {
			p.ScheduledDate = req.ScheduledDate
		}
		if n := trimmedOrNil(req.Notes); n != nil {
			p.Notes = n
		}
		switch to {
		case domain.PaymentProcessing:
			p.Attempts++
			p.FailureReason = nil
		case domain.PaymentCompleted:
			p.ProcessedAt = &now
			p.ProcessedBy = &actor.UserID
		case domain.PaymentFailed:
			p.FailureReason = trimmedOrNil(req.FailureReason)
			p.ProcessedBy = &actor.UserID
		}
		if err := s.payments.Update(ctx, p); err != nil {
			return err
		}
		payment = p

		if to == domain.PaymentCompleted || to == domain.PaymentFailed {
			dispatch, err = s.notifications.Queue(ctx, paymentNotice(p))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPaymentTransition(string(to))
	s.notifications.Publish(ctx, dispatch)
	s.logger.Info().
		Int64("paymentID", payment.ID).
		Str("status", string(to)).
		Int64("by", actor.UserID).
		Msg("Payment status updated")
	return payment, nil
}

func paymentNotice(p *models.Payment) NotificationDraft {
	d := NotificationDraft{
		Type:      models.NotificationPaymentUpdate,
		UserIDs:   []int64{p.StudentID},
		ActionURL: paymentURL(p.ID),
		Email:     true,
	}
	if p.Status == domain.PaymentCompleted {
		d.Title = "Scholarship payment completed"
		d.Message = fmt.Sprintf("Your payment %s of %.2f has been completed.", p.ReferenceNumber, p.Amount)
		d.Priority = domain.PriorityMedium
		return d
	}
	d.Title = "Scholarship payment failed"
	d.Message = fmt.Sprintf("Your payment %s could not be processed. Our finance team will contact you.", p.ReferenceNumber)
	d.Priority = domain.PriorityHigh
	return d
}
