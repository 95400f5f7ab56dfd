package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/repositories"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/email"
	"github.com/yigit/scholarhub/internal/pkg/websocket"
)

// Pusher sends live frames to connected users.
type Pusher interface {
	SendToUsers(userIDs []int64, msg *websocket.Message)
}

// NotificationDraft describes a notification before recipients are resolved.
// Exactly one of UserIDs and Roles is used; UserIDs wins when both are set.
type NotificationDraft struct {
	Type      models.NotificationType
	Title     string
	Message   string
	Priority  domain.Priority
	UserIDs   []int64
	Roles     []models.RoleName
	ExpiresAt *time.Time
	ActionURL *string
	CreatedBy *int64
	Email     bool
}

// Dispatch is the post-commit work of a queued notification.
type Dispatch struct {
	Notification *models.Notification
	RecipientIDs []int64
	EmailIDs     []int64
}

// NotificationService stores in-app notifications and fans them out.
type NotificationService struct {
	repo   repositories.INotificationRepository
	users  repositories.IUserRepository
	mailer *EmailDispatcher
	push   Pusher
	tx     db.Transactor
	authz  *appauth.AuthorizationService
	logger zerolog.Logger
	now    func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	repo repositories.INotificationRepository,
	users repositories.IUserRepository,
	mailer *EmailDispatcher,
	push Pusher,
	tx db.Transactor,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		repo:   repo,
		users:  users,
		mailer: mailer,
		push:   push,
		tx:     tx,
		authz:  authz,
		logger: logger,
		now:    time.Now,
	}
}

func (s *NotificationService) resolveRecipients(ctx context.Context, draft NotificationDraft) ([]*models.User, error) {
	if len(draft.UserIDs) > 0 {
		return s.users.ListActiveByIDs(ctx, draft.UserIDs)
	}
	if len(draft.Roles) > 0 {
		return s.users.ListActiveByRoles(ctx, draft.Roles)
	}
	return nil, apperrors.NewValidationError("a notification needs userIds or targetRoles").
		WithDetails(map[string]interface{}{"userIds": "required without targetRoles"})
}

// Queue writes the notification, its recipient rows and any emails using
// ctx, which should carry the caller's transaction. It returns nil when no
// active user matches.
func (s *NotificationService) Queue(ctx context.Context, draft NotificationDraft) (*Dispatch, error) {
	recipients, err := s.resolveRecipients(ctx, draft)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		s.logger.Debug().Str("type", string(draft.Type)).Msg("Notification has no active recipients")
		return nil, nil
	}
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}

	roles := make([]string, 0, len(draft.Roles))
	for _, r := range draft.Roles {
		roles = append(roles, string(r))
	}
	n := &models.Notification{
		Type:        draft.Type,
		Title:       draft.Title,
		Message:     draft.Message,
		Priority:    draft.Priority,
		TargetRoles: roles,
		UserIDs:     draft.UserIDs,
		ExpiresAt:   draft.ExpiresAt,
		ActionURL:   draft.ActionURL,
		CreatedBy:   draft.CreatedBy,
	}
	if len(draft.UserIDs) > 0 {
		n.TargetRoles = nil
	}
	id, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	n.ID = id

	ids := make([]int64, 0, len(recipients))
	for _, u := range recipients {
		ids = append(ids, u.ID)
	}
	if _, err := s.repo.AddRecipients(ctx, id, ids); err != nil {
		return nil, fmt.Errorf("add notification recipients: %w", err)
	}
	if err := s.repo.SetSentCount(ctx, id, len(ids)); err != nil {
		return nil, fmt.Errorf("set notification sent count: %w", err)
	}
	n.SentCount = len(ids)

	d := &Dispatch{Notification: n, RecipientIDs: ids}
	if !draft.Email {
		return d, nil
	}
	action := ""
	if n.ActionURL != nil {
		action = *n.ActionURL
	}
	for _, u := range recipients {
		userID := u.ID
		msg := email.NotificationMessage(u.Email, u.FullName(), n.Title, n.Message, action)
		emailID, err := s.mailer.Queue(ctx, &userID, &n.ID, msg)
		if err != nil {
			return nil, fmt.Errorf("queue notification email: %w", err)
		}
		d.EmailIDs = append(d.EmailIDs, emailID)
	}
	return d, nil
}

// Publish runs the post-commit side effects of dispatches: a websocket frame
// to every connected recipient and the queued emails. It never fails.
func (s *NotificationService) Publish(ctx context.Context, dispatches ...*Dispatch) {
	ctx = background(ctx)
	for _, d := range dispatches {
		if d == nil {
			continue
		}
		if s.push != nil {
			s.push.SendToUsers(d.RecipientIDs, &websocket.Message{
				Type:    "notification",
				Payload: dto.FromNotification(d.Notification),
			})
		}
		s.mailer.Send(ctx, d.EmailIDs)
	}
}

// Send is the coordinator/admin broadcast.
func (s *NotificationService) Send(ctx context.Context, actor appauth.Actor, req *dto.CreateNotificationRequest) (*models.Notification, error) {
	if err := s.authz.Authorize(actor, appauth.PermNotificationsSend); err != nil {
		return nil, err
	}

	problems := make(map[string]interface{})
	if strings.TrimSpace(req.Title) == "" {
		problems["title"] = "required"
	}
	if strings.TrimSpace(req.Message) == "" {
		problems["message"] = "required"
	}
	if len(req.UserIDs) == 0 && len(req.TargetRoles) == 0 {
		problems["targetRoles"] = "userIds or targetRoles is required"
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		problems["expiresAt"] = "must be in the future"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid notification").WithDetails(problems)
	}

	draft := NotificationDraft{
		Type:      models.NotificationAnnouncement,
		Title:     strings.TrimSpace(req.Title),
		Message:   strings.TrimSpace(req.Message),
		Priority:  domain.Priority(req.Priority),
		UserIDs:   req.UserIDs,
		ExpiresAt: req.ExpiresAt,
		ActionURL: req.ActionURL,
		CreatedBy: &actor.UserID,
		Email:     true,
	}
	if req.Type != "" {
		draft.Type = models.NotificationType(req.Type)
	}
	for _, r := range req.TargetRoles {
		draft.Roles = append(draft.Roles, models.RoleName(r))
	}

	var dispatch *Dispatch
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		dispatch, err = s.Queue(ctx, draft)
		return err
	})
	if err != nil {
		return nil, err
	}
	if dispatch == nil {
		return nil, apperrors.NewValidationError("no active users match the selected recipients")
	}

	s.Publish(ctx, dispatch)
	s.logger.Info().
		Int64("notificationID", dispatch.Notification.ID).
		Int("recipients", len(dispatch.RecipientIDs)).
		Int64("sentBy", actor.UserID).
		Msg("Notification sent")
	return dispatch.Notification, nil
}

// ListMine returns the caller's unexpired notifications, newest first, plus
// the unread count.
func (s *NotificationService) ListMine(ctx context.Context, actor appauth.Actor, page Page) ([]*models.Notification, int64, int64, error) {
	if err := s.authz.Authorize(actor, appauth.PermNotificationsRead); err != nil {
		return nil, 0, 0, err
	}
	now := s.now()
	items, total, err := s.repo.ListForUser(ctx, actor.UserID, now, page.Number, page.Size)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, actor.UserID, now)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, total, unread, nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor appauth.Actor, notificationID int64) error {
	return s.MarkReadByUser(ctx, actor.UserID, notificationID)
}

// MarkReadByUser is MarkRead keyed by user id, for websocket acknowledgements.
func (s *NotificationService) MarkReadByUser(ctx context.Context, userID, notificationID int64) error {
	return s.repo.MarkRead(ctx, notificationID, userID, s.now())
}

// MarkAllRead marks every unread notification of the caller.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor appauth.Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.UserID, s.now())
}

// List is the admin view of every notification.
func (s *NotificationService) List(ctx context.Context, actor appauth.Actor, page Page) ([]*models.Notification, int64, error) {
	if err := s.authz.Authorize(actor, appauth.PermNotificationsManage); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, page.Number, page.Size)
}

// Delete removes a notification and its recipient rows.
func (s *NotificationService) Delete(ctx context.Context, actor appauth.Actor, id int64) error {
	if err := s.authz.Authorize(actor, appauth.PermNotificationsManage); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("notificationID", id).Int64("deletedBy", actor.UserID).Msg("Notification deleted")
	return nil
}
