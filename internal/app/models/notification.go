package models

import (
	"encoding/json"
	"time"

	"github.com/yigit/scholarhub/internal/domain"
)

// NotificationType categorises a notification.
type NotificationType string

const (
	NotificationApplicationSubmitted NotificationType = "application_submitted"
	NotificationApplicationStatus    NotificationType = "application_status"
	NotificationDocumentsRequested   NotificationType = "documents_requested"
	NotificationPaymentUpdate        NotificationType = "payment_update"
	NotificationAnnouncement         NotificationType = "announcement"
	NotificationDeadline             NotificationType = "deadline"
)

// Notification defines a broadcast or targeted message based on the 'notifications' table
type Notification struct {
	ID          int64            `json:"id" db:"id"`
	Type        NotificationType `json:"type" db:"type"`
	Title       string           `json:"title" db:"title"`
	Message     string           `json:"message" db:"message"`
	Priority    domain.Priority  `json:"priority" db:"priority"`
	TargetRoles []string         `json:"targetRoles,omitempty" db:"target_roles"`
	UserIDs     []int64          `json:"userIds,omitempty" db:"user_ids"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty" db:"expires_at"`
	ActionURL   *string          `json:"actionUrl,omitempty" db:"action_url"`
	SentCount   int              `json:"sentCount" db:"sent_count"`
	CreatedBy   *int64           `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`

	// Per-recipient state, set when listing for one user.
	ReadAt *time.Time `json:"readAt,omitempty" db:"-"`
}

// EmailStatus is the state of an outbox row.
type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// EmailDelivery is an outbox row. Rows are written in the same transaction as
// the change that caused them and sent after commit.
type EmailDelivery struct {
	ID             int64       `db:"id"`
	NotificationID *int64      `db:"notification_id"`
	UserID         *int64      `db:"user_id"`
	Recipient      string      `db:"recipient"`
	Subject        string      `db:"subject"`
	Body           string      `db:"body"`
	Status         EmailStatus `db:"status"`
	Attempts       int         `db:"attempts"`
	LastError      *string     `db:"last_error"`
	NextAttemptAt  time.Time   `db:"next_attempt_at"`
	SentAt         *time.Time  `db:"sent_at"`
	CreatedAt      time.Time   `db:"created_at"`
}

// SystemSetting is an admin-editable key/value pair.
type SystemSetting struct {
	Key         string          `json:"key" db:"key"`
	Value       json.RawMessage `json:"value" db:"value"`
	Description *string         `json:"description,omitempty" db:"description"`
	UpdatedBy   *int64          `json:"updatedBy,omitempty" db:"updated_by"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// Recipient is an addressee resolved for a notification.
type Recipient struct {
	UserID int64
	Email  string
	Name   string
}
