package dto

import (
	"encoding/json"
	"time"

	"github.com/yigit/scholarhub/internal/app/models"
)

// CreateNotificationRequest sends a notification to explicit users or to roles.
type CreateNotificationRequest struct {
	Type        string     `json:"type,omitempty" binding:"omitempty,oneof=announcement deadline application_status payment_update" example:"announcement"`
	Title       string     `json:"title" binding:"required,max=200" example:"Deadline extended"`
	Message     string     `json:"message" binding:"required" example:"The merit award deadline moved to 30 April."`
	Priority    string     `json:"priority,omitempty" binding:"omitempty,oneof=low medium high urgent" example:"medium"`
	TargetRoles []string   `json:"targetRoles,omitempty" binding:"omitempty,dive,oneof=student coordinator committee finance admin"`
	UserIDs     []int64    `json:"userIds,omitempty" binding:"omitempty,dive,gt=0"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ActionURL   *string    `json:"actionUrl,omitempty" binding:"omitempty,max=500"`
}

// NotificationResponse is a notification as seen by one recipient.
type NotificationResponse struct {
	ID          int64      `json:"id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Priority    string     `json:"priority"`
	TargetRoles []string   `json:"targetRoles,omitempty"`
	UserIDs     []int64    `json:"userIds,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ActionURL   *string    `json:"actionUrl,omitempty"`
	SentCount   int        `json:"sentCount"`
	CreatedBy   *int64     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

// FromNotification maps a notification row to its wire form.
func FromNotification(n *models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		Type:        string(n.Type),
		Title:       n.Title,
		Message:     n.Message,
		Priority:    string(n.Priority),
		TargetRoles: n.TargetRoles,
		UserIDs:     n.UserIDs,
		ExpiresAt:   n.ExpiresAt,
		ActionURL:   n.ActionURL,
		SentCount:   n.SentCount,
		CreatedBy:   n.CreatedBy,
		CreatedAt:   n.CreatedAt,
		Read:        n.ReadAt != nil,
		ReadAt:      n.ReadAt,
	}
}

// NotificationListResponse is a page of the caller's notifications.
type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	Pagination  PaginationInfo         `json:"pagination"`
	UnreadCount int64                  `json:"unreadCount"`
}

// UpdateSettingRequest sets a system setting to an arbitrary JSON value.
type UpdateSettingRequest struct {
	Value       json.RawMessage `json:"value" binding:"required" swaggertype:"object"`
	Description *string         `json:"description,omitempty"`
}

// AnalyticsResponse is the admin dashboard summary.
type AnalyticsResponse struct {
	ApplicationsByStatus map[string]int64 `json:"applicationsByStatus"`
	ScholarshipsByStatus map[string]int64 `json:"scholarshipsByStatus"`
	UsersByRole          map[string]int64 `json:"usersByRole"`
	Payments             PaymentTotals    `json:"payments"`
}

// PaymentTotals aggregates payment counts and amounts per status.
type PaymentTotals struct {
	CountByStatus  map[string]int64   `json:"countByStatus"`
	AmountByStatus map[string]float64 `json:"amountByStatus"`
}

// ScholarshipDisbursement summarises money per scholarship.
type ScholarshipDisbursement struct {
	ScholarshipID int64   `json:"scholarshipId"`
	Name          string  `json:"name"`
	Disbursed     float64 `json:"disbursed"`
	Outstanding   float64 `json:"outstanding"`
	Recipients    int64   `json:"recipients"`
}

// FinancialReportResponse is the finance dashboard.
type FinancialReportResponse struct {
	Totals         PaymentTotals             `json:"totals"`
	TotalDisbursed float64                   `json:"totalDisbursed"`
	TotalPending   float64                   `json:"totalPending"`
	ByScholarship  []ScholarshipDisbursement `json:"byScholarship"`
}
