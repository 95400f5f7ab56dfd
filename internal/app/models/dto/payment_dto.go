package dto

import (
	"time"

	"github.com/yigit/scholarhub/internal/app/models"
)

// UpdatePaymentStatusRequest moves a payment through its lifecycle.
type UpdatePaymentStatusRequest struct {
	Status        string     `json:"status" binding:"required,oneof=processing completed failed cancelled" example:"processing"`
	PaymentMethod string     `json:"paymentMethod,omitempty" binding:"omitempty,oneof=bank_transfer check direct_deposit digital_wallet other"`
	FailureReason string     `json:"failureReason,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
}

// PaymentFilterRequest represents payment listing parameters
type PaymentFilterRequest struct {
	Status        string `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled"`
	ScholarshipID int64  `form:"scholarshipId"`
	Page          int    `form:"page"`
	Size          int    `form:"size"`
}

// PaymentResponse is the wire form of a payment.
type PaymentResponse struct {
	ID              int64      `json:"id"`
	ApplicationID   int64      `json:"applicationId"`
	ScholarshipID   int64      `json:"scholarshipId"`
	ScholarshipName string     `json:"scholarshipName,omitempty"`
	StudentID       int64      `json:"studentId"`
	StudentName     string     `json:"studentName,omitempty"`
	Amount          float64    `json:"amount"`
	Status          string     `json:"status"`
	PaymentMethod   string     `json:"paymentMethod"`
	ReferenceNumber string     `json:"referenceNumber"`
	ScheduledDate   *time.Time `json:"scheduledDate,omitempty"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
	ProcessedBy     *int64     `json:"processedBy,omitempty"`
	FailureReason   *string    `json:"failureReason,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Attempts        int        `json:"attempts"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// FromPayment maps a payment row to its wire form.
func FromPayment(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		ApplicationID:   p.ApplicationID,
		ScholarshipID:   p.ScholarshipID,
		ScholarshipName: p.ScholarshipName,
		StudentID:       p.StudentID,
		StudentName:     p.StudentName,
		Amount:          p.Amount,
		Status:          string(p.Status),
		PaymentMethod:   string(p.PaymentMethod),
		ReferenceNumber: p.ReferenceNumber,
		ScheduledDate:   p.ScheduledDate,
		ProcessedAt:     p.ProcessedAt,
		ProcessedBy:     p.ProcessedBy,
		FailureReason:   p.FailureReason,
		Notes:           p.Notes,
		Attempts:        p.Attempts,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
