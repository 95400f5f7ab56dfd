package models

import (
	"time"

	"github.com/yigit/scholarhub/internal/domain"
)

// Payment defines a disbursement based on the 'payments' table
type Payment struct {
	ID              int64                `json:"id" db:"id"`
	ApplicationID   int64                `json:"applicationId" db:"application_id"`
	ScholarshipID   int64                `json:"scholarshipId" db:"scholarship_id"`
	StudentID       int64                `json:"studentId" db:"student_id"`
	Amount          float64              `json:"amount" db:"amount"`
	Status          domain.PaymentStatus `json:"status" db:"status"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod" db:"payment_method"`
	ReferenceNumber string               `json:"referenceNumber" db:"reference_number"`
	ScheduledDate   *time.Time           `json:"scheduledDate,omitempty" db:"scheduled_date"`
	ProcessedAt     *time.Time           `json:"processedAt,omitempty" db:"processed_at"`
	ProcessedBy     *int64               `json:"processedBy,omitempty" db:"processed_by"`
	FailureReason   *string              `json:"failureReason,omitempty" db:"failure_reason"`
	Notes           *string              `json:"notes,omitempty" db:"notes"`
	Attempts        int                  `json:"attempts" db:"attempts"`
	CreatedAt       time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time            `json:"updatedAt" db:"updated_at"`

	StudentName     string `json:"studentName,omitempty" db:"-"`
	ScholarshipName string `json:"scholarshipName,omitempty" db:"-"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	Status        *domain.PaymentStatus
	ScholarshipID *int64
	StudentID     *int64
	Page          int
	Size          int
}
