package dto

import (
	"time"

	"github.com/yigit/scholarhub/internal/app/models"
)

// CreateScholarshipRequest creates a scholarship in draft status.
type CreateScholarshipRequest struct {
	Name                string     `json:"name" binding:"required,max=200" example:"Merit Award 2026"`
	Description         string     `json:"description"`
	Amount              float64    `json:"amount" binding:"required,gt=0" example:"2500"`
	TotalFunding        float64    `json:"totalFunding" binding:"required,gt=0" example:"25000"`
	MaxRecipients       int        `json:"maxRecipients" binding:"required,gt=0" example:"10"`
	ApplicationDeadline time.Time  `json:"applicationDeadline" binding:"required"`
	AwardDate           *time.Time `json:"awardDate,omitempty"`
	AcademicYear        string     `json:"academicYear" example:"2026-2027"`
	Department          string     `json:"department" binding:"required" example:"all"`
	MinGPA              *float64   `json:"minGpa,omitempty" binding:"omitempty,gte=0,lte=4" example:"3.5"`
	YearOfStudy         []string   `json:"yearOfStudy,omitempty" binding:"omitempty,dive,yearofstudy"`
	Requirements        []string   `json:"requirements,omitempty"`
	IsRenewable         bool       `json:"isRenewable"`
}

// UpdateScholarshipRequest changes any subset of a scholarship's terms.
type UpdateScholarshipRequest struct {
	Name                *string    `json:"name,omitempty" binding:"omitempty,max=200"`
	Description         *string    `json:"description,omitempty"`
	Amount              *float64   `json:"amount,omitempty" binding:"omitempty,gt=0"`
	TotalFunding        *float64   `json:"totalFunding,omitempty" binding:"omitempty,gt=0"`
	MaxRecipients       *int       `json:"maxRecipients,omitempty" binding:"omitempty,gt=0"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	AwardDate           *time.Time `json:"awardDate,omitempty"`
	AcademicYear        *string    `json:"academicYear,omitempty"`
	Department          *string    `json:"department,omitempty"`
	MinGPA              *float64   `json:"minGpa,omitempty" binding:"omitempty,gte=0,lte=4"`
	ClearMinGPA         bool       `json:"clearMinGpa,omitempty"`
	YearOfStudy         []string   `json:"yearOfStudy,omitempty" binding:"omitempty,dive,yearofstudy"`
	Requirements        []string   `json:"requirements,omitempty"`
	IsRenewable         *bool      `json:"isRenewable,omitempty"`
}

// ScholarshipStatusRequest publishes, closes, reopens or cancels a scholarship.
type ScholarshipStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active closed cancelled" example:"closed"`
}

// ScholarshipFilterRequest represents scholarship listing parameters
type ScholarshipFilterRequest struct {
	Status       string `form:"status" binding:"omitempty,oneof=draft active closed cancelled"`
	Department   string `form:"department"`
	AcademicYear string `form:"academicYear"`
	Search       string `form:"search"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page         int    `form:"page"`
	Size         int    `form:"size"`
}

// ScholarshipResponse is the wire form of a scholarship.
type ScholarshipResponse struct {
	ID                    int64      `json:"id"`
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	Amount                float64    `json:"amount"`
	TotalFunding          float64    `json:"totalFunding"`
	MaxRecipients         int        `json:"maxRecipients"`
	CurrentRecipients     int        `json:"currentRecipients"`
	RemainingSlots        int        `json:"remainingSlots"`
	ApplicationDeadline   time.Time  `json:"applicationDeadline"`
	AwardDate             *time.Time `json:"awardDate,omitempty"`
	AcademicYear          string     `json:"academicYear"`
	Department            string     `json:"department"`
	MinGPA                *float64   `json:"minGpa,omitempty"`
	YearOfStudy           []string   `json:"yearOfStudy"`
	Requirements          []string   `json:"requirements"`
	IsRenewable           bool       `json:"isRenewable"`
	Status                string     `json:"status"`
	AcceptingApplications bool       `json:"acceptingApplications"`
	CreatedBy             *int64     `json:"createdBy,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// FromScholarship maps a scholarship row to its wire form.
func FromScholarship(s *models.Scholarship, now time.Time) ScholarshipResponse {
	years := make([]string, 0, len(s.YearOfStudy))
	for _, y := range s.YearOfStudy {
		years = append(years, string(y))
	}
	reqs := s.Requirements
	if reqs == nil {
		reqs = []string{}
	}
	return ScholarshipResponse{
		ID:                    s.ID,
		Name:                  s.Name,
		Description:           s.Description,
		Amount:                s.Amount,
		TotalFunding:          s.TotalFunding,
		MaxRecipients:         s.MaxRecipients,
		CurrentRecipients:     s.CurrentRecipients,
		RemainingSlots:        s.RemainingSlots(),
		ApplicationDeadline:   s.ApplicationDeadline,
		AwardDate:             s.AwardDate,
		AcademicYear:          s.AcademicYear,
		Department:            s.Department,
		MinGPA:                s.MinGPA,
		YearOfStudy:           years,
		Requirements:          reqs,
		IsRenewable:           s.IsRenewable,
		Status:                string(s.Status),
		AcceptingApplications: s.AcceptsSubmissions(now),
		CreatedBy:             s.CreatedBy,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

// EligibilityResponse is the advisory eligibility check for the calling student.
type EligibilityResponse struct {
	ScholarshipID         int64    `json:"scholarshipId"`
	Eligible              bool     `json:"eligible"`
	Reasons               []string `json:"reasons"`
	AcceptingApplications bool     `json:"acceptingApplications"`
}
