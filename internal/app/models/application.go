package models

import (
	"time"

	"github.com/yigit/scholarhub/internal/domain"
)

// Document is one uploaded file in an application's ordered document list.
type Document struct {
	ID         string              `json:"id"`
	Type       domain.DocumentType `json:"type"`
	FileName   string              `json:"fileName"`
	URL        string              `json:"url"`
	Path       string              `json:"path"`
	Size       int64               `json:"size"`
	MimeType   string              `json:"mimeType"`
	UploadedAt time.Time           `json:"uploadedAt"`
}

// Application defines a student's application based on the 'applications' table
type Application struct {
	ID              int64              `json:"id" db:"id"`
	StudentID       int64              `json:"studentId" db:"student_id"` // owning user id
	ScholarshipID   int64              `json:"scholarshipId" db:"scholarship_id"`
	Status          domain.Status      `json:"status" db:"status"`
	PersonalInfo    JSONMap            `json:"personalInfo" db:"personal_info"`
	AcademicInfo    JSONMap            `json:"academicInfo" db:"academic_info"`
	Essays          JSONMap            `json:"essays" db:"essays"`
	FinancialInfo   JSONMap            `json:"financialInfo" db:"financial_info"`
	Documents       []Document         `json:"documents" db:"documents"`
	Score           *float64           `json:"score,omitempty" db:"score"`
	CriteriaScores  map[string]float64 `json:"criteriaScores,omitempty" db:"criteria_scores"`
	Comments        *string            `json:"comments,omitempty" db:"comments"`
	RejectionReason *string            `json:"rejectionReason,omitempty" db:"rejection_reason"`
	ReviewedBy      *int64             `json:"reviewedBy,omitempty" db:"reviewed_by"`
	ReviewedAt      *time.Time         `json:"reviewedAt,omitempty" db:"reviewed_at"`
	SubmittedAt     *time.Time         `json:"submittedAt,omitempty" db:"submitted_at"`
	Version         int                `json:"version" db:"version"`
	CreatedAt       time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time          `json:"updatedAt" db:"updated_at"`

	// Joined, read-only
	StudentName         string     `json:"studentName,omitempty" db:"-"`
	StudentEmail        string     `json:"studentEmail,omitempty" db:"-"`
	ScholarshipName     string     `json:"scholarshipName,omitempty" db:"-"`
	ScholarshipDeadline *time.Time `json:"scholarshipDeadline,omitempty" db:"-"`
}

// Content returns what the submit guard inspects.
func (a *Application) Content() domain.SubmissionContent {
	return domain.SubmissionContent{
		PersonalInfo:  a.PersonalInfo,
		AcademicInfo:  a.AcademicInfo,
		Essays:        a.Essays,
		DocumentCount: len(a.Documents),
	}
}

// FindDocument returns the index of the document with id, or -1.
func (a *Application) FindDocument(id string) int {
	for i, d := range a.Documents {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Priority ranks the application in the review queue.
func (a *Application) Priority(now time.Time) domain.Priority {
	if a.ScholarshipDeadline == nil {
		return domain.PriorityLow
	}
	return domain.ComputePriority(a.Status, *a.ScholarshipDeadline, a.SubmittedAt, now)
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	StudentID     *int64
	ScholarshipID *int64
	Status        *domain.Status
	Search        string
	SortBy        string
	SortOrder     string
	Page          int
	Size          int
}
