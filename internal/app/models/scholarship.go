package models

import (
	"time"

	"github.com/yigit/scholarhub/internal/domain"
)

// Scholarship defines an award based on the 'scholarships' table
type Scholarship struct {
	ID                  int64                    `json:"id" db:"id"`
	Name                string                   `json:"name" db:"name"`
	Description         string                   `json:"description" db:"description"`
	Amount              float64                  `json:"amount" db:"amount"`
	TotalFunding        float64                  `json:"totalFunding" db:"total_funding"`
	MaxRecipients       int                      `json:"maxRecipients" db:"max_recipients"`
	CurrentRecipients   int                      `json:"currentRecipients" db:"current_recipients"`
	ApplicationDeadline time.Time                `json:"applicationDeadline" db:"application_deadline"`
	AwardDate           *time.Time               `json:"awardDate,omitempty" db:"award_date"`
	AcademicYear        string                   `json:"academicYear" db:"academic_year"`
	Department          string                   `json:"department" db:"department"`
	MinGPA              *float64                 `json:"minGpa,omitempty" db:"min_gpa"`
	YearOfStudy         []domain.YearOfStudy     `json:"yearOfStudy" db:"year_of_study"`
	Requirements        []string                 `json:"requirements" db:"requirements"`
	IsRenewable         bool                     `json:"isRenewable" db:"is_renewable"`
	Status              domain.ScholarshipStatus `json:"status" db:"status"`
	CreatedBy           *int64                   `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt           time.Time                `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time                `json:"updatedAt" db:"updated_at"`
}

// Terms returns the validated, user-editable fields.
func (s *Scholarship) Terms() domain.ScholarshipTerms {
	return domain.ScholarshipTerms{
		Name:          s.Name,
		Amount:        s.Amount,
		TotalFunding:  s.TotalFunding,
		MaxRecipients: s.MaxRecipients,
		Deadline:      s.ApplicationDeadline,
		AwardDate:     s.AwardDate,
		Department:    s.Department,
		MinGPA:        s.MinGPA,
		YearsOfStudy:  s.YearOfStudy,
	}
}

// EligibilityTerms returns the fields eligibility is evaluated against.
func (s *Scholarship) EligibilityTerms() domain.EligibilityTerms {
	return domain.EligibilityTerms{
		Status:       s.Status,
		Department:   s.Department,
		MinGPA:       s.MinGPA,
		YearsOfStudy: s.YearOfStudy,
	}
}

// AcceptsSubmissions reports whether new applications can be submitted at now.
func (s *Scholarship) AcceptsSubmissions(now time.Time) bool {
	return domain.AcceptsSubmissions(s.Status, s.ApplicationDeadline, now)
}

// RemainingSlots is how many more applications can be approved.
func (s *Scholarship) RemainingSlots() int {
	if s.CurrentRecipients >= s.MaxRecipients {
		return 0
	}
	return s.MaxRecipients - s.CurrentRecipients
}

// ScholarshipFilter narrows scholarship listings.
type ScholarshipFilter struct {
	Status       *domain.ScholarshipStatus
	Department   string
	AcademicYear string
	Search       string
	SortBy       string
	SortOrder    string
	Page         int
	Size         int
}
