package domain

import (
	"fmt"
	"strings"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// DepartmentAll marks a scholarship open to every department.
const DepartmentAll = "all"

// YearOfStudy is a student's academic year.
type YearOfStudy string

const (
	Year1        YearOfStudy = "1"
	Year2        YearOfStudy = "2"
	Year3        YearOfStudy = "3"
	Year4        YearOfStudy = "4"
	YearGraduate YearOfStudy = "graduate"
)

// Valid reports whether y is a known year of study.
func (y YearOfStudy) Valid() bool {
	switch y {
	case Year1, Year2, Year3, Year4, YearGraduate:
		return true
	}
	return false
}

// StudentProfile is the slice of a student record that eligibility reads.
type StudentProfile struct {
	Department  string
	YearOfStudy YearOfStudy
	GPA         float64
}

// EligibilityTerms is the slice of a scholarship that eligibility reads.
type EligibilityTerms struct {
	Status       ScholarshipStatus
	Department   string
	MinGPA       *float64
	YearsOfStudy []YearOfStudy
}

// IneligibilityReason explains why a student does not qualify.
type IneligibilityReason string

const (
	ReasonNotActive          IneligibilityReason = "scholarship_not_active"
	ReasonDepartmentMismatch IneligibilityReason = "department_mismatch"
	ReasonGPABelowMinimum    IneligibilityReason = "gpa_below_minimum"
	ReasonYearNotEligible    IneligibilityReason = "year_of_study_not_eligible"
)

// CheckEligibility returns every unmet criterion, in a fixed order.
// An empty result means the student is eligible.
func CheckEligibility(student StudentProfile, terms EligibilityTerms) []IneligibilityReason {
	var reasons []IneligibilityReason
	if terms.Status != ScholarshipActive {
		reasons = append(reasons, ReasonNotActive)
	}
	dept := strings.TrimSpace(terms.Department)
	if !strings.EqualFold(dept, DepartmentAll) && !strings.EqualFold(dept, strings.TrimSpace(student.Department)) {
		reasons = append(reasons, ReasonDepartmentMismatch)
	}
	if terms.MinGPA != nil && student.GPA < *terms.MinGPA {
		reasons = append(reasons, ReasonGPABelowMinimum)
	}
	if len(terms.YearsOfStudy) > 0 {
		found := false
		for _, y := range terms.YearsOfStudy {
			if y == student.YearOfStudy {
				found = true
				break
			}
		}
		if !found {
			reasons = append(reasons, ReasonYearNotEligible)
		}
	}
	return reasons
}

// IsEligible is the single eligibility predicate shared by the advisory
// endpoint and the authoritative check at submit time.
func IsEligible(student StudentProfile, terms EligibilityTerms) bool {
	return len(CheckEligibility(student, terms)) == 0
}

// ValidateStudentProfile checks the academic fields of a student profile.
func ValidateStudentProfile(p StudentProfile) error {
	problems := make(map[string]interface{})
	if strings.TrimSpace(p.Department) == "" {
		problems["department"] = "required"
	}
	if !p.YearOfStudy.Valid() {
		problems["yearOfStudy"] = "must be one of 1, 2, 3, 4, graduate"
	}
	if p.GPA < 0 || p.GPA > 4 {
		problems["gpa"] = "must be between 0.0 and 4.0"
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError(fmt.Sprintf("invalid student profile (%d problems)", len(problems))).
			WithDetails(problems)
	}
	return nil
}
