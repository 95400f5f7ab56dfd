package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

func gpa(v float64) *float64 { return &v }

func TestIsEligible(t *testing.T) {
	student := StudentProfile{Department: "Computer Science", YearOfStudy: Year3, GPA: 3.6}

	cases := []struct {
		name    string
		terms   EligibilityTerms
		want    bool
		reasons []IneligibilityReason
	}{
		{
			name:  "open to all",
			terms: EligibilityTerms{Status: ScholarshipActive, Department: "all"},
			want:  true,
		},
		{
			name:  "department matches case-insensitively",
			terms: EligibilityTerms{Status: ScholarshipActive, Department: "computer science", MinGPA: gpa(3.5)},
			want:  true,
		},
		{
			name:    "inactive",
			terms:   EligibilityTerms{Status: ScholarshipClosed, Department: "all"},
			reasons: []IneligibilityReason{ReasonNotActive},
		},
		{
			name:    "wrong department",
			terms:   EligibilityTerms{Status: ScholarshipActive, Department: "Physics"},
			reasons: []IneligibilityReason{ReasonDepartmentMismatch},
		},
		{
			name:    "gpa too low",
			terms:   EligibilityTerms{Status: ScholarshipActive, Department: "all", MinGPA: gpa(3.8)},
			reasons: []IneligibilityReason{ReasonGPABelowMinimum},
		},
		{
			name:  "year in set",
			terms: EligibilityTerms{Status: ScholarshipActive, Department: "all", YearsOfStudy: []YearOfStudy{Year3, Year4}},
			want:  true,
		},
		{
			name:    "year not in set",
			terms:   EligibilityTerms{Status: ScholarshipActive, Department: "all", YearsOfStudy: []YearOfStudy{Year1}},
			reasons: []IneligibilityReason{ReasonYearNotEligible},
		},
		{
			name:  "every reason",
			terms: EligibilityTerms{Status: ScholarshipDraft, Department: "Law", MinGPA: gpa(4.0), YearsOfStudy: []YearOfStudy{YearGraduate}},
			reasons: []IneligibilityReason{
				ReasonNotActive, ReasonDepartmentMismatch, ReasonGPABelowMinimum, ReasonYearNotEligible,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsEligible(student, tc.terms))
			assert.Equal(t, tc.reasons, CheckEligibility(student, tc.terms))
		})
	}
}

func TestIsEligible_Deterministic(t *testing.T) {
	student := StudentProfile{Department: "Biology", YearOfStudy: Year2, GPA: 3.2}
	terms := EligibilityTerms{Status: ScholarshipActive, Department: "all", MinGPA: gpa(3.5)}

	first := IsEligible(student, terms)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, IsEligible(student, terms))
	}
	assert.False(t, first)
}

func TestValidateStudentProfile(t *testing.T) {
	assert.NoError(t, ValidateStudentProfile(StudentProfile{Department: "Math", YearOfStudy: YearGraduate, GPA: 4.0}))

	err := ValidateStudentProfile(StudentProfile{YearOfStudy: "5", GPA: 4.2})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	ce, _ := apperrors.As(err)
	assert.Len(t, ce.Details, 3)
}
