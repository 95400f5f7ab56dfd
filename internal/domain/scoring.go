package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

const (
	MaxScore          = 100.0
	MaxCriterionScore = 20.0
)

// Criterion is a named review sub-score.
type Criterion string

const (
	CriterionAcademicMerit    Criterion = "academic_merit"
	CriterionFinancialNeed    Criterion = "financial_need"
	CriterionLeadership       Criterion = "leadership"
	CriterionCommunityService Criterion = "community_service"
	CriterionEssayQuality     Criterion = "essay_quality"
)

// Criteria returns the known review criteria.
func Criteria() []Criterion {
	return []Criterion{
		CriterionAcademicMerit,
		CriterionFinancialNeed,
		CriterionLeadership,
		CriterionCommunityService,
		CriterionEssayQuality,
	}
}

func knownCriterion(name string) bool {
	for _, c := range Criteria() {
		if string(c) == name {
			return true
		}
	}
	return false
}

// ValidateScore checks an optional overall score.
func ValidateScore(score *float64) error {
	if score == nil {
		return nil
	}
	if math.IsNaN(*score) || *score < 0 || *score > MaxScore {
		return apperrors.NewValidationError(fmt.Sprintf("score must be between 0 and %.0f", MaxScore)).
			WithDetails(map[string]interface{}{"score": *score})
	}
	return nil
}

// ValidateCriteriaScores checks that every sub-score is a known criterion in 0..20.
// The sub-scores are advisory and are not required to add up to the overall score.
func ValidateCriteriaScores(scores map[string]float64) error {
	problems := make(map[string]interface{})
	for name, v := range scores {
		if !knownCriterion(name) {
			problems[name] = "unknown criterion"
			continue
		}
		if math.IsNaN(v) || v < 0 || v > MaxCriterionScore {
			problems[name] = fmt.Sprintf("must be between 0 and %.0f", MaxCriterionScore)
		}
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError("invalid criteria scores").WithDetails(problems)
	}
	return nil
}

// ValidateDecision checks a reviewer decision before any state is touched.
// Comments are always required; a score is required only for approval.
func ValidateDecision(d Decision, score *float64, criteria map[string]float64, comments string) error {
	if strings.TrimSpace(comments) == "" {
		return apperrors.NewValidationError("comments are required when deciding on an application").
			WithDetails(map[string]interface{}{"comments": "required"})
	}
	if d == DecisionApproved && score == nil {
		return apperrors.NewValidationError("a score is required to approve an application").
			WithDetails(map[string]interface{}{"score": "required"})
	}
	if err := ValidateScore(score); err != nil {
		return err
	}
	return ValidateCriteriaScores(criteria)
}

// CriteriaTotal sums the sub-scores. Used for display only.
func CriteriaTotal(scores map[string]float64) float64 {
	var total float64
	for _, v := range scores {
		total += v
	}
	return total
}
