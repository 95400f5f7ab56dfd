package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

func score(v float64) *float64 { return &v }

func TestValidateDecision(t *testing.T) {
	cases := []struct {
		name     string
		decision Decision
		score    *float64
		criteria map[string]float64
		comments string
		wantErr  bool
	}{
		{"approve with score", DecisionApproved, score(88), nil, "strong", false},
		{"approve without score", DecisionApproved, nil, nil, "strong", true},
		{"reject without score", DecisionRejected, nil, nil, "gpa too low", false},
		{"return without score", DecisionReturned, nil, nil, "missing transcript", false},
		{"missing comments", DecisionRejected, nil, nil, "   ", true},
		{"score above range", DecisionApproved, score(101), nil, "x", true},
		{"negative score", DecisionRejected, score(-1), nil, "x", true},
		{"criteria in range", DecisionApproved, score(70), map[string]float64{"academic_merit": 20, "leadership": 0}, "ok", false},
		{"criterion above 20", DecisionApproved, score(70), map[string]float64{"essay_quality": 21}, "ok", true},
		{"unknown criterion", DecisionApproved, score(70), map[string]float64{"charisma": 5}, "ok", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDecision(tc.decision, tc.score, tc.criteria, tc.comments)
			if tc.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCriteriaIndependentOfScore(t *testing.T) {
	criteria := map[string]float64{
		"academic_merit": 20, "financial_need": 20, "leadership": 20,
		"community_service": 20, "essay_quality": 20,
	}
	assert.NoError(t, ValidateDecision(DecisionApproved, score(40), criteria, "fine"))
	assert.Equal(t, 100.0, CriteriaTotal(criteria))
}
