package repositories

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/domain"
)

func TestApplicationValues_NeverBindsNull(t *testing.T) {
	tests := []struct {
		name         string
		app          *models.Application
		wantCriteria string
		wantDocs     string
	}{
		{
			name:         "fresh draft",
			app:          &models.Application{Status: domain.StatusDraft},
			wantCriteria: `{}`,
			wantDocs:     `[]`,
		},
		{
			name: "decision with criteria",
			app: &models.Application{
				Status:         domain.StatusApproved,
				CriteriaScores: map[string]float64{"academic": 8.5},
				Documents:      []models.Document{{ID: "d1", Type: domain.DocTranscript}},
			},
			wantCriteria: `{"academic":8.5}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			personal, academic, essays, financial, docs, criteria, err := applicationValues(tt.app)
			require.NoError(t, err)

			for _, col := range [][]byte{personal, academic, essays, financial} {
				assert.JSONEq(t, `{}`, string(col))
			}
			require.NotNil(t, criteria)
			assert.JSONEq(t, tt.wantCriteria, string(criteria))
			require.NotNil(t, docs)
			if tt.wantDocs != "" {
				assert.JSONEq(t, tt.wantDocs, string(docs))
			} else {
				var decoded []models.Document
				require.NoError(t, json.Unmarshal(docs, &decoded))
				assert.Len(t, decoded, 1)
			}
		})
	}
}
