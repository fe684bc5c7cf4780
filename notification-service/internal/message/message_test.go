package message

import (
	"testing"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		decision models.Decision
		contains string
	}{
		{models.DecisionBlock, "blocked"},
		{models.DecisionReview, "under review"},
		{models.DecisionApprove, "approved"},
	}
	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			msg, err := Build(tt.decision, "txn-42")
			require.NoError(t, err)
			assert.Contains(t, msg, tt.contains)
			assert.Contains(t, msg, "txn-42")
		})
	}
}

func TestBuildEveryDecisionHasTemplate(t *testing.T) {
	for _, d := range []models.Decision{models.DecisionApprove, models.DecisionReview, models.DecisionBlock} {
		_, err := Build(d, "txn-1")
		assert.NoError(t, err, "decision %s", d)
	}
}

func TestBuildRejectsUnknownDecision(t *testing.T) {
	_, err := Build(models.Decision("ESCALATE"), "txn-1")
	assert.Error(t, err)
}
