package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apexfin/loanflow/internal/model"
)

func TestDecide(t *testing.T) {
	approvedFraud := &model.FraudResult{Status: model.DecisionApproved}
	reviewFraud := &model.FraudResult{Status: model.DecisionHumanReview, Recommendation: "manual review required"}
	rejectedFraud := &model.FraudResult{Status: model.DecisionRejected, Recommendation: "reject application"}
	approvedCompliance := &model.ComplianceResult{Status: model.DecisionApproved}
	rejectedCompliance := &model.ComplianceResult{Status: model.DecisionRejected}

	tests := []struct {
		name       string
		credit     *model.CreditResult
		fraud      *model.FraudResult
		compliance *model.ComplianceResult
		want       model.Decision
		reason     string
	}{
		{
			name:       "missing credit result",
			fraud:      approvedFraud,
			compliance: approvedCompliance,
			want:       model.DecisionRejected,
			reason:     "risk evaluation incomplete",
		},
		{
			name:       "missing fraud result",
			credit:     &model.CreditResult{Score: 95},
			compliance: approvedCompliance,
			want:       model.DecisionRejected,
			reason:     "risk evaluation incomplete",
		},
		{
			name:       "credit evaluator failed",
			credit:     &model.CreditResult{Err: "report unreadable"},
			fraud:      approvedFraud,
			compliance: approvedCompliance,
			want:       model.DecisionRejected,
			reason:     "credit rating unavailable: report unreadable",
		},
		{
			name:       "malformed fraud status",
			credit:     &model.CreditResult{Score: 95},
			fraud:      &model.FraudResult{Status: "maybe"},
			compliance: approvedCompliance,
			want:       model.DecisionRejected,
			reason:     "fraud detection result malformed",
		},
		{
			name:       "malformed compliance status",
			credit:     &model.CreditResult{Score: 95},
			fraud:      approvedFraud,
			compliance: &model.ComplianceResult{Status: model.DecisionHumanReview},
			want:       model.DecisionRejected,
			reason:     "compliance result malformed",
		},
		{
			name:       "compliance rejection wins over high score",
			credit:     &model.CreditResult{Score: 100},
			fraud:      approvedFraud,
			compliance: rejectedCompliance,
			want:       model.DecisionRejected,
			reason:     "regulatory compliance check failed",
		},
		{
			name:       "fraud rejection wins over high score",
			credit:     &model.CreditResult{Score: 100},
			fraud:      rejectedFraud,
			compliance: approvedCompliance,
			want:       model.DecisionRejected,
			reason:     "fraud risk too high: reject application",
		},
		{
			name:       "clean checks and high score approve",
			credit:     &model.CreditResult{Score: 95},
			fraud:      approvedFraud,
			compliance: approvedCompliance,
			want:       model.DecisionApproved,
			reason:     "all checks passed",
		},
		{
			name:       "approve floor is inclusive",
			credit:     &model.CreditResult{Score: 90},
			fraud:      approvedFraud,
			compliance: approvedCompliance,
			want:       model.DecisionApproved,
			reason:     "all checks passed",
		},
		{
			name:       "mid score goes to manual review",
			credit:     &model.CreditResult{Score: 75},
			fraud:      approvedFraud,
			compliance: approvedCompliance,
			want:       model.DecisionHumanReview,
			reason:     "credit score in the manual review band",
		},
		{
			name:       "fraud review flag with decent score goes to manual review",
			credit:     &model.CreditResult{Score: 65},
			fraud:      reviewFraud,
			compliance: approvedCompliance,
			want:       model.DecisionHumanReview,
			reason:     "fraud signals require manual review",
		},
		{
			name:       "low score rejects",
			credit:     &model.CreditResult{Score: 50},
			fraud:      approvedFraud,
			compliance: approvedCompliance,
			want:       model.DecisionRejected,
			reason:     "credit score below the lending floor",
		},
		{
			name:       "fraud review flag with low score rejects",
			credit:     &model.CreditResult{Score: 40},
			fraud:      reviewFraud,
			compliance: approvedCompliance,
			want:       model.DecisionRejected,
			reason:     "credit score below the lending floor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Decide(tt.credit, tt.fraud, tt.compliance)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
