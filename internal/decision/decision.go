// Package decision applies the deterministic approval rule to the three
// risk evaluator results. It has no collaborators and no side effects.
package decision

import (
	"github.com/apexfin/loanflow/internal/model"
)

// Score bands for the credit component of the decision rule.
const (
	scoreApproveFloor = 90
	scoreReviewFloor  = 60
)

// Decide maps the three evaluator results to a decision and a
// human-readable rationale. Missing or error-bearing prerequisites yield
// rejection rather than a guess.
func Decide(credit *model.CreditResult, fraud *model.FraudResult, compliance *model.ComplianceResult) (model.Decision, string) {
	if credit == nil || fraud == nil || compliance == nil {
		return model.DecisionRejected, "risk evaluation incomplete"
	}
	if credit.Err != "" {
		return model.DecisionRejected, "credit rating unavailable: " + credit.Err
	}
	if !fraud.Status.IsValid() {
		return model.DecisionRejected, "fraud detection result malformed"
	}
	if compliance.Status != model.DecisionApproved && compliance.Status != model.DecisionRejected {
		return model.DecisionRejected, "compliance result malformed"
	}

	if compliance.Status == model.DecisionRejected {
		return model.DecisionRejected, "regulatory compliance check failed"
	}
	if fraud.Status == model.DecisionRejected {
		return model.DecisionRejected, "fraud risk too high: " + fraud.Recommendation
	}

	switch {
	case fraud.Status == model.DecisionApproved && credit.Score >= scoreApproveFloor:
		return model.DecisionApproved, "all checks passed"
	case fraud.Status == model.DecisionApproved && credit.Score >= scoreReviewFloor:
		return model.DecisionHumanReview, "credit score in the manual review band"
	case fraud.Status == model.DecisionHumanReview && credit.Score >= scoreReviewFloor:
		return model.DecisionHumanReview, "fraud signals require manual review"
	default:
		return model.DecisionRejected, "credit score below the lending floor"
	}
}
