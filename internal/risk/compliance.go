package risk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/service"
)

// complianceQuery focuses retrieval on the statutory checkpoints for auto
// loans rather than on the applicant's personal details.
const complianceQuery = "auto loan review checkpoints: down payment ratio, loan term limits, " +
	"income-to-repayment ratio, borrower eligibility requirements"

// ComplianceChecker evaluates an application against the applicable
// regulations retrieved via similarity search.
type ComplianceChecker struct {
	search    service.SimilaritySearch
	evaluator service.PolicyEvaluator
}

// NewComplianceChecker creates a regulatory compliance evaluator.
func NewComplianceChecker(search service.SimilaritySearch, evaluator service.PolicyEvaluator) *ComplianceChecker {
	return &ComplianceChecker{search: search, evaluator: evaluator}
}

// ComplianceInput is the read-only applicant snapshot the checker consumes.
type ComplianceInput struct {
	IDNumber      string
	FullName      string
	MonthlyIncome float64
	Company       string
}

// Evaluate retrieves relevant regulation text, asks the policy evaluator
// for a verdict and parses it tolerantly. Failures degrade into a rejected
// result with an error annotation; they never escape the evaluator.
func (c *ComplianceChecker) Evaluate(ctx context.Context, in ComplianceInput) *model.ComplianceResult {
	hits, err := c.search.Query(ctx, complianceQuery, nil, 4)
	if err != nil || len(hits) == 0 {
		reason := "no relevant regulations retrieved"
		if err != nil {
			reason = fmt.Sprintf("regulation retrieval failed: %v", err)
		}
		slog.Error("compliance check degraded", "reason", reason)
		return &model.ComplianceResult{
			Status: model.DecisionRejected,
			Detail: reason,
			Err:    reason,
		}
	}

	regulations := make([]string, len(hits))
	for i, hit := range hits {
		regulations[i] = hit.Content
	}

	prompt := buildCompliancePrompt(in, regulations)
	verdict, err := c.evaluator.Evaluate(ctx, prompt)
	if err != nil {
		reason := fmt.Sprintf("policy evaluation failed: %v", err)
		slog.Error("compliance check degraded", "reason", reason)
		return &model.ComplianceResult{
			Status: model.DecisionRejected,
			Detail: reason,
			Err:    reason,
		}
	}

	status := parseComplianceVerdict(verdict)
	slog.Info("compliance check completed", "status", status)
	return &model.ComplianceResult{
		Status: status,
		Detail: verdict,
	}
}

func buildCompliancePrompt(in ComplianceInput, regulations []string) string {
	var b strings.Builder
	b.WriteString("You are an auto-loan eligibility reviewer. Based on the auto loan regulations below, ")
	b.WriteString("determine whether the applicant is compliant.\n")
	fmt.Fprintf(&b, "Applicant: id number %s, name %s, monthly income %.2f, employer %s\n",
		in.IDNumber, in.FullName, in.MonthlyIncome, in.Company)
	b.WriteString("Regulations:\n")
	b.WriteString(strings.Join(regulations, "\n"))
	b.WriteString("\nAnswer with a conclusion line first, then a short reason.\n")
	b.WriteString("Format:\nConclusion: [compliant/non-compliant]\nReason: [brief explanation]")
	return b.String()
}

// parseComplianceVerdict extracts the verdict from the evaluator's text.
// Structured conclusion lines take priority; keyword matching is the
// fallback when the evaluator strays from the format. Unparseable text
// defaults to rejected.
func parseComplianceVerdict(text string) model.Decision {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "conclusion: compliant") || strings.Contains(text, "结论：合规"):
		return model.DecisionApproved
	case strings.Contains(lower, "conclusion: non-compliant") || strings.Contains(text, "结论：不合规"):
		return model.DecisionRejected
	case strings.Contains(lower, "non-compliant") || strings.Contains(text, "不符合") || strings.Contains(text, "违规"):
		return model.DecisionRejected
	case strings.Contains(lower, "compliant") || strings.Contains(text, "合规") || strings.Contains(text, "符合规定"):
		return model.DecisionApproved
	default:
		return model.DecisionRejected
	}
}
