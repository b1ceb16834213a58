// Package risk implements the three parallel risk evaluators: credit
// rating, fraud detection and regulatory compliance. Each evaluator writes
// its own disjoint result and never lets an internal failure escape the
// evaluator boundary.
package risk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/service"
)

// CreditRater scores an applicant's credit report.
type CreditRater struct {
	parser service.CreditReportParser
}

// NewCreditRater creates a credit rating evaluator.
func NewCreditRater(parser service.CreditReportParser) *CreditRater {
	return &CreditRater{parser: parser}
}

// Evaluate parses the credit report and applies the scoring table. It
// always returns a result: parser failures are recorded as a zero score
// with an error annotation so the fan-in barrier can proceed.
func (c *CreditRater) Evaluate(ctx context.Context, report []byte) *model.CreditResult {
	facts, err := c.parser.ParseReport(ctx, report)
	if err != nil {
		slog.Error("credit report parsing failed", "error", err)
		return &model.CreditResult{
			Score: 0,
			Err:   fmt.Sprintf("credit report parsing failed: %v", err),
		}
	}

	score := Score(facts)
	slog.Info("credit rating computed", "score", score)
	return &model.CreditResult{Score: score}
}

// Score applies the additive credit scoring table to parsed report facts.
func Score(facts *model.CreditReportFacts) int {
	score := 0

	// Repayment history
	switch {
	case facts.OverdueCount2y == 0:
		score += 30
	case facts.OverdueCount2y == 1:
		score += 10
	case facts.OverdueCount2y == 2:
		score -= 10
	default:
		score -= 30
	}
	if facts.HasOverdue60Plus {
		score -= 50
	} else {
		score += 20
	}

	// Debt level
	var cardRatio float64
	if facts.CardTotalLimit > 0 {
		cardRatio = facts.CardUsedLimit / facts.CardTotalLimit
	}
	switch {
	case cardRatio < 0.5:
		score += 10
	case cardRatio <= 0.8:
		// neutral
	default:
		score -= 10
	}
	switch {
	case facts.OtherLoanBalance < 100000:
		score += 10
	case facts.OtherLoanBalance <= 300000:
		// neutral
	default:
		score -= 10
	}

	// Account count
	if facts.AccountCount >= 1 && facts.AccountCount <= 5 {
		score += 10
	}

	// Public records
	if facts.HasPublicRecords {
		score -= 50
	} else {
		score += 10
	}

	// Recent inquiries
	switch {
	case facts.InquiryCount3m < 3:
		score += 10
	case facts.InquiryCount3m <= 6:
		// neutral
	default:
		score -= 10
	}

	return score
}
