package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/apexfin/loanflow/internal/model"
)

// KeywordClauseChecker implements service.ClauseChecker with deterministic
// keyword matching: a clause passes when the contract text covers its check
// points. It stands in for an NL legal reviewer; its verdicts are
// conservative but reproducible.
type KeywordClauseChecker struct{}

// CheckClauses evaluates every clause against the contract text.
func (KeywordClauseChecker) CheckClauses(_ context.Context, contract string, clauses []model.Clause) ([]model.ClauseResult, error) {
	if strings.TrimSpace(contract) == "" {
		return nil, fmt.Errorf("contract text is empty")
	}
	lower := strings.ToLower(contract)

	results := make([]model.ClauseResult, 0, len(clauses))
	for _, clause := range clauses {
		keywords := clause.CheckPoints
		if len(keywords) == 0 {
			keywords = []string{clause.Title}
		}

		var missing []string
		for _, kw := range keywords {
			if !containsKeyword(lower, kw) {
				missing = append(missing, kw)
			}
		}

		result := model.ClauseResult{
			CheckID:    clause.ID,
			CheckTitle: clause.Title,
			Compliant:  len(missing) == 0,
		}
		if result.Compliant {
			result.Process = fmt.Sprintf("Contract covers all %d check points for %s.", len(keywords), clause.Title)
		} else {
			result.Process = fmt.Sprintf("Contract does not address: %s.", strings.Join(missing, "; "))
			result.Revision = fmt.Sprintf("Add wording covering %s as required by %s: %s",
				strings.Join(missing, "; "), clause.ID, clause.Content)
		}
		results = append(results, result)
	}
	return results, nil
}

// containsKeyword reports whether every significant word of the check point
// appears in the contract text.
func containsKeyword(lowerContract, keyword string) bool {
	words := strings.Fields(strings.ToLower(keyword))
	matched := 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:()")
		if len(w) < 4 {
			matched++
			continue
		}
		if strings.Contains(lowerContract, w) {
			matched++
		}
	}
	return matched == len(words)
}
