package contract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/service"
)

// scenarioQueries maps each business scenario to the focused retrieval query
// for its clause subset. Querying with the scenario's compliance need beats
// querying with the contract full text.
var scenarioQueries = map[string]string{
	"used_vehicle":     "Legal clauses for used vehicle loan scenarios, including vehicle valuation and accident history disclosure requirements",
	"foreign_borrower": "Regulations related to identity verification and cross-border credit checks for foreign borrower loans",
	"early_repayment":  "Legal provisions on penalty restrictions and application procedures for early loan repayment",
	"cross_border":     "Legal requirements for registration and insurance in cross-border vehicle loans",
}

// Reviewer checks a rendered contract against the base clause corpus plus
// the scenario subsets selected by the business context.
type Reviewer struct {
	storage service.Storage
	search  service.SimilaritySearch
	checker service.ClauseChecker
}

// NewReviewer creates a contract compliance reviewer.
func NewReviewer(storage service.Storage, search service.SimilaritySearch, checker service.ClauseChecker) *Reviewer {
	return &Reviewer{storage: storage, search: search, checker: checker}
}

// Review runs the full compliance check and folds the per-clause verdicts
// into a single review result. Revisions are populated only for failing
// items that carry a concrete revision instruction.
func (r *Reviewer) Review(ctx context.Context, contract string, bizCtx model.BusinessContext) (*model.ContractReview, error) {
	clauses, err := r.collectClauses(ctx, bizCtx)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("no compliance clauses available for review")
	}

	results, err := r.checker.CheckClauses(ctx, contract, clauses)
	if err != nil {
		return nil, fmt.Errorf("clause check failed: %w", err)
	}

	review := foldResults(results)
	slog.Info("contract review completed",
		"overall", review.OverallResult,
		"checked", len(results),
		"revisions", len(review.Revisions))
	return review, nil
}

// collectClauses returns the base corpus followed by every clause subset
// triggered by the business context, deduplicated by check id.
func (r *Reviewer) collectClauses(ctx context.Context, bizCtx model.BusinessContext) ([]model.Clause, error) {
	base, err := r.storage.GetClauses(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("loading base clauses: %w", err)
	}

	clauses := append([]model.Clause{}, base...)
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.ID] = true
	}

	for _, scenario := range bizCtx.Scenarios() {
		query, ok := scenarioQueries[scenario]
		if !ok {
			query = scenario
		}
		hits, err := r.search.Query(ctx, query, map[string]string{"scenario": scenario}, 3)
		if err != nil {
			return nil, fmt.Errorf("retrieving %s clauses: %w", scenario, err)
		}
		for _, hit := range hits {
			id := hit.Metadata["id"]
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			clauses = append(clauses, model.Clause{
				ID:       id,
				Title:    hit.Metadata["title"],
				Content:  hit.Content,
				Scenario: scenario,
			})
		}
	}
	return clauses, nil
}

func foldResults(results []model.ClauseResult) *model.ContractReview {
	overall := model.ReviewApproved
	nonCompliant := 0

	var details strings.Builder
	var revisions []model.RevisionItem
	for _, item := range results {
		verdict := "PASS"
		if !item.Compliant {
			verdict = "FAIL"
			nonCompliant++
			overall = model.ReviewRejected
		}
		fmt.Fprintf(&details, "[%s %s] %s\nExplanation: %s\n", item.CheckID, item.CheckTitle, verdict, item.Process)
		if !item.Compliant && item.Revision != "" {
			fmt.Fprintf(&details, "Revision: %s\n", item.Revision)
			revisions = append(revisions, model.RevisionItem{
				CheckID:         item.CheckID,
				CheckTitle:      item.CheckTitle,
				CompliantResult: "FAIL",
				Explanation:     item.Process,
				RevisionContent: item.Revision,
			})
		}
	}

	return &model.ContractReview{
		OverallResult: overall,
		DetailResults: strings.TrimRight(details.String(), "\n"),
		Summary:       fmt.Sprintf("Checked %d items. %d non-compliant issues found.", len(results), nonCompliant),
		Revisions:     revisions,
	}
}
