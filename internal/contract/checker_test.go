package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfin/loanflow/internal/model"
)

func TestKeywordClauseChecker(t *testing.T) {
	contract := `The borrower may withdraw within 14 days of signing.
The effective annual percentage rate (APR) is 4.33%.`

	clauses := []model.Clause{
		{
			ID:          "REG-001",
			Title:       "Withdrawal Right",
			Content:     "Consumer credit contracts must grant a withdrawal right.",
			CheckPoints: []string{"withdraw within 14 days", "signing"},
		},
		{
			ID:          "REG-002",
			Title:       "Collateral Disclosure",
			Content:     "The contract must describe the collateral arrangement.",
			CheckPoints: []string{"collateral arrangement"},
		},
	}

	results, err := KeywordClauseChecker{}.CheckClauses(context.Background(), contract, clauses)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Compliant)
	assert.Equal(t, "REG-001", results[0].CheckID)
	assert.Empty(t, results[0].Revision)

	assert.False(t, results[1].Compliant)
	assert.Contains(t, results[1].Process, "Contract does not address: collateral arrangement")
	assert.Contains(t, results[1].Revision, "REG-002")
	assert.Contains(t, results[1].Revision, clauses[1].Content)
}

func TestKeywordClauseCheckerTitleFallback(t *testing.T) {
	clauses := []model.Clause{{ID: "REG-010", Title: "Early Repayment"}}

	results, err := KeywordClauseChecker{}.CheckClauses(context.Background(),
		"Party B may repay the loan early. Early repayment compensation is capped.", clauses)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Compliant, "title words are the check points when none are set")
}

func TestKeywordClauseCheckerEmptyContract(t *testing.T) {
	_, err := KeywordClauseChecker{}.CheckClauses(context.Background(), "   ", nil)
	assert.Error(t, err)
}

func TestContainsKeyword(t *testing.T) {
	tests := []struct {
		name     string
		contract string
		keyword  string
		want     bool
	}{
		{"all words present", "the apr is disclosed prominently", "APR disclosed", true},
		{"short words always match", "repayment terms", "of repayment", true},
		{"missing word fails", "loan amount stated", "collateral stated", false},
		{"punctuation trimmed", "includes insurance.", "insurance", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containsKeyword(tt.contract, tt.keyword))
		})
	}
}
