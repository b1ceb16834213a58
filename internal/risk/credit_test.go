package risk

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfin/loanflow/internal/model"
)

func cleanFacts() *model.CreditReportFacts {
	return &model.CreditReportFacts{
		OverdueCount2y:   0,
		HasOverdue60Plus: false,
		CardTotalLimit:   50000,
		CardUsedLimit:    10000,
		OtherLoanBalance: 0,
		AccountCount:     3,
		HasPublicRecords: false,
		InquiryCount3m:   1,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.CreditReportFacts)
		want   int
	}{
		{"clean history scores the maximum", func(*model.CreditReportFacts) {}, 100},
		{"one overdue", func(f *model.CreditReportFacts) { f.OverdueCount2y = 1 }, 80},
		{"two overdues", func(f *model.CreditReportFacts) { f.OverdueCount2y = 2 }, 60},
		{"many overdues", func(f *model.CreditReportFacts) { f.OverdueCount2y = 5 }, 40},
		{"overdue past 60 days", func(f *model.CreditReportFacts) { f.HasOverdue60Plus = true }, 30},
		{"card utilization in the neutral band", func(f *model.CreditReportFacts) { f.CardUsedLimit = 35000 }, 90},
		{"card utilization too high", func(f *model.CreditReportFacts) { f.CardUsedLimit = 45000 }, 80},
		{"moderate other loans", func(f *model.CreditReportFacts) { f.OtherLoanBalance = 200000 }, 90},
		{"heavy other loans", func(f *model.CreditReportFacts) { f.OtherLoanBalance = 400000 }, 80},
		{"no accounts", func(f *model.CreditReportFacts) { f.AccountCount = 0 }, 90},
		{"too many accounts", func(f *model.CreditReportFacts) { f.AccountCount = 9 }, 90},
		{"public records", func(f *model.CreditReportFacts) { f.HasPublicRecords = true }, 40},
		{"moderate inquiries", func(f *model.CreditReportFacts) { f.InquiryCount3m = 5 }, 90},
		{"heavy inquiries", func(f *model.CreditReportFacts) { f.InquiryCount3m = 9 }, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := cleanFacts()
			tt.mutate(facts)
			assert.Equal(t, tt.want, Score(facts))
		})
	}
}

type stubParser struct {
	facts *model.CreditReportFacts
	err   error
}

func (p stubParser) ParseReport(context.Context, []byte) (*model.CreditReportFacts, error) {
	return p.facts, p.err
}

func TestCreditRaterEvaluate(t *testing.T) {
	t.Run("scores parsed facts", func(t *testing.T) {
		rater := NewCreditRater(stubParser{facts: cleanFacts()})
		result := rater.Evaluate(context.Background(), []byte("report"))
		require.NotNil(t, result)
		assert.Equal(t, 100, result.Score)
		assert.Empty(t, result.Err)
	})

	t.Run("parser failure degrades to zero score", func(t *testing.T) {
		rater := NewCreditRater(stubParser{err: fmt.Errorf("unreadable report")})
		result := rater.Evaluate(context.Background(), []byte("report"))
		require.NotNil(t, result)
		assert.Equal(t, 0, result.Score)
		assert.Contains(t, result.Err, "unreadable report")
	})
}

func TestEmbeddedFactsParser(t *testing.T) {
	factsJSON := `{"overdue_count_2y":1,"has_overdue_60_plus":false,"card_total_limit":50000,` +
		`"card_used_limit":10000,"other_loan_balance":0,"account_count":3,` +
		`"has_public_records":false,"inquiry_count_3m":1}`

	t.Run("facts embedded in surrounding text", func(t *testing.T) {
		report := []byte("CREDIT REPORT\nIssued 2025-03-15\n" + factsJSON + "\nEND OF REPORT")
		facts, err := EmbeddedFactsParser{}.ParseReport(context.Background(), report)
		require.NoError(t, err)
		assert.Equal(t, 1, facts.OverdueCount2y)
		assert.Equal(t, 50000.0, facts.CardTotalLimit)
		assert.Equal(t, 3, facts.AccountCount)
	})

	t.Run("skips trailing non-fact braces", func(t *testing.T) {
		report := []byte(factsJSON + "\ntrailer {not json}")
		facts, err := EmbeddedFactsParser{}.ParseReport(context.Background(), report)
		require.NoError(t, err)
		assert.Equal(t, 1, facts.OverdueCount2y)
	})

	t.Run("no json at all", func(t *testing.T) {
		_, err := EmbeddedFactsParser{}.ParseReport(context.Background(), []byte("plain text report"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no structured facts")
	})
}
