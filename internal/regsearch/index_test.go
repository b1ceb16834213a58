package regsearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfin/loanflow/internal/model"
)

func indexClauses() []model.Clause {
	return []model.Clause{
		{
			ID:      "REG-001",
			Title:   "Down Payment Ratio",
			Content: "The down payment ratio for passenger vehicle loans is at least 20 percent.",
		},
		{
			ID:      "REG-002",
			Title:   "Loan Term Limits",
			Content: "The loan term for auto loans does not exceed five years.",
		},
		{
			ID:       "UV-001",
			Title:    "Used Vehicle Valuation",
			Content:  "Used vehicle loans require an independent valuation and accident history disclosure.",
			Scenario: "used_vehicle",
		},
	}
}

func TestIndexQueryRanksOverlap(t *testing.T) {
	idx := NewIndex(indexClauses())

	hits, err := idx.Query(context.Background(), "down payment ratio for vehicle loans", nil, 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	assert.Equal(t, "REG-001", hits[0].Metadata["id"])
	assert.Contains(t, hits[0].Content, "Down Payment Ratio")
	assert.LessOrEqual(t, len(hits), 2)
}

func TestIndexQueryScenarioFilter(t *testing.T) {
	idx := NewIndex(indexClauses())

	hits, err := idx.Query(context.Background(),
		"used vehicle valuation and accident history disclosure",
		map[string]string{"scenario": "used_vehicle"}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "UV-001", hits[0].Metadata["id"])
	assert.Equal(t, "used_vehicle", hits[0].Metadata["scenario"])
}

func TestIndexQueryNoOverlap(t *testing.T) {
	idx := NewIndex(indexClauses())

	hits, err := idx.Query(context.Background(), "zzz qqq xxx", nil, 3)
	require.NoError(t, err)
	assert.Empty(t, hits, "zero-overlap documents are never returned")
}

func TestIndexQueryEdgeCases(t *testing.T) {
	idx := NewIndex(indexClauses())

	t.Run("k of zero", func(t *testing.T) {
		hits, err := idx.Query(context.Background(), "loan", nil, 0)
		require.NoError(t, err)
		assert.Nil(t, hits)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := idx.Query(ctx, "loan", nil, 3)
		assert.Error(t, err)
	})
}

func TestTermFrequencies(t *testing.T) {
	terms := termFrequencies("The loan term for auto loans: LOAN term!")

	assert.Equal(t, 2, terms["term"])
	assert.Equal(t, 2, terms["loan"])
	assert.Equal(t, 1, terms["loans"])
	assert.NotContains(t, terms, "the", "stopwords dropped")
	assert.NotContains(t, terms, "for")
}

func TestOverlapScore(t *testing.T) {
	query := termFrequencies("down payment ratio")
	doc := termFrequencies("down payment ratio applies; payment schedules vary")

	// All three query terms present, one of them twice in the document.
	assert.InDelta(t, (1+1.1+1)/3.0, overlapScore(query, doc), 1e-9)
	assert.Equal(t, 0.0, overlapScore(map[string]int{}, doc))
}
