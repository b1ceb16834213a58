package risk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/service"
)

// blacklistStorage stubs the blacklist lookup; every other storage method
// panics.
type blacklistStorage struct {
	service.Storage
	entries map[string]*service.BlacklistEntry
	err     error
}

func (s *blacklistStorage) LookupBlacklist(_ context.Context, idNumber string) (*service.BlacklistEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries[idNumber], nil
}

func newTestDetector(storage service.Storage) *FraudDetector {
	d := NewFraudDetector(storage)
	d.now = func() time.Time { return time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC) }
	return d
}

func cleanFraudInput() FraudInput {
	return FraudInput{
		IDNumber:      "110101199003074258",
		FullName:      "Zhang Wei",
		MonthlyIncome: 15000,
		Salary:        16968.87,
		Company:       "Karlsruhe信息技术有限公司",
	}
}

func TestFraudDetectorCleanApplicant(t *testing.T) {
	d := newTestDetector(&blacklistStorage{})

	result := d.Evaluate(context.Background(), cleanFraudInput())
	require.NotNil(t, result)

	assert.False(t, result.IsSuspicious)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, model.DecisionApproved, result.Status)
	assert.Equal(t, "pass automated screening", result.Recommendation)
	assert.Len(t, result.Items, 4, "every check leaves a trace")
}

func TestFraudDetectorWeights(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*FraudInput)
		storage    *blacklistStorage
		confidence float64
		status     model.Decision
	}{
		{
			name:       "invalid id number",
			mutate:     func(in *FraudInput) { in.IDNumber = "12345" },
			storage:    &blacklistStorage{},
			confidence: 0.25,
			status:     model.DecisionApproved,
		},
		{
			name:       "income differs from salary flow by more than 30 percent",
			mutate:     func(in *FraudInput) { in.Salary = 5000 },
			storage:    &blacklistStorage{},
			confidence: 0.30,
			status:     model.DecisionHumanReview,
		},
		{
			name:       "income outside the industry band",
			mutate:     func(in *FraudInput) { in.MonthlyIncome = 70000; in.Salary = 70000 },
			storage:    &blacklistStorage{},
			confidence: 0.30,
			status:     model.DecisionHumanReview,
		},
		{
			name:   "blacklisted applicant",
			mutate: func(*FraudInput) {},
			storage: &blacklistStorage{entries: map[string]*service.BlacklistEntry{
				"110101199003074258": {IDNumber: "110101199003074258", Reason: "prior default"},
			}},
			confidence: 0.10,
			status:     model.DecisionApproved,
		},
		{
			name:       "blacklist lookup failure weighs heavier than a hit",
			mutate:     func(*FraudInput) {},
			storage:    &blacklistStorage{err: fmt.Errorf("db offline")},
			confidence: 0.35,
			status:     model.DecisionHumanReview,
		},
		{
			name: "stacked findings reject",
			mutate: func(in *FraudInput) {
				in.IDNumber = "12345"
				in.Salary = 5000
			},
			storage: &blacklistStorage{err: fmt.Errorf("db offline")},
			// 0.25 identity + 0.30 income + 0.35 lookup failure
			confidence: 0.90,
			status:     model.DecisionRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cleanFraudInput()
			tt.mutate(&in)

			result := newTestDetector(tt.storage).Evaluate(context.Background(), in)
			require.NotNil(t, result)
			assert.InDelta(t, tt.confidence, result.Confidence, 1e-9)
			assert.Equal(t, tt.status, result.Status)
		})
	}
}

func TestCheckIdentityIntegrity(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		idNumber   string
		fullName   string
		suspicious bool
	}{
		{"valid id and name", "110101199003074258", "Zhang Wei", false},
		{"checksum letter allowed", "11010119900307425X", "Zhang Wei", false},
		{"too short", "1101011990", "Zhang Wei", true},
		{"invalid month", "110101199013074258", "Zhang Wei", true},
		{"single character name", "110101199003074258", "W", true},
		{"birth date in the future", "110101203003074258", "Zhang Wei", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suspicious, _ := checkIdentityIntegrity(tt.idNumber, tt.fullName, now)
			assert.Equal(t, tt.suspicious, suspicious)
		})
	}
}

func TestVerifyIncomeAuthenticity(t *testing.T) {
	tests := []struct {
		name          string
		monthlyIncome float64
		salary        float64
		company       string
		suspicious    bool
	}{
		{"matches salary flow", 15000, 16968.87, "信息技术公司", false},
		{"moderate deviation tolerated", 10000, 8000, "信息技术公司", false},
		{"large deviation flagged", 10000, 5000, "信息技术公司", true},
		{"below industry band", 4000, 4000, "科技公司", true},
		{"above industry band", 70000, 70000, "科技公司", true},
		{"unknown industry skips band check", 70000, 70000, "Unknown Trading", false},
		{"no stated income skips deviation check", 0, 5000, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suspicious, _ := verifyIncomeAuthenticity(tt.monthlyIncome, tt.salary, tt.company)
			assert.Equal(t, tt.suspicious, suspicious)
		})
	}
}
