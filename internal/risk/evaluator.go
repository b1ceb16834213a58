package risk

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Minimum monthly income the lending rules accept without further review.
const minMonthlyIncome = 3000.0

var promptIncomePattern = regexp.MustCompile(`monthly income ([\d.]+)`)

// RuleBasedEvaluator implements service.PolicyEvaluator with a fixed rule
// set over the applicant snapshot embedded in the prompt. It stands in for
// an NL policy model and always answers in the structured conclusion format
// the verdict parser prefers.
type RuleBasedEvaluator struct{}

// Evaluate applies the eligibility rules and returns a conclusion line
// followed by the reason.
func (RuleBasedEvaluator) Evaluate(_ context.Context, prompt string) (string, error) {
	income, ok := incomeFromPrompt(prompt)
	if !ok {
		return "Conclusion: non-compliant\nReason: applicant income could not be determined", nil
	}
	if income < minMonthlyIncome {
		return fmt.Sprintf(
			"Conclusion: non-compliant\nReason: monthly income %.2f is below the %.0f minimum required for auto loan eligibility",
			income, minMonthlyIncome), nil
	}
	return fmt.Sprintf(
		"Conclusion: compliant\nReason: monthly income %.2f meets the eligibility requirements in the cited regulations",
		income), nil
}

func incomeFromPrompt(prompt string) (float64, bool) {
	m := promptIncomePattern.FindStringSubmatch(prompt)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
