package model

// Clause is one compliance rule from the regulation corpus. Scenario is
// empty for base clauses that apply to every contract.
type Clause struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Content     string   `json:"content" yaml:"content"`
	CheckPoints []string `json:"check_points,omitempty" yaml:"check_points,omitempty"`
	Scenario    string   `json:"scenario,omitempty" yaml:"scenario,omitempty"`
}

// CreditReportFacts are the structured facts parsed out of a credit report,
// fed into the credit scoring table.
type CreditReportFacts struct {
	OverdueCount2y    int     `json:"overdue_count_2y"`
	HasOverdue60Plus  bool    `json:"has_overdue_60_plus"`
	CardTotalLimit    float64 `json:"card_total_limit"`
	CardUsedLimit     float64 `json:"card_used_limit"`
	OtherLoanBalance  float64 `json:"other_loan_balance"`
	AccountCount      int     `json:"account_count"`
	HasPublicRecords  bool    `json:"has_public_records"`
	InquiryCount3m    int     `json:"inquiry_count_3m"`
}
