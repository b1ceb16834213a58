package contract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/apexfin/loanflow/internal/model"
)

// Generator renders the contract artifact from the structured data and the
// on-disk template. The template lives on disk so the revision stage can
// rewrite it between review rounds.
type Generator struct {
	templatePath string
	now          func() time.Time
}

// NewGenerator creates a contract generator bound to the given template
// path. A missing template file is seeded with the built-in default so a
// fresh deployment works without a bootstrap step.
func NewGenerator(templatePath string) (*Generator, error) {
	g := &Generator{templatePath: templatePath, now: time.Now}
	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(templatePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating template directory: %w", err)
		}
		if err := os.WriteFile(templatePath, []byte(defaultTemplate), 0o644); err != nil {
			return nil, fmt.Errorf("seeding default template: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking template: %w", err)
	}
	return g, nil
}

// TemplatePath returns the path of the template file this generator renders.
func (g *Generator) TemplatePath() string {
	return g.templatePath
}

// renderContext is the data set handed to the contract template.
type renderContext struct {
	Data              *model.ContractData
	LoanAmountWords   string
	InterestRateWords string
	LoanTermWords     string
	MonthlyPayment    float64
	TotalRepayment    float64
	Schedule          []Installment
}

// Generate renders the contract and packages the artifact with its metadata.
func (g *Generator) Generate(data *model.ContractData) (string, *model.ContractFile, error) {
	raw, err := os.ReadFile(g.templatePath)
	if err != nil {
		return "", nil, fmt.Errorf("reading contract template: %w", err)
	}

	tmpl, err := template.New(filepath.Base(g.templatePath)).Parse(string(raw))
	if err != nil {
		return "", nil, fmt.Errorf("parsing contract template: %w", err)
	}

	schedule, err := RepaymentSchedule(data.LoanAmount, data.AnnualRate, data.TermMonths, data.DisbursementDate)
	if err != nil {
		return "", nil, fmt.Errorf("building repayment schedule: %w", err)
	}
	total := 0.0
	for _, inst := range schedule {
		total += inst.PaymentAmount
	}

	ctx := renderContext{
		Data:              data,
		LoanAmountWords:   ConvertCurrency(data.LoanAmount, data.Currency),
		InterestRateWords: ConvertPercentage(data.AnnualRate),
		LoanTermWords:     ConvertNumber(data.TermMonths),
		MonthlyPayment:    round2(MonthlyPayment(data.LoanAmount, data.AnnualRate, data.TermMonths)),
		TotalRepayment:    round2(total),
		Schedule:          schedule,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, ctx); err != nil {
		return "", nil, fmt.Errorf("rendering contract: %w", err)
	}
	draft := normalizeText(sb.String())

	name := fmt.Sprintf("AUTOLOAN-%s.txt", g.now().Format("20060102-150405"))
	file := &model.ContractFile{
		Name:      name,
		Type:      "text/plain",
		Extension: ".txt",
		Size:      int64(len(draft)),
		Data:      []byte(draft),
	}

	slog.Info("contract generated",
		"contract_number", data.ContractNumber,
		"file_name", name,
		"size", file.Size)
	return draft, file, nil
}

// normalizeText collapses blank-line runs and trailing spaces left behind by
// template actions.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

const defaultTemplate = `AUTO LOAN AGREEMENT
Contract Number: {{ .Data.ContractNumber }}
Signing Date: {{ .Data.SigningDate }}

PARTY A (LENDER)
Name: {{ .Data.Lender.Name }}
Registration Number: {{ .Data.Lender.RegNumber }}
Address: {{ .Data.Lender.Address }}
Phone: {{ .Data.Lender.Phone }}
Email: {{ .Data.Lender.Email }}
Authorized Representative: {{ .Data.Lender.AuthorizedRep }}

PARTY B (BORROWER)
Full Name: {{ .Data.Borrower.FullName }}
ID Number: {{ .Data.Borrower.IDNumber }}
Address: {{ .Data.Borrower.Address }}
Phone: {{ .Data.Borrower.Phone }}
IBAN: {{ .Data.Borrower.IBAN }}

Article 1 - Loan Amount and Purpose
Party A grants Party B a loan of {{ .Data.Currency }} {{ printf "%.2f" .Data.LoanAmount }}
({{ .LoanAmountWords }}) exclusively for the purchase of the vehicle described
in Article 5. The loan is disbursed on {{ .Data.DisbursementDate }} directly to
the dealer account stated in Article 6.

Article 2 - Interest Rate
The nominal annual interest rate is {{ printf "%.2f" .Data.AnnualRate }}%
({{ .InterestRateWords }}). The effective annual percentage rate (APR) is
{{ printf "%.2f" .Data.APR }}%.

Article 3 - Term and Repayment
The loan term is {{ .Data.TermMonths }} ({{ .LoanTermWords }}) months. Party B
repays in equal monthly installments of {{ .Data.Currency }} {{ printf "%.2f" .MonthlyPayment }}.
The total amount repayable is {{ .Data.Currency }} {{ printf "%.2f" .TotalRepayment }}.
The full repayment schedule is attached as Appendix A.

Article 4 - Right of Withdrawal
Party B may withdraw from this contract without stating reasons within 14 days
of signing. The withdrawal period expires 14 days after Party B signs this
contract.

Article 5 - Vehicle
Make: {{ .Data.Vehicle.Make }}
Model: {{ .Data.Vehicle.Model }}
Chassis Number: {{ .Data.Vehicle.ChassisNumber }}

Article 6 - Disbursement
Dealer: {{ .Data.Dealer.Name }}
Dealer IBAN: {{ .Data.Dealer.IBAN }}

Article 7 - Early Repayment
Party B may repay the loan early in whole or in part at any time. In the case
of early repayment Party A may charge compensation not exceeding 1% of the
amount repaid early, or 0.5% if the remaining term is less than one year.

Article 8 - Default
If Party B is in arrears with at least two consecutive installments amounting
to at least 10% of the loan amount, Party A may terminate the contract after a
two-week grace period granted in writing has elapsed without payment.

SIGNATURES

Party A: {{ .Data.Lender.Name }}
Represented by: {{ .Data.Lender.AuthorizedRep }}
Date: {{ .Data.Lender.RepSignDate }}

Party B: {{ .Data.Borrower.FullName }}
Date: {{ .Data.Borrower.SignDate }}

Appendix A - Repayment Schedule
Month | Due Date | Payment | Principal | Interest | Remaining
{{ range .Schedule }}{{ .Month }} | {{ .Date }} | {{ printf "%.2f" .PaymentAmount }} | {{ printf "%.2f" .Principal }} | {{ printf "%.2f" .Interest }} | {{ printf "%.2f" .RemainingPrincipal }}
{{ end }}
`
