package model

import (
	"fmt"
	"strings"
)

// Party identifies the lending institution on a contract.
type Party struct {
	Name          string `json:"name"`
	RegNumber     string `json:"reg_number"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	AuthorizedRep string `json:"authorized_rep"`
	RepSignDate   string `json:"rep_sign_date"`
}

// Borrower identifies the applicant on a contract.
type Borrower struct {
	FullName string `json:"full_name"`
	IDNumber string `json:"id_number"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IBAN     string `json:"iban"`
	SignDate string `json:"sign_date"`
}

// Vehicle describes the financed vehicle on a contract.
type Vehicle struct {
	Make          string `json:"make"`
	Model         string `json:"model"`
	ChassisNumber string `json:"chassis_number"`
}

// Dealer identifies the vehicle dealer receiving disbursement.
type Dealer struct {
	Name string `json:"name"`
	IBAN string `json:"iban"`
}

// ContractData holds the structured legal-contract fields. It is built once
// by NewContractData, which rejects incomplete construction; afterwards it is
// read-only.
type ContractData struct {
	ContractNumber   string   `json:"contract_number"`
	SigningDate      string   `json:"signing_date"` // DD/MM/YYYY
	Currency         string   `json:"currency"`
	Lender           Party    `json:"lender"`
	Borrower         Borrower `json:"borrower"`
	LoanAmount       float64  `json:"loan_amount"`
	AnnualRate       float64  `json:"annual_interest_rate"`
	APR              float64  `json:"apr"`
	TermMonths       int      `json:"loan_term_months"`
	DisbursementDate string   `json:"disbursement_date"`
	ResidentPersonal bool     `json:"german_resident_personal_use"`
	Vehicle          Vehicle  `json:"vehicle"`
	Dealer           Dealer   `json:"dealer"`
}

// NewContractData validates and constructs an immutable contract data value.
// All required fields must be present; the error names every missing one.
func NewContractData(d ContractData) (*ContractData, error) {
	var missing []string
	required := []struct {
		name string
		ok   bool
	}{
		{"contract_number", d.ContractNumber != ""},
		{"signing_date", d.SigningDate != ""},
		{"currency", d.Currency != ""},
		{"lender.name", d.Lender.Name != ""},
		{"lender.address", d.Lender.Address != ""},
		{"borrower.full_name", d.Borrower.FullName != ""},
		{"borrower.iban", d.Borrower.IBAN != ""},
		{"loan_amount", d.LoanAmount > 0},
		{"annual_interest_rate", d.AnnualRate > 0},
		{"loan_term_months", d.TermMonths > 0},
		{"disbursement_date", d.DisbursementDate != ""},
		{"vehicle.make", d.Vehicle.Make != ""},
		{"vehicle.chassis_number", d.Vehicle.ChassisNumber != ""},
	}
	for _, f := range required {
		if !f.ok {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("contract data incomplete: missing %s", strings.Join(missing, ", "))
	}
	return &d, nil
}

// RevisionItem is one revision instruction produced by the contract
// compliance checker for a failing clause.
type RevisionItem struct {
	CheckID         string `json:"check_id"`
	CheckTitle      string `json:"check_title"`
	CompliantResult string `json:"compliant_result"` // PASS or FAIL
	Explanation     string `json:"explanation"`
	RevisionContent string `json:"revision_content"`
}

// ClauseResult is the verdict on a single compliance check item.
type ClauseResult struct {
	CheckID    string `json:"check_id"`
	CheckTitle string `json:"check_title"`
	Compliant  bool   `json:"compliant"`
	Process    string `json:"check_process"`
	Revision   string `json:"revision,omitempty"`
	Location   string `json:"location,omitempty"`
}

// ContractReview is the final result of a contract compliance review.
// Revisions is non-empty only when OverallResult is Rejected.
type ContractReview struct {
	OverallResult ReviewStatus   `json:"overall_result"`
	DetailResults string         `json:"detail_results"`
	Summary       string         `json:"summary"`
	Revisions     []RevisionItem `json:"revisions,omitempty"`
}

// BusinessContext carries the boolean flags selecting scenario-specific
// compliance clause subsets.
type BusinessContext struct {
	ForeignResident         bool `json:"is_foreign_resident"`
	UsedVehicle             bool `json:"is_vehicle_old"`
	CrossBorderRegistration bool `json:"is_vehicle_registration_cross_border"`
	EarlyRepayment          bool `json:"is_early_repayment"`
}

// Scenarios returns the scenario tags triggered by the context flags.
func (b BusinessContext) Scenarios() []string {
	var scenarios []string
	if b.EarlyRepayment {
		scenarios = append(scenarios, "early_repayment")
	}
	if b.ForeignResident {
		scenarios = append(scenarios, "foreign_borrower")
	}
	if b.UsedVehicle {
		scenarios = append(scenarios, "used_vehicle")
	}
	if b.CrossBorderRegistration {
		scenarios = append(scenarios, "cross_border")
	}
	return scenarios
}
