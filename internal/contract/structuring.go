// Package contract implements the post-approval pipeline: structuring the
// contract data, rendering the contract artifact, reviewing it against the
// compliance clause corpus and revising the template when the review fails.
package contract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/apexfin/loanflow/internal/model"
)

// Lender identity and settlement constants for every contract issued by the
// institution.
const (
	lenderName    = "Apex Auto Finance GmbH"
	lenderReg     = "HRB 123456 Karlsruhe"
	lenderAddress = "Industriestraße 38, 76135 Karlsruhe, Germany"
	lenderPhone   = "+49 721 897 6543"
	lenderEmail   = "service@apexautofinance.de"
	lenderRep     = "Anna Müller"

	dealerName = "AutoVision GmbH"
	dealerIBAN = "DE78 3705 0055 0643 0240 00"

	// Chassis number placeholder until the dealer reports the allocated VIN.
	defaultChassisNumber = "WBA123456789012345"

	contractNumberPrefix = "APX-FIN-2025"

	cnyPerEUR = 8.00
)

// Structurer assembles the validated contract data from an approved
// application.
type Structurer struct {
	now func() time.Time
}

// NewStructurer creates a contract data structurer.
func NewStructurer() *Structurer {
	return &Structurer{now: time.Now}
}

// Structure derives the immutable contract data set from the application.
// Amounts arrive in CNY and are settled in EUR; the nominal rate is unified
// to a percentage figure and the APR is derived from the amortized cash
// flows with zero fees.
func (s *Structurer) Structure(state *model.ApplicationState) (*model.ContractData, error) {
	today := s.now().Format(dateLayout)

	loanAmount, err := cnyToEUR(state.Bundle.Loan.AmountCNY)
	if err != nil {
		return nil, fmt.Errorf("converting loan amount: %w", err)
	}
	annualRate, err := unifyInterestRate(state.Bundle.Loan.InterestRate)
	if err != nil {
		return nil, fmt.Errorf("unifying interest rate: %w", err)
	}
	termMonths := state.Bundle.Loan.TermMonths

	apr := CalculateAPR(loanAmount, annualRate, termMonths, 0, s.now())

	idNumber := state.Bundle.Personal.IDNumber
	if state.Identity != nil && state.Identity.IDNumber != "" {
		idNumber = state.Identity.IDNumber
	}

	data, err := model.NewContractData(model.ContractData{
		ContractNumber: contractNumber(state.ApplicationID),
		SigningDate:    today,
		Currency:       "EUR",
		Lender: model.Party{
			Name:          lenderName,
			RegNumber:     lenderReg,
			Address:       lenderAddress,
			Phone:         lenderPhone,
			Email:         lenderEmail,
			AuthorizedRep: lenderRep,
			RepSignDate:   today,
		},
		Borrower: model.Borrower{
			FullName: state.Bundle.Personal.FullName,
			IDNumber: idNumber,
			Address:  state.Bundle.Personal.Address,
			Phone:    state.Bundle.Personal.PhoneNumber,
			IBAN:     state.Bundle.Personal.AccountNumber,
			SignDate: today,
		},
		LoanAmount:       loanAmount,
		AnnualRate:       annualRate,
		APR:              apr,
		TermMonths:       termMonths,
		DisbursementDate: today,
		ResidentPersonal: false,
		Vehicle: model.Vehicle{
			Make:          state.Bundle.Car.Brand,
			Model:         state.Bundle.Car.Model,
			ChassisNumber: defaultChassisNumber,
		},
		Dealer: model.Dealer{
			Name: dealerName,
			IBAN: dealerIBAN,
		},
	})
	if err != nil {
		return nil, err
	}

	slog.Info("loan structuring completed",
		"contract_number", data.ContractNumber,
		"loan_amount_eur", data.LoanAmount,
		"apr", data.APR)
	return data, nil
}

// contractNumber derives the institutional contract number from the
// application id. The portion after the last underscore becomes the suffix
// so APPL_372F03A6 yields APX-FIN-2025-372F03A6.
func contractNumber(applicationID string) string {
	suffix := applicationID
	if idx := strings.LastIndex(applicationID, "_"); idx >= 0 {
		suffix = applicationID[idx+1:]
	}
	return fmt.Sprintf("%s-%s", contractNumberPrefix, suffix)
}

func cnyToEUR(amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("amount must not be negative: %.2f", amount)
	}
	return round2(amount / cnyPerEUR), nil
}

// unifyInterestRate normalizes a rate supplied either as a fraction (0.0425)
// or as a percentage figure (4.25) to the percentage form.
func unifyInterestRate(rate float64) (float64, error) {
	if rate < 0 {
		return 0, fmt.Errorf("interest rate must not be negative: %v", rate)
	}
	if rate > 0 && rate < 1 {
		return round2(rate * 100), nil
	}
	return round2(rate), nil
}
