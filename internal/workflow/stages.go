package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/decision"
	"github.com/apexfin/loanflow/internal/extract"
	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/risk"
)

// dataCollect extracts structured fields from the document bundle. A
// structurally invalid document fails the whole collection; unrecognized
// fields flow downstream as low-confidence data.
func (e *Engine) dataCollect(ctx context.Context, state *model.ApplicationState) stageResult {
	fail := func(err error) stageResult {
		slog.Error("data collection failed",
			"application_id", state.ApplicationID,
			"error", err)
		state.DataCollectionStatus = "failed"
		state.Status = model.StatusCollectionFailed
		return stageResult{next: model.StageEnd}
	}

	if err := missingDocuments(&state.Bundle); err != nil {
		return fail(err)
	}

	identity, err := e.extractor.ExtractIdentity(ctx, state.Bundle.Documents[model.DocumentIDCard])
	if err != nil {
		return fail(err)
	}
	salary, err := e.extractor.ExtractSalary(ctx, state.Bundle.Documents[model.DocumentSalarySlip])
	if err != nil {
		return fail(err)
	}
	employment, err := e.extractor.ExtractEmployment(ctx, state.Bundle.Documents[model.DocumentEmploymentProof])
	if err != nil {
		return fail(err)
	}
	report := state.Bundle.Documents[model.DocumentCreditReport]
	if err := e.extractor.ValidateCreditReport(report); err != nil {
		return fail(err)
	}

	state.Identity = &identity
	state.Salary = salary
	state.Employment = &employment
	state.CreditReport = report
	state.DataCollectionStatus = "completed"

	slog.Info("data collection completed",
		"application_id", state.ApplicationID,
		"name_recognized", identity.FullName != extract.Unrecognized,
		"salary", salary)
	return stageResult{next: model.StageParallelStart}
}

// missingDocuments reports the first required document absent from the bundle.
func missingDocuments(bundle *model.ApplicationBundle) error {
	for _, kind := range model.RequiredDocuments() {
		if len(bundle.Documents[kind]) == 0 {
			return fmt.Errorf("%w: %s", common.ErrMissingDocuments, kind)
		}
	}
	return nil
}

// evaluators returns the three risk evaluator closures. Extracted identity
// fields take precedence over the form fields when recognized. Each closure
// writes exactly one state field disjoint from the others, so they can run
// sequentially in any order or all at once with the same result.
func (e *Engine) evaluators(state *model.ApplicationState) []func(context.Context) {
	idNumber := state.Bundle.Personal.IDNumber
	fullName := state.Bundle.Personal.FullName
	if state.Identity != nil {
		if state.Identity.IDNumber != extract.Unrecognized && state.Identity.IDNumber != "" {
			idNumber = state.Identity.IDNumber
		}
		if state.Identity.FullName != extract.Unrecognized && state.Identity.FullName != "" {
			fullName = state.Identity.FullName
		}
	}
	company := ""
	if state.Employment != nil && state.Employment.Company != extract.Unrecognized {
		company = state.Employment.Company
	}

	return []func(context.Context){
		func(ctx context.Context) {
			state.Credit = e.credit.Evaluate(ctx, state.CreditReport)
		},
		func(ctx context.Context) {
			state.Fraud = e.fraud.Evaluate(ctx, risk.FraudInput{
				IDNumber:      idNumber,
				FullName:      fullName,
				MonthlyIncome: state.Bundle.Personal.MonthlyIncome,
				Salary:        state.Salary,
				Company:       company,
			})
		},
		func(ctx context.Context) {
			state.Compliance = e.compliance.Evaluate(ctx, risk.ComplianceInput{
				IDNumber:      idNumber,
				FullName:      fullName,
				MonthlyIncome: state.Bundle.Personal.MonthlyIncome,
				Company:       company,
			})
		},
	}
}

// parallelStart fans the three risk evaluators out concurrently. No evaluator
// returns an error, so the group exists for the concurrency pattern rather
// than error fan-in.
func (e *Engine) parallelStart(ctx context.Context, state *model.ApplicationState) stageResult {
	g, gctx := errgroup.WithContext(ctx)
	for _, eval := range e.evaluators(state) {
		eval := eval
		g.Go(func() error {
			eval(gctx)
			return nil
		})
	}
	_ = g.Wait()

	return stageResult{next: model.StageWaitForChecks}
}

// waitForChecks is the fan-in barrier. A resumed run may land here with
// partial results; once the attempt cap is reached the missing results
// degrade to conservative defaults so the decision can always be made.
func (e *Engine) waitForChecks(state *model.ApplicationState) stageResult {
	if state.ChecksComplete() {
		return stageResult{next: model.StageDecision}
	}

	state.CheckAttempts++
	if state.CheckAttempts < maxCheckAttempts {
		return stageResult{next: model.StageWaitForChecks}
	}

	slog.Warn("risk checks incomplete after max attempts, applying defaults",
		"application_id", state.ApplicationID,
		"attempts", state.CheckAttempts)
	if state.Credit == nil {
		state.Credit = &model.CreditResult{Score: 0, Err: "credit rating not completed"}
	}
	if state.Fraud == nil {
		state.Fraud = &model.FraudResult{
			Status:         model.DecisionRejected,
			Confidence:     1.0,
			IsSuspicious:   true,
			Recommendation: "fraud detection not completed",
		}
	}
	if state.Compliance == nil {
		state.Compliance = &model.ComplianceResult{
			Status: model.DecisionRejected,
			Detail: "compliance check not completed",
		}
	}
	return stageResult{next: model.StageDecision}
}

func (e *Engine) decide(state *model.ApplicationState) stageResult {
	verdict, rationale := decision.Decide(state.Credit, state.Fraud, state.Compliance)
	state.Decision = verdict

	slog.Info("decision made",
		"application_id", state.ApplicationID,
		"decision", verdict,
		"rationale", rationale)

	switch verdict {
	case model.DecisionApproved:
		return stageResult{next: model.StageStructuring}
	case model.DecisionHumanReview:
		return stageResult{next: model.StageHumanReview}
	default:
		state.Status = model.StatusDecisionRejected
		return stageResult{next: model.StageEnd}
	}
}

// humanReview suspends the run until a verdict arrives; on the resume pass
// the recorded verdict routes the run onward.
func (e *Engine) humanReview(state *model.ApplicationState) stageResult {
	if state.HumanApproval == "" {
		return stageResult{suspend: &model.ReviewInterrupt{
			ApplicationID:  state.ApplicationID,
			ThreadID:       state.ThreadID,
			CollectionDone: state.DataCollectionStatus == "completed",
			Credit:         state.Credit,
			Fraud:          state.Fraud,
			Compliance:     state.Compliance,
			Decision:       state.Decision,
		}}
	}

	if state.HumanApproval == model.DecisionApproved {
		return stageResult{next: model.StageStructuring}
	}
	state.Status = model.StatusHumanRejected
	return stageResult{next: model.StageEnd}
}

func (e *Engine) structure(state *model.ApplicationState) stageResult {
	data, err := e.structurer.Structure(state)
	if err != nil {
		slog.Error("loan structuring failed",
			"application_id", state.ApplicationID,
			"error", err)
		state.StructuringStatus = model.StageFail
		state.StructuringResult = fmt.Sprintf("Loan structuring aborted: %v", err)
		state.Status = model.StatusContractFailed
		return stageResult{next: model.StageEnd}
	}

	state.Contract = data
	state.StructuringStatus = model.StageSuccess
	state.StructuringResult = "Loan structuring completed. All key parameters are generated."
	return stageResult{next: model.StageGeneration}
}

func (e *Engine) generate(state *model.ApplicationState) stageResult {
	draft, file, err := e.generator.Generate(state.Contract)
	if err != nil {
		slog.Error("contract generation failed",
			"application_id", state.ApplicationID,
			"error", err)
		state.GenerationStatus = model.StageFail
		state.GenerationResult = fmt.Sprintf("Contract generation aborted: %v", err)
		state.Status = model.StatusContractFailed
		return stageResult{next: model.StageEnd}
	}

	state.ContractDraft = draft
	state.ContractFile = file
	state.GenerationStatus = model.StageSuccess
	state.GenerationResult = "Contract generation completed. All key parameters are integrated into the contract draft."
	return stageResult{next: model.StageRegulatoryReview}
}

// businessContext maps the submission flags onto the scenario selectors the
// clause retrieval understands.
func businessContext(bundle *model.ApplicationBundle) model.BusinessContext {
	return model.BusinessContext{
		ForeignResident:         bundle.Personal.ForeignResident,
		UsedVehicle:             bundle.Car.Used,
		CrossBorderRegistration: bundle.Car.CrossBorderRegistration,
		EarlyRepayment:          bundle.Loan.EarlyRepayment,
	}
}

func (e *Engine) review(ctx context.Context, state *model.ApplicationState) stageResult {
	review, err := e.reviewer.Review(ctx, state.ContractDraft, businessContext(&state.Bundle))
	if err != nil {
		slog.Error("contract review failed",
			"application_id", state.ApplicationID,
			"error", err)
		state.ReviewStatus = model.ReviewFail
		state.ReviewResult = fmt.Sprintf("Contract review aborted: %v", err)
		state.Status = model.StatusContractFailed
		return stageResult{next: model.StageEnd}
	}

	state.ReviewStatus = review.OverallResult
	state.ReviewResult = "Contract review completed."
	state.ReviewDetail = review

	if review.OverallResult == model.ReviewApproved {
		return stageResult{next: model.StageContractCompleted}
	}

	if state.ReviseAttempts >= maxReviseAttempts {
		slog.Warn("revision cap reached, escalating",
			"application_id", state.ApplicationID,
			"attempts", state.ReviseAttempts)
		state.Status = model.StatusReviewEscalated
		return stageResult{next: model.StageEnd}
	}
	return stageResult{next: model.StageContractModify}
}

func (e *Engine) modify(ctx context.Context, state *model.ApplicationState) stageResult {
	state.ReviseAttempts++

	var revisions []model.RevisionItem
	if state.ReviewDetail != nil {
		revisions = state.ReviewDetail.Revisions
	}

	if err := e.reviser.Revise(ctx, revisions); err != nil {
		slog.Error("contract modification failed",
			"application_id", state.ApplicationID,
			"error", err)
		state.ModifyStatus = model.StageFail
		state.ModifyResult = fmt.Sprintf("Contract modify aborted: %v", err)
		state.Status = model.StatusContractFailed
		return stageResult{next: model.StageEnd}
	}

	state.ModifyStatus = model.StageSuccess
	state.ModifyResult = "Contract modify completed."
	return stageResult{next: model.StageGeneration}
}
