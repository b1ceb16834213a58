package model

// Stage identifies a node in the application workflow graph.
type Stage string

// Workflow stages, in graph order.
const (
	StageDataCollect       Stage = "data_collect"
	StageParallelStart     Stage = "parallel_start"
	StageWaitForChecks     Stage = "wait_for_checks"
	StageDecision          Stage = "decision_making"
	StageHumanReview       Stage = "human_review"
	StageStructuring       Stage = "loan_structuring"
	StageGeneration        Stage = "contract_generation"
	StageRegulatoryReview  Stage = "regulatory_review"
	StageContractModify    Stage = "contract_modify"
	StageContractCompleted Stage = "contract_completed"
	StageEnd               Stage = "end"
)

var validStages = map[Stage]bool{
	StageDataCollect:       true,
	StageParallelStart:     true,
	StageWaitForChecks:     true,
	StageDecision:          true,
	StageHumanReview:       true,
	StageStructuring:       true,
	StageGeneration:        true,
	StageRegulatoryReview:  true,
	StageContractModify:    true,
	StageContractCompleted: true,
	StageEnd:               true,
}

// IsValid returns true if the stage is part of the workflow graph.
func (s Stage) IsValid() bool {
	return validStages[s]
}

// IsTerminal returns true if no further transitions are allowed from the stage.
func (s Stage) IsTerminal() bool {
	return s == StageEnd
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// Decision is the outcome of the decision engine or of a human review.
type Decision string

// Decision outcomes.
const (
	DecisionApproved    Decision = "approved"
	DecisionHumanReview Decision = "human_review"
	DecisionRejected    Decision = "rejected"
)

// IsValid reports whether d is one of the known decision outcomes.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionApproved, DecisionHumanReview, DecisionRejected:
		return true
	}
	return false
}

// StageStatus is the success/failure marker a contract stage leaves behind.
type StageStatus string

// Stage execution statuses.
const (
	StageSuccess StageStatus = "Success"
	StageFail    StageStatus = "Fail"
)

// ReviewStatus is the verdict of the contract regulatory review.
type ReviewStatus string

// Contract review verdicts. Fail means the review itself errored.
const (
	ReviewApproved ReviewStatus = "Approved"
	ReviewRejected ReviewStatus = "Rejected"
	ReviewFail     ReviewStatus = "Fail"
)

// Application-level progress markers persisted in the status column.
const (
	StatusProcessing        = "processing"
	StatusCollectionFailed  = "data_collection_failed"
	StatusDecisionRejected  = "decision_rejected"
	StatusHumanRejected     = "human_review_rejected"
	StatusContractFailed    = "contract_pipeline_failed"
	StatusReviewEscalated   = "contract_review_escalated"
	StatusContractCompleted = "contract_completed"
)
