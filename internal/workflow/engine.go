// Package workflow drives an application through the stage graph: document
// collection, parallel risk checks, decisioning, human review suspension and
// the contract pipeline. A checkpoint is written at every stage boundary so
// a run can resume in another process.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/contract"
	"github.com/apexfin/loanflow/internal/extract"
	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/risk"
	"github.com/apexfin/loanflow/internal/service"
)

const (
	// maxCheckAttempts bounds the fan-in barrier; past it the missing
	// evaluator results degrade to conservative defaults.
	maxCheckAttempts = 10

	// maxReviseAttempts bounds the review/modify loop; past it the run
	// escalates instead of revising again.
	maxReviseAttempts = 5
)

// Engine orchestrates the application workflow.
type Engine struct {
	extractor   *extract.Extractor
	credit      *risk.CreditRater
	fraud       *risk.FraudDetector
	compliance  *risk.ComplianceChecker
	structurer  *contract.Structurer
	generator   *contract.Generator
	reviewer    *contract.Reviewer
	reviser     *contract.Reviser
	storage     service.Storage
	checkpoints service.CheckpointStore
	retryOpts   service.RetryOptions
}

// Config wires the engine's collaborators.
type Config struct {
	Extractor   *extract.Extractor
	Credit      *risk.CreditRater
	Fraud       *risk.FraudDetector
	Compliance  *risk.ComplianceChecker
	Structurer  *contract.Structurer
	Generator   *contract.Generator
	Reviewer    *contract.Reviewer
	Reviser     *contract.Reviser
	Storage     service.Storage
	Checkpoints service.CheckpointStore
}

// NewEngine creates a workflow engine. Every collaborator is required.
func NewEngine(cfg Config) (*Engine, error) {
	switch {
	case cfg.Extractor == nil:
		return nil, fmt.Errorf("extractor is required")
	case cfg.Credit == nil || cfg.Fraud == nil || cfg.Compliance == nil:
		return nil, fmt.Errorf("all three risk evaluators are required")
	case cfg.Structurer == nil || cfg.Generator == nil || cfg.Reviewer == nil || cfg.Reviser == nil:
		return nil, fmt.Errorf("the full contract pipeline is required")
	case cfg.Storage == nil:
		return nil, fmt.Errorf("storage is required")
	case cfg.Checkpoints == nil:
		return nil, fmt.Errorf("checkpoint store is required")
	}
	return &Engine{
		extractor:   cfg.Extractor,
		credit:      cfg.Credit,
		fraud:       cfg.Fraud,
		compliance:  cfg.Compliance,
		structurer:  cfg.Structurer,
		generator:   cfg.Generator,
		reviewer:    cfg.Reviewer,
		reviser:     cfg.Reviser,
		storage:     cfg.Storage,
		checkpoints: cfg.Checkpoints,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// Outcome is what a workflow run hands back: either a terminal state or a
// pending human-review interrupt.
type Outcome struct {
	State     *model.ApplicationState
	Suspended *model.ReviewInterrupt
}

// stageResult routes the run loop. Exactly one of next or suspend is
// meaningful: a non-nil suspend stops the loop at the current stage.
type stageResult struct {
	next    model.Stage
	suspend *model.ReviewInterrupt
}

// Start begins a new workflow run for a submitted application bundle. An
// application that already reached a terminal state cannot be restarted.
func (e *Engine) Start(ctx context.Context, bundle *model.ApplicationBundle) (*Outcome, error) {
	if bundle == nil || bundle.ApplicationID == "" {
		return nil, fmt.Errorf("application bundle must have an application id")
	}

	if _, err := e.storage.GetFinalRecord(ctx, bundle.ApplicationID); err == nil {
		return nil, fmt.Errorf("application %s: %w", bundle.ApplicationID, common.ErrAlreadyTerminal)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("checking final record: %w", err)
	}

	if err := e.storage.SaveApplication(ctx, bundle); err != nil {
		return nil, fmt.Errorf("saving application: %w", err)
	}

	state := &model.ApplicationState{
		ApplicationID: bundle.ApplicationID,
		ThreadID:      uuid.New().String(),
		Bundle:        *bundle,
		Status:        model.StatusProcessing,
	}

	slog.Info("workflow started",
		"application_id", state.ApplicationID,
		"thread_id", state.ThreadID)
	return e.run(ctx, state, model.StageDataCollect)
}

// Resume continues a suspended workflow with the reviewer's verdict. The
// payload status must be approved or rejected; anything else is a protocol
// error. Re-delivering the same payload to an already resumed run returns
// the stored outcome without re-executing anything.
func (e *Engine) Resume(ctx context.Context, threadID string, payload model.ResumePayload) (*Outcome, error) {
	if payload.Status != model.DecisionApproved && payload.Status != model.DecisionRejected {
		return nil, fmt.Errorf("%w: resume status must be approved or rejected, got %q",
			common.ErrResumeProtocol, payload.Status)
	}

	state, pending, err := e.checkpoints.Load(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	if pending == nil {
		// Duplicate delivery of a verdict that already went through is
		// answered from the stored state rather than treated as an error.
		if state.HumanApproval == payload.Status {
			return &Outcome{State: state}, nil
		}
		return nil, fmt.Errorf("thread %s: %w", threadID, common.ErrNotSuspended)
	}

	state.HumanApproval = payload.Status
	state.HumanFeedback = payload.Feedback

	slog.Info("workflow resumed",
		"application_id", state.ApplicationID,
		"thread_id", threadID,
		"verdict", payload.Status)
	return e.run(ctx, state, model.StageHumanReview)
}

// run executes stages until the workflow suspends or reaches a terminal
// state, checkpointing after every stage.
func (e *Engine) run(ctx context.Context, state *model.ApplicationState, stage model.Stage) (*Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := e.step(ctx, state, stage)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage, err)
		}

		if err := e.checkpoints.Save(ctx, state.ThreadID, state, res.suspend); err != nil {
			return nil, fmt.Errorf("checkpointing after %s: %w", stage, err)
		}

		if res.suspend != nil {
			slog.Info("workflow suspended for human review",
				"application_id", state.ApplicationID,
				"thread_id", state.ThreadID)
			return &Outcome{State: state, Suspended: res.suspend}, nil
		}

		if res.next.IsTerminal() {
			if err := e.persistFinal(ctx, state); err != nil {
				return nil, err
			}
			slog.Info("workflow completed",
				"application_id", state.ApplicationID,
				"status", state.Status)
			return &Outcome{State: state}, nil
		}
		stage = res.next
	}
}

func (e *Engine) step(ctx context.Context, state *model.ApplicationState, stage model.Stage) (stageResult, error) {
	switch stage {
	case model.StageDataCollect:
		return e.dataCollect(ctx, state), nil
	case model.StageParallelStart:
		return e.parallelStart(ctx, state), nil
	case model.StageWaitForChecks:
		return e.waitForChecks(state), nil
	case model.StageDecision:
		return e.decide(state), nil
	case model.StageHumanReview:
		return e.humanReview(state), nil
	case model.StageStructuring:
		return e.structure(state), nil
	case model.StageGeneration:
		return e.generate(state), nil
	case model.StageRegulatoryReview:
		return e.review(ctx, state), nil
	case model.StageContractModify:
		return e.modify(ctx, state), nil
	case model.StageContractCompleted:
		state.Status = model.StatusContractCompleted
		return stageResult{next: model.StageEnd}, nil
	default:
		return stageResult{}, fmt.Errorf("%w: %s", common.ErrUnknownStage, stage)
	}
}

// persistFinal writes the terminal record, retrying transient storage
// failures, and clears the pending interrupt from the checkpoint.
func (e *Engine) persistFinal(ctx context.Context, state *model.ApplicationState) error {
	record := state.Final()
	err := common.WithRetry(ctx, func() error {
		return e.storage.SaveFinalRecord(ctx, &record)
	}, e.retryOpts)
	if err != nil {
		return fmt.Errorf("persisting final record: %w", err)
	}
	return nil
}
