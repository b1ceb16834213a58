package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/model"
)

// submission is the on-disk format of an application: the form fields plus
// paths to the uploaded documents.
type submission struct {
	ApplicationID string                        `json:"application_id"`
	UserID        string                        `json:"user_id"`
	Personal      model.PersonalInfo            `json:"personal_info"`
	Car           model.CarSelection            `json:"car_selection"`
	Loan          model.LoanDetails             `json:"loan_details"`
	Documents     map[model.DocumentKind]string `json:"documents"`
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <submission.json>",
		Short: "Start a workflow run for a submitted application",
		Long: `Load an application submission and drive it through the pipeline.

The submission file holds the form fields and paths to the four required
documents (idCard, creditReport, salarySlip, employmentProof). A run that
needs human review prints its thread id and suspends; continue it with
'loanflow resume'.`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	bundle, err := loadSubmission(args[0])
	if err != nil {
		return err
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := buildEngine(ctx, store)
	if err != nil {
		return err
	}

	outcome, err := engine.Start(ctx, bundle)
	if err != nil {
		return common.NewUserError("workflow failed", err)
	}

	if outcome.Suspended != nil {
		slog.Info("application awaiting human review",
			"application_id", outcome.State.ApplicationID,
			"thread_id", outcome.Suspended.ThreadID)
		fmt.Printf("Application %s suspended for human review.\n", outcome.State.ApplicationID)
		fmt.Printf("Resume with: loanflow resume %s --status approved|rejected\n", outcome.Suspended.ThreadID)
		return nil
	}

	fmt.Printf("Application %s finished with status %s.\n",
		outcome.State.ApplicationID, outcome.State.Status)
	if outcome.State.ContractFile != nil {
		fmt.Printf("Contract artifact: %s (%d bytes)\n",
			outcome.State.ContractFile.Name, outcome.State.ContractFile.Size)
	}
	return nil
}

func loadSubmission(path string) (*model.ApplicationBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read submission: %w", err)
	}

	var sub submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse submission: %w", err)
	}
	if sub.ApplicationID == "" {
		return nil, fmt.Errorf("submission must have an application_id")
	}

	documents := make(map[model.DocumentKind][]byte, len(sub.Documents))
	for kind, docPath := range sub.Documents {
		blob, err := os.ReadFile(docPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s document: %w", kind, err)
		}
		documents[kind] = blob
	}

	return &model.ApplicationBundle{
		ApplicationID: sub.ApplicationID,
		UserID:        sub.UserID,
		Personal:      sub.Personal,
		Car:           sub.Car,
		Loan:          sub.Loan,
		Documents:     documents,
	}, nil
}
