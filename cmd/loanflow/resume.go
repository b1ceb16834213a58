package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/model"
)

func resumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <thread-id>",
		Short: "Resume a suspended workflow with a review verdict",
		Long: `Deliver a human review verdict to a suspended application and continue
the workflow. The verdict must be approved or rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: runResume,
	}

	cmd.Flags().String("status", "", "review verdict: approved or rejected (required)")
	cmd.Flags().String("feedback", "", "reviewer feedback")
	_ = cmd.MarkFlagRequired("status")

	return cmd
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	threadID := args[0]
	status, _ := cmd.Flags().GetString("status")
	feedback, _ := cmd.Flags().GetString("feedback")

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := buildEngine(ctx, store)
	if err != nil {
		return err
	}

	outcome, err := engine.Resume(ctx, threadID, model.ResumePayload{
		Status:   model.Decision(status),
		Feedback: feedback,
	})
	if err != nil {
		return common.NewUserError("resume failed", err)
	}

	if outcome.Suspended != nil {
		fmt.Printf("Application %s is still suspended.\n", outcome.State.ApplicationID)
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
