package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func checkpointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Inspect and maintain workflow checkpoints",
	}

	cmd.AddCommand(checkpointsShowCmd())
	cmd.AddCommand(checkpointsPurgeCmd())
	return cmd
}

func checkpointsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Show the checkpointed state of a workflow thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			state, pending, err := store.NewCheckpointStore().Load(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load checkpoint: %w", err)
			}

			out := map[string]any{"state": state}
			if pending != nil {
				out["pending_review"] = pending
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func checkpointsPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.NewCheckpointStore().PurgeExpired(ctx)
			if err != nil {
				return fmt.Errorf("failed to purge checkpoints: %w", err)
			}
			fmt.Printf("Purged %d expired checkpoint(s).\n", n)
			return nil
		},
	}
}
