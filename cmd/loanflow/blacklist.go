package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func blacklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage the fraud blacklist",
	}

	cmd.AddCommand(blacklistAddCmd())
	cmd.AddCommand(blacklistRemoveCmd())
	cmd.AddCommand(blacklistListCmd())
	return cmd
}

func blacklistAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id-number>",
		Short: "Add an id number to the blacklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reason, _ := cmd.Flags().GetString("reason")

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.AddBlacklistEntry(ctx, args[0], reason); err != nil {
				return fmt.Errorf("failed to add blacklist entry: %w", err)
			}
			fmt.Printf("Blacklisted %s.\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("reason", "", "why the id is blacklisted")
	return cmd
}

func blacklistRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id-number>",
		Short: "Remove an id number from the blacklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.RemoveBlacklistEntry(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove blacklist entry: %w", err)
			}
			fmt.Printf("Removed %s from the blacklist.\n", args[0])
			return nil
		},
	}
}

func blacklistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blacklist entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.ListBlacklist(ctx)
			if err != nil {
				return fmt.Errorf("failed to list blacklist: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("Blacklist is empty.")
				return nil
			}
			for _, entry := range entries {
				fmt.Printf("%s\t%s\t%s\n",
					entry.IDNumber,
					entry.CreatedAt.Format("2006-01-02"),
					entry.Reason)
			}
			return nil
		},
	}
}
