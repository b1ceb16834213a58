package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apexfin/loanflow/internal/regsearch"
)

func corpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the compliance clause corpus",
	}

	cmd.AddCommand(corpusLoadCmd())
	return cmd
}

func corpusLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <dir>",
		Short: "Load clause yaml files into the corpus",
		Long: `Read every yaml file in the directory and upsert its clauses into the
database. Base clauses leave the scenario field empty; scenario clauses tag
one of: early_repayment, foreign_borrower, used_vehicle, cross_border.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			clauses, err := regsearch.LoadCorpusDir(args[0])
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveClauses(ctx, clauses); err != nil {
				return fmt.Errorf("failed to save corpus: %w", err)
			}
			fmt.Printf("Loaded %d clause(s).\n", len(clauses))
			return nil
		},
	}
}
