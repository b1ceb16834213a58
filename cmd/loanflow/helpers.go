package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/apexfin/loanflow/internal/contract"
	"github.com/apexfin/loanflow/internal/extract"
	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/regsearch"
	"github.com/apexfin/loanflow/internal/risk"
	"github.com/apexfin/loanflow/internal/storage"
	"github.com/apexfin/loanflow/internal/workflow"
)

// scenarioTags are the clause subsets the search index must cover.
var scenarioTags = []string{"early_repayment", "foreign_borrower", "used_vehicle", "cross_border"}

func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "loanflow"), nil
}

func databasePath() (string, error) {
	if p := viper.GetString("database.path"); p != "" {
		return p, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "loanflow.db"), nil
}

func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// buildEngine wires the full workflow engine around the given storage.
func buildEngine(ctx context.Context, store *storage.SQLiteStorage) (*workflow.Engine, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}

	templatePath := viper.GetString("template.path")
	if templatePath == "" {
		templatePath = filepath.Join(dir, "templates", "loan_contract_template.tmpl")
	}
	backupDir := viper.GetString("template.backup_dir")
	if backupDir == "" {
		backupDir = filepath.Join(dir, "templates", "backup")
	}
	scratchDir := viper.GetString("scratch.dir")
	if scratchDir == "" {
		scratchDir = filepath.Join(os.TempDir(), "loanflow")
	}

	generator, err := contract.NewGenerator(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to set up contract generator: %w", err)
	}

	index, err := buildSearchIndex(ctx, store)
	if err != nil {
		return nil, err
	}

	return workflow.NewEngine(workflow.Config{
		Extractor:   extract.NewExtractor(extract.PlainTextRecognizer{}, scratchDir),
		Credit:      risk.NewCreditRater(risk.EmbeddedFactsParser{}),
		Fraud:       risk.NewFraudDetector(store),
		Compliance:  risk.NewComplianceChecker(index, risk.RuleBasedEvaluator{}),
		Structurer:  contract.NewStructurer(),
		Generator:   generator,
		Reviewer:    contract.NewReviewer(store, index, contract.KeywordClauseChecker{}),
		Reviser:     contract.NewReviser(contract.AppendingReviser{}, templatePath, backupDir),
		Storage:     store,
		Checkpoints: store.NewCheckpointStore(),
	})
}

// buildSearchIndex loads the full clause corpus from storage into the
// in-memory similarity index.
func buildSearchIndex(ctx context.Context, store *storage.SQLiteStorage) (*regsearch.Index, error) {
	var all []model.Clause
	for _, scenario := range append([]string{""}, scenarioTags...) {
		clauses, err := store.GetClauses(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("failed to load clause corpus: %w", err)
		}
		all = append(all, clauses...)
	}
	return regsearch.NewIndex(all), nil
}
