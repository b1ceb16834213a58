package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apexfin/loanflow/internal/model"
)

// SaveClauses upserts compliance clauses into the corpus in one transaction.
func (s *SQLiteStorage) SaveClauses(ctx context.Context, clauses []model.Clause) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(clauses) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO clauses (id, title, content, check_points, scenario)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			check_points = excluded.check_points,
			scenario = excluded.scenario
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare clause statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, clause := range clauses {
		if clause.ID == "" {
			return fmt.Errorf("clause must have an id")
		}
		checkPoints, marshalErr := json.Marshal(clause.CheckPoints)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal check points for %s: %w", clause.ID, marshalErr)
		}
		if _, execErr := stmt.ExecContext(ctx,
			clause.ID, clause.Title, clause.Content, string(checkPoints), clause.Scenario,
		); execErr != nil {
			return fmt.Errorf("failed to save clause %s: %w", clause.ID, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clauses: %w", err)
	}
	return nil
}

// GetClauses returns the clauses for a scenario tag. An empty scenario
// selects the base corpus applicable to every contract.
func (s *SQLiteStorage) GetClauses(ctx context.Context, scenario string) ([]model.Clause, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, COALESCE(check_points, '[]'), scenario
		FROM clauses WHERE scenario = ? ORDER BY id
	`, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to query clauses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clauses []model.Clause
	for rows.Next() {
		var (
			clause      model.Clause
			checkPoints string
		)
		if err := rows.Scan(&clause.ID, &clause.Title, &clause.Content, &checkPoints, &clause.Scenario); err != nil {
			return nil, fmt.Errorf("failed to scan clause: %w", err)
		}
		if err := json.Unmarshal([]byte(checkPoints), &clause.CheckPoints); err != nil {
			return nil, fmt.Errorf("failed to unmarshal check points for %s: %w", clause.ID, err)
		}
		clauses = append(clauses, clause)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clauses: %w", err)
	}
	return clauses, nil
}
