package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/model"
)

// SaveApplication upserts the submitted application bundle.
func (s *SQLiteStorage) SaveApplication(ctx context.Context, bundle *model.ApplicationBundle) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if bundle == nil || bundle.ApplicationID == "" {
		return fmt.Errorf("application bundle must have an application id")
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal application bundle: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (application_id, user_id, bundle)
		VALUES (?, ?, ?)
		ON CONFLICT(application_id) DO UPDATE SET
			user_id = excluded.user_id,
			bundle = excluded.bundle,
			updated_at = CURRENT_TIMESTAMP
	`, bundle.ApplicationID, bundle.UserID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	return nil
}

// GetApplication loads a previously saved application bundle.
func (s *SQLiteStorage) GetApplication(ctx context.Context, applicationID string) (*model.ApplicationBundle, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT bundle FROM applications WHERE application_id = ?`,
		applicationID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", applicationID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	var bundle model.ApplicationBundle
	if err := json.Unmarshal([]byte(payload), &bundle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal application bundle: %w", err)
	}
	return &bundle, nil
}

// SaveFinalRecord persists the terminal outcome of a workflow run.
func (s *SQLiteStorage) SaveFinalRecord(ctx context.Context, record *model.FinalRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil || record.ApplicationID == "" {
		return fmt.Errorf("final record must have an application id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO final_records (
			application_id, status,
			loan_structuring_status, contract_generation_status,
			contract_review_status, contract_modify_status,
			contract_file_name, contract_file_type, contract_binary_data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(application_id) DO UPDATE SET
			status = excluded.status,
			loan_structuring_status = excluded.loan_structuring_status,
			contract_generation_status = excluded.contract_generation_status,
			contract_review_status = excluded.contract_review_status,
			contract_modify_status = excluded.contract_modify_status,
			contract_file_name = excluded.contract_file_name,
			contract_file_type = excluded.contract_file_type,
			contract_binary_data = excluded.contract_binary_data
	`,
		record.ApplicationID, record.Status,
		string(record.StructuringStatus), string(record.GenerationStatus),
		string(record.ReviewStatus), string(record.ModifyStatus),
		record.ContractFileName, record.ContractFileType, record.ContractBinaryData,
	)
	if err != nil {
		return fmt.Errorf("failed to save final record: %w", err)
	}
	return nil
}

// GetFinalRecord loads the terminal outcome for an application.
func (s *SQLiteStorage) GetFinalRecord(ctx context.Context, applicationID string) (*model.FinalRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		record                               model.FinalRecord
		structuring, generation, review, mod string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, status,
			COALESCE(loan_structuring_status, ''),
			COALESCE(contract_generation_status, ''),
			COALESCE(contract_review_status, ''),
			COALESCE(contract_modify_status, ''),
			COALESCE(contract_file_name, ''),
			COALESCE(contract_file_type, ''),
			contract_binary_data
		FROM final_records WHERE application_id = ?
	`, applicationID).Scan(
		&record.ApplicationID, &record.Status,
		&structuring, &generation, &review, &mod,
		&record.ContractFileName, &record.ContractFileType,
		&record.ContractBinaryData,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("final record %s: %w", applicationID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load final record: %w", err)
	}

	record.StructuringStatus = model.StageStatus(structuring)
	record.GenerationStatus = model.StageStatus(generation)
	record.ReviewStatus = model.ReviewStatus(review)
	record.ModifyStatus = model.StageStatus(mod)
	return &record, nil
}
