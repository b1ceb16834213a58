package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/service"
)

// AddBlacklistEntry records an id number on the fraud blacklist. Adding an
// id that is already listed refreshes its reason.
func (s *SQLiteStorage) AddBlacklistEntry(ctx context.Context, idNumber, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if idNumber == "" {
		return fmt.Errorf("id number cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklist (id_number, reason)
		VALUES (?, ?)
		ON CONFLICT(id_number) DO UPDATE SET reason = excluded.reason
	`, idNumber, reason)
	if err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}
	return nil
}

// RemoveBlacklistEntry removes an id number from the blacklist.
func (s *SQLiteStorage) RemoveBlacklistEntry(ctx context.Context, idNumber string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM blacklist WHERE id_number = ?`, idNumber)
	if err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count removed entries: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("blacklist entry %s: %w", idNumber, common.ErrNotFound)
	}
	return nil
}

// ListBlacklist returns every blacklist entry, newest first.
func (s *SQLiteStorage) ListBlacklist(ctx context.Context) ([]service.BlacklistEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id_number, COALESCE(reason, ''), created_at FROM blacklist ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []service.BlacklistEntry
	for rows.Next() {
		var entry service.BlacklistEntry
		if err := rows.Scan(&entry.IDNumber, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blacklist: %w", err)
	}
	return entries, nil
}

// LookupBlacklist returns the entry for an id number, or nil when the id is
// not listed.
func (s *SQLiteStorage) LookupBlacklist(ctx context.Context, idNumber string) (*service.BlacklistEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var entry service.BlacklistEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT id_number, COALESCE(reason, ''), created_at FROM blacklist WHERE id_number = ?`,
		idNumber,
	).Scan(&entry.IDNumber, &entry.Reason, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up blacklist: %w", err)
	}
	return &entry, nil
}
