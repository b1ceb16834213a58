package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/model"
)

// CheckpointTTL is how long a checkpoint stays loadable. A suspended
// application a reviewer never acted on expires after this window.
const CheckpointTTL = 24 * time.Hour

// CheckpointStore persists workflow state keyed by thread id so a suspended
// run can resume in a different process. Saves are atomic per key: the row
// is replaced in a single statement.
type CheckpointStore struct {
	db *sql.DB
}

// Save writes the state and the pending interrupt (nil when the workflow is
// not suspended) for the thread.
func (c *CheckpointStore) Save(ctx context.Context, threadID string, state *model.ApplicationState, pending *model.ReviewInterrupt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if threadID == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	statePayload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	var pendingPayload any
	if pending != nil {
		raw, marshalErr := json.Marshal(pending)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal pending interrupt: %w", marshalErr)
		}
		pendingPayload = string(raw)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, state, pending, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(thread_id) DO UPDATE SET
			state = excluded.state,
			pending = excluded.pending,
			updated_at = CURRENT_TIMESTAMP
	`, threadID, string(statePayload), pendingPayload)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load returns the state and pending interrupt for a thread. Expired
// checkpoints report ErrCheckpointStale; unknown threads report ErrNotFound.
func (c *CheckpointStore) Load(ctx context.Context, threadID string) (*model.ApplicationState, *model.ReviewInterrupt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, nil, err
	}

	var (
		statePayload   string
		pendingPayload sql.NullString
		updatedAt      time.Time
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT state, pending, updated_at FROM checkpoints WHERE thread_id = ?`,
		threadID,
	).Scan(&statePayload, &pendingPayload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("checkpoint %s: %w", threadID, common.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if time.Since(updatedAt) > CheckpointTTL {
		return nil, nil, fmt.Errorf("checkpoint %s expired at %s: %w",
			threadID, updatedAt.Add(CheckpointTTL).Format(time.RFC3339), common.ErrCheckpointStale)
	}

	var state model.ApplicationState
	if err := json.Unmarshal([]byte(statePayload), &state); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	var pending *model.ReviewInterrupt
	if pendingPayload.Valid && pendingPayload.String != "" {
		pending = &model.ReviewInterrupt{}
		if err := json.Unmarshal([]byte(pendingPayload.String), pending); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal pending interrupt: %w", err)
		}
	}
	return &state, pending, nil
}

// Delete removes the checkpoint for a thread. Deleting a missing checkpoint
// is not an error.
func (c *CheckpointStore) Delete(ctx context.Context, threadID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := c.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE thread_id = ?`, threadID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// PurgeExpired removes every checkpoint older than the TTL and returns how
// many rows were removed.
func (c *CheckpointStore) PurgeExpired(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	// CURRENT_TIMESTAMP stores UTC text, so the cutoff must be bound as
	// UTC text too or the boundary drifts by the host's UTC offset.
	cutoff := time.Now().UTC().Add(-CheckpointTTL).Format("2006-01-02 15:04:05")
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge checkpoints: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged checkpoints: %w", err)
	}
	return int(n), nil
}
