// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/apexfin/loanflow/internal/model"
)

// RetryOptions configures retry behavior for operations against
// collaborators that may fail transiently.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Application records
	SaveApplication(ctx context.Context, bundle *model.ApplicationBundle) error
	GetApplication(ctx context.Context, applicationID string) (*model.ApplicationBundle, error)
	SaveFinalRecord(ctx context.Context, record *model.FinalRecord) error
	GetFinalRecord(ctx context.Context, applicationID string) (*model.FinalRecord, error)

	// Blacklist operations
	AddBlacklistEntry(ctx context.Context, idNumber, reason string) error
	RemoveBlacklistEntry(ctx context.Context, idNumber string) error
	ListBlacklist(ctx context.Context) ([]BlacklistEntry, error)
	LookupBlacklist(ctx context.Context, idNumber string) (*BlacklistEntry, error)

	// Regulation corpus
	SaveClauses(ctx context.Context, clauses []model.Clause) error
	GetClauses(ctx context.Context, scenario string) ([]model.Clause, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// BlacklistEntry is one row of the fraud blacklist, keyed by id number.
type BlacklistEntry struct {
	IDNumber  string
	Reason    string
	CreatedAt time.Time
}

// CheckpointStore persists workflow state keyed by thread identifier so a
// suspended workflow can resume in a different process. Writes are atomic
// per key.
type CheckpointStore interface {
	Save(ctx context.Context, threadID string, state *model.ApplicationState, pending *model.ReviewInterrupt) error
	Load(ctx context.Context, threadID string) (*model.ApplicationState, *model.ReviewInterrupt, error)
	Delete(ctx context.Context, threadID string) error
	PurgeExpired(ctx context.Context) (int, error)
}

// SearchHit is one result from a similarity search.
type SearchHit struct {
	Content  string
	Metadata map[string]string
}

// SimilaritySearch retrieves regulation text relevant to a query,
// optionally filtered by metadata (e.g. scenario tag).
type SimilaritySearch interface {
	Query(ctx context.Context, text string, filter map[string]string, k int) ([]SearchHit, error)
}

// TextRecognizer extracts text lines, ordered top to bottom, from a
// document image or scan on disk. OCR itself is an external concern.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, path string) ([]string, error)
}

// CreditReportParser turns a raw credit report into structured facts.
// Text extraction and interpretation of the report are external concerns.
type CreditReportParser interface {
	ParseReport(ctx context.Context, report []byte) (*model.CreditReportFacts, error)
}

// PolicyEvaluator classifies an applicant against regulation text and
// returns a natural-language verdict for tolerant downstream parsing.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, prompt string) (string, error)
}

// ClauseChecker evaluates a rendered contract against a set of compliance
// clauses and returns a per-clause verdict list.
type ClauseChecker interface {
	CheckClauses(ctx context.Context, contract string, clauses []model.Clause) ([]model.ClauseResult, error)
}

// TemplateReviser applies itemized revision instructions to a contract
// template, preserving structural markup and placeholders.
type TemplateReviser interface {
	ReviseTemplate(ctx context.Context, template string, revisions []model.RevisionItem) (string, error)
}
