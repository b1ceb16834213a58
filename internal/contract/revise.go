package contract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/service"
)

// Reviser applies review revision instructions to the contract template.
// The original template is always backed up before being overwritten so a
// bad revision never destroys the last working version.
type Reviser struct {
	reviser      service.TemplateReviser
	templatePath string
	backupDir    string
	now          func() time.Time
}

// NewReviser creates a template reviser writing backups to backupDir.
func NewReviser(reviser service.TemplateReviser, templatePath, backupDir string) *Reviser {
	return &Reviser{
		reviser:      reviser,
		templatePath: templatePath,
		backupDir:    backupDir,
		now:          time.Now,
	}
}

// Revise backs up the current template, applies every revision instruction
// in one step and writes the revised template back. An empty revision list
// is a no-op.
func (r *Reviser) Revise(ctx context.Context, revisions []model.RevisionItem) error {
	if len(revisions) == 0 {
		slog.Info("no revisions to apply, template unchanged")
		return nil
	}

	original, err := os.ReadFile(r.templatePath)
	if err != nil {
		return fmt.Errorf("reading contract template: %w", err)
	}

	backupPath, err := r.backup(original)
	if err != nil {
		return fmt.Errorf("backing up contract template: %w", err)
	}
	slog.Info("contract template backed up", "path", backupPath)

	revised, err := r.reviser.ReviseTemplate(ctx, string(original), revisions)
	if err != nil {
		return fmt.Errorf("revising contract template: %w", err)
	}
	revised = strings.TrimSpace(revised)
	if revised == "" {
		return fmt.Errorf("template revision produced empty content")
	}

	if err := os.WriteFile(r.templatePath, []byte(revised), 0o644); err != nil {
		return fmt.Errorf("writing revised template: %w", err)
	}

	slog.Info("contract template revised", "revisions", len(revisions))
	return nil
}

// backup copies the template into the backup directory under a
// millisecond-timestamped name, never touching prior backups.
func (r *Reviser) backup(content []byte) (string, error) {
	if err := os.MkdirAll(r.backupDir, 0o755); err != nil {
		return "", err
	}

	base := filepath.Base(r.templatePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	stamp := r.now().Format("20060102_150405.000")
	stamp = strings.Replace(stamp, ".", "", 1)
	backupPath := filepath.Join(r.backupDir, fmt.Sprintf("%s_backup_%s%s", name, stamp, ext))

	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", err
	}
	return backupPath, nil
}
